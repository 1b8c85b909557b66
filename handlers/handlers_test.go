package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ameshram/learnify/db"
	"github.com/ameshram/learnify/logger"
	"github.com/ameshram/learnify/models"
	"github.com/ameshram/learnify/services"
	"github.com/ameshram/learnify/services/llm"
	"github.com/ameshram/learnify/services/prompts"
	"github.com/ameshram/learnify/services/quiz"
	"github.com/ameshram/learnify/services/teaching"

	logtest "github.com/sirupsen/logrus/hooks/test"
)

type stubGateway struct {
	fragments   []string
	quizReply   string
	insights    string
	insightsErr error
}

func (g *stubGateway) StreamText(ctx context.Context, system, user string, opts ...llm.CallOption) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, f := range g.fragments {
			if !yield(f) {
				return
			}
		}
	}
}

func (g *stubGateway) GenerateText(ctx context.Context, system, user string, opts ...llm.CallOption) (string, error) {
	if system == prompts.InsightsSystemPrompt {
		return g.insights, g.insightsErr
	}
	return g.quizReply, nil
}

func (g *stubGateway) Usage() models.UsageStats {
	return models.UsageStats{InputTokens: 10, OutputTokens: 20, TotalTokens: 30}
}

func photosynthesisQuiz() string {
	var questions []string
	concepts := []string{"Light reactions", "Chlorophyll", "Calvin cycle", "Energy storage"}
	for i, concept := range concepts {
		var options []string
		for _, id := range []string{"A", "B", "C", "D"} {
			options = append(options, fmt.Sprintf(
				`{"id":%q,"text":"Option %s","is_correct":%t,"feedback":"Feedback %s","understanding":"Understanding %s"}`,
				id, id, id == "B", id, id))
		}
		questions = append(questions, fmt.Sprintf(`{"id":%d,"question":"Question %d?","concept_tested":%q,"options":[%s]}`,
			i+1, i+1, concept, strings.Join(options, ",")))
	}
	return "```json\n" + `{"questions":[` + strings.Join(questions, ",") + "]}\n```"
}

type testServer struct {
	*httptest.Server
	gateway  *stubGateway
	live     *db.LiveStore
	sessions *services.SessionService
}

func newTestServer(t *testing.T, rateLimit int) *testServer {
	t.Helper()

	conn, err := db.Open(context.Background(), db.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "learnify.db"))
	if err != nil {
		t.Fatalf("db.Open() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	gateway := &stubGateway{
		fragments: []string{"## The Question", " We're Answering\n", "Light becomes sugar."},
		quizReply: photosynthesisQuiz(),
		insights:  "You did well.",
	}
	live := db.NewLiveStore(time.Hour)
	sessions := services.NewSessionService(db.NewSQLSessionRepository(conn))

	handler := NewRouter(RouterConfig{RateLimitPerMinute: rateLimit, CORSOrigins: []string{"*"}},
		NewTeachHandler(teaching.NewService(gateway, 4096), sessions, live),
		NewQuizHandler(quiz.NewService(gateway, 2048), sessions, live, gateway, 1024),
		NewSessionHandler(sessions),
		NewUsageHandler(gateway),
	)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, gateway: gateway, live: live, sessions: sessions}
}

func (s *testServer) do(t *testing.T, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(method, s.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("http.NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

// teach runs the SSE endpoint and returns the decoded events.
func (s *testServer) teach(t *testing.T, body string) (*http.Response, []map[string]any) {
	t.Helper()

	resp, err := http.Post(s.URL+"/api/teach", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/teach error = %v", err)
	}
	defer resp.Body.Close()

	var events []map[string]any
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var event map[string]any
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
			t.Fatalf("invalid event %q: %v", line, err)
		}
		events = append(events, event)
	}
	return resp, events
}

func TestTeachStreamsEvents(t *testing.T) {
	srv := newTestServer(t, 100)

	resp, events := srv.teach(t, `{"topic":"Photosynthesis","difficulty":"beginner"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	if resp.Header.Get("Cache-Control") != "no-cache" || resp.Header.Get("X-Accel-Buffering") != "no" {
		t.Errorf("streaming headers missing: %v", resp.Header)
	}

	if len(events) != 4 {
		t.Fatalf("expected 3 content events and done, got %v", events)
	}

	var content strings.Builder
	for _, e := range events[:3] {
		content.WriteString(e["content"].(string))
	}
	expected := strings.Join(srv.gateway.fragments, "")
	if content.String() != expected {
		t.Errorf("streamed content = %q, expected %q", content.String(), expected)
	}

	done := events[3]
	if done["done"] != true {
		t.Fatalf("last event = %v", done)
	}
	sessionID := done["session_id"].(string)

	if live, ok := srv.live.Content(sessionID); !ok || live != expected {
		t.Errorf("live content = %q, %v", live, ok)
	}
	stored, err := srv.sessions.GetSession(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if stored.TeachingContent == nil || *stored.TeachingContent != expected {
		t.Errorf("stored content = %v", stored.TeachingContent)
	}
	if stored.Difficulty != models.DifficultyBeginner {
		t.Errorf("difficulty = %q", stored.Difficulty)
	}
}

func TestTeachValidation(t *testing.T) {
	srv := newTestServer(t, 100)

	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{name: "invalid json", body: `{`, expected: "Invalid JSON payload"},
		{name: "missing topic", body: `{"difficulty":"beginner"}`, expected: "Topic is required"},
		{name: "short topic", body: `{"topic":"a"}`, expected: "Topic must be at least 2 characters"},
		{name: "invalid characters", body: `{"topic":"maps {k: v}"}`, expected: "Topic contains invalid characters"},
		{name: "bad difficulty", body: `{"topic":"Go","difficulty":"expert"}`, expected: "Difficulty must be one of: beginner, intermediate, advanced"},
		{name: "empty difficulty", body: `{"topic":"Go","difficulty":""}`, expected: "Difficulty must be one of: beginner, intermediate, advanced"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := srv.do(t, http.MethodPost, "/api/teach", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, expected 400", resp.StatusCode)
			}
			if body["error"] != tt.expected {
				t.Errorf("error = %v, expected %q", body["error"], tt.expected)
			}
		})
	}
}

func TestQuizFlow(t *testing.T) {
	srv := newTestServer(t, 100)

	_, events := srv.teach(t, `{"topic":"Photosynthesis","difficulty":"beginner"}`)
	sessionID := events[len(events)-1]["session_id"].(string)

	resp, generated := srv.do(t, http.MethodPost, "/api/quiz/generate/"+sessionID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate status = %d body = %v", resp.StatusCode, generated)
	}
	if generated["total"] != float64(4) {
		t.Errorf("total = %v", generated["total"])
	}
	questions := generated["questions"].([]any)
	firstOption := questions[0].(map[string]any)["options"].([]any)[0].(map[string]any)
	if _, leaked := firstOption["is_correct"]; leaked {
		t.Errorf("option correctness leaked to client: %v", firstOption)
	}

	answers := []struct {
		question int
		option   string
		correct  bool
	}{{1, "B", true}, {2, "B", true}, {3, "A", false}, {4, "B", true}}
	for _, a := range answers {
		resp, result := srv.do(t, http.MethodPost, "/api/quiz/submit/"+sessionID,
			fmt.Sprintf(`{"question_id":%d,"selected_option":%q}`, a.question, a.option))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("submit status = %d body = %v", resp.StatusCode, result)
		}
		if result["is_correct"] != a.correct {
			t.Errorf("question %d is_correct = %v", a.question, result["is_correct"])
		}
		if result["feedback"] != "Feedback "+a.option {
			t.Errorf("feedback = %v", result["feedback"])
		}
	}

	resp, completed := srv.do(t, http.MethodPost, "/api/quiz/complete/"+sessionID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("complete status = %d body = %v", resp.StatusCode, completed)
	}
	if completed["score"] != float64(3) || completed["total"] != float64(4) || completed["percentage"] != 75.0 {
		t.Errorf("complete = %v", completed)
	}
	analysis := completed["analysis"].(map[string]any)
	if analysis["strengths"].([]any)[0] != "Strong overall understanding" {
		t.Errorf("strengths = %v", analysis["strengths"])
	}

	resp, insights := srv.do(t, http.MethodGet, "/api/insights/"+sessionID, "")
	if resp.StatusCode != http.StatusOK || insights["insights"] != "You did well." {
		t.Errorf("insights = %d %v", resp.StatusCode, insights)
	}

	resp, history := srv.do(t, http.MethodGet, "/api/history", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("history status = %d", resp.StatusCode)
	}
	stats := history["stats"].(map[string]any)
	if stats["completed_sessions"] != float64(1) || stats["average_score"] != 75.0 {
		t.Errorf("stats = %v", stats)
	}

	resp, session := srv.do(t, http.MethodGet, "/api/sessions/"+sessionID, "")
	if resp.StatusCode != http.StatusOK || session["score"] != float64(3) {
		t.Errorf("session = %d %v", resp.StatusCode, session)
	}

	resp, usage := srv.do(t, http.MethodGet, "/api/usage", "")
	if resp.StatusCode != http.StatusOK || usage["total_tokens"] != float64(30) {
		t.Errorf("usage = %d %v", resp.StatusCode, usage)
	}
}

func TestGenerateQuizFallsBackToStoredContent(t *testing.T) {
	srv := newTestServer(t, 100)
	ctx := context.Background()

	session, err := srv.sessions.CreateSession(ctx, "Photosynthesis", models.DifficultyBeginner)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	resp, body := srv.do(t, http.MethodPost, "/api/quiz/generate/"+session.ID, "")
	if resp.StatusCode != http.StatusNotFound || body["error"] != "Session not found" {
		t.Errorf("without content: %d %v", resp.StatusCode, body)
	}

	if err := srv.sessions.SaveTeachingContent(ctx, session.ID, "Stored lesson"); err != nil {
		t.Fatalf("SaveTeachingContent() error = %v", err)
	}
	resp, body = srv.do(t, http.MethodPost, "/api/quiz/generate/"+session.ID, "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("with stored content: %d %v", resp.StatusCode, body)
	}
}

func TestQuizErrors(t *testing.T) {
	srv := newTestServer(t, 100)

	_, events := srv.teach(t, `{"topic":"Photosynthesis"}`)
	sessionID := events[len(events)-1]["session_id"].(string)

	resp, body := srv.do(t, http.MethodPost, "/api/quiz/submit/"+sessionID, `{"question_id":1,"selected_option":"A"}`)
	if resp.StatusCode != http.StatusNotFound || body["error"] != "Quiz not found" {
		t.Errorf("submit before generate: %d %v", resp.StatusCode, body)
	}

	if resp, _ := srv.do(t, http.MethodPost, "/api/quiz/generate/"+sessionID, ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("generate status = %d", resp.StatusCode)
	}

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "unknown question", body: `{"question_id":999,"selected_option":"A"}`, status: http.StatusBadRequest},
		{name: "unknown option", body: `{"question_id":1,"selected_option":"Z"}`, status: http.StatusBadRequest},
		{name: "invalid json", body: `not json`, status: http.StatusBadRequest},
		{name: "first answer", body: `{"question_id":1,"selected_option":"A"}`, status: http.StatusOK},
		{name: "duplicate answer", body: `{"question_id":1,"selected_option":"B"}`, status: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := srv.do(t, http.MethodPost, "/api/quiz/submit/"+sessionID, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, expected %d (%v)", resp.StatusCode, tt.status, body)
			}
		})
	}

	resp, body = srv.do(t, http.MethodPost, "/api/quiz/complete/unknown", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("complete unknown: %d %v", resp.StatusCode, body)
	}
}

func TestInsightsWithoutQuiz(t *testing.T) {
	srv := newTestServer(t, 100)

	session, err := srv.sessions.CreateSession(context.Background(), "Recursion", models.DifficultyAdvanced)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	resp, body := srv.do(t, http.MethodGet, "/api/insights/"+session.ID, "")
	if resp.StatusCode != http.StatusOK || body["insights"] != completeQuizHint {
		t.Errorf("insights = %d %v", resp.StatusCode, body)
	}

	resp, body = srv.do(t, http.MethodGet, "/api/insights/00000000-0000-0000-0000-000000000000", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown session insights = %d %v", resp.StatusCode, body)
	}
}

func TestGetSessionErrors(t *testing.T) {
	srv := newTestServer(t, 100)

	if resp, _ := srv.do(t, http.MethodGet, "/api/sessions/not-a-uuid", ""); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid id status = %d", resp.StatusCode)
	}
	if resp, _ := srv.do(t, http.MethodGet, "/api/sessions/00000000-0000-0000-0000-000000000000", ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown id status = %d", resp.StatusCode)
	}
	if resp, _ := srv.do(t, http.MethodGet, "/api/sessions/00000000-0000-0000-0000-000000000000/related", ""); resp.StatusCode != http.StatusNotImplemented {
		t.Errorf("related without index status = %d", resp.StatusCode)
	}
}

func TestSecurityHeadersAndHealth(t *testing.T) {
	srv := newTestServer(t, 100)

	resp, body := srv.do(t, http.MethodGet, "/health", "")
	if resp.StatusCode != http.StatusOK || body["status"] != "healthy" {
		t.Errorf("health = %d %v", resp.StatusCode, body)
	}

	expected := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "SAMEORIGIN",
		"X-XSS-Protection":       "1; mode=block",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
		"Permissions-Policy":     "geolocation=(), microphone=(), camera=()",
	}
	for header, value := range expected {
		if got := resp.Header.Get(header); got != value {
			t.Errorf("%s = %q, expected %q", header, got, value)
		}
	}
	if resp.Header.Get(requestIDHeader) == "" {
		t.Errorf("missing %s header", requestIDHeader)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	srv := newTestServer(t, 2)

	for i := 0; i < 2; i++ {
		if resp, _ := srv.do(t, http.MethodGet, "/api/usage", ""); resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d status = %d", i+1, resp.StatusCode)
		}
	}

	resp, body := srv.do(t, http.MethodGet, "/api/usage", "")
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, expected 429", resp.StatusCode)
	}
	if body["error"] != "Rate limit exceeded" || body["retry_after"] != float64(60) {
		t.Errorf("body = %v", body)
	}

	if resp, _ := srv.do(t, http.MethodGet, "/health", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("health must not be rate limited, got %d", resp.StatusCode)
	}
}

func TestRateLimiterSlidingWindow(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	if !limiter.Allow("a") || !limiter.Allow("a") {
		t.Fatal("first two requests should be allowed")
	}
	if limiter.Allow("a") {
		t.Error("third request inside the window should be rejected")
	}
	if !limiter.Allow("b") {
		t.Error("clients are limited independently")
	}
	if limiter.Remaining("a") != 0 || limiter.Remaining("b") != 1 {
		t.Errorf("remaining a=%d b=%d", limiter.Remaining("a"), limiter.Remaining("b"))
	}

	now = now.Add(61 * time.Second)
	if !limiter.Allow("a") {
		t.Error("request after the window should be allowed")
	}
}

func TestRateLimiterForgetsIdleClients(t *testing.T) {
	limiter := NewRateLimiter(5, time.Minute)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 50; i++ {
		limiter.Allow(fmt.Sprintf("10.0.0.%d", i))
	}
	if len(limiter.requests) != 50 {
		t.Fatalf("tracked clients = %d, expected 50", len(limiter.requests))
	}

	now = now.Add(2 * time.Minute)
	if !limiter.Allow("10.0.1.1") {
		t.Fatal("new client should be allowed")
	}
	if len(limiter.requests) != 1 {
		t.Errorf("tracked clients after idle window = %d, expected 1", len(limiter.requests))
	}
	if _, ok := limiter.requests["10.0.1.1"]; !ok {
		t.Error("active client was dropped")
	}
}

// brokenPipeWriter fails every write whose payload contains failOn.
type brokenPipeWriter struct {
	header http.Header
	failOn string
	body   strings.Builder
}

func (w *brokenPipeWriter) Header() http.Header { return w.header }

func (w *brokenPipeWriter) WriteHeader(int) {}

func (w *brokenPipeWriter) Write(p []byte) (int, error) {
	if strings.Contains(string(p), w.failOn) {
		return 0, errors.New("write: broken pipe")
	}
	return w.body.Write(p)
}

func (w *brokenPipeWriter) Flush() {}

func TestTeachLogsFailedDoneEvent(t *testing.T) {
	srv := newTestServer(t, 100)
	hook := logtest.NewLocal(logger.Logger())
	defer hook.Reset()

	handler := NewTeachHandler(teaching.NewService(srv.gateway, 4096), srv.sessions, srv.live)
	w := &brokenPipeWriter{header: http.Header{}, failOn: `"done"`}
	req := httptest.NewRequest(http.MethodPost, "/api/teach", strings.NewReader(`{"topic":"Photosynthesis"}`))

	handler.Teach(w, req)

	if strings.Contains(w.body.String(), `"done"`) {
		t.Fatalf("done event should not have been written: %q", w.body.String())
	}
	if !strings.Contains(w.body.String(), "Light becomes sugar.") {
		t.Errorf("content events missing: %q", w.body.String())
	}

	var logged bool
	for _, entry := range hook.AllEntries() {
		if entry.Message == "Client went away before the done event" && entry.Data["error"] != nil {
			logged = true
		}
	}
	if !logged {
		t.Error("failed done event write was not logged")
	}
	for _, entry := range hook.AllEntries() {
		if entry.Message == "Successfully completed teaching stream" {
			t.Error("stream reported success after the done event failed")
		}
	}
}
