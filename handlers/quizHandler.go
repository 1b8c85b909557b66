package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ameshram/learnify/db"
	"github.com/ameshram/learnify/logger"
	"github.com/ameshram/learnify/models"
	"github.com/ameshram/learnify/services"
	"github.com/ameshram/learnify/services/llm"
	"github.com/ameshram/learnify/services/quiz"

	"github.com/gorilla/mux"
)

const (
	fallbackTopic    = "General Topic"
	completeQuizHint = "Complete the quiz to see personalized insights."
)

type QuizHandler struct {
	quiz              *quiz.Service
	sessions          *services.SessionService
	live              *db.LiveStore
	llm               llm.Gateway
	insightsMaxTokens int64
}

func NewQuizHandler(quizService *quiz.Service, sessions *services.SessionService, live *db.LiveStore, gateway llm.Gateway, insightsMaxTokens int64) *QuizHandler {
	return &QuizHandler{
		quiz:              quizService,
		sessions:          sessions,
		live:              live,
		llm:               gateway,
		insightsMaxTokens: insightsMaxTokens,
	}
}

func (h *QuizHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/quiz/generate/{session_id}", h.GenerateQuiz).Methods("POST")
	router.HandleFunc("/quiz/submit/{session_id}", h.SubmitAnswer).Methods("POST")
	router.HandleFunc("/quiz/complete/{session_id}", h.CompleteQuiz).Methods("POST")
	router.HandleFunc("/insights/{session_id}", h.Insights).Methods("GET")
}

// storedSession looks the session up in the repository. A missing session is not an error.
func (h *QuizHandler) storedSession(r *http.Request, id string) (*models.Session, error) {
	session, err := h.sessions.GetSession(r.Context(), id)
	if err != nil {
		var validationErr *services.ValidationError
		if errors.Is(err, db.ErrSessionNotFound) || errors.As(err, &validationErr) {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

func (h *QuizHandler) GenerateQuiz(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["session_id"]
	log := logger.WithContext(r.Context()).WithField("session_id", id)
	log.Info("Received quiz generation request")

	session, err := h.storedSession(r, id)
	if err != nil {
		writeServiceError(w, r, err, "Failed to load session")
		return
	}

	content, ok := h.live.Content(id)
	if !ok {
		if session == nil || session.TeachingContent == nil || *session.TeachingContent == "" {
			writeErrorResponse(w, http.StatusNotFound, "Session not found")
			return
		}
		content = *session.TeachingContent
	}

	topic, difficulty := fallbackTopic, string(models.DifficultyIntermediate)
	if session != nil {
		topic, difficulty = session.Topic, string(session.Difficulty)
	}

	generated, err := h.quiz.GenerateQuiz(r.Context(), topic, content, quiz.DefaultQuestionCount, difficulty)
	if err != nil {
		writeServiceError(w, r, err, "Failed to generate quiz")
		return
	}

	h.live.PutQuiz(id, generated)

	log.Info("Quiz generation completed successfully")
	writeJSONResponse(w, http.StatusOK, models.GenerateQuizResponse{
		Questions: generated.PublicQuestions(),
		Total:     generated.Total(),
	})
}

func (h *QuizHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["session_id"]

	var req models.SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	var result models.Result
	err := h.live.WithQuiz(id, func(q *models.Quiz) error {
		var err error
		result, err = quiz.SubmitAnswer(q, req.QuestionID, req.SelectedOption)
		return err
	})
	if err != nil {
		writeServiceError(w, r, err, "Failed to submit answer")
		return
	}

	writeJSONResponse(w, http.StatusOK, models.SubmitAnswerResponse{
		IsCorrect:     result.IsCorrect,
		Feedback:      result.Feedback,
		Understanding: result.Understanding,
		ConceptTested: result.ConceptTested,
	})
}

func (h *QuizHandler) CompleteQuiz(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["session_id"]
	log := logger.WithContext(r.Context()).WithField("session_id", id)

	var (
		snapshot models.QuizSnapshot
		analysis models.Analysis
	)
	err := h.live.WithQuiz(id, func(q *models.Quiz) error {
		snapshot = q.Snapshot()
		analysis = quiz.PerformanceAnalysis(q)
		return nil
	})
	if err != nil {
		writeServiceError(w, r, err, "Failed to complete quiz")
		return
	}

	if err := h.sessions.CompleteQuiz(r.Context(), id, snapshot); err != nil {
		if !errors.Is(err, db.ErrSessionNotFound) {
			writeServiceError(w, r, err, "Failed to save quiz results")
			return
		}
		log.Warn("Completed quiz has no stored session")
	}

	writeJSONResponse(w, http.StatusOK, models.CompleteQuizResponse{
		Score:      snapshot.Score,
		Total:      snapshot.Total,
		Percentage: snapshot.Percentage,
		Analysis:   analysis,
	})
}

func (h *QuizHandler) Insights(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["session_id"]

	var (
		score, total int
		wrong        []string
	)
	quizErr := h.live.WithQuiz(id, func(q *models.Quiz) error {
		score, total, wrong = q.Score(), q.Total(), q.WrongConcepts()
		return nil
	})
	if quizErr != nil && !errors.Is(quizErr, db.ErrQuizNotFound) {
		writeServiceError(w, r, quizErr, "Failed to load quiz")
		return
	}

	session, err := h.storedSession(r, id)
	if err != nil {
		writeServiceError(w, r, err, "Failed to load session")
		return
	}

	if quizErr != nil {
		if session == nil {
			writeErrorResponse(w, http.StatusNotFound, "Session not found")
			return
		}
		writeJSONResponse(w, http.StatusOK, models.InsightsResponse{Insights: completeQuizHint})
		return
	}

	topic := "Topic"
	if session != nil {
		topic = session.Topic
	}

	insights := llm.GenerateInsights(r.Context(), h.llm, topic, score, total, wrong, h.insightsMaxTokens)
	writeJSONResponse(w, http.StatusOK, models.InsightsResponse{Insights: insights})
}
