package quiz

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ameshram/learnify/models"

	"github.com/samber/lo"
)

const defaultConcept = "General understanding"

var validOptionIDs = []string{"A", "B", "C", "D"}

// ParseError reports a model reply that is not a usable quiz.
type ParseError struct {
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse quiz response: %v", e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

func parseErrorf(format string, args ...any) *ParseError {
	return &ParseError{Cause: fmt.Errorf(format, args...)}
}

// stripCodeFence removes a surrounding markdown fence by dropping the first and last lines.
func stripCodeFence(raw string) string {
	clean := strings.TrimSpace(raw)
	if !strings.HasPrefix(clean, "```") {
		return clean
	}

	lines := strings.Split(clean, "\n")
	if len(lines) < 2 {
		return ""
	}
	return strings.Join(lines[1:len(lines)-1], "\n")
}

// ParseQuiz turns a model reply into a Quiz. When questionCount is positive the reply must
// contain exactly that many questions. No partial quiz is ever returned.
func ParseQuiz(topic, raw string, questionCount int) (*models.Quiz, error) {
	var payload models.QuizPayload
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &payload); err != nil {
		return nil, &ParseError{Cause: err}
	}

	if len(payload.Questions) == 0 {
		return nil, &ParseError{Cause: errors.New("no questions in response")}
	}
	if questionCount > 0 && len(payload.Questions) != questionCount {
		return nil, parseErrorf("expected %d questions, got %d", questionCount, len(payload.Questions))
	}

	questions := make([]models.Question, 0, len(payload.Questions))
	seen := make(map[int]bool, len(payload.Questions))

	for i, qp := range payload.Questions {
		question, err := parseQuestion(qp)
		if err != nil {
			return nil, parseErrorf("question %d: %w", i+1, err)
		}
		if seen[question.ID] {
			return nil, parseErrorf("duplicate question id %d", question.ID)
		}
		seen[question.ID] = true
		questions = append(questions, question)
	}

	return &models.Quiz{
		Topic:     topic,
		Questions: questions,
		Results:   []models.Result{},
	}, nil
}

func parseQuestion(qp models.QuestionPayload) (models.Question, error) {
	if qp.ID == nil {
		return models.Question{}, errors.New("missing id")
	}
	if qp.Question == nil || strings.TrimSpace(*qp.Question) == "" {
		return models.Question{}, errors.New("missing question text")
	}
	if len(qp.Options) != len(validOptionIDs) {
		return models.Question{}, fmt.Errorf("expected %d options, got %d", len(validOptionIDs), len(qp.Options))
	}

	options := make([]models.Option, 0, len(qp.Options))
	for _, op := range qp.Options {
		switch {
		case op.ID == nil:
			return models.Question{}, errors.New("option missing id")
		case op.Text == nil:
			return models.Question{}, fmt.Errorf("option %s missing text", *op.ID)
		case op.IsCorrect == nil:
			return models.Question{}, fmt.Errorf("option %s missing is_correct", *op.ID)
		case op.Feedback == nil:
			return models.Question{}, fmt.Errorf("option %s missing feedback", *op.ID)
		case op.Understanding == nil:
			return models.Question{}, fmt.Errorf("option %s missing understanding", *op.ID)
		}
		options = append(options, models.Option{
			ID:            *op.ID,
			Text:          *op.Text,
			IsCorrect:     *op.IsCorrect,
			Feedback:      *op.Feedback,
			Understanding: *op.Understanding,
		})
	}

	ids := lo.Map(options, func(o models.Option, _ int) string { return o.ID })
	if len(lo.Uniq(ids)) != len(ids) {
		return models.Question{}, fmt.Errorf("duplicate option ids %v", ids)
	}
	if !lo.Every(validOptionIDs, ids) {
		return models.Question{}, fmt.Errorf("option ids must be %v, got %v", validOptionIDs, ids)
	}
	if correct := lo.CountBy(options, func(o models.Option) bool { return o.IsCorrect }); correct != 1 {
		return models.Question{}, fmt.Errorf("expected exactly one correct option, got %d", correct)
	}

	concept := strings.TrimSpace(qp.ConceptTested)
	if concept == "" {
		concept = defaultConcept
	}

	return models.Question{
		ID:            *qp.ID,
		Question:      *qp.Question,
		ConceptTested: concept,
		Options:       options,
	}, nil
}
