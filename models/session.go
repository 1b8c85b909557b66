package models

import (
	"encoding/json"
	"time"
)

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

var Difficulties = []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}

// Session is one teaching-then-quiz interaction as persisted in learning_sessions.
type Session struct {
	ID              string          `json:"session_id" db:"session_id"`
	Topic           string          `json:"topic" db:"topic"`
	Difficulty      Difficulty      `json:"difficulty" db:"difficulty"`
	TeachingContent *string         `json:"teaching_content,omitempty" db:"teaching_content"`
	QuizData        json.RawMessage `json:"quiz_data,omitempty" db:"quiz_data"`
	Score           *int            `json:"score" db:"score"`
	TotalQuestions  *int            `json:"total_questions" db:"total_questions"`
	Percentage      *float64        `json:"percentage" db:"percentage"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
}

// Completed reports whether quiz results have been recorded.
func (s *Session) Completed() bool {
	return s.CompletedAt != nil
}

// SessionSummary is the history view of a session, without content or quiz blob.
type SessionSummary struct {
	ID             string     `json:"session_id"`
	Topic          string     `json:"topic"`
	Difficulty     Difficulty `json:"difficulty"`
	Score          *int       `json:"score"`
	TotalQuestions *int       `json:"total_questions"`
	Percentage     *float64   `json:"percentage"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at"`
}

func (s *Session) Summary() SessionSummary {
	return SessionSummary{
		ID:             s.ID,
		Topic:          s.Topic,
		Difficulty:     s.Difficulty,
		Score:          s.Score,
		TotalQuestions: s.TotalQuestions,
		Percentage:     s.Percentage,
		CreatedAt:      s.CreatedAt,
		CompletedAt:    s.CompletedAt,
	}
}

type SessionStats struct {
	TotalSessions     int     `json:"total_sessions"`
	CompletedSessions int     `json:"completed_sessions"`
	AverageScore      float64 `json:"average_score"`
	UniqueTopics      int     `json:"unique_topics"`
}

// TeachRequest is the body of a teaching request. Difficulty is nil when the key is absent.
type TeachRequest struct {
	Topic      string  `json:"topic"`
	Difficulty *string `json:"difficulty"`
}

type HistoryResponse struct {
	Sessions []SessionSummary `json:"sessions"`
	Stats    SessionStats     `json:"stats"`
}

type InsightsResponse struct {
	Insights string `json:"insights"`
}

// RelatedSession is a previously studied session close to a topic in embedding space.
type RelatedSession struct {
	SessionID  string  `json:"session_id"`
	Topic      string  `json:"topic"`
	Difficulty string  `json:"difficulty"`
	Score      float32 `json:"score"`
}
