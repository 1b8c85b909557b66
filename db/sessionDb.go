package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ameshram/learnify/models"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository interface {
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	UpdateTeachingContent(ctx context.Context, id, content string) error
	UpdateQuizResults(ctx context.Context, id string, snapshot models.QuizSnapshot) error
	ListRecent(ctx context.Context, limit int) ([]*models.Session, error)
	Stats(ctx context.Context) (models.SessionStats, error)
}

// SQLSessionRepository stores sessions in learning_sessions. Timestamps are unix milliseconds.
type SQLSessionRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLSessionRepository(db *sql.DB) *SQLSessionRepository {
	return &SQLSessionRepository{db: db, now: time.Now}
}

const sessionColumns = `session_id, topic, difficulty, teaching_content, quiz_data, score, total_questions, percentage, created_at, completed_at`

func (r *SQLSessionRepository) CreateSession(ctx context.Context, session *models.Session) error {
	if session.Difficulty == "" {
		session.Difficulty = models.DifficultyIntermediate
	}
	session.CreatedAt = r.now().UTC().Truncate(time.Millisecond)

	query := `
		INSERT INTO learning_sessions (session_id, topic, difficulty, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query, session.ID, session.Topic, string(session.Difficulty), session.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

func (r *SQLSessionRepository) GetSession(ctx context.Context, id string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM learning_sessions WHERE session_id = $1`

	session, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

func (r *SQLSessionRepository) UpdateTeachingContent(ctx context.Context, id, content string) error {
	query := `UPDATE learning_sessions SET teaching_content = $1 WHERE session_id = $2`

	result, err := r.db.ExecContext(ctx, query, content, id)
	if err != nil {
		return fmt.Errorf("failed to update teaching content: %w", err)
	}

	return requireRow(result, id)
}

func (r *SQLSessionRepository) UpdateQuizResults(ctx context.Context, id string, snapshot models.QuizSnapshot) error {
	quizData, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal quiz data: %w", err)
	}

	query := `
		UPDATE learning_sessions
		SET quiz_data = $1, score = $2, total_questions = $3, percentage = $4, completed_at = $5
		WHERE session_id = $6`

	result, err := r.db.ExecContext(ctx, query,
		string(quizData),
		snapshot.Score,
		snapshot.Total,
		models.Percentage(snapshot.Score, snapshot.Total),
		r.now().UTC().UnixMilli(),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update quiz results: %w", err)
	}

	return requireRow(result, id)
}

// ListRecent returns up to limit sessions, newest first.
func (r *SQLSessionRepository) ListRecent(ctx context.Context, limit int) ([]*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM learning_sessions ORDER BY created_at DESC, id DESC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]*models.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over sessions: %w", err)
	}

	return sessions, nil
}

func (r *SQLSessionRepository) Stats(ctx context.Context) (models.SessionStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(completed_at),
			AVG(CASE WHEN completed_at IS NOT NULL THEN percentage END),
			COUNT(DISTINCT topic)
		FROM learning_sessions`

	var stats models.SessionStats
	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx, query).Scan(&stats.TotalSessions, &stats.CompletedSessions, &avg, &stats.UniqueTopics)
	if err != nil {
		return models.SessionStats{}, fmt.Errorf("failed to get session stats: %w", err)
	}

	if avg.Valid {
		stats.AverageScore = math.Round(avg.Float64*10) / 10
	}

	return stats, nil
}

func (r *SQLSessionRepository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var (
		session     models.Session
		difficulty  string
		content     sql.NullString
		quizData    sql.NullString
		score       sql.NullInt64
		total       sql.NullInt64
		percentage  sql.NullFloat64
		createdAt   int64
		completedAt sql.NullInt64
	)

	err := row.Scan(&session.ID, &session.Topic, &difficulty, &content, &quizData,
		&score, &total, &percentage, &createdAt, &completedAt)
	if err != nil {
		return nil, err
	}

	session.Difficulty = models.Difficulty(difficulty)
	session.CreatedAt = time.UnixMilli(createdAt).UTC()
	if content.Valid {
		session.TeachingContent = &content.String
	}
	if quizData.Valid && quizData.String != "" {
		session.QuizData = json.RawMessage(quizData.String)
	}
	if score.Valid {
		v := int(score.Int64)
		session.Score = &v
	}
	if total.Valid {
		v := int(total.Int64)
		session.TotalQuestions = &v
	}
	if percentage.Valid {
		session.Percentage = &percentage.Float64
	}
	if completedAt.Valid {
		t := time.UnixMilli(completedAt.Int64).UTC()
		session.CompletedAt = &t
	}

	return &session, nil
}

func requireRow(result sql.Result, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}

	return nil
}
