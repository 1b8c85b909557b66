package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ameshram/learnify/db"
	"github.com/ameshram/learnify/logger"
	"github.com/ameshram/learnify/models"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

const (
	DefaultHistoryLimit = 20
	maxHistoryLimit     = 100
	// searchWindow bounds how many recent sessions a topic search looks through.
	searchWindow = 500

	indexTimeout = 30 * time.Second
)

var ErrRelatedDisabled = errors.New("related sessions are not enabled")

// SessionIndex finds previously studied sessions similar to a topic.
type SessionIndex interface {
	IndexSession(ctx context.Context, session *models.Session) error
	RelatedTopics(ctx context.Context, topic string, limit int) ([]models.RelatedSession, error)
}

type SessionService struct {
	repo  db.SessionRepository
	index SessionIndex
}

func NewSessionService(repo db.SessionRepository) *SessionService {
	return &SessionService{repo: repo}
}

// WithIndex enables related-session lookups backed by index.
func (s *SessionService) WithIndex(index SessionIndex) *SessionService {
	s.index = index
	return s
}

func (s *SessionService) RelatedEnabled() bool {
	return s.index != nil
}

func (s *SessionService) CreateSession(ctx context.Context, topic string, difficulty models.Difficulty) (*models.Session, error) {
	log := logger.WithContext(ctx)
	log.WithField("topic", topic).Info("Starting session creation")

	session := &models.Session{
		ID:         uuid.NewString(),
		Topic:      topic,
		Difficulty: difficulty,
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		log.WithError(err).Error("Failed to create session in repository")
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.WithField("session_id", session.ID).Info("Successfully created session")
	return session, nil
}

func (s *SessionService) GetSession(ctx context.Context, id string) (*models.Session, error) {
	if err := validateSessionID(id); err != nil {
		logger.WithContext(ctx).WithError(err).Warn("Invalid session ID provided")
		return nil, err
	}

	session, err := s.repo.GetSession(ctx, id)
	if err != nil {
		if !errors.Is(err, db.ErrSessionNotFound) {
			logger.WithContext(ctx).WithError(err).WithField("session_id", id).Error("Failed to get session")
		}
		return nil, err
	}

	return session, nil
}

func (s *SessionService) SaveTeachingContent(ctx context.Context, id, content string) error {
	if err := s.repo.UpdateTeachingContent(ctx, id, content); err != nil {
		logger.WithContext(ctx).WithError(err).WithField("session_id", id).Error("Failed to save teaching content")
		return err
	}

	logger.WithContext(ctx).WithFields(logrus.Fields{"session_id": id, "length": len(content)}).Info("Successfully saved teaching content")
	return nil
}

// CompleteQuiz persists the quiz outcome and, when enabled, indexes the session in the background.
func (s *SessionService) CompleteQuiz(ctx context.Context, id string, snapshot models.QuizSnapshot) error {
	log := logger.WithContext(ctx).WithField("session_id", id)

	if err := s.repo.UpdateQuizResults(ctx, id, snapshot); err != nil {
		log.WithError(err).Error("Failed to save quiz results")
		return err
	}
	log.WithField("score", snapshot.Score).Info("Successfully saved quiz results")

	if s.index != nil {
		go s.indexSession(context.WithoutCancel(ctx), id)
	}
	return nil
}

func (s *SessionService) indexSession(ctx context.Context, id string) {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	log := logger.WithContext(ctx).WithField("session_id", id)

	session, err := s.repo.GetSession(ctx, id)
	if err != nil {
		log.WithError(err).Error("Failed to load session for indexing")
		return
	}
	if err := s.index.IndexSession(ctx, session); err != nil {
		log.WithError(err).Error("Failed to index session")
		return
	}
	log.Info("Successfully indexed session")
}

// History returns recent sessions, optionally narrowed to topics fuzzily matching query, with overall stats.
func (s *SessionService) History(ctx context.Context, limit int, query string) (*models.HistoryResponse, error) {
	log := logger.WithContext(ctx)

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, maxHistoryLimit)

	query = strings.TrimSpace(query)
	window := limit
	if query != "" {
		window = searchWindow
	}

	sessions, err := s.repo.ListRecent(ctx, window)
	if err != nil {
		log.WithError(err).Error("Failed to list sessions")
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	if query != "" {
		terms := strings.Fields(query)
		sessions = lo.Filter(sessions, func(session *models.Session, _ int) bool {
			return topicMatchesSearch(session.Topic, terms)
		})
	}
	if len(sessions) > limit {
		sessions = sessions[:limit]
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to get session stats")
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	log.WithField("sessions", len(sessions)).Info("Successfully retrieved history")
	return &models.HistoryResponse{
		Sessions: lo.Map(sessions, func(session *models.Session, _ int) models.SessionSummary {
			return session.Summary()
		}),
		Stats: stats,
	}, nil
}

// Related lists other sessions whose topics are close to this session's topic.
func (s *SessionService) Related(ctx context.Context, id string, limit int) ([]models.RelatedSession, error) {
	if s.index == nil {
		return nil, ErrRelatedDisabled
	}

	session, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	related, err := s.index.RelatedTopics(ctx, session.Topic, limit+1)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Error("Failed to query related sessions")
		return nil, fmt.Errorf("failed to query related sessions: %w", err)
	}

	related = lo.Filter(related, func(r models.RelatedSession, _ int) bool { return r.SessionID != id })
	if len(related) > limit {
		related = related[:limit]
	}
	return related, nil
}

func validateSessionID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return &ValidationError{Field: "session_id", Reason: "Invalid session ID"}
	}
	return nil
}

// topicMatchesSearch reports whether any term matches the topic, tolerating typos.
func topicMatchesSearch(topic string, searchTerms []string) bool {
	words := strings.Fields(strings.ToLower(topic))

	cleanWords := make([]string, 0, len(words))
	for _, word := range words {
		if cleanWord := strings.Trim(word, ".,!?;:()\"'"); len(cleanWord) > 0 {
			cleanWords = append(cleanWords, cleanWord)
		}
	}

	for _, term := range searchTerms {
		if fuzzy.MatchFold(term, topic) {
			return true
		}
		if len(fuzzy.FindFold(term, cleanWords)) > 0 {
			return true
		}
	}

	return false
}
