package db

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ameshram/learnify/logger"
	"github.com/ameshram/learnify/models"
)

var ErrQuizNotFound = errors.New("no active quiz for session")

type liveEntry struct {
	content    string
	hasContent bool
	quiz       *models.Quiz
	touched    time.Time
}

// LiveStore keeps teaching content and in-progress quizzes in memory, keyed by session id.
// Entries not touched for ttl are dropped by Sweep.
type LiveStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*liveEntry
}

func NewLiveStore(ttl time.Duration) *LiveStore {
	return &LiveStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*liveEntry),
	}
}

// entry returns the live entry for id, creating it when missing. Callers hold mu.
func (s *LiveStore) entry(id string) *liveEntry {
	e, ok := s.entries[id]
	if !ok {
		e = &liveEntry{}
		s.entries[id] = e
	}
	e.touched = s.now()
	return e
}

func (s *LiveStore) PutContent(id, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(id)
	e.content = content
	e.hasContent = true
}

func (s *LiveStore) Content(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || !e.hasContent {
		return "", false
	}
	e.touched = s.now()
	return e.content, true
}

// PutQuiz installs a fresh quiz for the session, replacing any previous one.
func (s *LiveStore) PutQuiz(id string, quiz *models.Quiz) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entry(id).quiz = quiz
}

// WithQuiz runs fn against the session's quiz. Calls are serialised, so fn may mutate the quiz.
func (s *LiveStore) WithQuiz(id string, fn func(*models.Quiz) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || e.quiz == nil {
		return fmt.Errorf("session %s: %w", id, ErrQuizNotFound)
	}
	e.touched = s.now()

	return fn(e.quiz)
}

// Sweep drops expired entries and returns how many were removed.
func (s *LiveStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, e := range s.entries {
		if e.touched.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

func (s *LiveStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// Run sweeps every interval until ctx is done.
func (s *LiveStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.Sweep(); removed > 0 {
				logger.WithContext(ctx).WithField("removed", removed).Info("Expired live sessions")
			}
		}
	}
}
