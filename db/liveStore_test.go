package db

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ameshram/learnify/models"
)

func TestLiveStoreContent(t *testing.T) {
	store := NewLiveStore(time.Hour)

	if _, ok := store.Content("s1"); ok {
		t.Errorf("unexpected content for unknown session")
	}

	store.PutContent("s1", "teaching")
	content, ok := store.Content("s1")
	if !ok || content != "teaching" {
		t.Errorf("Content() = %q, %v", content, ok)
	}

	store.PutQuiz("s2", &models.Quiz{Topic: "Go"})
	if _, ok := store.Content("s2"); ok {
		t.Errorf("quiz-only entry should report no content")
	}
}

func TestLiveStoreWithQuiz(t *testing.T) {
	store := NewLiveStore(time.Hour)

	err := store.WithQuiz("missing", func(q *models.Quiz) error { return nil })
	if !errors.Is(err, ErrQuizNotFound) {
		t.Errorf("WithQuiz() error = %v, expected ErrQuizNotFound", err)
	}

	store.PutContent("s1", "content")
	err = store.WithQuiz("s1", func(q *models.Quiz) error { return nil })
	if !errors.Is(err, ErrQuizNotFound) {
		t.Errorf("content without quiz: error = %v, expected ErrQuizNotFound", err)
	}

	store.PutQuiz("s1", &models.Quiz{Topic: "Go"})

	sentinel := errors.New("boom")
	if err := store.WithQuiz("s1", func(q *models.Quiz) error { return sentinel }); !errors.Is(err, sentinel) {
		t.Errorf("WithQuiz() did not return callback error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.WithQuiz("s1", func(q *models.Quiz) error {
				q.CurrentIndex++
				return nil
			})
		}()
	}
	wg.Wait()

	_ = store.WithQuiz("s1", func(q *models.Quiz) error {
		if q.CurrentIndex != 50 {
			t.Errorf("current index = %d, expected 50", q.CurrentIndex)
		}
		return nil
	})
}

func TestLiveStoreSweep(t *testing.T) {
	store := NewLiveStore(time.Minute)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.PutContent("old", "a")
	now = now.Add(50 * time.Second)
	store.PutContent("fresh", "b")
	now = now.Add(20 * time.Second)

	if removed := store.Sweep(); removed != 1 {
		t.Errorf("Sweep() removed %d, expected 1", removed)
	}
	if _, ok := store.Content("old"); ok {
		t.Errorf("expired entry still present")
	}
	if _, ok := store.Content("fresh"); !ok {
		t.Errorf("fresh entry was removed")
	}
}

func TestLiveStoreRunStopsOnCancel(t *testing.T) {
	store := NewLiveStore(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		store.Run(ctx, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
