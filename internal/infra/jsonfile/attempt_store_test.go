package jsonfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"quiz-session-client/internal/domain"
)

func TestRoundTripSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "attempts.json")

	store := NewAttemptStore(path)
	attempt := domain.Attempt{
		ID:             1,
		QuizID:         7,
		TotalQuestions: 5,
		TimeTaken:      120,
		StartedAt:      time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := store.SaveAttempt(ctx, attempt); err != nil {
		t.Fatalf("save: %v", err)
	}

	// A fresh store over the same file sees the persisted record.
	reopened := NewAttemptStore(path)
	got, err := reopened.AttemptByID(ctx, 1)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if got.QuizID != 7 || got.TimeTaken != 120 {
		t.Fatalf("unexpected record after reopen: %+v", got)
	}
	if !got.StartedAt.Equal(attempt.StartedAt) {
		t.Fatalf("started_at drifted: %v vs %v", got.StartedAt, attempt.StartedAt)
	}
}

func TestUpsertKeepsOneRecordPerID(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore(filepath.Join(t.TempDir(), "attempts.json"))

	a := domain.Attempt{ID: 1, QuizID: 7, StartedAt: time.Now()}
	_ = store.SaveAttempt(ctx, a)
	a.Score = 9
	_ = store.SaveAttempt(ctx, a)

	attempts, _ := store.Attempts(ctx)
	if len(attempts) != 1 {
		t.Fatalf("expected one record, got %d", len(attempts))
	}
	if attempts[0].Score != 9 {
		t.Fatalf("expected latest score, got %d", attempts[0].Score)
	}
}

func TestCorruptFileIsClearedNotFatal(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "attempts.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	store := NewAttemptStore(path)
	attempts, err := store.Attempts(ctx)
	if err != nil {
		t.Fatalf("corrupt storage must read as empty, got %v", err)
	}
	if len(attempts) != 0 {
		t.Fatalf("expected empty history, got %d", len(attempts))
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected corrupt file to be cleared")
	}

	// The store is usable again after clearing.
	if err := store.SaveAttempt(ctx, domain.Attempt{ID: 1, QuizID: 7, StartedAt: time.Now()}); err != nil {
		t.Fatalf("save after clear: %v", err)
	}
}

func TestResultsPrunedWithAttempts(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	store := NewAttemptStoreWithClock(
		filepath.Join(t.TempDir(), "attempts.json"),
		func() time.Time { return now },
	)

	old := domain.Attempt{ID: 1, QuizID: 7, StartedAt: now.AddDate(0, 0, -100)}
	fresh := domain.Attempt{ID: 2, QuizID: 7, StartedAt: now.AddDate(0, 0, -1)}
	_ = store.SaveAttempt(ctx, old)
	_ = store.SaveAttempt(ctx, fresh)
	_ = store.SaveResult(ctx, domain.Result{AttemptID: 1})
	_ = store.SaveResult(ctx, domain.Result{AttemptID: 2})

	if err := store.ClearOlderThan(ctx, 90); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.ResultByAttemptID(ctx, 1); !errors.Is(err, domain.ErrResultNotFound) {
		t.Fatalf("expected orphaned result pruned, got %v", err)
	}
	if _, err := store.ResultByAttemptID(ctx, 2); err != nil {
		t.Fatalf("expected surviving result, got %v", err)
	}
}

func TestClearAllRemovesFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "attempts.json")
	store := NewAttemptStore(path)
	_ = store.SaveAttempt(ctx, domain.Attempt{ID: 1, QuizID: 7, StartedAt: time.Now()})

	if err := store.ClearAll(ctx); err != nil {
		t.Fatalf("clear all: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected file removed")
	}
	// Clearing an already-empty store is fine.
	if err := store.ClearAll(ctx); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}
