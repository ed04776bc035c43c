// Package jsonfile persists attempts and results as a single JSON document
// on disk, replace-on-write. It is the durable default store: attempts
// survive process restarts the way browser storage survives reloads.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"quiz-session-client/internal/domain"
	"quiz-session-client/internal/timeutil"
)

// AttemptStore reads and rewrites the whole document on every operation.
// Collections stay small (one user's attempt history) so this is cheaper
// than it looks, and replace-on-write keeps the two keys consistent.
type AttemptStore struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

type document struct {
	Attempts []domain.Attempt `json:"userQuizAttempts"`
	Results  []domain.Result  `json:"userQuizResults"`
}

func NewAttemptStore(path string) *AttemptStore {
	return &AttemptStore{path: path, now: time.Now}
}

// NewAttemptStoreWithClock is test-only for deterministic retention pruning.
func NewAttemptStoreWithClock(path string, now func() time.Time) *AttemptStore {
	return &AttemptStore{path: path, now: now}
}

func (s *AttemptStore) SaveAttempt(_ context.Context, attempt domain.Attempt) error {
	attempt.TimeTaken = timeutil.Validate(attempt.TimeTaken)
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.load()
	doc.Attempts = domain.UpsertAttempt(doc.Attempts, attempt)
	return s.save(doc)
}

func (s *AttemptStore) Attempts(_ context.Context) ([]domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load().Attempts, nil
}

func (s *AttemptStore) AttemptByID(_ context.Context, id int64) (domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.load().Attempts {
		if a.ID == id {
			return a, nil
		}
	}
	return domain.Attempt{}, domain.ErrAttemptNotFound
}

func (s *AttemptStore) AttemptsByQuizID(_ context.Context, quizID int64) ([]domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.AttemptsForQuiz(s.load().Attempts, quizID), nil
}

func (s *AttemptStore) IncompleteAttempt(_ context.Context, quizID int64) (domain.Attempt, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := domain.IncompleteAttemptForQuiz(s.load().Attempts, quizID)
	return a, ok, nil
}

func (s *AttemptStore) LatestAttemptForQuiz(_ context.Context, quizID int64) (domain.Attempt, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := domain.LatestAttemptForQuiz(s.load().Attempts, quizID)
	return a, ok, nil
}

func (s *AttemptStore) HasCompletedQuiz(_ context.Context, quizID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.HasCompletedQuiz(s.load().Attempts, quizID), nil
}

func (s *AttemptStore) UpdateAttemptTimeTaken(_ context.Context, id int64, seconds int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.load()
	for i := range doc.Attempts {
		if doc.Attempts[i].ID == id {
			doc.Attempts[i].TimeTaken = timeutil.Validate(seconds)
			return true, s.save(doc)
		}
	}
	return false, nil
}

func (s *AttemptStore) SaveResult(_ context.Context, result domain.Result) error {
	result.TimeTaken = timeutil.Validate(result.TimeTaken)
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.load()
	doc.Results = domain.UpsertResult(doc.Results, result)
	return s.save(doc)
}

func (s *AttemptStore) ResultByAttemptID(_ context.Context, attemptID int64) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.load().Results {
		if r.AttemptID == attemptID {
			return r, nil
		}
	}
	return domain.Result{}, domain.ErrResultNotFound
}

func (s *AttemptStore) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *AttemptStore) ClearOlderThan(_ context.Context, days int) error {
	cutoff := s.now().AddDate(0, 0, -days)
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.load()
	doc.Attempts, doc.Results = domain.PruneOlderThan(doc.Attempts, doc.Results, cutoff)
	return s.save(doc)
}

// load reads the document. A missing file means an empty history; an
// unparsable file is cleared and treated as empty rather than surfaced.
func (s *AttemptStore) load() document {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return document{}
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Printf("attempt store: clearing corrupt file %s: %v", s.path, err)
		_ = os.Remove(s.path)
		return document{}
	}
	return doc
}

func (s *AttemptStore) save(doc document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, data, 0o644)
}
