// Package memory provides in-process implementations of the attempt store
// and the quiz definition cache.
package memory

import (
	"context"
	"sync"
	"time"

	"quiz-session-client/internal/domain"
	"quiz-session-client/internal/timeutil"
)

// AttemptStore keeps attempts and results in memory. Used as the default
// store in tests and as the reference implementation of the store contract.
type AttemptStore struct {
	mu       sync.RWMutex
	now      func() time.Time
	attempts []domain.Attempt
	results  []domain.Result
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{now: time.Now}
}

// NewAttemptStoreWithClock is test-only for deterministic retention pruning.
func NewAttemptStoreWithClock(now func() time.Time) *AttemptStore {
	return &AttemptStore{now: now}
}

func (s *AttemptStore) SaveAttempt(_ context.Context, attempt domain.Attempt) error {
	attempt.TimeTaken = timeutil.Validate(attempt.TimeTaken)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = domain.UpsertAttempt(s.attempts, attempt)
	return nil
}

func (s *AttemptStore) Attempts(_ context.Context) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Attempt, len(s.attempts))
	copy(out, s.attempts)
	return out, nil
}

func (s *AttemptStore) AttemptByID(_ context.Context, id int64) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.attempts {
		if a.ID == id {
			return a, nil
		}
	}
	return domain.Attempt{}, domain.ErrAttemptNotFound
}

func (s *AttemptStore) AttemptsByQuizID(_ context.Context, quizID int64) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.AttemptsForQuiz(s.attempts, quizID), nil
}

func (s *AttemptStore) IncompleteAttempt(_ context.Context, quizID int64) (domain.Attempt, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := domain.IncompleteAttemptForQuiz(s.attempts, quizID)
	return a, ok, nil
}

func (s *AttemptStore) LatestAttemptForQuiz(_ context.Context, quizID int64) (domain.Attempt, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := domain.LatestAttemptForQuiz(s.attempts, quizID)
	return a, ok, nil
}

func (s *AttemptStore) HasCompletedQuiz(_ context.Context, quizID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.HasCompletedQuiz(s.attempts, quizID), nil
}

func (s *AttemptStore) UpdateAttemptTimeTaken(_ context.Context, id int64, seconds int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.attempts {
		if s.attempts[i].ID == id {
			s.attempts[i].TimeTaken = timeutil.Validate(seconds)
			return true, nil
		}
	}
	return false, nil
}

func (s *AttemptStore) SaveResult(_ context.Context, result domain.Result) error {
	result.TimeTaken = timeutil.Validate(result.TimeTaken)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = domain.UpsertResult(s.results, result)
	return nil
}

func (s *AttemptStore) ResultByAttemptID(_ context.Context, attemptID int64) (domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.results {
		if r.AttemptID == attemptID {
			return r, nil
		}
	}
	return domain.Result{}, domain.ErrResultNotFound
}

func (s *AttemptStore) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = nil
	s.results = nil
	return nil
}

func (s *AttemptStore) ClearOlderThan(_ context.Context, days int) error {
	cutoff := s.now().AddDate(0, 0, -days)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts, s.results = domain.PruneOlderThan(s.attempts, s.results, cutoff)
	return nil
}
