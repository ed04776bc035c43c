// Package redis persists the attempt history in Redis using the same two
// string-serialized keys as the file store, replace-on-write. Useful when
// several kiosk clients share one history backend.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"quiz-session-client/internal/domain"
	"quiz-session-client/internal/timeutil"
	"github.com/redis/go-redis/v9"
)

const (
	attemptsKey = "userQuizAttempts"
	resultsKey  = "userQuizResults"
)

// AttemptStore stores each collection as one JSON array value. The whole
// collection is rewritten on every save, never diffed.
type AttemptStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewAttemptStore builds a store over the given client. A non-zero ttl lets
// abandoned histories expire on their own.
func NewAttemptStore(client *redis.Client, ttl time.Duration) *AttemptStore {
	return &AttemptStore{client: client, ttl: ttl, now: time.Now}
}

func (s *AttemptStore) SaveAttempt(ctx context.Context, attempt domain.Attempt) error {
	attempt.TimeTaken = timeutil.Validate(attempt.TimeTaken)
	attempts, results, err := s.loadAll(ctx)
	if err != nil {
		return err
	}
	return s.saveAll(ctx, domain.UpsertAttempt(attempts, attempt), results)
}

func (s *AttemptStore) Attempts(ctx context.Context) ([]domain.Attempt, error) {
	attempts, _, err := s.loadAll(ctx)
	return attempts, err
}

func (s *AttemptStore) AttemptByID(ctx context.Context, id int64) (domain.Attempt, error) {
	attempts, _, err := s.loadAll(ctx)
	if err != nil {
		return domain.Attempt{}, err
	}
	for _, a := range attempts {
		if a.ID == id {
			return a, nil
		}
	}
	return domain.Attempt{}, domain.ErrAttemptNotFound
}

func (s *AttemptStore) AttemptsByQuizID(ctx context.Context, quizID int64) ([]domain.Attempt, error) {
	attempts, _, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	return domain.AttemptsForQuiz(attempts, quizID), nil
}

func (s *AttemptStore) IncompleteAttempt(ctx context.Context, quizID int64) (domain.Attempt, bool, error) {
	attempts, _, err := s.loadAll(ctx)
	if err != nil {
		return domain.Attempt{}, false, err
	}
	a, ok := domain.IncompleteAttemptForQuiz(attempts, quizID)
	return a, ok, nil
}

func (s *AttemptStore) LatestAttemptForQuiz(ctx context.Context, quizID int64) (domain.Attempt, bool, error) {
	attempts, _, err := s.loadAll(ctx)
	if err != nil {
		return domain.Attempt{}, false, err
	}
	a, ok := domain.LatestAttemptForQuiz(attempts, quizID)
	return a, ok, nil
}

func (s *AttemptStore) HasCompletedQuiz(ctx context.Context, quizID int64) (bool, error) {
	attempts, _, err := s.loadAll(ctx)
	if err != nil {
		return false, err
	}
	return domain.HasCompletedQuiz(attempts, quizID), nil
}

func (s *AttemptStore) UpdateAttemptTimeTaken(ctx context.Context, id int64, seconds int) (bool, error) {
	attempts, results, err := s.loadAll(ctx)
	if err != nil {
		return false, err
	}
	for i := range attempts {
		if attempts[i].ID == id {
			attempts[i].TimeTaken = timeutil.Validate(seconds)
			return true, s.saveAll(ctx, attempts, results)
		}
	}
	return false, nil
}

func (s *AttemptStore) SaveResult(ctx context.Context, result domain.Result) error {
	result.TimeTaken = timeutil.Validate(result.TimeTaken)
	attempts, results, err := s.loadAll(ctx)
	if err != nil {
		return err
	}
	return s.saveAll(ctx, attempts, domain.UpsertResult(results, result))
}

func (s *AttemptStore) ResultByAttemptID(ctx context.Context, attemptID int64) (domain.Result, error) {
	_, results, err := s.loadAll(ctx)
	if err != nil {
		return domain.Result{}, err
	}
	for _, r := range results {
		if r.AttemptID == attemptID {
			return r, nil
		}
	}
	return domain.Result{}, domain.ErrResultNotFound
}

func (s *AttemptStore) ClearAll(ctx context.Context) error {
	return s.client.Del(ctx, attemptsKey, resultsKey).Err()
}

func (s *AttemptStore) ClearOlderThan(ctx context.Context, days int) error {
	cutoff := s.now().AddDate(0, 0, -days)
	attempts, results, err := s.loadAll(ctx)
	if err != nil {
		return err
	}
	attempts, results = domain.PruneOlderThan(attempts, results, cutoff)
	return s.saveAll(ctx, attempts, results)
}

func (s *AttemptStore) loadAll(ctx context.Context) ([]domain.Attempt, []domain.Result, error) {
	attempts, err := loadList[domain.Attempt](ctx, s, attemptsKey)
	if err != nil {
		return nil, nil, err
	}
	results, err := loadList[domain.Result](ctx, s, resultsKey)
	if err != nil {
		return nil, nil, err
	}
	return attempts, results, nil
}

// loadList reads one collection. A missing key is an empty collection; an
// unparsable value is deleted and treated as empty in full, never as the
// prefix that happened to decode before the parse failed.
func loadList[T any](ctx context.Context, s *AttemptStore, key string) ([]T, error) {
	raw, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		log.Printf("attempt store: clearing corrupt redis key %s: %v", key, err)
		_ = s.client.Del(ctx, key).Err()
		return nil, nil
	}
	return out, nil
}

func (s *AttemptStore) saveAll(ctx context.Context, attempts []domain.Attempt, results []domain.Result) error {
	attemptData, err := json.Marshal(attempts)
	if err != nil {
		return err
	}
	resultData, err := json.Marshal(results)
	if err != nil {
		return err
	}
	pipe := s.client.Pipeline()
	pipe.Set(ctx, attemptsKey, attemptData, s.ttl)
	pipe.Set(ctx, resultsKey, resultData, s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}
