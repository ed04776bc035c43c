package app

import (
	"context"

	"quiz-session-client/internal/domain"
)

// DefaultRetentionDays is the default window for ClearOlderThan.
const DefaultRetentionDays = 90

// AttemptStore abstracts durable client-side persistence of attempts and
// results (in-memory, JSON file, Redis, Postgres). Implementations upsert by
// key, validate time_taken before persisting, and treat corrupt stored data
// as absent rather than failing: the local store must never be the reason a
// quiz session crashes.
type AttemptStore interface {
	// SaveAttempt upserts the record by id.
	SaveAttempt(ctx context.Context, attempt domain.Attempt) error
	// Attempts returns all records; empty when storage is absent or corrupt.
	Attempts(ctx context.Context) ([]domain.Attempt, error)
	// AttemptByID returns domain.ErrAttemptNotFound when missing.
	AttemptByID(ctx context.Context, id int64) (domain.Attempt, error)
	// AttemptsByQuizID returns all records for one quiz.
	AttemptsByQuizID(ctx context.Context, quizID int64) ([]domain.Attempt, error)
	// IncompleteAttempt surfaces the most recently started resumable attempt
	// for a quiz, if any.
	IncompleteAttempt(ctx context.Context, quizID int64) (domain.Attempt, bool, error)
	// LatestAttemptForQuiz returns the record with the newest started_at.
	LatestAttemptForQuiz(ctx context.Context, quizID int64) (domain.Attempt, bool, error)
	// HasCompletedQuiz reports whether the quiz was ever completed locally.
	HasCompletedQuiz(ctx context.Context, quizID int64) (bool, error)
	// UpdateAttemptTimeTaken sets time_taken in place after validation.
	// Returns false when the id is unknown; that is a no-op, not an error.
	UpdateAttemptTimeTaken(ctx context.Context, id int64, seconds int) (bool, error)
	// SaveResult upserts the record by attempt id, independent of attempts.
	SaveResult(ctx context.Context, result domain.Result) error
	// ResultByAttemptID returns domain.ErrResultNotFound when missing.
	ResultByAttemptID(ctx context.Context, attemptID int64) (domain.Result, error)
	// ClearAll removes both collections.
	ClearAll(ctx context.Context) error
	// ClearOlderThan prunes attempts started more than days ago and the
	// results orphaned by the prune.
	ClearOlderThan(ctx context.Context, days int) error
}

// QuizSource loads quiz definitions (remote API, possibly behind a cache).
type QuizSource interface {
	FetchQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
}
