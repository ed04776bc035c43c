package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz definition could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrAttemptNotFound is returned when no attempt exists for the given id.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrResultNotFound is returned when no result is stored for an attempt.
	ErrResultNotFound = errors.New("result not found")
	// ErrAttemptCompleted is returned when resuming or mutating a completed attempt.
	ErrAttemptCompleted = errors.New("attempt already completed")
	// ErrNoActiveAttempt is returned when submitting without an attempt in progress.
	ErrNoActiveAttempt = errors.New("no active attempt")
	// ErrFinalTimeNotPersisted surfaces the one fatal submission path: the final
	// elapsed time could not be written locally, so no result could ever be shown.
	ErrFinalTimeNotPersisted = errors.New("final elapsed time not persisted locally")
)
