// Package api defines the remote quiz backend boundary. Backend failures are
// normalized into a single tagged error before they reach the core, which
// only ever reasons about the kind.
package api

import (
	"context"
	"errors"
	"fmt"

	"quiz-session-client/internal/domain"
)

// ErrorKind tags a normalized backend failure.
type ErrorKind string

const (
	KindNotFound    ErrorKind = "not_found"
	KindConflict    ErrorKind = "conflict"
	KindInvalid     ErrorKind = "invalid"
	KindUnavailable ErrorKind = "unavailable"
	KindInternal    ErrorKind = "internal"
)

// Error is the single error shape crossing the collaborator boundary.
// Different backends return their message in different fields; the HTTP
// client flattens them here.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// KindOf extracts the kind from a normalized error. Anything that is not an
// *Error counts as unavailable: the caller could not reach a verdict.
func KindOf(err error) ErrorKind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnavailable
}

// Client is the remote quiz backend as the core sees it.
type Client interface {
	// FetchQuiz loads a quiz definition with its questions and options.
	FetchQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
	// CreateAttempt starts a new remote attempt for a quiz.
	CreateAttempt(ctx context.Context, quizID int64, participant domain.Participant) (domain.Attempt, error)
	// SubmitAnswers pushes the collected answers and returns the scored attempt.
	SubmitAnswers(ctx context.Context, attemptID int64, answers []domain.Answer) (domain.Attempt, error)
	// FetchResult loads the scored result for a completed attempt.
	FetchResult(ctx context.Context, attemptID int64) (domain.Result, error)
	// UpdateElapsedTime pushes the locally measured elapsed seconds.
	UpdateElapsedTime(ctx context.Context, attemptID int64, seconds int) error
}
