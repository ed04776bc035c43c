// Package app wires the session engine, the local store and the remote
// backend into the attempt lifecycle: start or resume, run, submit, resolve.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"quiz-session-client/internal/api"
	"quiz-session-client/internal/domain"
	"quiz-session-client/internal/session"
	"quiz-session-client/internal/timeutil"
)

// ActiveSession is a running attempt: the quiz definition, the local attempt
// record and the engine driving navigation, answers and the countdown.
type ActiveSession struct {
	Quiz    domain.Quiz
	Attempt domain.Attempt
	Engine  *session.Engine
	Resumed bool

	// Serializes submission; a time-up callback and a user action can race
	// to finalize the same session.
	submitMu sync.Mutex
}

// StartOptions tunes how an attempt is started or resumed.
type StartOptions struct {
	// Participant identity forwarded when a new remote attempt is created.
	Participant domain.Participant
	// ResumeAttemptID resumes a specific known attempt instead of probing the
	// store. Zero means probe.
	ResumeAttemptID int64
	// AcceptResume decides whether a resumable attempt found in the store
	// should be picked up. Nil accepts unconditionally.
	AcceptResume func(domain.Attempt) bool
	// OnTimeUp fires once when a timed session runs out.
	OnTimeUp func()
}

// AttemptService owns the attempt lifecycle. The store is authoritative for
// attempt identity and timing; the backend is consulted but never trusted to
// override locally measured time.
type AttemptService struct {
	store   AttemptStore
	client  api.Client
	quizzes QuizSource
	now     func() time.Time
}

func NewAttemptService(store AttemptStore, client api.Client, quizzes QuizSource) *AttemptService {
	return &AttemptService{
		store:   store,
		client:  client,
		quizzes: quizzes,
		now:     time.Now,
	}
}

// Start begins a session for a quiz, resuming an incomplete attempt when one
// exists. Resume order: the explicitly requested attempt, then the most
// recently started incomplete attempt for the quiz, then a fresh attempt
// created against the backend. A resumed session keeps the original
// started_at anchor, so the clock keeps running across restarts.
func (s *AttemptService) Start(ctx context.Context, quizID int64, opts StartOptions) (*ActiveSession, error) {
	quiz, err := s.quizzes.FetchQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("fetch quiz %d: %w", quizID, err)
	}

	attempt, resumed, err := s.resolveAttempt(ctx, quizID, opts)
	if err != nil {
		return nil, err
	}

	if !resumed {
		attempt.TotalQuestions = len(quiz.Questions)
		if err := s.store.SaveAttempt(ctx, attempt); err != nil {
			return nil, fmt.Errorf("save new attempt: %w", err)
		}
	}

	onTimeUp := opts.OnTimeUp
	if onTimeUp == nil {
		onTimeUp = func() {}
	}
	eng := session.New(len(quiz.Questions), quiz.TimeLimit, onTimeUp,
		session.WithClock(s.now),
		session.WithStartedAt(attempt.StartedAt),
	)

	return &ActiveSession{Quiz: quiz, Attempt: attempt, Engine: eng, Resumed: resumed}, nil
}

func (s *AttemptService) resolveAttempt(ctx context.Context, quizID int64, opts StartOptions) (domain.Attempt, bool, error) {
	if opts.ResumeAttemptID != 0 {
		attempt, err := s.store.AttemptByID(ctx, opts.ResumeAttemptID)
		switch {
		case err == nil && attempt.IsCompleted:
			return domain.Attempt{}, false, domain.ErrAttemptCompleted
		case err == nil:
			return attempt, true, nil
		case !errors.Is(err, domain.ErrAttemptNotFound):
			return domain.Attempt{}, false, fmt.Errorf("resume attempt %d: %w", opts.ResumeAttemptID, err)
		}
		// Unknown id falls through to the regular probe.
	}

	attempt, ok, err := s.store.IncompleteAttempt(ctx, quizID)
	if err != nil {
		return domain.Attempt{}, false, fmt.Errorf("probe incomplete attempt: %w", err)
	}
	if ok && (opts.AcceptResume == nil || opts.AcceptResume(attempt)) {
		return attempt, true, nil
	}

	created, err := s.client.CreateAttempt(ctx, quizID, opts.Participant)
	if err != nil {
		return domain.Attempt{}, false, fmt.Errorf("create attempt: %w", err)
	}
	if created.StartedAt.IsZero() {
		created.StartedAt = s.now()
	}
	return created, false, nil
}

// FindResumable reports the attempt Start would resume for a quiz, without
// starting anything. Callers use it to prompt before resuming.
func (s *AttemptService) FindResumable(ctx context.Context, quizID int64) (domain.Attempt, bool, error) {
	return s.store.IncompleteAttempt(ctx, quizID)
}

// Submit finalizes a session. The elapsed time is frozen from the attempt's
// started_at anchor before any network call, and persisting that frozen value
// locally is the only step allowed to fail the submission. Everything remote
// is best effort: a dead backend degrades to a locally synthesized result, it
// never loses the attempt. Safe for concurrent use on one session; the second
// caller gets the first caller's stored result.
func (s *AttemptService) Submit(ctx context.Context, sess *ActiveSession) (domain.Result, error) {
	sess.submitMu.Lock()
	defer sess.submitMu.Unlock()

	if sess.Attempt.IsCompleted {
		result, err := s.store.ResultByAttemptID(ctx, sess.Attempt.ID)
		if err == nil {
			return result, nil
		}
		return domain.Result{}, domain.ErrAttemptCompleted
	}

	finalTime := timeutil.Validate(timeutil.Elapsed(sess.Attempt.StartedAt, s.now()))
	sess.Engine.MarkSubmitted()

	if err := s.persistFinalTime(ctx, &sess.Attempt, finalTime); err != nil {
		return domain.Result{}, err
	}

	if err := s.client.UpdateElapsedTime(ctx, sess.Attempt.ID, finalTime); err != nil {
		log.Printf("attempt %d: push elapsed time: %v", sess.Attempt.ID, err)
	}

	answers := sess.Engine.AllAnswers()
	scored, submitErr := s.client.SubmitAnswers(ctx, sess.Attempt.ID, answers)
	if submitErr != nil {
		log.Printf("attempt %d: submit answers: %v", sess.Attempt.ID, submitErr)
		return s.finalizeLocal(ctx, sess, finalTime)
	}

	// Merge the scored attempt over the local record. Locally measured time
	// and the original start anchor always win over the server echo.
	merged := scored
	merged.ID = sess.Attempt.ID
	merged.QuizID = sess.Attempt.QuizID
	merged.StartedAt = sess.Attempt.StartedAt
	merged.TimeTaken = finalTime
	merged.IsCompleted = true
	if merged.CompletedAt == nil {
		completedAt := s.now()
		merged.CompletedAt = &completedAt
	}
	if merged.TotalQuestions == 0 {
		merged.TotalQuestions = sess.Attempt.TotalQuestions
	}
	if err := s.store.SaveAttempt(ctx, merged); err != nil {
		return domain.Result{}, fmt.Errorf("%w: %v", domain.ErrFinalTimeNotPersisted, err)
	}
	sess.Attempt = merged

	result, err := s.client.FetchResult(ctx, sess.Attempt.ID)
	if err != nil {
		log.Printf("attempt %d: fetch result: %v", sess.Attempt.ID, err)
		result = localResult(sess.Attempt, finalTime)
	} else {
		result.AttemptID = sess.Attempt.ID
		result.TimeTaken = finalTime
	}

	if err := s.store.SaveResult(ctx, result); err != nil {
		log.Printf("attempt %d: cache result: %v", sess.Attempt.ID, err)
	}
	return result, nil
}

// persistFinalTime writes the frozen elapsed time to the store. An unknown id
// falls back to a full save so a fresh attempt that was never persisted still
// carries its time.
func (s *AttemptService) persistFinalTime(ctx context.Context, attempt *domain.Attempt, finalTime int) error {
	updated, err := s.store.UpdateAttemptTimeTaken(ctx, attempt.ID, finalTime)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrFinalTimeNotPersisted, err)
	}
	if !updated {
		attempt.TimeTaken = finalTime
		if err := s.store.SaveAttempt(ctx, *attempt); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrFinalTimeNotPersisted, err)
		}
	}
	attempt.TimeTaken = finalTime
	return nil
}

// finalizeLocal completes the attempt without the backend: the attempt is
// marked completed with the frozen time and a degraded result with empty
// breakdowns is synthesized and cached.
func (s *AttemptService) finalizeLocal(ctx context.Context, sess *ActiveSession, finalTime int) (domain.Result, error) {
	completedAt := s.now()
	sess.Attempt.TimeTaken = finalTime
	sess.Attempt.IsCompleted = true
	sess.Attempt.CompletedAt = &completedAt
	if err := s.store.SaveAttempt(ctx, sess.Attempt); err != nil {
		return domain.Result{}, fmt.Errorf("%w: %v", domain.ErrFinalTimeNotPersisted, err)
	}

	result := localResult(sess.Attempt, finalTime)
	if err := s.store.SaveResult(ctx, result); err != nil {
		log.Printf("attempt %d: cache local result: %v", sess.Attempt.ID, err)
	}
	return result, nil
}

// ResolveResult loads the result for an attempt, remote first with the local
// cache as fallback. A remote hit refreshes the cache; either way the locally
// frozen time_taken of the attempt overrides whatever the server reports.
func (s *AttemptService) ResolveResult(ctx context.Context, attemptID int64) (domain.Result, error) {
	localTime, haveLocalTime := s.localFinalTime(ctx, attemptID)

	result, err := s.client.FetchResult(ctx, attemptID)
	if err == nil {
		result.AttemptID = attemptID
		if haveLocalTime {
			result.TimeTaken = localTime
		}
		if saveErr := s.store.SaveResult(ctx, result); saveErr != nil {
			log.Printf("attempt %d: cache result: %v", attemptID, saveErr)
		}
		return result, nil
	}
	if api.KindOf(err) == api.KindNotFound {
		log.Printf("attempt %d: no remote result", attemptID)
	} else {
		log.Printf("attempt %d: fetch result: %v", attemptID, err)
	}

	cached, cacheErr := s.store.ResultByAttemptID(ctx, attemptID)
	if cacheErr != nil {
		if errors.Is(cacheErr, domain.ErrResultNotFound) {
			return domain.Result{}, domain.ErrResultNotFound
		}
		return domain.Result{}, fmt.Errorf("load cached result: %w", cacheErr)
	}
	if haveLocalTime {
		cached.TimeTaken = localTime
	}
	return cached, nil
}

func (s *AttemptService) localFinalTime(ctx context.Context, attemptID int64) (int, bool) {
	attempt, err := s.store.AttemptByID(ctx, attemptID)
	if err != nil || !attempt.IsCompleted {
		return 0, false
	}
	return attempt.TimeTaken, true
}

// ClearHistory removes attempt history older than the retention window.
// Days <= 0 uses the default.
func (s *AttemptService) ClearHistory(ctx context.Context, days int) error {
	if days <= 0 {
		days = DefaultRetentionDays
	}
	return s.store.ClearOlderThan(ctx, days)
}

// ClearAllHistory wipes both collections.
func (s *AttemptService) ClearAllHistory(ctx context.Context) error {
	return s.store.ClearAll(ctx)
}

// localResult synthesizes a degraded result from the attempt record alone.
// Breakdowns stay empty; the client never holds correct answers.
func localResult(attempt domain.Attempt, finalTime int) domain.Result {
	percentage := 0.0
	if attempt.TotalQuestions > 0 {
		percentage = float64(attempt.Score) / float64(attempt.TotalQuestions) * 100
	}
	return domain.Result{
		AttemptID:        attempt.ID,
		Score:            attempt.Score,
		TotalQuestions:   attempt.TotalQuestions,
		Percentage:       percentage,
		TimeTaken:        finalTime,
		IsPassed:         percentage >= domain.PassThreshold*100,
		CorrectAnswers:   []domain.AnswerDetail{},
		IncorrectAnswers: []domain.AnswerDetail{},
	}
}
