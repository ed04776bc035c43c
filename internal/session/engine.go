// Package session owns the in-progress state of a single quiz attempt:
// current question index, accumulated answers, submission flag, and the
// countdown tick for timed quizzes.
package session

import (
	"sync"
	"time"

	"quiz-session-client/internal/domain"
	"quiz-session-client/internal/timeutil"
)

// DefaultTimeUpDelay lets an in-flight UI update settle before the time-up
// callback triggers submission.
const DefaultTimeUpDelay = 100 * time.Millisecond

// Snapshot is an immutable view of the session published on every tick and
// mutation. Timing fields are recomputed from the start anchor, never from a
// running counter, so they stay truthful across reloads and tab suspension.
type Snapshot struct {
	CurrentQuestionIndex int  `json:"currentQuestionIndex"`
	Answered             int  `json:"answered"`
	Total                int  `json:"total"`
	TimeRemaining        int  `json:"timeRemaining"`
	Elapsed              int  `json:"elapsed"`
	IsSubmitted          bool `json:"isSubmitted"`
}

// Progress summarizes how many questions carry an answer.
type Progress struct {
	Answered   int     `json:"answered"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// Engine drives one attempt from in-progress to submitted. All methods are
// safe for concurrent use; the tick goroutine and callers share the state
// under one mutex.
type Engine struct {
	totalQuestions int
	timeLimit      int
	onTimeUp       func()
	timeUpDelay    time.Duration
	now            func() time.Time

	mu           sync.RWMutex
	startedAt    time.Time
	currentIndex int
	answers      map[int64]domain.Answer
	submitted    bool
	timeUpFired  bool
	stopTick     chan struct{}
	subscribers  map[chan Snapshot]struct{}
}

// Option adjusts engine construction.
type Option func(*Engine)

// WithClock injects a deterministic clock for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithStartedAt reattaches the engine to a previously created attempt,
// reusing its original start instant so elapsed time stays truthful.
func WithStartedAt(startedAt time.Time) Option {
	return func(e *Engine) { e.startedAt = startedAt }
}

// WithTimeUpDelay overrides the settle delay before onTimeUp fires.
func WithTimeUpDelay(d time.Duration) Option {
	return func(e *Engine) { e.timeUpDelay = d }
}

// New starts an engine in progress, anchored to a start instant captured now
// (or supplied via WithStartedAt when resuming). A positive timeLimit starts
// the one-second countdown tick; onTimeUp fires once when it reaches zero.
func New(totalQuestions, timeLimit int, onTimeUp func(), opts ...Option) *Engine {
	e := &Engine{
		totalQuestions: totalQuestions,
		timeLimit:      timeLimit,
		onTimeUp:       onTimeUp,
		timeUpDelay:    DefaultTimeUpDelay,
		now:            time.Now,
		answers:        make(map[int64]domain.Answer),
		subscribers:    make(map[chan Snapshot]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.startedAt.IsZero() {
		e.startedAt = e.now()
	}
	e.startTimer()
	return e
}

// StartedAt returns the attempt's start anchor.
func (e *Engine) StartedAt() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.startedAt
}

// HasTimeLimit distinguishes an untimed session from one whose remaining time
// ran out; Remaining alone is ambiguous at zero.
func (e *Engine) HasTimeLimit() bool {
	return e.timeLimit > 0
}

// ElapsedTime returns whole seconds since the start anchor.
func (e *Engine) ElapsedTime() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return timeutil.Elapsed(e.startedAt, e.now())
}

// Remaining returns the seconds left on a timed session, 0 for untimed.
func (e *Engine) Remaining() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return timeutil.Remaining(e.startedAt, e.timeLimit, e.now())
}

// IsSubmitted reports whether the session reached its terminal state.
func (e *Engine) IsSubmitted() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.submitted
}

// CurrentIndex returns the index of the question being shown.
func (e *Engine) CurrentIndex() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.currentIndex
}

// GoToQuestion jumps to a question by index. Out-of-range requests are
// ignored; they only occur from internal bugs, not user action.
func (e *Engine) GoToQuestion(i int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.submitted || i < 0 || i >= e.totalQuestions {
		return
	}
	e.currentIndex = i
	e.broadcastLocked()
}

// GoToNext advances one question, clamping at the last index.
func (e *Engine) GoToNext() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.submitted {
		return
	}
	if e.currentIndex < e.totalQuestions-1 {
		e.currentIndex++
	}
	e.broadcastLocked()
}

// GoToPrevious steps back one question, clamping at the first index.
func (e *Engine) GoToPrevious() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.submitted {
		return
	}
	if e.currentIndex > 0 {
		e.currentIndex--
	}
	e.broadcastLocked()
}

// IsFirstQuestion reports whether the first question is shown.
func (e *Engine) IsFirstQuestion() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.currentIndex == 0
}

// IsLastQuestion reports whether the last question is shown.
func (e *Engine) IsLastQuestion() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.currentIndex == e.totalQuestions-1
}

// SetAnswer upserts the answer for a question, overwriting any prior value.
// Ignored once the session is submitted: answers are frozen.
func (e *Engine) SetAnswer(questionID int64, answer domain.Answer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.submitted {
		return
	}
	answer.QuestionID = questionID
	e.answers[questionID] = answer
	e.broadcastLocked()
}

// Answer returns the stored answer for a question, if any.
func (e *Engine) Answer(questionID int64) (domain.Answer, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	a, ok := e.answers[questionID]
	return a, ok
}

// IsQuestionAnswered reports whether a question carries an answer.
func (e *Engine) IsQuestionAnswered(questionID int64) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.answers[questionID]
	return ok
}

// AllAnswers returns the collected answers in question-id order-independent
// slice form, ready for submission.
func (e *Engine) AllAnswers() []domain.Answer {
	e.mu.RLock()
	defer e.mu.RUnlock()
	answers := make([]domain.Answer, 0, len(e.answers))
	for _, a := range e.answers {
		answers = append(answers, a)
	}
	return answers
}

// GetProgress reports answered count against the total.
func (e *Engine) GetProgress() Progress {
	e.mu.RLock()
	defer e.mu.RUnlock()
	answered := len(e.answers)
	pct := 0.0
	if e.totalQuestions > 0 {
		pct = float64(answered) / float64(e.totalQuestions) * 100
	}
	return Progress{Answered: answered, Total: e.totalQuestions, Percentage: pct}
}

// IsComplete is true when the answer count matches the question count. Only
// the count is checked; answering one question twice still counts once.
func (e *Engine) IsComplete() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.answers) == e.totalQuestions
}

// CanSubmit allows submission once at least one answer exists. Partial
// submission is permitted.
func (e *Engine) CanSubmit() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.answers) > 0
}

// MarkSubmitted transitions to the terminal state, stops the tick, and
// freezes answers and timer.
func (e *Engine) MarkSubmitted() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.submitted {
		return
	}
	e.submitted = true
	e.stopTimerLocked()
	e.broadcastLocked()
}

// Reset re-initializes to a fresh in-progress session with a new start
// instant and no answers. Used for local retry only, never for resuming a
// server attempt.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.stopTimerLocked()
	e.startedAt = e.now()
	e.currentIndex = 0
	e.answers = make(map[int64]domain.Answer)
	e.submitted = false
	e.timeUpFired = false
	e.broadcastLocked()
	e.mu.Unlock()
	e.startTimer()
}

// Close cancels the tick and releases all subscribers. The engine must not be
// used afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopTimerLocked()
	for ch := range e.subscribers {
		delete(e.subscribers, ch)
		close(ch)
	}
}

// Subscribe returns a channel receiving session snapshots, starting with the
// current one. The caller must invoke the returned cancel function.
func (e *Engine) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	e.mu.Lock()
	e.subscribers[ch] = struct{}{}
	initial := e.snapshotLocked()
	e.mu.Unlock()

	ch <- initial

	cancel := func() {
		e.mu.Lock()
		if _, ok := e.subscribers[ch]; ok {
			delete(e.subscribers, ch)
			close(ch)
		}
		e.mu.Unlock()
	}
	return ch, cancel
}

// Snapshot returns the current immutable view.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshotLocked()
}

// startTimer begins the one-second countdown tick. Any existing tick is
// cancelled first; overlapping timers would double-fire onTimeUp.
func (e *Engine) startTimer() {
	e.mu.Lock()
	e.stopTimerLocked()
	if e.timeLimit <= 0 || e.submitted {
		e.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	e.stopTick = stop
	e.mu.Unlock()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if !e.tick() {
					return
				}
			case <-stop:
				return
			}
		}
	}()
}

// tick recomputes remaining time from the start anchor and publishes a
// snapshot. At zero it stops the tick and schedules onTimeUp exactly once.
// Returns false when the tick loop should end.
func (e *Engine) tick() bool {
	e.mu.Lock()

	if e.submitted {
		e.stopTimerLocked()
		e.mu.Unlock()
		return false
	}

	remaining := timeutil.Remaining(e.startedAt, e.timeLimit, e.now())
	e.broadcastLocked()

	if remaining > 0 {
		e.mu.Unlock()
		return true
	}

	e.stopTimerLocked()
	fire := !e.timeUpFired && e.onTimeUp != nil
	e.timeUpFired = true
	delay := e.timeUpDelay
	callback := e.onTimeUp
	e.mu.Unlock()

	if fire {
		time.AfterFunc(delay, callback)
	}
	return false
}

func (e *Engine) stopTimerLocked() {
	if e.stopTick != nil {
		close(e.stopTick)
		e.stopTick = nil
	}
}

func (e *Engine) broadcastLocked() {
	snap := e.snapshotLocked()
	for ch := range e.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the stale snapshot so a slow consumer never blocks the tick.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (e *Engine) snapshotLocked() Snapshot {
	now := e.now()
	return Snapshot{
		CurrentQuestionIndex: e.currentIndex,
		Answered:             len(e.answers),
		Total:                e.totalQuestions,
		TimeRemaining:        timeutil.Remaining(e.startedAt, e.timeLimit, now),
		Elapsed:              timeutil.Elapsed(e.startedAt, now),
		IsSubmitted:          e.submitted,
	}
}
