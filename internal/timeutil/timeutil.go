// Package timeutil computes attempt timing from a fixed start instant and the
// current clock. All functions are pure and safe to call from any goroutine.
package timeutil

import (
	"fmt"
	"math"
	"time"

	"quiz-session-client/internal/domain"
)

// MaxSeconds caps any stored or reported duration at 24 hours. Values beyond
// it are treated as clock anomalies.
const MaxSeconds = 86400

// CriticalThreshold marks the remaining-time band where a countdown should be
// highlighted (five minutes).
const CriticalThreshold = 300

// Elapsed returns whole seconds between start and now, floored. It is
// non-decreasing as long as now is; backward clock jumps are not defended.
func Elapsed(start, now time.Time) int {
	return int(math.Floor(now.Sub(start).Seconds()))
}

// Remaining returns the seconds left before the limit expires, never below
// zero. For limit <= 0 it returns 0; callers must distinguish "untimed" from
// "time's up" with a separate has-time-limit flag, since 0 is ambiguous here.
func Remaining(start time.Time, limit int, now time.Time) int {
	if limit <= 0 {
		return 0
	}
	remaining := limit - Elapsed(start, now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Between returns whole seconds between two instants, floored.
func Between(start, end time.Time) int {
	return int(math.Floor(end.Sub(start).Seconds()))
}

// Validate clamps a second count to [0, MaxSeconds]. Negative input maps to 0.
// Idempotent: Validate(Validate(x)) == Validate(x).
func Validate(seconds int) int {
	if seconds < 0 {
		return 0
	}
	if seconds > MaxSeconds {
		return MaxSeconds
	}
	return seconds
}

// ValidateFloat guards values arriving from JSON payloads, where NaN and
// infinities are representable, before converting to whole seconds.
func ValidateFloat(seconds float64) int {
	if math.IsNaN(seconds) || seconds < 0 {
		return 0
	}
	if math.IsInf(seconds, 1) || seconds > MaxSeconds {
		return MaxSeconds
	}
	return int(math.Floor(seconds))
}

// FormatTime renders a second count as M:SS. Invalid input renders as 0:00.
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// IsCritical reports whether a positive remaining time is inside the
// highlight band.
func IsCritical(remaining int) bool {
	return remaining > 0 && remaining <= CriticalThreshold
}

// AverageTime returns the mean validated time_taken across completed
// attempts, rounded to the nearest second. Zero when none are completed.
func AverageTime(attempts []domain.Attempt) int {
	total, count := 0, 0
	for _, a := range attempts {
		if !a.IsCompleted || a.TimeTaken == 0 {
			continue
		}
		total += Validate(a.TimeTaken)
		count++
	}
	if count == 0 {
		return 0
	}
	return int(math.Round(float64(total) / float64(count)))
}

// AttemptElapsed reports the truthful elapsed seconds for an attempt: the
// frozen time_taken once completed, otherwise live wall-clock elapsed time.
func AttemptElapsed(a domain.Attempt, now time.Time) int {
	if a.IsCompleted && a.TimeTaken > 0 {
		return Validate(a.TimeTaken)
	}
	return Validate(Elapsed(a.StartedAt, now))
}
