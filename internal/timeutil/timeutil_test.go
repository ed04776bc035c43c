package timeutil

import (
	"math"
	"testing"
	"time"

	"quiz-session-client/internal/domain"
)

func TestElapsedFloorsToSeconds(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		now  time.Time
		want int
	}{
		{start, 0},
		{start.Add(999 * time.Millisecond), 0},
		{start.Add(time.Second), 1},
		{start.Add(90*time.Second + 500*time.Millisecond), 90},
	}
	for _, tc := range cases {
		if got := Elapsed(start, tc.now); got != tc.want {
			t.Fatalf("Elapsed at %v: got %d, want %d", tc.now, got, tc.want)
		}
	}
}

func TestElapsedNonDecreasing(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	prev := -1
	for i := 0; i < 10; i++ {
		now := start.Add(time.Duration(i) * 700 * time.Millisecond)
		got := Elapsed(start, now)
		if got < prev {
			t.Fatalf("elapsed decreased: %d after %d", got, prev)
		}
		prev = got
	}
}

func TestRemainingBounds(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	limit := 60

	for i := 0; i <= 120; i += 10 {
		now := start.Add(time.Duration(i) * time.Second)
		got := Remaining(start, limit, now)
		if got < 0 || got > limit {
			t.Fatalf("remaining out of [0,%d]: %d at elapsed=%d", limit, got, i)
		}
	}

	if got := Remaining(start, limit, start.Add(60*time.Second)); got != 0 {
		t.Fatalf("expected remaining 0 at the limit, got %d", got)
	}
	if got := Remaining(start, limit, start.Add(2*time.Hour)); got != 0 {
		t.Fatalf("expected remaining to stay 0 past the limit, got %d", got)
	}
	if got := Remaining(start, 0, start.Add(time.Hour)); got != 0 {
		t.Fatalf("expected 0 for untimed quiz, got %d", got)
	}
}

func TestValidateClampsAndIsIdempotent(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{-5, 0},
		{0, 0},
		{120, 120},
		{MaxSeconds, MaxSeconds},
		{MaxSeconds + 1, MaxSeconds},
		{1 << 40, MaxSeconds},
	}
	for _, tc := range cases {
		got := Validate(tc.in)
		if got != tc.want {
			t.Fatalf("Validate(%d): got %d, want %d", tc.in, got, tc.want)
		}
		if Validate(got) != got {
			t.Fatalf("Validate not idempotent for %d", tc.in)
		}
		if got < 0 || got > MaxSeconds {
			t.Fatalf("Validate(%d) out of range: %d", tc.in, got)
		}
	}
}

func TestValidateFloatHandlesNonFinite(t *testing.T) {
	if got := ValidateFloat(math.NaN()); got != 0 {
		t.Fatalf("NaN should map to 0, got %d", got)
	}
	if got := ValidateFloat(math.Inf(1)); got != MaxSeconds {
		t.Fatalf("+Inf should clamp to max, got %d", got)
	}
	if got := ValidateFloat(math.Inf(-1)); got != 0 {
		t.Fatalf("-Inf should map to 0, got %d", got)
	}
	if got := ValidateFloat(59.9); got != 59 {
		t.Fatalf("expected floor to 59, got %d", got)
	}
}

func TestFormatTime(t *testing.T) {
	cases := []struct {
		in   int
		want string
	}{
		{0, "0:00"},
		{-3, "0:00"},
		{5, "0:05"},
		{65, "1:05"},
		{600, "10:00"},
	}
	for _, tc := range cases {
		if got := FormatTime(tc.in); got != tc.want {
			t.Fatalf("FormatTime(%d): got %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsCritical(t *testing.T) {
	if IsCritical(0) {
		t.Fatalf("0 is not critical (0 means untimed or expired)")
	}
	if !IsCritical(300) || !IsCritical(1) {
		t.Fatalf("values inside (0,300] should be critical")
	}
	if IsCritical(301) {
		t.Fatalf("301 should not be critical")
	}
}

func TestAverageTimeSkipsIncomplete(t *testing.T) {
	attempts := []domain.Attempt{
		{ID: 1, IsCompleted: true, TimeTaken: 100},
		{ID: 2, IsCompleted: true, TimeTaken: 200},
		{ID: 3, IsCompleted: false, TimeTaken: 999},
	}
	if got := AverageTime(attempts); got != 150 {
		t.Fatalf("expected average 150, got %d", got)
	}
	if got := AverageTime(nil); got != 0 {
		t.Fatalf("expected 0 for no attempts, got %d", got)
	}
}

func TestAttemptElapsed(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	now := start.Add(5 * time.Minute)

	completed := domain.Attempt{StartedAt: start, IsCompleted: true, TimeTaken: 42}
	if got := AttemptElapsed(completed, now); got != 42 {
		t.Fatalf("completed attempt should report frozen time, got %d", got)
	}

	inProgress := domain.Attempt{StartedAt: start}
	if got := AttemptElapsed(inProgress, now); got != 300 {
		t.Fatalf("in-progress attempt should report live elapsed, got %d", got)
	}
}
