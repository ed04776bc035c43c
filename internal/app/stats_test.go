package app

import (
	"context"
	"testing"
	"time"

	"quiz-session-client/internal/domain"
	"quiz-session-client/internal/infra/memory"
)

func TestComputeUserStatsWeightsByQuizSize(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: now}
	store := memory.NewAttemptStoreWithClock(clock.Now)
	svc := NewAttemptService(store, &stubClient{t: t}, memory.NewStaticQuizSource(nil))
	svc.now = clock.Now

	completed := now.Add(-time.Hour)
	seed := []domain.Attempt{
		// 2/10, passed=false, 120s, recent.
		{ID: 1, QuizID: 1, Score: 2, TotalQuestions: 10, TimeTaken: 120,
			StartedAt: now.Add(-2 * time.Hour), CompletedAt: &completed, IsCompleted: true},
		// 8/10, passed=true, 240s, old.
		{ID: 2, QuizID: 2, Score: 8, TotalQuestions: 10, TimeTaken: 240,
			StartedAt: now.AddDate(0, 0, -30), CompletedAt: &completed, IsCompleted: true},
		// Incomplete, recent; counts toward totals and recency only.
		{ID: 3, QuizID: 3, TotalQuestions: 5, StartedAt: now.Add(-time.Minute)},
	}
	for _, a := range seed {
		if err := store.SaveAttempt(context.Background(), a); err != nil {
			t.Fatalf("seed attempt %d: %v", a.ID, err)
		}
	}

	stats, err := svc.ComputeUserStats(context.Background())
	if err != nil {
		t.Fatalf("ComputeUserStats: %v", err)
	}

	if stats.TotalAttempts != 3 || stats.CompletedAttempts != 2 {
		t.Fatalf("totals = %d/%d, want 3/2", stats.TotalAttempts, stats.CompletedAttempts)
	}
	// Weighted: (2+8)/(10+10) = 50, not the 50/50 mean of 20% and 80%.
	if stats.AverageScore != 50 {
		t.Fatalf("AverageScore = %d, want 50", stats.AverageScore)
	}
	if stats.PassRate != 50 {
		t.Fatalf("PassRate = %d, want 50", stats.PassRate)
	}
	if stats.TotalTimeSpent != 360 {
		t.Fatalf("TotalTimeSpent = %d, want 360", stats.TotalTimeSpent)
	}
	if stats.AverageTimePerQuiz != 180 {
		t.Fatalf("AverageTimePerQuiz = %d, want 180", stats.AverageTimePerQuiz)
	}
	if stats.RecentActivity != 2 {
		t.Fatalf("RecentActivity = %d, want 2", stats.RecentActivity)
	}
}

func TestComputeUserStatsEmptyHistory(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)}
	store := memory.NewAttemptStore()
	svc := NewAttemptService(store, &stubClient{t: t}, memory.NewStaticQuizSource(nil))
	svc.now = clock.Now

	stats, err := svc.ComputeUserStats(context.Background())
	if err != nil {
		t.Fatalf("ComputeUserStats: %v", err)
	}
	if stats != (domain.UserStats{}) {
		t.Fatalf("stats = %+v, want zero value", stats)
	}
}
