package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"quiz-session-client/internal/domain"
	"quiz-session-client/internal/timeutil"
)

// recentActivityWindow bounds what counts as recent in UserStats.
const recentActivityWindow = 7 * 24 * time.Hour

// ComputeUserStats aggregates the whole attempt history. Scores are weighted
// by quiz size, so a 2/10 and an 8/10 average to 50 rather than a mean of
// per-quiz percentages. Only completed attempts contribute to score, pass and
// time figures; incomplete ones still count toward totals and recency.
func (s *AttemptService) ComputeUserStats(ctx context.Context) (domain.UserStats, error) {
	attempts, err := s.store.Attempts(ctx)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("load attempts: %w", err)
	}

	var (
		stats         domain.UserStats
		totalScore    int
		totalPossible int
		passed        int
	)
	cutoff := s.now().Add(-recentActivityWindow)

	for _, a := range attempts {
		stats.TotalAttempts++
		if a.StartedAt.After(cutoff) {
			stats.RecentActivity++
		}
		if !a.IsCompleted {
			continue
		}
		stats.CompletedAttempts++
		totalScore += a.Score
		totalPossible += a.TotalQuestions
		stats.TotalTimeSpent += timeutil.Validate(a.TimeTaken)
		if a.TotalQuestions > 0 &&
			float64(a.Score)/float64(a.TotalQuestions) >= domain.PassThreshold {
			passed++
		}
	}

	if totalPossible > 0 {
		stats.AverageScore = int(math.Round(float64(totalScore) / float64(totalPossible) * 100))
	}
	if stats.CompletedAttempts > 0 {
		stats.PassRate = int(math.Round(float64(passed) / float64(stats.CompletedAttempts) * 100))
		stats.AverageTimePerQuiz = stats.TotalTimeSpent / stats.CompletedAttempts
	}
	return stats, nil
}
