package cli

import (
	"fmt"

	"quiz-session-client/internal/config"
	"quiz-session-client/internal/timeutil"
	"github.com/spf13/cobra"
)

// NewStatsCmd prints aggregate statistics over the local attempt history.
func NewStatsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show attempt history statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			svc, closer, err := buildService(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closer()

			stats, err := svc.ComputeUserStats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Attempts:        %d (%d completed)\n", stats.TotalAttempts, stats.CompletedAttempts)
			fmt.Fprintf(out, "Average score:   %d%%\n", stats.AverageScore)
			fmt.Fprintf(out, "Pass rate:       %d%%\n", stats.PassRate)
			fmt.Fprintf(out, "Total time:      %s\n", timeutil.FormatTime(stats.TotalTimeSpent))
			fmt.Fprintf(out, "Avg time/quiz:   %s\n", timeutil.FormatTime(stats.AverageTimePerQuiz))
			fmt.Fprintf(out, "Last 7 days:     %d attempts\n", stats.RecentActivity)
			return nil
		},
	}
}
