package cli

import (
	"fmt"

	"quiz-session-client/internal/app"
	"quiz-session-client/internal/config"
	"github.com/spf13/cobra"
)

// NewCleanCmd prunes old records from the local attempt history.
func NewCleanCmd(configPath *string) *cobra.Command {
	var (
		days int
		all  bool
	)
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Prune old attempt history",
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

			if all {
				if err := svc.ClearAllHistory(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "history cleared")
				return nil
			}
			if err := svc.ClearHistory(cmd.Context(), days); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pruned attempts older than %d days\n", days)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", app.DefaultRetentionDays, "retention window in days")
	cmd.Flags().BoolVar(&all, "all", false, "remove the entire history")
	return cmd
}
