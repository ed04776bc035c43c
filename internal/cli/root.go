package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	port         string
	configPath   string
	storeBackend string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envPort := os.Getenv("PORT")
	if envPort == "" {
		envPort = "8080"
	}
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:   "quiz-session",
		Short: "Take quizzes against a remote backend with crash-safe local attempt history",
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().StringVar(&storeBackend, "store", os.Getenv("QUIZ_STORE"), "override store backend (memory|file|redis|postgres)")
	cmd.PersistentFlags().StringVar(&port, "port", envPort, "port the serve command listens on")
	cmd.AddCommand(NewTakeCmd(&configPath))
	cmd.AddCommand(NewStatsCmd(&configPath))
	cmd.AddCommand(NewCleanCmd(&configPath))
	cmd.AddCommand(NewServeCmd(&configPath, &port))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	return cmd
}
