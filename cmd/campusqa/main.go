// CampusQA - campus question-answering assistant with a human-in-the-loop
// correction workflow.
package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	root := &cobra.Command{
		Use:   "campusqa",
		Short: "Campus Q&A assistant with reviewer-corrected answers",
	}

	root.AddCommand(serveCmd(), chatCmd(), reviewCmd(), notificationsCmd(), addReviewerCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
