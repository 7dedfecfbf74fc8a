package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chatlens",
		Short: "ChatLens - multi-judge evaluation of customer-service transcripts",
		Long: `ChatLens scores customer-service chat transcripts against a weighted
rubric by fanning each transcript out to a panel of LLM judges, then
consolidates the panel's scores with outlier detection, agreement
measurement, and a calibrated confidence figure.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newEvaluateCommand())
	cmd.AddCommand(newProvidersCommand())
	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newInitCommand())

	return cmd
}

func execute() error {
	return newRootCommand().Execute()
}
