package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vetta",
		Short: "Vetta - adaptive technical interview engine",
		Long: `Vetta is an adaptive technical interview engine.

It drives multi-turn interview sessions: generating questions, scoring
answers across heuristic, semantic, and model-based signals, and adapting
question difficulty to the candidate's performance.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	// Add subcommands
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newInterviewCommand())
	cmd.AddCommand(newSessionCommand())
	cmd.AddCommand(newCacheCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
