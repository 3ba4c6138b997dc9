package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/banterlab/vetta/internal/models"
	"github.com/banterlab/vetta/internal/projectconfig"
	"github.com/banterlab/vetta/internal/session"
)

func newSessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect persisted interview sessions",
	}

	cmd.AddCommand(newSessionListCommand())
	cmd.AddCommand(newSessionShowCommand())
	cmd.AddCommand(newSessionDeleteCommand())

	return cmd
}

func openSessionDB() (*session.Persister, error) {
	cfg, err := projectconfig.Load(".")
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, err
	}
	return session.OpenPersister(filepath.Join(cfg.DataDir, "sessions.db"))
}

func newSessionListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List persisted sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			persister, err := openSessionDB()
			if err != nil {
				return err
			}
			defer persister.Close() //nolint:errcheck

			sessions, err := persister.LoadAll()
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions.")
				return nil
			}

			sort.Slice(sessions, func(i, j int) bool {
				return sessions[i].LastActivity.After(sessions[j].LastActivity)
			})
			for _, s := range sessions {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-16s %-20s %s  question %d/%d\n",
					s.ID, s.Phase, s.CandidateName, s.Topic, s.QuestionNumber, s.MaxQuestions)
			}
			return nil
		},
	}
}

func newSessionShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show one session's history and scores",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			persister, err := openSessionDB()
			if err != nil {
				return err
			}
			defer persister.Close() //nolint:errcheck

			sessions, err := persister.LoadAll()
			if err != nil {
				return err
			}
			for _, s := range sessions {
				if s.ID != args[0] {
					continue
				}
				printSession(cmd, s)
				return nil
			}
			return fmt.Errorf("session %s not found", args[0])
		},
	}
}

func printSession(cmd *cobra.Command, s *models.InterviewSession) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session %s\n", s.ID)
	fmt.Fprintf(out, "  Candidate: %s\n", s.CandidateName)
	fmt.Fprintf(out, "  Topic:     %s\n", s.Topic)
	if s.TargetRole != "" {
		fmt.Fprintf(out, "  Role:      %s\n", s.TargetRole)
	}
	fmt.Fprintf(out, "  Phase:     %s (question %d/%d, tier %s)\n",
		s.Phase, s.QuestionNumber, s.MaxQuestions, s.CurrentTier)

	for i, qa := range s.QAHistory {
		fmt.Fprintf(out, "\n  Q%d [%s]: %s\n", i+1, qa.Tier, qa.Question)
		if qa.Evaluation != nil {
			fmt.Fprintf(out, "  Score: %.1f\n", qa.Evaluation.BlendedScore)
		}
	}
	if s.Report != nil {
		fmt.Fprintf(out, "\n  Overall: %.1f/10\n", s.Report.OverallScore)
	}
}

func newSessionDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a persisted session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			persister, err := openSessionDB()
			if err != nil {
				return err
			}
			defer persister.Close() //nolint:errcheck

			if err := persister.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}
