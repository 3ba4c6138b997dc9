package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/banterlab/vetta/internal/interview"
	"github.com/banterlab/vetta/internal/models"
	"github.com/banterlab/vetta/internal/spinner"
)

func newInterviewCommand() *cobra.Command {
	var topic string
	var name string
	var role string
	var difficultyFlag string
	var maxQuestions int
	var useMock bool

	cmd := &cobra.Command{
		Use:   "interview",
		Short: "Run an interview in the terminal",
		Long: `Run a full interview session interactively in the terminal.

Questions adapt to your performance: strong answers raise the difficulty
tier, weak answers lower it. After the last answer a final report with
per-dimension scores is printed.

Use --mock to run offline with the scripted generator.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(useMock)
			if err != nil {
				return err
			}
			defer app.close()

			if name == "" || topic == "" {
				if err := runSetupForm(&name, &topic, &role, &difficultyFlag); err != nil {
					return err
				}
			}

			stop := spinner.Start(os.Stderr, "Preparing your first question...")
			start, err := app.machine.Start(cmd.Context(), interview.StartRequest{
				CandidateName: name,
				Topic:         topic,
				TargetRole:    role,
				MaxQuestions:  maxQuestions,
				Difficulty:    difficultyFlag,
			})
			stop()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n%s\n", start.Greeting)

			question := start.Question
			number := start.QuestionNumber
			tier := start.Tier
			for {
				fmt.Fprintf(out, "\nQuestion %d [%s]\n%s\n\n", number, tier, question)

				answer, err := promptAnswer()
				if err != nil {
					return err
				}

				stop = spinner.Start(os.Stderr, "Evaluating your answer...")
				res, err := app.machine.Submit(cmd.Context(), start.SessionID, answer)
				stop()
				if err != nil {
					return err
				}

				if res.Evaluation != nil {
					printEvaluation(out, res.Evaluation)
				}
				if res.Status == interview.StatusCompleted {
					printReport(out, res.FinalReport)
					return nil
				}
				question = res.NextQuestion
				number = res.QuestionNumber
				tier = res.Tier
			}
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Candidate name")
	cmd.Flags().StringVar(&topic, "topic", "", "Interview topic")
	cmd.Flags().StringVar(&role, "role", "", "Target role (optional)")
	cmd.Flags().StringVar(&difficultyFlag, "difficulty", "", "Starting difficulty: easy, medium, or hard")
	cmd.Flags().IntVar(&maxQuestions, "questions", 0, "Number of questions (defaults to config value)")
	cmd.Flags().BoolVar(&useMock, "mock", false, "Use the offline mock generator instead of the model API")

	return cmd
}

// runSetupForm collects missing interview parameters interactively.
func runSetupForm(name, topic, role, difficulty *string) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Candidate name").
				Value(name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Topic").
				Description("What should the interview cover?").
				Placeholder("algorithms").
				Value(topic).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("topic is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Target role").
				Description("Optional").
				Value(role),
			huh.NewSelect[string]().
				Title("Starting difficulty").
				Options(
					huh.NewOption("easy", "easy"),
					huh.NewOption("medium", "medium"),
					huh.NewOption("hard", "hard"),
				).
				Value(difficulty),
		),
	)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		form = form.WithAccessible(true)
	}
	if err := form.Run(); err != nil {
		return fmt.Errorf("interview setup failed: %w", err)
	}
	return nil
}

func promptAnswer() (string, error) {
	var answer string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Your answer").
				Value(&answer).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("answer must not be empty")
					}
					return nil
				}),
		),
	)
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		form = form.WithAccessible(true)
	}
	if err := form.Run(); err != nil {
		return "", err
	}
	return answer, nil
}

func printEvaluation(out io.Writer, eval *models.EvaluationResult) {
	fmt.Fprintf(out, "Score: %.1f/10", eval.BlendedScore)
	if eval.Degraded {
		fmt.Fprint(out, " (heuristic only)")
	}
	fmt.Fprintln(out)
	for dim, score := range eval.DimensionScores {
		fmt.Fprintf(out, "  %-20s %.1f\n", dim, score)
	}
	if eval.Feedback != "" {
		fmt.Fprintf(out, "Feedback: %s\n", eval.Feedback)
	}
}

func printReport(out io.Writer, report *models.FinalReport) {
	if report == nil {
		return
	}
	fmt.Fprintf(out, "\nInterview complete: %s on %s\n", report.CandidateName, report.Topic)
	fmt.Fprintf(out, "Overall score: %.1f/10 across %d questions (final tier: %s)\n",
		report.OverallScore, report.QuestionCount, report.FinalTier)
	for dim, avg := range report.DimensionAverages {
		fmt.Fprintf(out, "  %-20s %.1f\n", dim, avg)
	}
	if len(report.Strengths) > 0 {
		fmt.Fprintf(out, "Strengths: %s\n", strings.Join(report.Strengths, ", "))
	}
	if len(report.Gaps) > 0 {
		fmt.Fprintf(out, "Gaps: %s\n", strings.Join(report.Gaps, ", "))
	}
}
