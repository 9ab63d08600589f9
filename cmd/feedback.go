package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/pyquest/internal/feedback"
	"github.com/abhisek/pyquest/internal/progress"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Inspect the AI tutor backend",
}

var feedbackPingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the configured model answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			start := time.Now()
			err := a.feedbackGenerator(cmd.Context()).Ping(cmd.Context())
			switch {
			case errors.Is(err, feedback.ErrNotConfigured):
				fmt.Println("No model configured; feedback uses built-in responses.")
				return nil
			case err != nil:
				return fmt.Errorf("model unreachable: %w", err)
			}
			fmt.Printf("Model reachable (%dms).\n", time.Since(start).Milliseconds())
			return nil
		})
	},
}

var hintCmd = &cobra.Command{
	Use:   "hint <chapter> <question>",
	Short: "Get a hint for a quiz question",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := intArgs(args, "chapter", "question")
		if err != nil {
			return err
		}
		return withApp(cmd, func(a *app) error {
			ch := a.catalog.Chapter(ids[0])
			if ch == nil {
				return fmt.Errorf("chapter %d: %w", ids[0], progress.ErrUnknownChapter)
			}
			q := ch.Question(ids[1])
			if q == nil {
				return fmt.Errorf("question %d: %w", ids[1], progress.ErrUnknownQuestion)
			}
			status, _ := a.engine.AchieverStatus(ch.ID)
			hint := a.feedbackGenerator(cmd.Context()).Hint(cmd.Context(), feedback.HintInput{
				QuestionText:   q.Prompt,
				ChapterTitle:   ch.Title,
				Topic:          ch.TopicName(),
				AchieverStatus: status,
			})
			fmt.Println("💡", hint)
			return nil
		})
	},
}

func init() {
	feedbackCmd.AddCommand(feedbackPingCmd)
}
