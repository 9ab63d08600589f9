package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/pyquest/internal/feedback"
	"github.com/abhisek/pyquest/internal/progress"
)

var flipCmd = &cobra.Command{
	Use:   "flip <chapter> <card>",
	Short: "Flip a flashcard",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := intArgs(args, "chapter", "card")
		if err != nil {
			return err
		}
		return withApp(cmd, func(a *app) error {
			return flip(a, ids[0], ids[1])
		})
	},
}

var answerCmd = &cobra.Command{
	Use:   "answer <chapter> <question> <option>",
	Short: "Answer a quiz question (options are numbered from 1)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := intArgs(args, "chapter", "question", "option")
		if err != nil {
			return err
		}
		quiet, _ := cmd.Flags().GetBool("no-feedback")
		return withApp(cmd, func(a *app) error {
			var fb *feedback.Generator
			if !quiet {
				fb = a.feedbackGenerator(cmd.Context())
			}
			return answer(cmd.Context(), a, fb, ids[0], ids[1], ids[2]-1)
		})
	},
}

var redoCmd = &cobra.Command{
	Use:   "redo <chapter>",
	Short: "Clear a chapter's quiz answers so it can be retried",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := intArgs(args, "chapter")
		if err != nil {
			return err
		}
		return withApp(cmd, func(a *app) error {
			return redo(a, ids[0])
		})
	},
}

func init() {
	answerCmd.Flags().Bool("no-feedback", false, "Skip tutoring feedback")
}

func intArgs(args []string, names ...string) ([]int, error) {
	out := make([]int, len(names))
	for i, name := range names {
		n, err := strconv.Atoi(args[i])
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: must be a number", name, args[i])
		}
		out[i] = n
	}
	return out, nil
}

func flip(a *app, chapterID, cardID int) error {
	before := a.engine.Snapshot()
	flipped, err := a.engine.FlipCard(chapterID, cardID)
	if err != nil {
		return err
	}
	card := a.catalog.Chapter(chapterID).Card(cardID)
	fmt.Printf("%s\n  → %s\n", card.Front, card.Back)
	if !flipped {
		fmt.Println("(already flipped)")
		return nil
	}
	fmt.Printf("+%d points\n", progress.FlipPoints)
	announceCompletion(a, before, chapterID)
	return nil
}

func answer(ctx context.Context, a *app, fb *feedback.Generator, chapterID, questionID, option int) error {
	ch := a.catalog.Chapter(chapterID)
	if cv := a.engine.View().Chapter(chapterID); cv != nil && cv.Unlocked {
		for _, qv := range cv.Questions {
			if qv.Question.ID == questionID && qv.State.Answered() {
				fmt.Printf("Already answered (%s). Use `pyquest redo %d` once every activity is done to retry.\n",
					correctness(qv.State.Correct()), chapterID)
				return nil
			}
		}
	}

	before := a.engine.Snapshot()
	correct, err := a.engine.AnswerQuestion(chapterID, questionID, option)
	if err != nil {
		return err
	}
	q := ch.Question(questionID)
	if correct {
		fmt.Printf("Correct! +%d points\n", progress.CorrectPoints)
	} else {
		fmt.Printf("Not quite. The answer is %q.\n", q.CorrectOption())
	}

	if fb != nil {
		in := feedback.AnswerInput{
			QuestionText:  q.Prompt,
			StudentAnswer: q.Options[option],
			CorrectAnswer: q.CorrectOption(),
			ChapterTitle:  ch.Title,
			Difficulty:    string(ch.Difficulty),
			Topic:         ch.TopicName(),
		}
		if p := a.engine.Performance(chapterID); p != nil {
			in.AchieverStatus = p.Status
			in.TotalAnswered = p.TotalAnswered
			in.CorrectCount = p.CorrectCount
		}
		printFeedback(fb.Analyze(ctx, in))
	}

	announceCompletion(a, before, chapterID)
	if cv := a.engine.View().Chapter(chapterID); cv != nil && cv.NeedsRedo {
		fmt.Printf("\nAll activities done, but not every answer was right. Run `pyquest redo %d` to try the quiz again.\n", chapterID)
	}
	return nil
}

func redo(a *app, chapterID int) error {
	if err := a.engine.RedoChapter(chapterID); err != nil {
		return err
	}
	fmt.Printf("Chapter %d quiz cleared. Flashcards and points are kept.\n", chapterID)
	return nil
}

func announceCompletion(a *app, before progress.Snapshot, chapterID int) {
	after := a.engine.Snapshot()
	if before.ChapterCompleted(chapterID) || !after.ChapterCompleted(chapterID) {
		return
	}
	fmt.Printf("\nChapter %d complete! +%d points\n", chapterID, progress.CompletionPoints)
	if next := a.catalog.Chapter(chapterID + 1); next != nil {
		fmt.Printf("Unlocked chapter %d: %s\n", next.ID, next.Title)
	}
}

func correctness(ok bool) string {
	if ok {
		return "correct"
	}
	return "incorrect"
}

func printFeedback(f *feedback.Feedback) {
	fmt.Println()
	fmt.Println(f.Explanation)
	fmt.Println(f.Encouragement)
	if len(f.NextSteps) > 0 {
		fmt.Println("Next steps:")
		for _, s := range f.NextSteps {
			fmt.Println("  •", s)
		}
	}
	if len(f.RelatedTopics) > 0 && f.Source == feedback.SourceModel {
		fmt.Println("Related:", strings.Join(f.RelatedTopics, ", "))
	}
}
