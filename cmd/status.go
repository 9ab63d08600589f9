package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/pyquest/internal/progress"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show points, eggs, chapters, creatures and projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		chapter, _ := cmd.Flags().GetInt("chapter")
		return withApp(cmd, func(a *app) error {
			v := a.engine.View()
			if chapter > 0 {
				cv := v.Chapter(chapter)
				if cv == nil {
					return fmt.Errorf("chapter %d: %w", chapter, progress.ErrUnknownChapter)
				}
				printChapter(cv)
				return nil
			}
			fmt.Printf("Learner: %s\n\n", a.who())
			printSummary(v)
			return nil
		})
	},
}

func init() {
	statusCmd.Flags().IntP("chapter", "c", 0, "Show the cards and questions of one chapter")
}

func printSummary(v *progress.GameView) {
	fmt.Printf("Points: %d   Eggs: %d   Creatures: %d/%d\n\n",
		v.Points, v.Eggs, v.CollectedCount(), len(v.Creatures))

	fmt.Println("Chapters")
	fmt.Println(strings.Repeat("─", 64))
	for _, cv := range v.Chapters {
		mark := " "
		switch {
		case cv.Completed:
			mark = "✓"
		case cv.NeedsRedo:
			mark = "↺"
		case !cv.Unlocked:
			mark = "🔒"
		case cv.Chapter.ID == v.CurrentChapter:
			mark = "▶"
		}
		fmt.Printf("%-2s %2d. %-36s  cards %d/%d  quiz %d/%d\n",
			mark, cv.Chapter.ID, truncate(cv.Chapter.Title, 36),
			cv.FlippedCount(), len(cv.Cards), cv.AnsweredCount(), len(cv.Questions))
	}

	fmt.Println()
	fmt.Println("Projects")
	fmt.Println(strings.Repeat("─", 64))
	for _, pv := range v.Projects {
		mark := " "
		switch {
		case pv.Completed:
			mark = "✓"
		case !pv.Unlocked:
			mark = "🔒"
		}
		fmt.Printf("%-2s %2d. %-36s  %3d pts  %s\n",
			mark, pv.Project.ID, truncate(pv.Project.Title, 36), pv.Project.Points, pv.Project.Difficulty)
	}
}

func printChapter(cv *progress.ChapterView) {
	ch := cv.Chapter
	fmt.Printf("Chapter %d: %s (%s)\n", ch.ID, ch.Title, ch.Difficulty)
	if ch.Description != "" {
		fmt.Println(ch.Description)
	}
	switch {
	case !cv.Unlocked:
		fmt.Println("Locked: complete the previous chapter first.")
		return
	case cv.Completed:
		fmt.Println("Completed.")
	case cv.NeedsRedo:
		fmt.Printf("Every activity is done but some answers were wrong. Run `pyquest redo %d` to retry the quiz.\n", ch.ID)
	}

	fmt.Println()
	fmt.Println("Flashcards")
	for _, c := range cv.Cards {
		if c.Flipped {
			fmt.Printf("  [%d] %s\n      → %s\n", c.Card.ID, c.Card.Front, c.Card.Back)
		} else {
			fmt.Printf("  [%d] %s\n", c.Card.ID, c.Card.Front)
		}
	}

	fmt.Println()
	fmt.Println("Quiz")
	for _, q := range cv.Questions {
		state := ""
		switch q.State {
		case progress.AnsweredCorrect:
			state = "  ✓"
		case progress.AnsweredIncorrect:
			state = "  ✗"
		}
		fmt.Printf("  [%d] %s%s\n", q.Question.ID, q.Question.Prompt, state)
		for i, opt := range q.Question.Options {
			fmt.Printf("        %d) %s\n", i+1, opt)
		}
	}

	if p := cv.Performance; p != nil {
		fmt.Printf("\nQuiz: %d/%d correct (%s)", p.CorrectCount, p.TotalAnswered, p.Status)
		if cv.QuizResets > 0 {
			fmt.Printf(", retried %d time(s)", cv.QuizResets)
		}
		fmt.Println()
	}
}
