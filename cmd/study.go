package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/pyquest/internal/catalog"
	"github.com/abhisek/pyquest/internal/feedback"
	"github.com/abhisek/pyquest/internal/progress"
)

var studyCmd = &cobra.Command{
	Use:   "study",
	Short: "Start an interactive study session",
	RunE:  runStudy,
}

const studyHelp = `Commands:
  status                      points, eggs and chapter list
  chapter <n>                 show a chapter's cards and quiz
  flip <chapter> <card>       flip a flashcard
  answer <ch> <q> <option>    answer a question (options from 1)
  hint <chapter> <question>   ask the tutor for a hint
  redo <chapter>              retry a chapter's quiz
  shop                        egg prices
  buy <tier>                  buy an egg (common, rare, epic, legendary)
  hatch                       hatch an egg
  project [n]                 list projects or show one
  save                        save now
  signup <email>              create an account
  login <email>               sign in
  logout                      save and sign out
  help                        this list
  quit                        save and leave`

// runStudy runs a line-oriented session. Progress is saved in the
// background.
func runStudy(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(a *app) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		saver := progress.NewAutosaver(a.engine, cfg.Autosave, logger)
		if err := saver.Start(); err != nil {
			return fmt.Errorf("start autosave: %w", err)
		}
		defer saver.Stop()

		s := &studySession{app: a, fb: a.feedbackGenerator(ctx), in: bufio.NewScanner(cmd.InOrStdin())}
		fmt.Printf("Welcome to PyQuest, %s!\n\n", a.who())
		printSummary(a.engine.View())
		fmt.Println("\nType `help` for commands.")
		return s.loop(ctx)
	})
}

type studySession struct {
	app *app
	fb  *feedback.Generator
	in  *bufio.Scanner
}

func (s *studySession) loop(ctx context.Context) error {
	for {
		fmt.Print("\npyquest> ")
		if !s.in.Scan() {
			fmt.Println()
			return s.in.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		fields := strings.Fields(s.in.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return nil
		}
		if err := s.run(ctx, fields[0], fields[1:]); err != nil {
			if errors.Is(err, progress.ErrLoading) {
				fmt.Println("Your progress is still loading; try again in a moment.")
				continue
			}
			fmt.Println("Error:", err)
		}
	}
}

func (s *studySession) run(ctx context.Context, name string, args []string) error {
	a := s.app
	need := func(names ...string) ([]int, error) {
		if len(args) != len(names) {
			return nil, fmt.Errorf("usage: %s <%s>", name, strings.Join(names, "> <"))
		}
		return intArgs(args, names...)
	}

	switch name {
	case "help", "?":
		fmt.Println(studyHelp)
	case "status":
		printSummary(a.engine.View())
	case "chapter":
		ids, err := need("chapter")
		if err != nil {
			return err
		}
		cv := a.engine.View().Chapter(ids[0])
		if cv == nil {
			return progress.ErrUnknownChapter
		}
		printChapter(cv)
	case "flip":
		ids, err := need("chapter", "card")
		if err != nil {
			return err
		}
		return flip(a, ids[0], ids[1])
	case "answer":
		ids, err := need("chapter", "question", "option")
		if err != nil {
			return err
		}
		return answer(ctx, a, s.fb, ids[0], ids[1], ids[2]-1)
	case "hint":
		ids, err := need("chapter", "question")
		if err != nil {
			return err
		}
		ch := a.catalog.Chapter(ids[0])
		if ch == nil {
			return progress.ErrUnknownChapter
		}
		q := ch.Question(ids[1])
		if q == nil {
			return progress.ErrUnknownQuestion
		}
		status, _ := a.engine.AchieverStatus(ch.ID)
		fmt.Println("💡", s.fb.Hint(ctx, feedback.HintInput{
			QuestionText:   q.Prompt,
			ChapterTitle:   ch.Title,
			Topic:          ch.TopicName(),
			AchieverStatus: status,
		}))
	case "redo":
		ids, err := need("chapter")
		if err != nil {
			return err
		}
		return redo(a, ids[0])
	case "shop":
		for _, p := range catalog.ShopPrices() {
			fmt.Printf("  %-10s egg  %4d points\n", p.Rarity, p.Cost)
		}
	case "buy":
		if len(args) != 1 {
			return errors.New("usage: buy <tier>")
		}
		tier, err := parseRarity(args[0])
		if err != nil {
			return err
		}
		cost, _ := catalog.PriceFor(tier)
		if !a.engine.BuyEgg(cost) {
			fmt.Printf("Not enough points for a %s egg (%d).\n", tier, cost)
			return nil
		}
		fmt.Printf("Bought a %s egg. Eggs: %d\n", tier, a.engine.Snapshot().Eggs)
	case "hatch":
		c := a.engine.HatchEgg()
		if c == nil {
			fmt.Println("Nothing hatched: no eggs, or every creature is collected.")
			return nil
		}
		fmt.Printf("%s %s (%s): %s\n", c.Emoji, c.Name, c.Rarity, c.Description)
	case "project":
		v := a.engine.View()
		if len(args) == 0 {
			for _, pv := range v.Projects {
				fmt.Printf("%2d. %-34s %3d pts  unlocked=%v completed=%v\n",
					pv.Project.ID, truncate(pv.Project.Title, 34), pv.Project.Points, pv.Unlocked, pv.Completed)
			}
			return nil
		}
		ids, err := need("project")
		if err != nil {
			return err
		}
		pv := v.Project(ids[0])
		if pv == nil {
			return progress.ErrUnknownProject
		}
		fmt.Printf("%s\n%s\nSubmit with `pyquest project submit %d <file>`.\n",
			pv.Project.Title, pv.Project.Description, pv.Project.ID)
	case "save":
		if err := a.engine.Flush(ctx); err != nil {
			return err
		}
		fmt.Println("Saved.")
	case "signup", "login":
		if len(args) != 1 {
			return fmt.Errorf("usage: %s <email>", name)
		}
		fmt.Print("Password: ")
		if !s.in.Scan() {
			return errors.New("no password given")
		}
		u, err := switchAccount(ctx, a, args[0], s.in.Text(), name == "signup")
		if err != nil {
			return err
		}
		fmt.Printf("Signed in as %s. Points: %d\n", u.Email, a.engine.Snapshot().Points)
	case "logout":
		if err := signOut(ctx, a); err != nil {
			return err
		}
		fmt.Println("Signed out.")
	default:
		return fmt.Errorf("unknown command %q (try `help`)", name)
	}
	return nil
}
