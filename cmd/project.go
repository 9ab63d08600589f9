package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/pyquest/internal/progress"
)

var projectCmd = &cobra.Command{
	Use:   "project [id]",
	Short: "List projects, or show one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			v := a.engine.View()
			if len(args) == 0 {
				for _, pv := range v.Projects {
					state := "locked"
					switch {
					case pv.Completed:
						state = "completed"
					case pv.Unlocked:
						state = "open"
					}
					fmt.Printf("%2d. %-34s %-12s %3d pts  %s\n",
						pv.Project.ID, truncate(pv.Project.Title, 34), pv.Project.Difficulty, pv.Project.Points, state)
				}
				return nil
			}

			ids, err := intArgs(args, "project")
			if err != nil {
				return err
			}
			pv := v.Project(ids[0])
			if pv == nil {
				return fmt.Errorf("project %d: %w", ids[0], progress.ErrUnknownProject)
			}
			p := pv.Project
			fmt.Printf("Project %d: %s (%s, %d points)\n\n%s\n\n", p.ID, p.Title, p.Difficulty, p.Points, p.Description)
			fmt.Println("Requirements")
			for _, r := range p.Requirements {
				fmt.Println("  •", r)
			}
			if len(p.TestCases) > 0 {
				fmt.Println("\nExamples")
				for _, tc := range p.TestCases {
					fmt.Printf("  %s\n    input:    %s\n    expected: %s\n", tc.Description, tc.Input, tc.ExpectedOutput)
				}
			}
			code := p.StarterCode
			label := "Starter code"
			if pv.Completed && pv.SubmittedCode != "" {
				code, label = pv.SubmittedCode, "Your solution"
			}
			if code != "" {
				fmt.Printf("\n%s\n%s\n%s\n", label, strings.Repeat("─", 40), code)
			}
			if !pv.Unlocked {
				fmt.Println("\nLocked: complete the previous project first.")
			}
			return nil
		})
	},
}

var projectSubmitCmd = &cobra.Command{
	Use:   "submit <id> <file|->",
	Short: "Submit a solution file (use - for stdin)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := intArgs(args, "project")
		if err != nil {
			return err
		}
		code, err := readSource(cmd, args[1])
		if err != nil {
			return err
		}
		return withApp(cmd, func(a *app) error {
			if pv := a.engine.View().Project(ids[0]); pv != nil && pv.Completed {
				fmt.Printf("Project %d is already completed.\n", ids[0])
				return nil
			}
			passed, err := a.engine.SubmitProject(cmd.Context(), ids[0], code)
			if err != nil {
				return err
			}
			p := a.catalog.Project(ids[0])
			if passed {
				fmt.Printf("Project %q passed! +%d points\n", p.Title, p.Points)
				return nil
			}
			fmt.Println("Not yet. Checks:")
			for _, r := range a.validator.Check(p, code).Results {
				mark := "✓"
				if !r.Passed {
					mark = "✗"
				}
				fmt.Printf("  %s %s", mark, r.Check)
				if r.Missing != "" {
					fmt.Printf(" (%s)", r.Missing)
				}
				fmt.Println()
			}
			if len(p.Hints) > 0 {
				fmt.Println("Hint:", p.Hints[0])
			}
			return nil
		})
	},
}

func init() {
	projectCmd.AddCommand(projectSubmitCmd)
}

func readSource(cmd *cobra.Command, path string) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(cmd.InOrStdin())
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read solution: %w", err)
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return "", errors.New("solution is empty")
	}
	return string(b), nil
}
