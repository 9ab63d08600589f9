package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save progress now",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			if !a.engine.Dirty() {
				fmt.Println("Everything is already saved.")
				return nil
			}
			if err := a.engine.Flush(cmd.Context()); err != nil {
				return err
			}
			if a.engine.Dirty() {
				fmt.Println("Saved on this device; the remote database could not be reached.")
				return nil
			}
			fmt.Println("Progress saved.")
			return nil
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset learner data",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		return withApp(cmd, func(a *app) error {
			if !yes {
				fmt.Fprintf(cmd.OutOrStdout(), "This erases all progress for %s. Type \"reset\" to confirm: ", a.who())
				line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if strings.TrimSpace(line) != "reset" {
					fmt.Println("Cancelled.")
					return nil
				}
			}
			if err := a.engine.ResetProgress(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Progress reset.")
			return nil
		})
	},
}

func init() {
	resetCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}
