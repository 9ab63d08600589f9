package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/pyquest/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Author and check course content",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <workbook.xlsx>",
	Short: "Import flashcards and questions from a workbook into a catalog YAML",
	Long: "Reads the Flashcards and Questions sheets of an xlsx workbook, replaces the content of every\n" +
		"chapter it mentions, and writes the merged catalog as YAML. Use --catalog to start from\n" +
		"a custom catalog instead of the built-in one.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")

		base, err := loadCatalog()
		if err != nil {
			return err
		}
		merged, res, err := catalog.ImportWorkbook(args[0], base)
		if res != nil {
			for _, e := range res.Errors {
				fmt.Fprintln(os.Stderr, "skipped:", e)
			}
		}
		if err != nil {
			return err
		}

		data, err := catalog.Marshal(merged.Chapters(), merged.Creatures(), merged.Projects())
		if err != nil {
			return fmt.Errorf("encode catalog: %w", err)
		}
		if out == "" || out == "-" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("write catalog: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Imported %d rows (%d flashcards, %d questions) into chapters %v; wrote %s\n",
			res.Rows, res.Flashcards, res.Questions, res.Chapters, out)
		return nil
	},
}

var catalogCheckCmd = &cobra.Command{
	Use:   "check <catalog.yaml>",
	Short: "Validate a catalog file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := catalog.LoadFile(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("OK: %d chapters, %d creatures, %d projects\n",
			c.ChapterCount(), len(c.Creatures()), len(c.Projects()))
		return nil
	},
}

func init() {
	catalogImportCmd.Flags().StringP("out", "o", "", "Output file (default stdout)")
	catalogCmd.AddCommand(catalogImportCmd)
	catalogCmd.AddCommand(catalogCheckCmd)
}
