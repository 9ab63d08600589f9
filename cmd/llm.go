package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/pyquest/internal/llm"
	"github.com/abhisek/pyquest/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect AI tutor requests, token usage and cost",
}

// withEventLog opens only the local database; these commands never touch
// progress or the remote store.
func withEventLog(cmd *cobra.Command, fn func(ctx context.Context, events store.EventRepo) error) error {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()
	return fn(cmd.Context(), s.EventRepo())
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM events",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		since, _ := cmd.Flags().GetDuration("since")

		opts := store.QueryOpts{Limit: limit}
		if since > 0 {
			opts.From = time.Now().Add(-since)
		}
		if purpose != "" {
			// Filtering happens after the query, so widen it.
			opts.Limit = 0
		}

		return withEventLog(cmd, func(ctx context.Context, repo store.EventRepo) error {
			events, err := repo.QueryLLMEvents(ctx, opts)
			if err != nil {
				return fmt.Errorf("query events: %w", err)
			}

			shown := 0
			for _, e := range events {
				if purpose != "" && e.Purpose != purpose {
					continue
				}
				if limit > 0 && shown == limit {
					break
				}
				if shown == 0 {
					fmt.Printf("%-5s  %-19s  %-16s  %-28s  %-6s  %-6s  %-7s  %s\n",
						"ID", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK")
					fmt.Println(strings.Repeat("─", 102))
				}
				shown++
				ok := "✓"
				if !e.Success {
					ok = "✗"
				}
				fmt.Printf("%-5d  %-19s  %-16s  %-28s  %-6d  %-6d  %-7d  %s\n",
					e.ID,
					e.Timestamp.Local().Format("2006-01-02 15:04:05"),
					truncate(e.Purpose, 16),
					truncate(e.Model, 28),
					e.InputTokens,
					e.OutputTokens,
					e.LatencyMs,
					ok,
				)
			}
			if shown == 0 {
				fmt.Println("No LLM events found.")
			}
			return nil
		})
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View full request/response for an LLM event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := intArgs(args, "event ID")
		if err != nil {
			return err
		}
		return withEventLog(cmd, func(ctx context.Context, repo store.EventRepo) error {
			e, err := repo.GetLLMEvent(ctx, ids[0])
			if err != nil {
				return fmt.Errorf("get event: %w", err)
			}
			if e == nil {
				return fmt.Errorf("event %d not found", ids[0])
			}

			fmt.Printf("ID:        %d\n", e.ID)
			fmt.Printf("Time:      %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
			fmt.Printf("Provider:  %s\n", e.Provider)
			fmt.Printf("Model:     %s\n", e.Model)
			fmt.Printf("Purpose:   %s\n", e.Purpose)
			fmt.Printf("Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
			if cost := llm.LookupCost(e.Model); cost != nil {
				fmt.Printf("Cost:      %s\n", formatCost(cost.Cost(e.InputTokens, e.OutputTokens)))
			}
			fmt.Printf("Latency:   %dms\n", e.LatencyMs)
			fmt.Printf("Success:   %v\n", e.Success)
			if e.ErrorMessage != "" {
				fmt.Printf("Error:     %s\n", e.ErrorMessage)
			}

			printSection("REQUEST", e.RequestBody)
			printSection("RESPONSE", e.ResponseBody)
			return nil
		})
	},
}

func printSection(title, body string) {
	sep := strings.Repeat("─", 60)
	fmt.Println()
	fmt.Println(sep)
	fmt.Println(title)
	fmt.Println(sep)
	if body == "" {
		body = "(not captured)"
	}
	fmt.Println(body)
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated LLM token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEventLog(cmd, func(ctx context.Context, repo store.EventRepo) error {
			stats, err := repo.LLMUsageByPurpose(ctx)
			if err != nil {
				return fmt.Errorf("query usage: %w", err)
			}
			if len(stats) == 0 {
				fmt.Println("No LLM usage recorded yet.")
				return nil
			}

			rule := strings.Repeat("─", 72)
			fmt.Println("Usage by Purpose")
			fmt.Println(rule)
			fmt.Printf("%-16s  %6s  %10s  %10s  %10s  %8s\n",
				"Purpose", "Calls", "Input", "Output", "Total", "Avg Ms")
			fmt.Println(rule)

			var totalCalls, totalIn, totalOut int
			for _, st := range stats {
				fmt.Printf("%-16s  %6d  %10d  %10d  %10d  %8d\n",
					truncate(st.Purpose, 16), st.Calls, st.InputTokens, st.OutputTokens,
					st.InputTokens+st.OutputTokens, st.AvgLatencyMs)
				totalCalls += st.Calls
				totalIn += st.InputTokens
				totalOut += st.OutputTokens
			}
			fmt.Println(rule)
			fmt.Printf("%-16s  %6d  %10d  %10d  %10d\n",
				"TOTAL", totalCalls, totalIn, totalOut, totalIn+totalOut)

			usage, err := repo.LLMUsageByModel(ctx)
			if err != nil {
				return fmt.Errorf("query model usage: %w", err)
			}
			if len(usage) == 0 {
				return nil
			}

			fmt.Println()
			fmt.Println("Estimated Cost (USD)")
			fmt.Println(rule)
			fmt.Printf("%-32s  %6s  %10s  %10s  %10s\n", "Model", "Calls", "Input", "Output", "Cost")
			fmt.Println(rule)

			var totalCost float64
			var unknown []string
			for _, mu := range usage {
				cost := "?"
				if mc := llm.LookupCost(mu.Model); mc != nil {
					c := mc.Cost(mu.InputTokens, mu.OutputTokens)
					totalCost += c
					cost = formatCost(c)
				} else {
					unknown = append(unknown, mu.Model)
				}
				fmt.Printf("%-32s  %6d  %10d  %10d  %10s\n",
					truncate(mu.Model, 32), mu.Calls, mu.InputTokens, mu.OutputTokens, cost)
			}

			fmt.Println(rule)
			label := "TOTAL"
			if len(unknown) > 0 {
				label = "TOTAL (partial)"
			}
			fmt.Printf("%-32s  %6s  %10s  %10s  %10s\n", label, "", "", "", formatCost(totalCost))
			if len(unknown) > 0 {
				fmt.Printf("\nPricing unavailable for: %s\n", strings.Join(unknown, ", "))
			}
			return nil
		})
	},
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (e.g. answer-feedback, hint, ping)")
	llmListCmd.Flags().Duration("since", 0, "Only show events newer than this (e.g. 24h)")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
