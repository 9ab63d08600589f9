package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/pyquest/internal/catalog"
)

var shopCmd = &cobra.Command{
	Use:   "shop",
	Short: "List egg prices",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			snap := a.engine.Snapshot()
			fmt.Printf("Points: %d   Eggs: %d\n\n", snap.Points, snap.Eggs)
			for _, p := range catalog.ShopPrices() {
				afford := ""
				if snap.Points < p.Cost {
					afford = "  (not enough points)"
				}
				fmt.Printf("  %-10s egg  %4d points%s\n", p.Rarity, p.Cost, afford)
			}
			fmt.Println("\nEvery egg hatches the same way; rarer eggs just cost more.")
			return nil
		})
	},
}

var shopBuyCmd = &cobra.Command{
	Use:   "buy <common|rare|epic|legendary>",
	Short: "Buy an egg",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tier, err := parseRarity(args[0])
		if err != nil {
			return err
		}
		cost, _ := catalog.PriceFor(tier)
		return withApp(cmd, func(a *app) error {
			if !a.engine.BuyEgg(cost) {
				fmt.Printf("Not enough points: a %s egg costs %d, you have %d.\n", tier, cost, a.engine.Snapshot().Points)
				return nil
			}
			snap := a.engine.Snapshot()
			fmt.Printf("Bought a %s egg for %d points. Eggs: %d, points left: %d.\n", tier, cost, snap.Eggs, snap.Points)
			return nil
		})
	},
}

var hatchCmd = &cobra.Command{
	Use:   "hatch",
	Short: "Hatch an egg into a creature",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		return withApp(cmd, func(a *app) error {
			hatched := 0
			for {
				c := a.engine.HatchEgg()
				if c == nil {
					break
				}
				hatched++
				fmt.Printf("%s %s (%s): %s\n", c.Emoji, c.Name, c.Rarity, c.Description)
				if !all {
					break
				}
			}
			if hatched > 0 {
				return nil
			}
			snap := a.engine.Snapshot()
			switch {
			case snap.Eggs == 0:
				fmt.Println("No eggs to hatch. Buy one with `pyquest shop buy common`.")
			default:
				fmt.Println("You have collected every creature!")
			}
			return nil
		})
	},
}

func init() {
	shopCmd.AddCommand(shopBuyCmd)
	hatchCmd.Flags().Bool("all", false, "Hatch every egg")
}

func parseRarity(s string) (catalog.Rarity, error) {
	for _, r := range catalog.AllRarities() {
		if strings.EqualFold(string(r), s) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown egg tier %q", s)
}
