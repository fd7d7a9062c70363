package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cbegin/neonbeat-go/internal/scores"
)

var bestCmd = &cobra.Command{
	Use:   "best [key [score]]",
	Short: "Show or submit best scores",
	Long: `With no arguments, list every stored best score. With a key, show its
best score. With a key and a score, store the score if it beats the best.

Examples:
  neonbeat best
  neonbeat best breaker
  neonbeat best breaker 4200`,
	Args: cobra.MaximumNArgs(2),
	RunE: runBest,
}

func runBest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := scores.Open(cfg.ScoresPath)
	if err != nil {
		return err
	}
	defer store.Close()

	switch len(args) {
	case 0:
		entries, err := store.Entries()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No scores recorded yet.")
			return nil
		}
		fmt.Printf("  %-12s  %-10s  %s\n", "Key", "Best", "Date")
		fmt.Printf("  %-12s  %-10s  %s\n", "---", "----", "----")
		for _, e := range entries {
			fmt.Printf("  %-12s  %-10d  %s\n", e.Key, e.Score, e.UpdatedAt.Format("2006-01-02 15:04"))
		}
	case 1:
		best, ok, err := store.Best(args[0])
		if err != nil {
			return err
		}
		if !ok {
			fmt.Printf("No score recorded for %s.\n", args[0])
			return nil
		}
		fmt.Printf("%s: %d\n", args[0], best)
	case 2:
		score, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid score %q: %w", args[1], err)
		}
		newBest, err := store.Submit(args[0], score)
		if err != nil {
			return err
		}
		if newBest {
			fmt.Printf("New best for %s: %d\n", args[0], score)
		} else {
			best, _, _ := store.Best(args[0])
			fmt.Printf("%d does not beat %s best of %d\n", score, args[0], best)
		}
	}
	return nil
}
