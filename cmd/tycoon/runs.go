package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/merge-tycoon/internal/game"
	"github.com/vovakirdan/merge-tycoon/internal/storage"
)

var (
	flagRunsSlot  string
	flagRunsLimit int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show the best finished runs of a slot",
	Long: `Display the best finished runs of a save slot, by peak money. A run ends
when the slot is reset or when the ending is reached.

Examples:
  tycoon runs
  tycoon runs --slot alice --limit 5`,
	Args: cobra.NoArgs,
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().StringVar(&flagRunsSlot, "slot", "", "Save slot (default slot if empty)")
	runsCmd.Flags().IntVar(&flagRunsLimit, "limit", 10, "Number of runs to show")
}

func runRuns(_ *cobra.Command, _ []string) error {
	slot := slotFlag(flagRunsSlot)
	display := slot
	if display == "" {
		display = "default"
	}

	store, err := storage.Open(flagDBPath)
	if err != nil {
		return fmt.Errorf("cannot open save database: %w", err)
	}
	defer store.Close()

	runs, err := store.TopRuns(slot, flagRunsLimit)
	if err != nil {
		return fmt.Errorf("cannot retrieve runs: %w", err)
	}

	fmt.Printf("Best Runs - %s\n", display)
	fmt.Println()

	if len(runs) == 0 {
		fmt.Println("No finished runs yet.")
		return nil
	}

	fmt.Printf("  %-4s  %-10s  %-10s  %-6s  %-3s  %-7s  %s\n", "Rank", "Peak", "Earned", "Merges", "Lv", "Reason", "Date")
	fmt.Printf("  %-4s  %-10s  %-10s  %-6s  %-3s  %-7s  %s\n", "----", "----", "------", "------", "--", "------", "----")
	for i, run := range runs {
		fmt.Printf("  %-4d  %-10s  %-10s  %-6d  %-3d  %-7s  %s\n",
			i+1,
			game.FormatMoney(game.Money(run.PeakMoney)),
			game.FormatMoney(game.Money(run.TotalEarned)),
			run.Merges,
			run.HighestLevel,
			run.Reason,
			run.CreatedAt.Format("2006-01-02 15:04"),
		)
	}

	fmt.Println()
	if stats, err := store.GetRunStats(slot); err == nil {
		fmt.Printf("Runs: %d  Best: %s  Endings: %d\n", stats.Runs, game.FormatMoney(game.Money(stats.BestPeak)), stats.Endings)
	}
	return nil
}
