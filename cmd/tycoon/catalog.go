package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/merge-tycoon/internal/game"
)

var flagCatalogAll bool

var catalogCmd = &cobra.Command{
	Use:   "catalog [query]",
	Short: "List or search the token catalog",
	Long: `Shows the token levels with their value and income. A query fuzzy-matches
token names, best match first.

Examples:
  tycoon catalog
  tycoon catalog won
  tycoon catalog --all`,
	Args: cobra.MaximumNArgs(1),
	Run:  runCatalog,
}

func init() {
	catalogCmd.Flags().BoolVar(&flagCatalogAll, "all", false, "Include hidden levels")
}

func runCatalog(_ *cobra.Command, args []string) {
	levels := game.SearchLevels(strings.Join(args, " "), flagCatalogAll)
	if len(levels) == 0 {
		fmt.Println("No matching tokens.")
		return
	}

	maxNameLen := 4 // "Name" header
	for _, l := range levels {
		maxNameLen = max(maxNameLen, len(l.Name))
	}

	fmt.Printf("  %-3s  %-*s  %-8s  %s\n", "Lv", maxNameLen, "Name", "Value", "Income")
	fmt.Printf("  %-3s  %-*s  %-8s  %s\n", "--", maxNameLen, "----", "-----", "------")
	for _, l := range levels {
		name := l.Name
		if game.IsGem(l.Level) {
			name += "*"
		}
		fmt.Printf("  %-3d  %-*s  %-8s  %s\n", l.Level, maxNameLen, name, game.FormatMoney(l.Value), game.FormatMoney(l.IncomeRate))
	}

	fmt.Println()
	fmt.Println("* needs the gem system")
}
