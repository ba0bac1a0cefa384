package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/merge-tycoon/internal/game"
	"github.com/vovakirdan/merge-tycoon/internal/session"
	"github.com/vovakirdan/merge-tycoon/internal/storage"
)

var (
	flagStatusSlot string
	flagResetSlot  string
	flagKeepEnding bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a save slot",
	Long: `Print the board, balance and upgrades of a save slot. With no slot,
list every saved slot.

Examples:
  tycoon status
  tycoon status --slot default
  tycoon status --slot alice`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Start a save slot over",
	Long: `Record the current run in the history and start the slot over.

Examples:
  tycoon reset
  tycoon reset --slot alice --keep-ending`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	statusCmd.Flags().StringVar(&flagStatusSlot, "slot", "", "Save slot to show (\"default\" for the default slot)")
	resetCmd.Flags().StringVar(&flagResetSlot, "slot", "", "Save slot to reset (default slot if empty)")
	resetCmd.Flags().BoolVar(&flagKeepEnding, "keep-ending", false, "Keep the ending achievement if it was reached")
}

// openSlot opens one save slot for a one-shot command.
func openSlot(store *storage.Store, slot string) (*session.Session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(os.Stderr, "tycoon")
	if err != nil {
		return nil, err
	}
	// Restore chatter is noise for one-shot commands
	if logger.GetLevel() < log.WarnLevel {
		logger = log.New(io.Discard)
	}
	return newManager(store, cfg, logger, nil).Get(slotFlag(slot))
}

func runStatus(cmd *cobra.Command, _ []string) error {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		return fmt.Errorf("cannot open save database: %w", err)
	}
	defer store.Close()

	if !cmd.Flags().Changed("slot") {
		return listSlots(store)
	}

	sess, err := openSlot(store, flagStatusSlot)
	if err != nil {
		return err
	}
	printStatus(sess)
	return nil
}

func listSlots(store *storage.Store) error {
	records, err := store.ListSlots()
	if err != nil {
		return fmt.Errorf("cannot list slots: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No saved games yet.")
		fmt.Println()
		fmt.Println("Run 'tycoon play' to start one!")
		return nil
	}

	fmt.Printf("  %-24s  %-7s  %s\n", "Slot", "Version", "Updated")
	fmt.Printf("  %-24s  %-7s  %s\n", "----", "-------", "-------")
	for _, rec := range records {
		slot, ok := game.SlotFromKey(rec.Key)
		if !ok {
			continue
		}
		if slot == "" {
			slot = "default"
		}
		fmt.Printf("  %-24s  %-7d  %s\n", slot, rec.Version, rec.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func printStatus(sess *session.Session) {
	v := sess.View()
	fmt.Printf("Slot %s\n\n", v.Slot)

	grid := sess.State().Tokens.Grid()
	for _, row := range grid {
		for _, tok := range row {
			if tok.ID == "" {
				fmt.Print("   .")
			} else {
				fmt.Printf(" %3d", tok.Level)
			}
		}
		fmt.Println()
	}
	fmt.Println()

	fmt.Printf("  %-14s %s (earned %s)\n", "Money", v.MoneyText, game.FormatMoney(v.TotalEarned))
	fmt.Printf("  %-14s %s every %s\n", "Income", game.FormatMoney(v.IncomeRate), time.Duration(v.IncomeIntervalMs)*time.Millisecond)
	fmt.Printf("  %-14s %d (cost %s)\n", "Spawn level", v.SpawnLevel, game.FormatMoney(v.SpawnCost))
	fmt.Printf("  %-14s %d\n", "Merges", v.TotalMergeCount)
	fmt.Printf("  %-14s %d/%d\n", "Discovered", len(v.DiscoveredLevels), len(game.Levels))
	fmt.Printf("  %-14s %d/%d\n", "Achievements", len(v.UnlockedAchievements), len(game.Achievements))
	fmt.Printf("  %-14s %v\n", "Gems unlocked", v.GemSystemUnlocked)
	for _, b := range v.Boosts {
		if b.Active {
			fmt.Printf("  %-14s %s left\n", b.Type, (time.Duration(b.RemainingMs) * time.Millisecond).Round(time.Second))
		}
	}

	fmt.Println()
	for _, info := range sess.UpgradeInfos() {
		cost := game.FormatMoney(info.Cost)
		if info.Maxed {
			cost = "MAX"
		}
		fmt.Printf("  %-18s level %-3d next %s\n", info.Title, info.Level, cost)
	}
}

func runReset(_ *cobra.Command, _ []string) error {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		return fmt.Errorf("cannot open save database: %w", err)
	}
	defer store.Close()

	sess, err := openSlot(store, flagResetSlot)
	if err != nil {
		return err
	}
	sess.Reset(flagKeepEnding)
	fmt.Printf("Slot %s started over.\n", sess.View().Slot)
	return nil
}
