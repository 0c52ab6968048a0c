package main

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-tetrion/internal/storage"
)

var (
	flagRecordingsLimit int
	flagPrune           bool
)

var recordingsCmd = &cobra.Command{
	Use:   "recordings",
	Short: "List indexed recordings",
	Long: `List the most recent recordings known to the database together with the
outcome of their last verification.

Examples:
  tetrion recordings
  tetrion recordings --limit 50
  tetrion recordings --prune     # forget recordings whose file is gone`,
	Args: cobra.NoArgs,
	Run:  runRecordings,
}

func init() {
	recordingsCmd.Flags().IntVarP(&flagRecordingsLimit, "limit", "n", 20, "Number of recordings to show")
	recordingsCmd.Flags().BoolVar(&flagPrune, "prune", false, "Remove entries whose file no longer exists")
}

func runRecordings(_ *cobra.Command, _ []string) {
	cfg := loadConfig()
	store := openStore(cfg, true)
	defer closeStore(store)

	if flagPrune {
		removed, err := pruneRecordings(store)
		if err != nil {
			fatal("cannot prune recordings: %v", err)
		}
		fmt.Printf("Removed %d missing recordings.\n\n", removed)
	}

	recordings, err := store.Recordings(flagRecordingsLimit)
	if err != nil {
		fatal("cannot read recordings: %v", err)
	}
	if len(recordings) == 0 {
		fmt.Println("No recordings yet.")
		fmt.Println()
		fmt.Println("Play 'tetrion play' to record the first game!")
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Date\tPlayer\tBoards\tScore\tLines\tSteps\tVerified\tPath")
	for _, r := range recordings {
		status := "-"
		if history, err := store.Verifications(r.ID); err == nil && len(history) > 0 {
			status = "ok"
			if !history[0].OK {
				status = "FAILED"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			r.CreatedAt.Format("2006-01-02 15:04"), r.Player, r.Tetrions,
			r.Score, r.Lines, r.Steps, status, r.Path)
	}
	tw.Flush() //nolint:errcheck // Best-effort
}

// pruneRecordings deletes index entries whose file is missing.
func pruneRecordings(store *storage.Store) (int, error) {
	// Recordings treats a non-positive limit as its default, so ask for everything explicitly.
	all, err := store.Recordings(math.MaxInt32)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, r := range all {
		if _, err := os.Stat(r.Path); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := store.DeleteRecording(r.ID); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
