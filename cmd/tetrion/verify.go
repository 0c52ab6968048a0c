package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/tui-tetrion/internal/recording"
	"github.com/vovakirdan/tui-tetrion/internal/replay"
	"github.com/vovakirdan/tui-tetrion/internal/storage"
)

var (
	flagJobs    int
	flagNoStore bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify <file...>",
	Short: "Verify recordings without a UI",
	Long: `Re-simulate recordings and compare them against their snapshots.

Files are checked concurrently. The exit status is 1 when any file cannot
be parsed or diverges from its snapshots. Results of recordings known to
the database are stored with them.

Examples:
  tetrion verify game.rec
  tetrion verify ~/.tetrion/recordings/*.rec --jobs 4`,
	Args: cobra.MinimumNArgs(1),
	Run:  runVerify,
}

func init() {
	verifyCmd.Flags().IntVar(&flagJobs, "jobs", runtime.NumCPU(), "Number of files verified at once")
	verifyCmd.Flags().BoolVar(&flagNoStore, "no-store", false, "Do not store results in the database")
}

// verifyOutcome is the result of verifying one file.
type verifyOutcome struct {
	Path     string
	Result   replay.Result
	Err      error
	Duration time.Duration
}

// OK reports whether the file parsed and matched all snapshots.
func (o verifyOutcome) OK() bool { return o.Err == nil }

// Steps is the longest replayed tetrion.
func (o verifyOutcome) Steps() uint64 {
	var steps uint64
	for _, t := range o.Result.Tetrions {
		steps = max(steps, t.Steps)
	}
	return steps
}

// verifyFiles verifies paths with at most jobs files in flight. Outcomes are
// returned in the order of paths. Files not started before ctx is cancelled
// report the context error.
func verifyFiles(ctx context.Context, paths []string, jobs int, logger *log.Logger) []verifyOutcome {
	outcomes := make([]verifyOutcome, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(jobs, 1))

	for i, path := range paths {
		g.Go(func() error {
			outcomes[i] = verifyFile(ctx, path, logger)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // Workers report through outcomes
	return outcomes
}

func verifyFile(ctx context.Context, path string, logger *log.Logger) verifyOutcome {
	out := verifyOutcome{Path: path}
	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}

	start := time.Now()
	reader, err := recording.Load(path)
	if err != nil {
		out.Err = err
		return out
	}
	out.Result, out.Err = replay.Verify(reader, replay.Options{Logger: logger.With("file", filepath.Base(path))})
	out.Duration = time.Since(start)
	return out
}

// storeOutcome saves the outcome with the recording it belongs to. Files
// unknown to the database are skipped.
func storeOutcome(store *storage.Store, o verifyOutcome) (bool, error) {
	entry, err := lookupRecording(store, o)
	if err != nil || entry == nil {
		return false, err
	}
	msg := ""
	if o.Err != nil {
		msg = o.Err.Error()
	}
	_, err = store.SaveVerification(storage.VerificationEntry{
		RecordingID: entry.ID,
		OK:          o.OK(),
		Message:     msg,
		Steps:       o.Steps(),
	})
	return err == nil, err
}

func lookupRecording(store *storage.Store, o verifyOutcome) (*storage.RecordingEntry, error) {
	if abs, err := filepath.Abs(o.Path); err == nil {
		entry, err := store.RecordingByPath(abs)
		if entry != nil || err != nil {
			return entry, err
		}
	}
	entry, err := store.RecordingByPath(o.Path)
	if entry != nil || err != nil {
		return entry, err
	}
	// Moved files are still found by their header.
	if o.Result.Checksum == (recording.Checksum{}) {
		return nil, nil
	}
	return store.RecordingByChecksum(o.Result.Checksum.String())
}

func runVerify(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	logger := newLogger(cfg, os.Stderr)

	var store *storage.Store
	if !flagNoStore {
		store = openStore(cfg, false)
	}

	outcomes := verifyFiles(cmd.Context(), args, flagJobs, logger)

	failed := 0
	for _, o := range outcomes {
		if o.OK() {
			var score uint64
			compared := 0
			for _, t := range o.Result.Tetrions {
				score = max(score, t.Score)
				compared += t.SnapshotsCompared
			}
			fmt.Printf("OK    %s (%d steps, %d snapshots, score %d, %s)\n",
				o.Path, o.Steps(), compared, score, o.Duration.Round(time.Millisecond))
		} else {
			failed++
			first, _, _ := strings.Cut(o.Err.Error(), "\n")
			fmt.Printf("FAIL  %s: %s\n", o.Path, first)
			if replay.IsDivergence(o.Err) {
				fmt.Fprintln(os.Stderr, o.Err)
			}
		}

		if store != nil {
			if _, err := storeOutcome(store, o); err != nil {
				logger.Warn("could not store verification", "path", o.Path, "err", err)
			}
		}
	}
	closeStore(store)

	if len(outcomes) > 1 {
		fmt.Printf("\n%d verified, %d failed\n", len(outcomes)-failed, failed)
	}
	if failed > 0 {
		os.Exit(1)
	}
}
