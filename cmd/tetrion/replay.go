package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-tetrion/internal/platform/tui"
	"github.com/vovakirdan/tui-tetrion/internal/recording"
	"github.com/vovakirdan/tui-tetrion/internal/replay"
)

var flagSpeed float64

var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Watch a recording",
	Long: `Play back a recording in the terminal.

The recording is re-simulated from its inputs and every stored snapshot is
checked on the way. A board whose state differs from the recording is
marked DIVERGED and the replay stops.

Controls:
  P/Space   - Pause
  +/-       - Double or halve the speed
  Q/Esc     - Quit

Examples:
  tetrion replay game.rec
  tetrion replay game.rec.zst --speed 4`,
	Args: cobra.ExactArgs(1),
	Run:  runReplay,
}

func init() {
	replayCmd.Flags().Float64Var(&flagSpeed, "speed", 1, "Playback speed multiplier")
}

func runReplay(_ *cobra.Command, args []string) {
	cfg := loadConfig()
	logger, closeLog := screenLogger(cfg)
	defer closeLog()

	reader, err := recording.Load(args[0])
	if err != nil {
		fatal("%v", err)
	}

	err = tui.RunReplay(reader, tui.ReplayOptions{Speed: flagSpeed, Logger: logger})
	if err != nil {
		if replay.IsDivergence(err) {
			fmt.Fprintf(os.Stderr, "Recording diverged:\n%v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		closeLog()
		os.Exit(1)
	}
}
