package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-tetrion/internal/platform/tui"
	"github.com/vovakirdan/tui-tetrion/internal/recording"
	"github.com/vovakirdan/tui-tetrion/internal/storage"
)

func runMenu(_ *cobra.Command, _ []string) {
	cfg := loadConfig()
	logger, closeLog := screenLogger(cfg)
	defer closeLog()

	store := openStore(cfg, false)
	defer closeStore(store)

	width, height := terminalSize()
	player := playerName()

	// Menu loop
	for {
		menuResult, err := tui.RunMenu(store, width, height)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return
		}
		width, height = menuResult.Width, menuResult.Height

		switch menuResult.Choice {
		case tui.ChoicePlay:
			opts := tui.PlayOptions{
				Game:     tui.GameConfig(cfg, menuResult.Players, menuResult.Difficulty, 0),
				Recorder: tui.RecorderConfig(cfg, store, player, version),
				Controls: cfg.Controls,
				Logger:   logger,
			}
			if menuResult.Players == 1 {
				opts.Labels = []string{player}
			}
			if _, err := tui.RunPlay(opts); err != nil {
				fmt.Fprintf(os.Stderr, "Error running game: %v\n", err)
			}

		case tui.ChoiceRecordings, tui.ChoiceScores:
			tab := tui.TabRecordings
			if menuResult.Choice == tui.ChoiceScores {
				tab = tui.TabScores
			}
			if !browse(store, tab, logger, width, height) {
				return
			}

		default:
			return
		}
	}
}

// browse runs the scoreboard until the user goes back to the menu, replaying
// every recording picked on the way. It returns false when the user quit.
func browse(store *storage.Store, tab tui.ScoreboardTab, logger *log.Logger, width, height int) bool {
	for {
		res, err := tui.RunScoreboard(store, tab, width, height)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return false
		}
		if res.Back {
			return true
		}
		if res.Replay == "" {
			return false
		}

		reader, err := recording.Load(res.Replay)
		if err != nil {
			logger.Error("cannot load recording", "path", res.Replay, "err", err)
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		// A divergence is shown on screen; the viewer returns it for the log.
		if err := tui.RunReplay(reader, tui.ReplayOptions{Logger: logger}); err != nil {
			logger.Warn("replay failed", "path", res.Replay, "err", err)
		}
	}
}

// playerName is the name recorded for local games.
func playerName() string {
	for _, env := range []string{"TETRION_PLAYER", "USER", "USERNAME"} {
		if name := os.Getenv(env); name != "" {
			return name
		}
	}
	return "player"
}
