package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-tetrion/internal/config"
	"github.com/vovakirdan/tui-tetrion/internal/game"
	"github.com/vovakirdan/tui-tetrion/internal/platform/tui"
)

var (
	flagNoRecord   bool
	flagSeed       uint64
	flagLevel      int
	flagPlayers    int
	flagDifficulty string
	flagPlayer     string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a game",
	Long: `Start a game directly, skipping the menu.

The game is recorded to the recordings directory unless --no-record is
given or recording is disabled in the config. With several players the
boards share one recording and every player gets the same pieces.

Controls (defaults, see the controls section of the config):
  Left/A, Right/D  - Move
  Down/S           - Soft drop
  Space/W          - Hard drop
  Z, X/Up          - Rotate left, right
  C                - Hold
  Tab              - Switch the board the keys control
  P/Esc            - Pause
  Q/Ctrl+C         - Quit

Difficulty options:
  easy   - Start at level 0
  normal - Start at level 5
  hard   - Start at level 10 with faster auto-repeat
  master - Start at level 19 with the fastest auto-repeat

Examples:
  tetrion play
  tetrion play --players 2
  tetrion play --difficulty hard
  tetrion play --seed 42 --level 5
  tetrion play --no-record`,
	Args: cobra.NoArgs,
	Run:  runPlay,
}

func init() {
	playCmd.Flags().BoolVar(&flagNoRecord, "no-record", false, "Do not record the game")
	playCmd.Flags().Uint64Var(&flagSeed, "seed", 0, "Piece generator seed (0 = random based on time)")
	playCmd.Flags().IntVar(&flagLevel, "level", -1, "Starting level (overrides the difficulty preset)")
	playCmd.Flags().IntVar(&flagPlayers, "players", 1, fmt.Sprintf("Number of boards (1-%d)", game.MaxPlayers))
	playCmd.Flags().StringVar(&flagDifficulty, "difficulty", "", "Difficulty preset: easy, normal, hard, master")
	playCmd.Flags().StringVar(&flagPlayer, "player", "", "Player name stored in the recording (default: $USER)")
}

func runPlay(_ *cobra.Command, _ []string) {
	cfg := loadConfig()

	var preset config.DifficultyPreset
	if flagDifficulty != "" {
		p, err := config.ParseDifficultyPreset(flagDifficulty)
		if err != nil {
			fatal("%v", err)
		}
		preset = p
	}
	if flagPlayers < 1 || flagPlayers > game.MaxPlayers {
		fatal("--players must be between 1 and %d", game.MaxPlayers)
	}

	gc := tui.GameConfig(cfg, flagPlayers, preset, flagSeed)
	if flagLevel >= 0 {
		gc.StartingLevel = uint32(flagLevel)
	}

	logger, closeLog := screenLogger(cfg)
	defer closeLog()

	player := flagPlayer
	if player == "" {
		player = playerName()
	}

	opts := tui.PlayOptions{
		Game:     gc,
		Controls: cfg.Controls,
		Logger:   logger,
	}
	if flagPlayers == 1 {
		opts.Labels = []string{player}
	}

	store := openStore(cfg, false)
	if !flagNoRecord {
		opts.Recorder = tui.RecorderConfig(cfg, store, player, version)
	}

	m, runErr := tui.RunPlay(opts)

	// Close store before potential exit
	closeStore(store)

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running game: %v\n", runErr)
		os.Exit(1)
	}

	res, done, _ := m.Result()
	if !done {
		return
	}
	for i, score := range res.Scores {
		fmt.Printf("P%d: score %d, level %d, %d lines\n", i+1, score, res.Levels[i], res.Lines[i])
	}
	if path := m.RecordingPath(); path != "" {
		fmt.Printf("Recorded %d steps to %s\n", res.Steps, path)
	}
}
