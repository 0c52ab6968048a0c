// tetrion is a deterministic falling-block game for the terminal that
// records every game and verifies recordings by replaying them.
//
// Usage:
//
//	tetrion                    - Start the interactive menu
//	tetrion play               - Play a game directly
//	tetrion replay <file>      - Watch a recording
//	tetrion verify <file...>   - Check recordings without a UI
//	tetrion info <file>        - Show a recording's header
//	tetrion dump <file>        - Print a recording as JSON
//	tetrion archive <file>     - Compress a recording with zstd
//	tetrion unarchive <file>   - Decompress an archived recording
//	tetrion recordings         - List indexed recordings
//	tetrion scores             - Show high scores
//	tetrion serve              - Start SSH server for remote play
//	tetrion config             - Print the effective configuration
//
// Global flags:
//
//	--config <path>     - Config file (default: ~/.tetrion/configs/tetrion.yaml)
//	--db <path>         - Database path (default: ~/.tetrion/tetrion.db)
//	--log-level <lvl>   - debug, info, warn or error
//	--log-file <path>   - Log file for the interactive screens
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tui-tetrion/internal/config"
	"github.com/vovakirdan/tui-tetrion/internal/core"
	"github.com/vovakirdan/tui-tetrion/internal/storage"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	// Global flags
	flagConfig   string
	flagDBPath   string
	flagLogLevel string
	flagLogFile  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tetrion",
	Short: "Tetrion - a falling-block game with verifiable recordings",
	Long: `Tetrion is a deterministic falling-block game for the terminal.

Every game is recorded to a .rec file. Replaying a recording re-simulates
it from its inputs and compares the result against the snapshots stored
while playing, so a recording proves the score it claims.

Run without a command to open the interactive menu.

Examples:
  tetrion
  tetrion play --players 2
  tetrion replay ~/.tetrion/recordings/20250101_120000_1a2b3c4d.rec
  tetrion verify ~/.tetrion/recordings/*.rec
  tetrion serve`,
	Version: version,
	Run:     runMenu,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to the database (overrides storage.db_path)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides log.level)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Write logs of interactive screens to this file")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(unarchiveCmd)
	rootCmd.AddCommand(recordingsCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

// fatal prints the error and exits.
func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// loadConfig loads the configuration and applies the global flags.
func loadConfig() config.TetrionConfig {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		fatal("%v", err)
	}
	if flagDBPath != "" {
		cfg.Storage.DBPath = flagDBPath
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
		if err := cfg.Validate(); err != nil {
			fatal("%v", err)
		}
	}
	return cfg
}

// newLogger creates the logger of a command writing to w.
func newLogger(cfg config.TetrionConfig, w io.Writer) *log.Logger {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "tetrion",
		Level:           level,
		Formatter:       cfg.LogFormatter(),
	})
}

// screenLogger returns the logger for commands that take over the terminal.
// Without --log-file their logs are discarded. The returned func closes the
// file.
func screenLogger(cfg config.TetrionConfig) (*log.Logger, func()) {
	if flagLogFile == "" {
		return log.New(io.Discard), func() {}
	}
	f, err := os.OpenFile(config.ExpandHome(flagLogFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fatal("cannot open log file: %v", err)
	}
	return newLogger(cfg, f), func() { f.Close() } //nolint:errcheck // Best-effort
}

// openStore opens the database. When required is false a failure is only
// reported and nil is returned, so games still work without an index.
func openStore(cfg config.TetrionConfig, required bool) *storage.Store {
	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		if required {
			fatal("cannot open database: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Warning: could not open database: %v\n", err)
		return nil
	}
	return store
}

func closeStore(store *storage.Store) {
	if store != nil {
		store.Close() //nolint:errcheck // Best-effort
	}
}

// terminalSize returns the size of stdout, falling back to the defaults.
func terminalSize() (int, int) {
	def := core.DefaultConfig()
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		return w, h
	}
	return def.ScreenW, def.ScreenH
}
