package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-tetrion/internal/platform/tui"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tetrion SSH server",
	Long: `Start an SSH server that allows users to connect and play.

Each SSH connection gets its own session with the game menu. Games are
recorded under the SSH user name, and all users share the recordings
browser and the high score table of the server.

Host key handling:
  - If --host-key (or ssh.host_key) is set, uses that key file
  - Otherwise, auto-generates a key at ~/.tetrion/host_key

Examples:
  tetrion serve                           # Listen on ssh.address (default :23234)
  tetrion serve --ssh :2222               # Listen on port 2222
  tetrion serve --host-key ./my_host_key  # Use specific host key
  tetrion serve --db ./tetrion.db         # Use specific database

Users can connect with:
  ssh localhost -p 23234`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (host:port, overrides ssh.address)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (overrides ssh.host_key)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", -1, "Idle timeout in minutes before disconnecting (0 = never)")
}

func runServe(_ *cobra.Command, _ []string) {
	cfg := loadConfig()
	if flagSSHAddr != "" {
		cfg.SSH.Address = flagSSHAddr
	}
	if flagHostKey != "" {
		cfg.SSH.HostKey = flagHostKey
	}
	if flagIdleTimeout >= 0 {
		cfg.SSH.IdleTimeout = time.Duration(flagIdleTimeout) * time.Minute
	}
	logger := newLogger(cfg, os.Stderr)

	store := openStore(cfg, true)
	defer closeStore(store)

	server, err := tui.NewSSHServer(tui.App{
		Config:  cfg,
		Store:   store,
		Logger:  logger,
		Version: version,
	})
	if err != nil {
		fatal("creating server: %v", err)
	}

	fmt.Printf("Starting tetrion SSH server on %s\n", server.Addr())
	fmt.Println("Press Ctrl+C to stop")

	err = server.ListenAndServe()
	if n := server.Connections().Count(); n > 0 {
		logger.Warn("sessions interrupted by shutdown", "count", n)
	}
	if err != nil {
		closeStore(store)
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
