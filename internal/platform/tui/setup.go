package tui

import (
	"github.com/vovakirdan/tui-tetrion/internal/config"
	"github.com/vovakirdan/tui-tetrion/internal/core"
	"github.com/vovakirdan/tui-tetrion/internal/game"
	"github.com/vovakirdan/tui-tetrion/internal/storage"
)

// GameConfig builds a session config from the loaded configuration. A zero
// seed is replaced by a clock-derived one.
func GameConfig(cfg config.TetrionConfig, players int, preset config.DifficultyPreset, seed uint64) game.Config {
	if preset != "" {
		config.ApplyDifficultyPreset(&cfg, preset)
	}
	rc := cfg.Runtime()
	rc.Seed = seed
	return game.Config{
		Players:       players,
		Seed:          rc.ResolveSeed(),
		StartingLevel: cfg.Simulation.StartingLevel,
		TickRate:      rc.TickRate,
		Input:         cfg.InputTiming(),
	}
}

// RecorderConfig returns where games are recorded, or nil when recording is
// disabled.
func RecorderConfig(cfg config.TetrionConfig, store *storage.Store, player, version string) *game.RecorderConfig {
	if !cfg.Recording.Enabled {
		return nil
	}
	return &game.RecorderConfig{
		Directory: config.ExpandHome(cfg.Recording.Directory),
		Store:     store,
		Compress:  cfg.Recording.Compress,
		Player:    player,
		Version:   version,
	}
}

// screenSize falls back to the default terminal size for unknown dimensions.
func screenSize(width, height int) (int, int) {
	def := core.DefaultConfig()
	if width <= 0 {
		width = def.ScreenW
	}
	if height <= 0 {
		height = def.ScreenH
	}
	return width, height
}
