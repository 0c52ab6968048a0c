// Package config provides YAML-based configuration loading for tetrion with
// embedded defaults and environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-tetrion/internal/core"
	"github.com/vovakirdan/tui-tetrion/internal/input"
)

// TetrionConfig contains all configuration for the tetrion binary.
type TetrionConfig struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Input      InputConfig      `yaml:"input"`
	Recording  RecordingConfig  `yaml:"recording"`
	Storage    StorageConfig    `yaml:"storage"`
	Log        LogConfig        `yaml:"log"`
	Controls   ControlsConfig   `yaml:"controls"`
	SSH        SSHConfig        `yaml:"ssh"`
}

// SimulationConfig defines the step rate and the level new games start at.
type SimulationConfig struct {
	TickRate      int    `yaml:"tick_rate"`
	StartingLevel uint32 `yaml:"starting_level"`
}

// InputConfig defines auto-repeat timing in simulation steps.
type InputConfig struct {
	DASSteps uint64 `yaml:"das_steps"`
	ARRSteps uint64 `yaml:"arr_steps"`
}

// RecordingConfig defines where and how games are recorded.
type RecordingConfig struct {
	Directory string `yaml:"directory"`
	Enabled   bool   `yaml:"enabled"`
	Compress  bool   `yaml:"compress"` // Archive with zstd after the game ends
}

// StorageConfig defines the SQLite index location.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// LogConfig defines logger verbosity and output format.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json or logfmt
}

// ControlsConfig lists the keys bound to each control. Keys use Bubble Tea
// names such as "left", "ctrl+c" or " ".
type ControlsConfig struct {
	RotateLeft  []string `yaml:"rotate_left"`
	RotateRight []string `yaml:"rotate_right"`
	MoveLeft    []string `yaml:"move_left"`
	MoveRight   []string `yaml:"move_right"`
	MoveDown    []string `yaml:"move_down"`
	Drop        []string `yaml:"drop"`
	Hold        []string `yaml:"hold"`
	Pause       []string `yaml:"pause"`
	Quit        []string `yaml:"quit"`
}

// SSHConfig defines the serve command.
type SSHConfig struct {
	Address     string        `yaml:"address"`
	HostKey     string        `yaml:"host_key"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// InputTiming converts the input section for the input package.
func (c TetrionConfig) InputTiming() input.Config {
	return input.Config{DAS: c.Input.DASSteps, ARR: c.Input.ARRSteps}
}

// Runtime returns the runtime settings of a session.
func (c TetrionConfig) Runtime() core.RuntimeConfig {
	rc := core.DefaultConfig()
	rc.TickRate = c.Simulation.TickRate
	return rc
}

// Validate reports every invalid field.
func (c TetrionConfig) Validate() error {
	var errs []error
	if c.Simulation.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("simulation.tick_rate must be positive, got %d", c.Simulation.TickRate))
	}
	if c.Input.DASSteps == 0 {
		errs = append(errs, errors.New("input.das_steps must be positive"))
	}
	if c.Input.ARRSteps == 0 {
		errs = append(errs, errors.New("input.arr_steps must be positive"))
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json", "logfmt":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text, json or logfmt, got %q", c.Log.Format))
	}
	if c.Recording.Enabled && c.Recording.Directory == "" {
		errs = append(errs, errors.New("recording.directory is required when recording is enabled"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LogFormatter maps log.format to a charm log formatter.
func (c TetrionConfig) LogFormatter() log.Formatter {
	switch strings.ToLower(c.Log.Format) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}
