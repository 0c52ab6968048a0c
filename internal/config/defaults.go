package config

import (
	_ "embed"
	"time"

	"github.com/vovakirdan/tui-tetrion/internal/input"
)

//go:embed defaults/tetrion.yaml
var defaultTetrionYAML []byte

// DefaultTetrionConfig returns the default configuration.
func DefaultTetrionConfig() TetrionConfig {
	return TetrionConfig{
		Simulation: SimulationConfig{
			TickRate:      60,
			StartingLevel: 0,
		},
		Input: InputConfig{
			DASSteps: input.DefaultDAS,
			ARRSteps: input.DefaultARR,
		},
		Recording: RecordingConfig{
			Directory: "~/.tetrion/recordings",
			Enabled:   true,
			Compress:  false,
		},
		Storage: StorageConfig{
			DBPath: "~/.tetrion/tetrion.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Controls: ControlsConfig{
			RotateLeft:  []string{"z", "y"},
			RotateRight: []string{"x", "up"},
			MoveLeft:    []string{"left", "a"},
			MoveRight:   []string{"right", "d"},
			MoveDown:    []string{"down", "s"},
			Drop:        []string{" ", "w"},
			Hold:        []string{"c", "shift+tab"},
			Pause:       []string{"p", "esc"},
			Quit:        []string{"q", "ctrl+c"},
		},
		SSH: SSHConfig{
			Address:     ":23234",
			HostKey:     ".ssh/tetrion_ed25519",
			IdleTimeout: 10 * time.Minute,
		},
	}
}
