package config

import "fmt"

// DifficultyPreset represents a named difficulty level.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
	DifficultyMaster DifficultyPreset = "master"
)

// Presets lists every preset from easiest to hardest.
func Presets() []DifficultyPreset {
	return []DifficultyPreset{DifficultyEasy, DifficultyNormal, DifficultyHard, DifficultyMaster}
}

// ParseDifficultyPreset looks up a preset by name.
func ParseDifficultyPreset(name string) (DifficultyPreset, error) {
	for _, p := range Presets() {
		if string(p) == name {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty %q", name)
}

// StartingLevelForPreset returns the level a preset starts at.
func StartingLevelForPreset(preset DifficultyPreset) uint32 {
	switch preset {
	case DifficultyNormal:
		return 5
	case DifficultyHard:
		return 10
	case DifficultyMaster:
		return 19 // Two steps per row
	default:
		return 0
	}
}

// ApplyDifficultyPreset modifies the config based on a difficulty preset.
func ApplyDifficultyPreset(cfg *TetrionConfig, preset DifficultyPreset) {
	cfg.Simulation.StartingLevel = StartingLevelForPreset(preset)

	// Faster auto-repeat keeps high gravity playable
	switch preset {
	case DifficultyHard:
		cfg.Input.DASSteps = 8
	case DifficultyMaster:
		cfg.Input.DASSteps = 6
		cfg.Input.ARRSteps = 1
	}
}
