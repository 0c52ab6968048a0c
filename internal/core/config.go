package core

import "time"

// RuntimeConfig is what the front end knows about the environment a session
// runs in: terminal size, simulation rate and the seed for new games.
type RuntimeConfig struct {
	ScreenW  int    // Screen width in characters
	ScreenH  int    // Screen height in characters
	TickRate int    // Simulation steps per second
	Seed     uint64 // Base seed; 0 means derive one from the clock
}

// DefaultConfig returns a RuntimeConfig with sensible defaults.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		ScreenW:  80,
		ScreenH:  24,
		TickRate: 60,
	}
}

// StepDuration is the wall-clock length of one simulation step.
func (c RuntimeConfig) StepDuration() time.Duration {
	if c.TickRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.TickRate)
}

// ResolveSeed returns Seed, or a clock-derived seed when Seed is zero.
func (c RuntimeConfig) ResolveSeed() uint64 {
	if c.Seed != 0 {
		return c.Seed
	}
	return uint64(time.Now().UnixNano())
}
