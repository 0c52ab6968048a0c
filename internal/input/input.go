// Package input turns abstract press/release events into engine commands and
// implements delayed auto shift for held lateral moves.
package input

import (
	"github.com/vovakirdan/tui-tetrion/internal/core"
	"github.com/vovakirdan/tui-tetrion/internal/tetrion"
)

// Default auto-repeat timing in simulation steps.
const (
	DefaultDAS uint64 = 10
	DefaultARR uint64 = 2
)

// Target receives commands. *tetrion.Tetrion implements it.
type Target interface {
	HandleCommand(cmd tetrion.Command, step uint64) bool
}

// Callback observes every event before it is dispatched.
type Callback func(event core.InputEvent, step uint64)

// Config controls auto-repeat.
type Config struct {
	// DAS is the delay before a held lateral key starts repeating. Zero
	// disables holding: every press moves exactly once.
	DAS uint64
	// ARR is the repeat interval once DAS has elapsed.
	ARR uint64
}

// DefaultConfig returns the keyboard timing.
func DefaultConfig() Config {
	return Config{DAS: DefaultDAS, ARR: DefaultARR}
}

type holdableKey uint8

const (
	keyLeft holdableKey = iota
	keyRight
)

func (k holdableKey) command() tetrion.Command {
	if k == keyLeft {
		return tetrion.CommandMoveLeft
	}
	return tetrion.CommandMoveRight
}

// GameInput feeds one target. It keeps per-key deadlines for held lateral
// moves and must be updated once per step before the target.
type GameInput struct {
	target   Target
	cfg      Config
	held     [2]bool
	deadline [2]uint64
	callback Callback
}

// New returns an input driving target.
func New(target Target, cfg Config) *GameInput {
	if cfg.DAS > 0 && cfg.ARR == 0 {
		cfg.ARR = DefaultARR
	}
	return &GameInput{target: target, cfg: cfg}
}

// SetCallback installs fn to observe every handled event.
func (g *GameInput) SetCallback(fn Callback) {
	g.callback = fn
}

// Config returns the timing in use.
func (g *GameInput) Config() Config {
	return g.cfg
}

func (g *GameInput) supportsDAS() bool {
	return g.cfg.DAS > 0
}

// HandleEvent dispatches event at step.
func (g *GameInput) HandleEvent(event core.InputEvent, step uint64) {
	if g.callback != nil {
		g.callback(event, step)
	}

	switch event {
	case core.EventRotateLeftPressed:
		g.target.HandleCommand(tetrion.CommandRotateLeft, step)
	case core.EventRotateRightPressed:
		g.target.HandleCommand(tetrion.CommandRotateRight, step)
	case core.EventMoveLeftPressed:
		g.press(keyLeft, step)
	case core.EventMoveRightPressed:
		g.press(keyRight, step)
	case core.EventMoveDownPressed:
		g.target.HandleCommand(tetrion.CommandMoveDown, step)
	case core.EventDropPressed:
		g.target.HandleCommand(tetrion.CommandDrop, step)
	case core.EventHoldPressed:
		g.target.HandleCommand(tetrion.CommandHold, step)
	case core.EventMoveLeftReleased:
		g.held[keyLeft] = false
	case core.EventMoveRightReleased:
		g.held[keyRight] = false
	case core.EventMoveDownReleased:
		g.target.HandleCommand(tetrion.CommandReleaseMoveDown, step)
	}
}

// press moves once and starts the DAS timer. When the move fails the key
// repeats from the next update on.
func (g *GameInput) press(key holdableKey, step uint64) {
	if !g.supportsDAS() {
		g.target.HandleCommand(key.command(), step)
		return
	}

	other := keyRight
	if key == keyRight {
		other = keyLeft
	}
	g.held[key] = true
	g.deadline[key] = step + g.cfg.DAS
	if !g.held[other] && !g.target.HandleCommand(key.command(), step) {
		g.deadline[key] = step
	}
}

// Update repeats held lateral moves whose deadline has passed. Nothing
// repeats while both directions are held.
func (g *GameInput) Update(step uint64) {
	if g.held[keyLeft] && g.held[keyRight] {
		return
	}
	for _, key := range []holdableKey{keyLeft, keyRight} {
		if !g.held[key] || step < g.deadline[key] {
			continue
		}
		for g.deadline[key] <= step {
			g.deadline[key] += g.cfg.ARR
		}
		if !g.target.HandleCommand(key.command(), step) {
			g.deadline[key] = step + g.cfg.DAS
		}
	}
}

// LateUpdate runs after the target has been updated for step.
func (g *GameInput) LateUpdate(uint64) {}

// Held reports whether the lateral key for event's direction is held.
func (g *GameInput) Held(event core.InputEvent) bool {
	switch event {
	case core.EventMoveLeftPressed, core.EventMoveLeftReleased:
		return g.held[keyLeft]
	case core.EventMoveRightPressed, core.EventMoveRightReleased:
		return g.held[keyRight]
	default:
		return false
	}
}
