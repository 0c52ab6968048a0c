// Package tui provides the Bubble Tea front end for tetrion.
// It handles the terminal UI loop, key mapping, rendering and SSH serving.
package tui

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg is sent to trigger a simulation catch-up. ID identifies the loop
// that scheduled it so a model ignores ticks left over from a previous screen.
type TickMsg struct {
	ID   uint64
	Time time.Time
}

var lastTickID atomic.Uint64

// nextTickID returns a fresh tick loop identifier.
func nextTickID() uint64 {
	return lastTickID.Add(1)
}

// tickCmd returns a Bubble Tea command that sends tick messages at the specified rate.
func tickCmd(id uint64, tickRate int) tea.Cmd {
	interval := time.Second / time.Duration(tickRate)
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{ID: id, Time: t}
	})
}
