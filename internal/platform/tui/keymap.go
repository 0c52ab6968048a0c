package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-tetrion/internal/config"
	"github.com/vovakirdan/tui-tetrion/internal/core"
)

// KeyMap holds the game bindings built from the controls config.
// It implements help.KeyMap.
type KeyMap struct {
	RotateLeft  key.Binding
	RotateRight key.Binding
	MoveLeft    key.Binding
	MoveRight   key.Binding
	MoveDown    key.Binding
	Drop        key.Binding
	Hold        key.Binding
	Pause       key.Binding
	Quit        key.Binding
	Focus       key.Binding
}

func binding(keys []string, desc string) key.Binding {
	names := make([]string, len(keys))
	for i, k := range keys {
		if k == " " {
			names[i] = "space"
		} else {
			names[i] = k
		}
	}
	return key.NewBinding(
		key.WithKeys(keys...),
		key.WithHelp(strings.Join(names, "/"), desc),
	)
}

// NewKeyMap creates the bindings for controls.
func NewKeyMap(controls config.ControlsConfig) KeyMap {
	return KeyMap{
		RotateLeft:  binding(controls.RotateLeft, "rotate left"),
		RotateRight: binding(controls.RotateRight, "rotate right"),
		MoveLeft:    binding(controls.MoveLeft, "left"),
		MoveRight:   binding(controls.MoveRight, "right"),
		MoveDown:    binding(controls.MoveDown, "soft drop"),
		Drop:        binding(controls.Drop, "hard drop"),
		Hold:        binding(controls.Hold, "hold"),
		Pause:       binding(controls.Pause, "pause"),
		Quit:        binding(controls.Quit, "quit"),
		Focus:       binding([]string{"tab"}, "next player"),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.MoveLeft, k.MoveRight, k.RotateRight, k.Drop, k.Hold, k.Pause, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.MoveLeft, k.MoveRight, k.MoveDown, k.Drop},
		{k.RotateLeft, k.RotateRight, k.Hold},
		{k.Pause, k.Focus, k.Quit},
	}
}

// MapKey translates a key message to the press event of a game control.
// Terminals report no key releases, so callers release the control on the
// following step.
func (k KeyMap) MapKey(msg tea.KeyMsg) (core.InputEvent, bool) {
	switch {
	case key.Matches(msg, k.RotateLeft):
		return core.EventRotateLeftPressed, true
	case key.Matches(msg, k.RotateRight):
		return core.EventRotateRightPressed, true
	case key.Matches(msg, k.MoveLeft):
		return core.EventMoveLeftPressed, true
	case key.Matches(msg, k.MoveRight):
		return core.EventMoveRightPressed, true
	case key.Matches(msg, k.MoveDown):
		return core.EventMoveDownPressed, true
	case key.Matches(msg, k.Drop):
		return core.EventDropPressed, true
	case key.Matches(msg, k.Hold):
		return core.EventHoldPressed, true
	}
	return 0, false
}

// MapAction translates a key message to a platform action.
func (k KeyMap) MapAction(msg tea.KeyMsg) core.Action {
	switch {
	case key.Matches(msg, k.Quit):
		return core.ActionQuit
	case key.Matches(msg, k.Pause):
		return core.ActionPause
	}
	return core.ActionNone
}

// MenuAction represents a menu-specific action derived from input.
type MenuAction int

const (
	MenuActionNone MenuAction = iota
	MenuActionUp
	MenuActionDown
	MenuActionSelect
	MenuActionBack
	MenuActionQuit
)

// MapKeyToMenuAction translates a key to a menu action.
func MapKeyToMenuAction(msg tea.KeyMsg) MenuAction {
	switch msg.String() {
	case "ctrl+c", "q":
		return MenuActionQuit
	case "w", "up", "k": // vim-style k for up
		return MenuActionUp
	case "s", "down", "j": // vim-style j for down
		return MenuActionDown
	case "enter", " ":
		return MenuActionSelect
	case "b", "esc":
		return MenuActionBack
	}
	return MenuActionNone
}
