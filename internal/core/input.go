package core

import "fmt"

// InputEvent is one press or release of a game control, already abstracted from
// the physical device. Its numeric value is part of the recording format.
type InputEvent uint8

const (
	EventRotateLeftPressed InputEvent = iota
	EventRotateRightPressed
	EventMoveLeftPressed
	EventMoveRightPressed
	EventMoveDownPressed
	EventDropPressed
	EventHoldPressed
	EventRotateLeftReleased
	EventRotateRightReleased
	EventMoveLeftReleased
	EventMoveRightReleased
	EventMoveDownReleased
	EventDropReleased
	EventHoldReleased

	inputEventCount
)

var inputEventNames = [inputEventCount]string{
	"RotateLeftPressed",
	"RotateRightPressed",
	"MoveLeftPressed",
	"MoveRightPressed",
	"MoveDownPressed",
	"DropPressed",
	"HoldPressed",
	"RotateLeftReleased",
	"RotateRightReleased",
	"MoveLeftReleased",
	"MoveRightReleased",
	"MoveDownReleased",
	"DropReleased",
	"HoldReleased",
}

// Valid reports whether e is one of the defined events.
func (e InputEvent) Valid() bool {
	return e < inputEventCount
}

// String returns the event name, e.g. "DropPressed".
func (e InputEvent) String() string {
	if !e.Valid() {
		return fmt.Sprintf("InputEvent(%d)", uint8(e))
	}
	return inputEventNames[e]
}

// IsPress reports whether the event is a key-down transition.
func (e InputEvent) IsPress() bool {
	return e <= EventHoldPressed
}

// Release returns the matching release event for a press event.
// Release events are returned unchanged.
func (e InputEvent) Release() InputEvent {
	if e.IsPress() {
		return e + EventRotateLeftReleased
	}
	return e
}

// ParseInputEvent looks up an event by its String() name.
func ParseInputEvent(name string) (InputEvent, error) {
	for i, n := range inputEventNames {
		if n == name {
			return InputEvent(i), nil
		}
	}
	return 0, fmt.Errorf("unknown input event %q", name)
}

// AllInputEvents returns every defined event in numeric order.
func AllInputEvents() []InputEvent {
	events := make([]InputEvent, 0, inputEventCount)
	for e := range inputEventCount {
		events = append(events, e)
	}
	return events
}

// Action is a platform-level intent that is not part of the simulation
// (quitting, pausing, toggling help).
type Action int

const (
	ActionNone Action = iota
	ActionPause
	ActionRestart
	ActionBack
	ActionQuit
	ActionHelp
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionPause:
		return "Pause"
	case ActionRestart:
		return "Restart"
	case ActionBack:
		return "Back"
	case ActionQuit:
		return "Quit"
	case ActionHelp:
		return "Help"
	default:
		return "Unknown"
	}
}
