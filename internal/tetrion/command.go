package tetrion

// Command is an engine-level instruction produced by an input source.
type Command uint8

const (
	CommandMoveLeft Command = iota
	CommandMoveRight
	CommandMoveDown
	CommandRotateLeft
	CommandRotateRight
	CommandDrop
	CommandHold
	CommandReleaseMoveDown
)

func (c Command) String() string {
	switch c {
	case CommandMoveLeft:
		return "MoveLeft"
	case CommandMoveRight:
		return "MoveRight"
	case CommandMoveDown:
		return "MoveDown"
	case CommandRotateLeft:
		return "RotateLeft"
	case CommandRotateRight:
		return "RotateRight"
	case CommandDrop:
		return "Drop"
	case CommandHold:
		return "Hold"
	case CommandReleaseMoveDown:
		return "ReleaseMoveDown"
	default:
		return "Unknown"
	}
}
