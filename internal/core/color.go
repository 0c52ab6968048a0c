package core

// Color is a foreground colour for a screen cell. The TUI maps it to an ANSI
// 256-colour style.
type Color uint8

const (
	ColorDefault Color = iota
	ColorCyan
	ColorBlue
	ColorOrange
	ColorYellow
	ColorGreen
	ColorMagenta
	ColorRed
	ColorGray
	ColorWhite
	ColorDim
)
