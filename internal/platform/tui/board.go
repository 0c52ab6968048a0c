package tui

import (
	"fmt"

	"github.com/vovakirdan/tui-tetrion/internal/core"
	"github.com/vovakirdan/tui-tetrion/internal/tetrion"
)

// Board layout. Every field cell is two characters wide so minos look square.
const (
	cellWidth   = 2
	fieldWidth  = tetrion.Width*cellWidth + 2
	fieldHeight = tetrion.Height + 2
	sideWidth   = 12

	// PanelWidth and PanelHeight are the screen area one tetrion occupies.
	PanelWidth  = fieldWidth + sideWidth
	PanelHeight = fieldHeight + 1

	// previewsShown is how many upcoming pieces fit next to the field.
	previewsShown = 3
)

const (
	minoRune  = '█'
	ghostRune = '░'
	emptyRune = '·'
)

// Panel describes how a tetrion is labelled on screen.
type Panel struct {
	Label   string
	Focused bool
	// Status replaces the game over banner when set, e.g. "DIVERGED".
	Status string
}

// DrawTetrion draws t with its field box at (x, y) and the hold slot,
// previews and counters to its right.
func DrawTetrion(s *core.Screen, x, y int, t *tetrion.Tetrion, p Panel) {
	frame := core.ColorGray
	if p.Focused {
		frame = core.ColorWhite
	}
	box := core.NewRect(x, y, fieldWidth, fieldHeight)
	s.DrawBox(box, frame)

	for row := range tetrion.Height {
		for col := range tetrion.Width {
			cx, cy := cellPosition(box, col, row)
			if kind, ok := t.Stack().At(tetrion.Point{X: col, Y: row}); ok {
				drawCell(s, cx, cy, minoRune, KindColor(kind))
			} else {
				s.SetColored(cx, cy, ' ', core.ColorDim)
				s.SetColored(cx+1, cy, emptyRune, core.ColorDim)
			}
		}
	}

	// Pieces may reach outside the field while spawning; those cells are clipped.
	field := box.Inset(1)
	if ghost, ok := t.Ghost(); ok {
		for _, m := range ghost.Minos() {
			if cx, cy := cellPosition(box, m.Position.X, m.Position.Y); field.Contains(cx, cy) {
				drawCell(s, cx, cy, ghostRune, core.ColorGray)
			}
		}
	}
	if active, ok := t.Active(); ok {
		for _, m := range active.Minos() {
			if cx, cy := cellPosition(box, m.Position.X, m.Position.Y); field.Contains(cx, cy) {
				drawCell(s, cx, cy, minoRune, KindColor(m.Kind))
			}
		}
	}

	status := p.Status
	if status == "" && t.IsGameOver() {
		status = "GAME OVER"
	}
	if status != "" {
		banner := " " + status + " "
		bx := x + (fieldWidth-len(banner))/2
		s.DrawTextColored(bx, y+fieldHeight/2, banner, core.ColorRed)
	}

	drawSide(s, x+fieldWidth+1, y, t)

	label := p.Label
	if p.Focused {
		label = "> " + label
	}
	s.DrawTextColored(x, y+fieldHeight, label, frame)
}

func cellPosition(box core.Rect, col, row int) (int, int) {
	field := box.Inset(1)
	return field.X + col*cellWidth, field.Y + row
}

func drawCell(s *core.Screen, x, y int, r rune, c core.Color) {
	s.SetColored(x, y, r, c)
	s.SetColored(x+1, y, r, c)
}

func drawSide(s *core.Screen, x, y int, t *tetrion.Tetrion) {
	s.DrawTextColored(x, y, "HOLD", core.ColorWhite)
	if kind, ok := t.Held(); ok {
		color := KindColor(kind)
		if !t.CanHold() {
			color = core.ColorGray
		}
		drawPiece(s, x, y+1, kind, color)
	}

	s.DrawTextColored(x, y+4, "NEXT", core.ColorWhite)
	previews := t.Previews()
	for i := range previewsShown {
		drawPiece(s, x, y+5+i*3, previews[i], KindColor(previews[i]))
	}

	counters := []struct {
		name  string
		value string
	}{
		{"LEVEL", fmt.Sprint(t.Level())},
		{"SCORE", fmt.Sprint(t.Score())},
		{"LINES", fmt.Sprint(t.LinesCleared())},
	}
	for i, c := range counters {
		s.DrawTextColored(x, y+14+i*2, c.name, core.ColorWhite)
		s.DrawText(x, y+15+i*2, c.value)
	}
}

// drawPiece draws kind in spawn orientation, shifted so its top row is at y.
func drawPiece(s *core.Screen, x, y int, kind tetrion.PieceKind, c core.Color) {
	if !kind.Valid() {
		return
	}
	shape := tetrion.Shape(kind, tetrion.North)
	top := shape[0].Y
	for _, p := range shape {
		top = min(top, p.Y)
	}
	for _, p := range shape {
		drawCell(s, x+p.X*cellWidth, y+p.Y-top, minoRune, c)
	}
}

// LayoutPanels returns the origin of each of n panels, side by side and
// centred in a screen of the given size.
func LayoutPanels(n, width, height int) []core.Rect {
	const gap = 2
	total := n*PanelWidth + (n-1)*gap
	x := max((width-total)/2, 0)
	y := max((height-PanelHeight)/2, 0)
	rects := make([]core.Rect, n)
	for i := range rects {
		rects[i] = core.NewRect(x+i*(PanelWidth+gap), y, PanelWidth, PanelHeight)
	}
	return rects
}

// ScreenSize returns the screen size needed to show n panels plus a status line.
func ScreenSize(n int) (int, int) {
	return n*PanelWidth + (n-1)*2, PanelHeight + 2
}
