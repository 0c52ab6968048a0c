package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-tetrion/internal/config"
	"github.com/vovakirdan/tui-tetrion/internal/core"
	"github.com/vovakirdan/tui-tetrion/internal/tetrion"
)

func TestDrawTetrionShowsActivePiece(t *testing.T) {
	tt := tetrion.New(tetrion.Config{Seed: 1})
	s := core.NewScreen(PanelWidth, PanelHeight)

	DrawTetrion(s, 0, 0, tt, Panel{Label: "P1"})

	if s.Get(0, 0) != '┌' || s.Get(fieldWidth-1, fieldHeight-1) != '┘' {
		t.Fatalf("field box missing:\n%s", s.String())
	}

	active, ok := tt.Active()
	if !ok {
		t.Fatal("new tetrion has no active piece")
	}
	box := core.NewRect(0, 0, fieldWidth, fieldHeight)
	for _, m := range active.Minos() {
		x, y := cellPosition(box, m.Position.X, m.Position.Y)
		cell := s.GetCell(x, y)
		if cell.Rune != minoRune || cell.Color != KindColor(m.Kind) {
			t.Errorf("cell (%d, %d) = %q color %d, expected active %s mino", x, y, cell.Rune, cell.Color, m.Kind)
		}
	}

	if got := strings.TrimSpace(strings.Split(s.String(), "\n")[fieldHeight]); got != "P1" {
		t.Errorf("label line = %q, expected P1", got)
	}
	if !strings.Contains(s.String(), "NEXT") || !strings.Contains(s.String(), "SCORE") {
		t.Errorf("side panel missing:\n%s", s.String())
	}
}

func TestDrawTetrionStatusBanner(t *testing.T) {
	tt := tetrion.New(tetrion.Config{Seed: 1})
	s := core.NewScreen(PanelWidth, PanelHeight)

	DrawTetrion(s, 0, 0, tt, Panel{Status: "DIVERGED"})

	if !strings.Contains(s.String(), " DIVERGED ") {
		t.Errorf("expected DIVERGED banner:\n%s", s.String())
	}
}

func TestLayoutPanelsCentres(t *testing.T) {
	rects := LayoutPanels(2, 200, 40)
	if len(rects) != 2 {
		t.Fatalf("got %d rects, expected 2", len(rects))
	}
	if rects[1].X != rects[0].X+PanelWidth+2 {
		t.Errorf("second panel at x=%d, expected %d", rects[1].X, rects[0].X+PanelWidth+2)
	}
	left := rects[0].X
	right := 200 - rects[1].Right()
	if left-right > 1 || right-left > 1 {
		t.Errorf("panels not centred: left margin %d, right margin %d", left, right)
	}

	// Too small screens start at the origin instead of going negative.
	if r := LayoutPanels(4, 10, 10)[0]; r.X != 0 || r.Y != 0 {
		t.Errorf("first panel at (%d, %d), expected origin", r.X, r.Y)
	}
}

func TestKindColorsAreDistinct(t *testing.T) {
	seen := make(map[core.Color]tetrion.PieceKind)
	for kind := range tetrion.PieceKind(tetrion.KindCount) {
		c := KindColor(kind)
		if c == core.ColorDefault {
			t.Errorf("%s has no colour", kind)
		}
		if other, ok := seen[c]; ok {
			t.Errorf("%s and %s share colour %d", kind, other, c)
		}
		seen[c] = kind
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestKeyMapMapsDefaultControls(t *testing.T) {
	keys := NewKeyMap(config.DefaultTetrionConfig().Controls)

	tests := []struct {
		msg      tea.KeyMsg
		expected core.InputEvent
	}{
		{tea.KeyMsg{Type: tea.KeyLeft}, core.EventMoveLeftPressed},
		{runes("d"), core.EventMoveRightPressed},
		{tea.KeyMsg{Type: tea.KeyDown}, core.EventMoveDownPressed},
		{tea.KeyMsg{Type: tea.KeyUp}, core.EventRotateRightPressed},
		{runes("z"), core.EventRotateLeftPressed},
		{tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, core.EventDropPressed},
		{runes("c"), core.EventHoldPressed},
	}
	for _, tt := range tests {
		got, ok := keys.MapKey(tt.msg)
		if !ok || got != tt.expected {
			t.Errorf("MapKey(%q) = %s, %v, expected %s", tt.msg.String(), got, ok, tt.expected)
		}
	}

	if _, ok := keys.MapKey(runes("k")); ok {
		t.Error("unbound key should not map to an event")
	}
	if got := keys.MapAction(runes("q")); got != core.ActionQuit {
		t.Errorf("q maps to %v, expected quit", got)
	}
	if got := keys.MapAction(tea.KeyMsg{Type: tea.KeyEsc}); got != core.ActionPause {
		t.Errorf("esc maps to %v, expected pause", got)
	}
}

func TestKeyMapHelpNamesSpace(t *testing.T) {
	keys := NewKeyMap(config.DefaultTetrionConfig().Controls)
	if got := keys.Drop.Help().Key; got != "space/w" {
		t.Errorf("drop help = %q, expected space/w", got)
	}
}
