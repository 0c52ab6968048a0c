package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-tetrion/internal/config"
)

func TestMenuDifficultyCycles(t *testing.T) {
	m := NewMenuModel(nil, 80, 24)
	if m.Difficulty() != config.DifficultyNormal {
		t.Fatalf("default difficulty %s, expected normal", m.Difficulty())
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m = next.(MenuModel)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m = next.(MenuModel)
	if m.Difficulty() != config.DifficultyMaster {
		t.Errorf("cycling left past easy gave %s, expected master", m.Difficulty())
	}
	if !strings.Contains(m.View(), "< master >") {
		t.Errorf("view does not show the difficulty:\n%s", m.View())
	}
}

func TestMenuSelectsTwoPlayers(t *testing.T) {
	m := NewMenuModel(nil, 80, 24)
	for _, msg := range []tea.Msg{
		tea.KeyMsg{Type: tea.KeyUp}, // clamped at the top
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyEnter},
	} {
		next, _ := m.Update(msg)
		m = next.(MenuModel)
	}
	if m.selected == nil || m.selected.Choice != ChoicePlay || m.selected.Players != 2 {
		t.Fatalf("selected %+v, expected two-player game", m.selected)
	}
}

func TestMenuQuit(t *testing.T) {
	m := NewMenuModel(nil, 80, 24)
	next, cmd := m.Update(runes("q"))
	if !next.(MenuModel).quitting || cmd == nil {
		t.Error("q should quit the menu")
	}
	if next.(MenuModel).View() != "" {
		t.Error("a quit menu renders nothing")
	}
}
