package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-tetrion/internal/config"
	"github.com/vovakirdan/tui-tetrion/internal/storage"
)

// MenuChoice is what the user picked in the main menu.
type MenuChoice int

const (
	ChoiceNone MenuChoice = iota
	ChoicePlay
	ChoiceRecordings
	ChoiceScores
	ChoiceQuit
)

// MenuItem represents a selectable entry in the menu.
type MenuItem struct {
	Choice  MenuChoice
	Title   string
	Players int
}

// MenuModel is the Bubble Tea model for the main menu.
type MenuModel struct {
	items      []MenuItem
	cursor     int
	difficulty int
	width      int
	height     int
	highScore  uint64
	quitting   bool
	selected   *MenuItem
}

// NewMenuModel creates a new menu model.
func NewMenuModel(store *storage.Store, width, height int) MenuModel {
	m := MenuModel{
		items: []MenuItem{
			{Choice: ChoicePlay, Title: "Play", Players: 1},
			{Choice: ChoicePlay, Title: "Play (2 players)", Players: 2},
			{Choice: ChoiceRecordings, Title: "Recordings"},
			{Choice: ChoiceScores, Title: "High scores"},
			{Choice: ChoiceQuit, Title: "Quit"},
		},
		difficulty: 1, // normal
		width:      width,
		height:     height,
	}
	if store != nil {
		// Best-effort, the menu shows 0 without a database
		m.highScore, _ = store.HighScore()
	}
	return m
}

// Init initializes the menu model.
func (m MenuModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu.
func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}

	return m, nil
}

// handleKey processes keyboard input for menu navigation.
func (m MenuModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "h":
		m.difficulty = (m.difficulty + len(config.Presets()) - 1) % len(config.Presets())
		return m, nil
	case "right", "l":
		m.difficulty = (m.difficulty + 1) % len(config.Presets())
		return m, nil
	}

	switch MapKeyToMenuAction(msg) {
	case MenuActionQuit, MenuActionBack:
		m.quitting = true
		return m, tea.Quit

	case MenuActionUp:
		if m.cursor > 0 {
			m.cursor--
		}

	case MenuActionDown:
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case MenuActionSelect:
		selected := m.items[m.cursor]
		m.selected = &selected
		return m, tea.Quit
	}

	return m, nil
}

// View renders the menu.
func (m MenuModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(bannerStyle.Render(centerText("T E T R I O N", m.width)))
	b.WriteString("\n\n")
	b.WriteString(centerText(fmt.Sprintf("High score: %d", m.highScore), m.width))
	b.WriteString("\n\n")

	for i, item := range m.items {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		b.WriteString(centerText(cursor+item.Title, m.width))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(centerText(fmt.Sprintf("Difficulty: < %s >", m.Difficulty()), m.width))
	b.WriteString("\n\n")
	controls := "Up/Down: Navigate  |  Left/Right: Difficulty  |  Enter: Select  |  Q: Quit"
	b.WriteString(mutedStyle.Render(centerText(controls, m.width)))
	b.WriteString("\n")

	return b.String()
}

// Difficulty returns the chosen difficulty preset.
func (m MenuModel) Difficulty() config.DifficultyPreset {
	return config.Presets()[m.difficulty]
}

// centerText centers text within given width.
func centerText(text string, width int) string {
	n := len([]rune(text))
	if n >= width {
		return text
	}
	padding := (width - n) / 2
	return strings.Repeat(" ", padding) + text
}

// MenuResult holds the result of running the menu.
type MenuResult struct {
	Choice     MenuChoice
	Players    int
	Difficulty config.DifficultyPreset
	Width      int
	Height     int
}

// RunMenu runs the menu and returns the selection result.
func RunMenu(store *storage.Store, width, height int) (MenuResult, error) {
	model := NewMenuModel(store, width, height)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return MenuResult{Choice: ChoiceQuit}, err
	}

	m, ok := finalModel.(MenuModel)
	if !ok || m.selected == nil {
		return MenuResult{Choice: ChoiceQuit}, nil
	}
	return MenuResult{
		Choice:     m.selected.Choice,
		Players:    m.selected.Players,
		Difficulty: m.Difficulty(),
		Width:      m.width,
		Height:     m.height,
	}, nil
}
