package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tui-tetrion/internal/storage"
)

// Scoreboard layout constants
const (
	maxRows = 100 // Max rows to load per tab
)

// ScoreboardTab selects what the scoreboard lists.
type ScoreboardTab int

const (
	TabRecordings ScoreboardTab = iota
	TabScores
)

func (t ScoreboardTab) String() string {
	if t == TabScores {
		return "High scores"
	}
	return "Recordings"
}

// ScoreboardKeyMap defines the key bindings for the scoreboard.
type ScoreboardKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	NextTab key.Binding
	Select  key.Binding
	Back    key.Binding
	Quit    key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k ScoreboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextTab, k.Select, k.Back}
}

// FullHelp returns key bindings for the full help view.
func (k ScoreboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextTab},
		{k.Select, k.Back, k.Quit},
	}
}

// DefaultScoreboardKeyMap returns default key bindings.
func DefaultScoreboardKeyMap() ScoreboardKeyMap {
	return ScoreboardKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab", "shift+tab", "left", "right"),
			key.WithHelp("tab", "switch list"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "replay"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "b"),
			key.WithHelp("esc/b", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ScoreboardModel browses indexed recordings and high scores.
type ScoreboardModel struct {
	store      *storage.Store
	tab        ScoreboardTab
	recordings []storage.RecordingEntry
	scores     []storage.ScoreEntry
	stats      *storage.Stats
	loadErr    error
	table      table.Model
	help       help.Model
	keys       ScoreboardKeyMap
	width      int
	height     int
	quitting   bool
	goingBack  bool
	selected   string // Recording path chosen for replay
}

// NewScoreboardModel creates a new scoreboard model.
func NewScoreboardModel(store *storage.Store, tab ScoreboardTab, width, height int) ScoreboardModel {
	h := help.New()
	h.ShowAll = false

	m := ScoreboardModel{
		store:  store,
		tab:    tab,
		keys:   DefaultScoreboardKeyMap(),
		help:   h,
		width:  width,
		height: height,
	}
	m.load()
	m.table = m.createTable()
	m.updateTableRows()
	return m
}

func (m *ScoreboardModel) columns() []table.Column {
	if m.tab == TabScores {
		return []table.Column{
			{Title: "Rank", Width: 6},
			{Title: "Score", Width: 10},
			{Title: "Level", Width: 6},
			{Title: "Lines", Width: 6},
			{Title: "Player", Width: 12},
			{Title: "Date", Width: 14},
		}
	}
	return []table.Column{
		{Title: "Date", Width: 14},
		{Title: "Player", Width: 12},
		{Title: "P", Width: 2},
		{Title: "Score", Width: 10},
		{Title: "Lines", Width: 6},
		{Title: "Checksum", Width: 12},
		{Title: "File", Width: max(m.width-76, 16)},
	}
}

// createTable creates a new table with the columns of the current tab.
func (m *ScoreboardModel) createTable() table.Model {
	t := table.New(
		table.WithColumns(m.columns()),
		table.WithFocused(true),
		table.WithHeight(max(m.height-9, 3)), // Leave room for header, stats and help
	)

	t.SetStyles(tableStyles())

	return t
}

// load reads both lists and the stats from the store.
func (m *ScoreboardModel) load() {
	m.recordings, m.scores, m.stats, m.loadErr = nil, nil, nil, nil
	if m.store == nil {
		return
	}
	var err error
	if m.recordings, err = m.store.Recordings(maxRows); err != nil {
		m.loadErr = err
		return
	}
	if m.scores, err = m.store.TopScores(maxRows); err != nil {
		m.loadErr = err
		return
	}
	m.stats, m.loadErr = m.store.GetStats()
}

// updateTableRows fills the table from the current tab.
func (m *ScoreboardModel) updateTableRows() {
	var rows []table.Row
	if m.tab == TabScores {
		rows = make([]table.Row, len(m.scores))
		for i, s := range m.scores {
			rows[i] = table.Row{
				fmt.Sprintf("#%d", i+1),
				fmt.Sprint(s.Score),
				fmt.Sprint(s.Level),
				fmt.Sprint(s.Lines),
				s.Player,
				s.CreatedAt.Format("Jan 02 15:04"),
			}
		}
	} else {
		rows = make([]table.Row, len(m.recordings))
		for i, r := range m.recordings {
			rows[i] = table.Row{
				r.CreatedAt.Format("Jan 02 15:04"),
				r.Player,
				fmt.Sprint(r.Tetrions),
				fmt.Sprint(r.Score),
				fmt.Sprint(r.Lines),
				shorten(r.Checksum, 12),
				r.Path,
			}
		}
	}
	m.table.SetRows(rows)

	// Reset cursor to top
	m.table.GotoTop()
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Init initializes the scoreboard model.
func (m ScoreboardModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the scoreboard.
func (m ScoreboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Back):
			m.goingBack = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.NextTab):
			m.tab = (m.tab + 1) % 2
			m.table = m.createTable()
			m.updateTableRows()
			return m, nil

		case key.Matches(msg, m.keys.Select):
			if m.tab == TabRecordings && len(m.recordings) > 0 {
				m.selected = m.recordings[m.table.Cursor()].Path
				return m, tea.Quit
			}
			if m.tab == TabScores && len(m.scores) > 0 {
				if path := m.scorePath(m.scores[m.table.Cursor()]); path != "" {
					m.selected = path
					return m, tea.Quit
				}
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table = m.createTable()
		m.updateTableRows()
		m.help.Width = msg.Width
		return m, nil
	}

	// Pass other messages to table
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// scorePath returns the recording a score came from, if it was recorded.
func (m ScoreboardModel) scorePath(s storage.ScoreEntry) string {
	for _, r := range m.recordings {
		if r.ID == s.RecordingID {
			return r.Path
		}
	}
	return ""
}

// View renders the scoreboard.
func (m ScoreboardModel) View() string {
	if m.quitting || m.goingBack || m.selected != "" {
		return ""
	}

	var b strings.Builder

	b.WriteString(bannerStyle.Render(centerText("T E T R I O N", m.width)))
	b.WriteString("\n\n")

	tabs := make([]string, 0, 2)
	for _, t := range []ScoreboardTab{TabRecordings, TabScores} {
		if t == m.tab {
			tabs = append(tabs, activeTabStyle.Render(t.String()))
		} else {
			tabs = append(tabs, tabStyle.Render(t.String()))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n")

	b.WriteString(frameStyle.Render(m.renderTableContent()))
	b.WriteString("\n")

	if m.stats != nil {
		b.WriteString(mutedStyle.Render(fmt.Sprintf(
			"%d recordings  %d verified  %d diverged  best %d  %d lines total",
			m.stats.Recordings, m.stats.Verified, m.stats.Diverged, m.stats.HighScore, m.stats.TotalLines,
		)))
		b.WriteString("\n")
	}

	b.WriteString(mutedStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// renderTableContent renders the table or empty message.
func (m ScoreboardModel) renderTableContent() string {
	switch {
	case m.store == nil:
		return emptyStyle.Render("No database configured.")
	case m.loadErr != nil:
		return emptyStyle.Render("Could not load: " + m.loadErr.Error())
	case m.tab == TabRecordings && len(m.recordings) == 0:
		return emptyStyle.Render("No recordings yet.\nPlay a game to record one!")
	case m.tab == TabScores && len(m.scores) == 0:
		return emptyStyle.Render("No scores recorded yet.\nPlay a game to set a high score!")
	}
	return m.table.View()
}

// Selected returns the recording path chosen for replay, or "".
func (m ScoreboardModel) Selected() string {
	return m.selected
}

// IsGoingBack returns true if user wants to go back to menu.
func (m ScoreboardModel) IsGoingBack() bool {
	return m.goingBack
}

// IsQuitting returns true if user wants to quit entirely.
func (m ScoreboardModel) IsQuitting() bool {
	return m.quitting
}

// ScoreboardResult is the outcome of the scoreboard screen.
type ScoreboardResult struct {
	Replay string // Recording to replay, if one was chosen
	Back   bool
}

// RunScoreboard runs the scoreboard screen.
func RunScoreboard(store *storage.Store, tab ScoreboardTab, width, height int) (ScoreboardResult, error) {
	model := NewScoreboardModel(store, tab, width, height)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return ScoreboardResult{}, err
	}

	m, ok := finalModel.(ScoreboardModel)
	if !ok {
		return ScoreboardResult{}, nil
	}
	return ScoreboardResult{Replay: m.Selected(), Back: m.IsGoingBack()}, nil
}
