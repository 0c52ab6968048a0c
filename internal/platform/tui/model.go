package tui

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-tetrion/internal/config"
	"github.com/vovakirdan/tui-tetrion/internal/core"
	"github.com/vovakirdan/tui-tetrion/internal/game"
)

// PlayOptions configures a live game.
type PlayOptions struct {
	Game game.Config
	// Recorder, if set, records the game to a file.
	Recorder *game.RecorderConfig
	Controls config.ControlsConfig
	// Labels name the players; missing labels default to P1, P2, ...
	Labels []string
	Logger *log.Logger
}

// PlayModel is the Bubble Tea model for a live game.
type PlayModel struct {
	session  *game.Session
	recorded *game.Recorded
	keys     KeyMap
	help     help.Model
	screen   *core.Screen
	labels   []string
	logger   *log.Logger
	tickRate int
	tickID   uint64

	focus    int
	width    int
	height   int
	done     bool
	quitting bool
	result   game.Result
	err      error
}

// NewPlayModel creates the session of opts and the model driving it.
func NewPlayModel(opts PlayOptions, now time.Time) (PlayModel, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	opts.Game.Logger = logger

	m := PlayModel{
		keys:     NewKeyMap(opts.Controls),
		help:     help.New(),
		logger:   logger,
		tickRate: opts.Game.TickRate,
		tickID:   nextTickID(),
	}

	if opts.Recorder != nil {
		r, err := game.StartRecorded(opts.Game, *opts.Recorder, now)
		if err != nil {
			return m, err
		}
		m.recorded = r
		m.session = r.Session
	} else {
		s, err := game.NewSession(opts.Game, nil)
		if err != nil {
			return m, err
		}
		m.session = s
	}

	players := m.session.Players()
	for i := range players {
		label := fmt.Sprintf("P%d", i+1)
		if i < len(opts.Labels) && opts.Labels[i] != "" {
			label = opts.Labels[i]
		}
		m.labels = append(m.labels, label)
	}
	m.width, m.height = ScreenSize(players)
	m.screen = core.NewScreen(m.width, m.height)
	return m, nil
}

// Init starts the tick loop.
func (m PlayModel) Init() tea.Cmd {
	return tickCmd(m.tickID, m.tickRate)
}

// Update handles messages and updates the model state.
func (m PlayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height - 1 // help line
		m.screen.Resize(m.width, m.height)
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		if msg.ID != m.tickID {
			return m, nil
		}
		return m.handleTick(msg.Time)
	}
	return m, nil
}

func (m PlayModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.done {
		switch {
		case key.Matches(msg, m.keys.Quit), msg.String() == "enter", msg.String() == "esc":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	switch m.keys.MapAction(msg) {
	case core.ActionQuit:
		m.finish()
		m.quitting = true
		return m, tea.Quit
	case core.ActionPause:
		if m.session.Paused() {
			m.session.Resume(time.Now())
		} else {
			m.session.Pause(time.Now())
		}
		return m, nil
	}

	if key.Matches(msg, m.keys.Focus) {
		m.focus = (m.focus + 1) % m.session.Players()
		return m, nil
	}
	if m.session.Paused() {
		return m, nil
	}

	if event, ok := m.keys.MapKey(msg); ok {
		//nolint:errcheck // Focus is always a valid tetrion and events come from MapKey
		m.session.HandleEvent(m.focus, event)
		//nolint:errcheck // Same as above
		m.session.HandleEvent(m.focus, event.Release())
	}
	return m, nil
}

func (m PlayModel) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	if m.done {
		return m, nil
	}
	m.session.Advance(now)
	if m.session.Err() != nil || m.session.Finished() {
		m.finish()
		return m, nil
	}
	return m, tickCmd(m.tickID, m.tickRate)
}

// finish closes the session once and keeps its result.
func (m *PlayModel) finish() {
	if m.done {
		return
	}
	m.done = true
	if m.recorded != nil {
		m.result, m.err = m.recorded.Finish()
	} else {
		m.result, m.err = m.session.Close()
	}
	if m.err != nil {
		m.logger.Error("game ended with error", "err", m.err)
	}
}

// View renders the current state to a string for display.
func (m PlayModel) View() string {
	if m.quitting {
		return ""
	}

	m.screen.Clear()
	rects := LayoutPanels(m.session.Players(), m.screen.Width(), m.screen.Height())
	for i, r := range rects {
		DrawTetrion(m.screen, r.X, r.Y, m.session.Tetrion(i), Panel{
			Label:   m.labels[i],
			Focused: i == m.focus && m.session.Players() > 1,
		})
	}

	var b strings.Builder
	b.WriteString(RenderScreen(m.screen))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	return b.String()
}

func (m PlayModel) statusLine() string {
	switch {
	case m.err != nil:
		return errorStyle.Render("error: " + m.err.Error())
	case m.done:
		msg := fmt.Sprintf("Game over after %d steps.", m.result.Steps)
		if m.recorded != nil {
			msg += " Recorded to " + m.recorded.Path
		}
		return titleStyle.Render(msg) + statusStyle.Render("  enter: exit")
	case m.session.Paused():
		return titleStyle.Render("PAUSED") + "  " + m.help.View(m.keys)
	}
	return m.help.View(m.keys)
}

// Result returns the final result once the game has finished.
func (m PlayModel) Result() (game.Result, bool, error) {
	return m.result, m.done, m.err
}

// Quitting reports whether the user left the game.
func (m PlayModel) Quitting() bool {
	return m.quitting
}

// RecordingPath returns the path of the recording, or "" when not recording.
func (m PlayModel) RecordingPath() string {
	if m.recorded == nil {
		return ""
	}
	return m.recorded.Path
}

// RunPlay starts a live game in the terminal and blocks until it ends.
func RunPlay(opts PlayOptions, programOpts ...tea.ProgramOption) (PlayModel, error) {
	model, err := NewPlayModel(opts, time.Now())
	if err != nil {
		return model, err
	}

	p := tea.NewProgram(model, append([]tea.ProgramOption{tea.WithAltScreen()}, programOpts...)...)
	final, runErr := p.Run()
	m, ok := final.(PlayModel)
	if !ok {
		m = model
	}
	// A program killed from outside never saw a quit key.
	m.finish()
	return m, errors.Join(runErr, m.err)
}
