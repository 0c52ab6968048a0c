package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-tetrion/internal/core"
	"github.com/vovakirdan/tui-tetrion/internal/game"
	"github.com/vovakirdan/tui-tetrion/internal/recording"
	"github.com/vovakirdan/tui-tetrion/internal/replay"
)

// ReplayOptions configures replay playback.
type ReplayOptions struct {
	// Speed multiplies the recorded tick rate; values <= 0 mean 1.
	Speed  float64
	Logger *log.Logger
}

// ReplayModel plays back every tetrion of a recording.
type ReplayModel struct {
	reader   *recording.Reader
	sims     []*replay.Simulation
	errs     []error
	labels   []string
	screen   *core.Screen
	logger   *log.Logger
	tickRate int
	tickID   uint64
	speed    float64

	start    time.Time
	started  bool
	paused   bool
	pausedAt time.Time
	quitting bool
}

// NewReplayModel prepares a simulation for every tetrion of reader.
func NewReplayModel(reader *recording.Reader, opts ReplayOptions) (ReplayModel, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	speed := opts.Speed
	if speed <= 0 {
		speed = 1
	}

	info := reader.Information()
	tickRate := core.DefaultConfig().TickRate
	if rate, ok := recording.Lookup[recording.U32Value](info, game.InfoTickRate); ok && rate > 0 {
		tickRate = int(rate)
	}
	player, _ := recording.Lookup[recording.StringValue](info, game.InfoPlayer)

	m := ReplayModel{
		reader:   reader,
		logger:   logger,
		tickRate: tickRate,
		tickID:   nextTickID(),
		speed:    speed,
	}
	headers := reader.TetrionHeaders()
	for i := range headers {
		sim, err := replay.NewSimulation(reader, uint8(i), replay.Options{Logger: logger})
		if err != nil {
			return m, err
		}
		m.sims = append(m.sims, sim)
		label := fmt.Sprintf("P%d", i+1)
		if player != "" && len(headers) == 1 {
			label = string(player)
		}
		m.labels = append(m.labels, label)
	}
	m.errs = make([]error, len(m.sims))
	w, h := ScreenSize(len(m.sims))
	m.screen = core.NewScreen(w, h)
	return m, nil
}

// Init starts the tick loop.
func (m ReplayModel) Init() tea.Cmd {
	return tickCmd(m.tickID, m.tickRate)
}

// Update handles messages and updates the model state.
func (m ReplayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			return m, tea.Quit
		case "p", " ":
			m.togglePause(time.Now())
		case "+", "=":
			m.setSpeed(m.speed * 2)
		case "-":
			m.setSpeed(m.speed / 2)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.screen.Resize(msg.Width, msg.Height-2) // status lines
		return m, nil

	case TickMsg:
		if msg.ID != m.tickID {
			return m, nil
		}
		m.advance(msg.Time)
		if m.Finished() {
			return m, nil
		}
		return m, tickCmd(m.tickID, m.tickRate)
	}
	return m, nil
}

func (m *ReplayModel) togglePause(now time.Time) {
	if m.paused {
		m.start = m.start.Add(now.Sub(m.pausedAt))
		m.paused = false
		return
	}
	m.paused = true
	m.pausedAt = now
}

// setSpeed keeps the current step on screen while changing the rate.
func (m *ReplayModel) setSpeed(speed float64) {
	speed = min(max(speed, 0.125), 64)
	if m.started {
		now := time.Now()
		if m.paused {
			now = m.pausedAt
		}
		elapsed := float64(now.Sub(m.start)) * m.speed / speed
		m.start = now.Add(-time.Duration(elapsed))
	}
	m.speed = speed
}

// due returns the step playback should have reached at now.
func (m *ReplayModel) due(now time.Time) uint64 {
	if !m.started {
		m.start = now
		m.started = true
	}
	elapsed := now.Sub(m.start).Seconds()
	return uint64(elapsed * float64(m.tickRate) * m.speed)
}

// advance steps every simulation up to the due step, stopping at a divergence.
func (m *ReplayModel) advance(now time.Time) {
	if m.paused {
		return
	}
	due := m.due(now)
	for i, sim := range m.sims {
		for m.errs[i] == nil && sim.Step() < due {
			updated, err := sim.Advance()
			if err != nil {
				m.errs[i] = err
				m.logger.Warn("replay diverged", "tetrion", i, "err", err)
			}
			if !updated {
				break
			}
		}
	}
}

// Finished reports whether every tetrion ended or diverged.
func (m ReplayModel) Finished() bool {
	for i, sim := range m.sims {
		if m.errs[i] == nil && !sim.Finished() {
			return false
		}
	}
	return true
}

// Quitting reports whether the user left the replay.
func (m ReplayModel) Quitting() bool {
	return m.quitting
}

// Err returns the first divergence, if any.
func (m ReplayModel) Err() error {
	for _, err := range m.errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// View renders the current state to a string for display.
func (m ReplayModel) View() string {
	if m.quitting {
		return ""
	}

	m.screen.Clear()
	rects := LayoutPanels(len(m.sims), m.screen.Width(), m.screen.Height())
	for i, r := range rects {
		p := Panel{Label: m.labels[i]}
		if m.errs[i] != nil {
			p.Status = "DIVERGED"
		}
		DrawTetrion(m.screen, r.X, r.Y, m.sims[i].Tetrion(), p)
	}

	var b strings.Builder
	b.WriteString(RenderScreen(m.screen))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	return b.String()
}

func (m ReplayModel) statusLine() string {
	var step uint64
	for _, sim := range m.sims {
		step = max(step, sim.Step())
	}
	status := fmt.Sprintf("REPLAY  step %d/%d  speed x%g", step, m.reader.LastStep(), m.speed)
	if m.paused {
		status += "  PAUSED"
	}
	line := titleStyle.Render(status) + statusStyle.Render("  p: pause  +/-: speed  q: quit")

	if err := m.Err(); err != nil {
		first, _, _ := strings.Cut(err.Error(), "\n")
		return line + "\n" + errorStyle.Render(first)
	}
	if m.Finished() {
		return line + "\n" + statusStyle.Render("Replay finished, all snapshots matched.")
	}
	return line
}

// RunReplay plays back reader in the terminal.
func RunReplay(reader *recording.Reader, opts ReplayOptions, programOpts ...tea.ProgramOption) error {
	model, err := NewReplayModel(reader, opts)
	if err != nil {
		return err
	}
	p := tea.NewProgram(model, append([]tea.ProgramOption{tea.WithAltScreen()}, programOpts...)...)
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(ReplayModel); ok {
		return m.Err()
	}
	return nil
}
