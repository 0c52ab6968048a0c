package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/google/uuid"

	"github.com/vovakirdan/tui-tetrion/internal/config"
	"github.com/vovakirdan/tui-tetrion/internal/recording"
	"github.com/vovakirdan/tui-tetrion/internal/storage"
)

// App bundles what every screen of an interactive session needs.
type App struct {
	Config  config.TetrionConfig
	Store   *storage.Store
	Logger  *log.Logger
	Version string
}

func (a App) logger() *log.Logger {
	if a.Logger == nil {
		return log.New(io.Discard)
	}
	return a.Logger
}

// Connection is one active SSH session.
type Connection struct {
	ID      uuid.UUID
	User    string
	Remote  string
	Started time.Time
}

// ConnectionRegistry tracks active SSH sessions.
// Thread-safe for concurrent access.
type ConnectionRegistry struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]Connection
}

// NewConnectionRegistry creates an empty registry.
func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		connections: make(map[uuid.UUID]Connection),
	}
}

// Register adds a connection to the registry.
func (r *ConnectionRegistry) Register(c Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connections[c.ID] = c
}

// Unregister removes a connection from the registry.
func (r *ConnectionRegistry) Unregister(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.connections, id)
}

// Count returns the number of registered connections.
func (r *ConnectionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}

// List returns the registered connections, oldest first.
func (r *ConnectionRegistry) List() []Connection {
	r.mu.RLock()
	list := make([]Connection, 0, len(r.connections))
	for _, c := range r.connections {
		list = append(list, c)
	}
	r.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].Started.Before(list[j].Started) })
	return list
}

// SSHServer wraps a Wish SSH server serving tetrion sessions.
type SSHServer struct {
	app         App
	server      *ssh.Server
	connections *ConnectionRegistry
	logger      *log.Logger
}

// NewSSHServer creates a new SSH server from the ssh section of app.Config.
// Every connection gets its own menu and recorded games under the SSH user.
func NewSSHServer(app App) (*SSHServer, error) {
	cfg := app.Config.SSH
	srv := &SSHServer{
		app:         app,
		connections: NewConnectionRegistry(),
		logger:      app.logger(),
	}

	hostKeyPath := config.ExpandHome(cfg.HostKey)
	if hostKeyPath == "" {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return nil, fmt.Errorf("cannot get home directory: %w", homeErr)
		}
		hostKeyPath = filepath.Join(home, ".tetrion", "host_key")
	}

	// Ensure host key directory exists
	if mkdirErr := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); mkdirErr != nil {
		return nil, fmt.Errorf("cannot create host key directory: %w", mkdirErr)
	}

	opts := []ssh.Option{
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	}
	if cfg.IdleTimeout > 0 {
		opts = append(opts, wish.WithIdleTimeout(cfg.IdleTimeout))
	}

	server, err := wish.NewServer(opts...)
	if err != nil {
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}
	srv.server = server
	return srv, nil
}

// teaHandler creates a Bubble Tea program for each SSH session.
func (s *SSHServer) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sshSession.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sshSession.User())
		return nil, nil
	}

	model := NewSessionModel(s.app, sshSession.User(), pty.Window.Width, pty.Window.Height)
	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
	}
}

// loggingMiddleware logs SSH session events and tracks the connection.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		c := Connection{
			ID:      uuid.New(),
			User:    sshSession.User(),
			Remote:  sshSession.RemoteAddr().String(),
			Started: time.Now(),
		}
		s.connections.Register(c)
		s.logger.Info("session started",
			"user", c.User,
			"remote", c.Remote,
			"active", s.connections.Count(),
		)
		next(sshSession)
		s.connections.Unregister(c.ID)
		s.logger.Info("session ended",
			"user", c.User,
			"remote", c.Remote,
			"duration", time.Since(c.Started).Round(time.Second),
		)
	}
}

// Connections returns the registry of active sessions.
func (s *SSHServer) Connections() *ConnectionRegistry {
	return s.connections
}

// ListenAndServe starts the SSH server and blocks until SIGINT or SIGTERM.
func (s *SSHServer) ListenAndServe() error {
	s.logger.Info("starting SSH server", "address", s.Addr())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	s.logger.Info("shutting down...", "active", s.connections.Count())
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.app.Config.SSH.Address
}

type sessionView int

const (
	viewMenu sessionView = iota
	viewPlay
	viewScoreboard
	viewReplay
)

// SessionModel manages the flow of one interactive session:
// menu -> game or scoreboard -> replay -> menu.
type SessionModel struct {
	app      App
	username string
	width    int
	height   int
	view     sessionView
	menu     MenuModel
	play     PlayModel
	board    ScoreboardModel
	replay   ReplayModel
	notice   string
	quitting bool
}

// NewSessionModel creates a session for username starting at the menu.
func NewSessionModel(app App, username string, width, height int) SessionModel {
	width, height = screenSize(width, height)
	return SessionModel{
		app:      app,
		username: username,
		width:    width,
		height:   height,
		menu:     NewMenuModel(app.Store, width, height),
	}
}

// Init initializes the session.
func (m SessionModel) Init() tea.Cmd {
	return m.menu.Init()
}

func (m SessionModel) resize() tea.WindowSizeMsg {
	return tea.WindowSizeMsg{Width: m.width, Height: m.height}
}

// Update handles messages for the session.
func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = wsm.Width
		m.height = wsm.Height
	}

	switch m.view {
	case viewPlay:
		return m.updatePlay(msg)
	case viewScoreboard:
		return m.updateScoreboard(msg)
	case viewReplay:
		return m.updateReplay(msg)
	}
	return m.updateMenu(msg)
}

func (m SessionModel) backToMenu() (tea.Model, tea.Cmd) {
	m.view = viewMenu
	m.menu = NewMenuModel(m.app.Store, m.width, m.height)
	return m, m.menu.Init()
}

func (m SessionModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	newMenu, cmd := m.menu.Update(msg)
	if menuModel, ok := newMenu.(MenuModel); ok {
		m.menu = menuModel
	}
	if m.menu.quitting {
		m.quitting = true
		return m, tea.Quit
	}
	selected := m.menu.selected
	if selected == nil {
		return m, cmd
	}
	m.notice = ""

	switch selected.Choice {
	case ChoicePlay:
		return m.startPlay(selected.Players, m.menu.Difficulty())
	case ChoiceRecordings:
		return m.openScoreboard(TabRecordings)
	case ChoiceScores:
		return m.openScoreboard(TabScores)
	}
	m.quitting = true
	return m, tea.Quit
}

func (m SessionModel) startPlay(players int, preset config.DifficultyPreset) (tea.Model, tea.Cmd) {
	logger := m.app.logger().With("user", m.username)
	labels := make([]string, players)
	if players == 1 {
		labels[0] = m.username
	}
	play, err := NewPlayModel(PlayOptions{
		Game:     GameConfig(m.app.Config, players, preset, 0),
		Recorder: RecorderConfig(m.app.Config, m.app.Store, m.username, m.app.Version),
		Controls: m.app.Config.Controls,
		Labels:   labels,
		Logger:   logger,
	}, time.Now())
	if err != nil {
		logger.Error("cannot start game", "err", err)
		m.notice = err.Error()
		return m.backToMenu()
	}

	next, _ := play.Update(m.resize())
	m.play = next.(PlayModel)
	m.view = viewPlay
	return m, m.play.Init()
}

func (m SessionModel) updatePlay(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.play.Update(msg)
	if play, ok := next.(PlayModel); ok {
		m.play = play
	}
	if m.play.Quitting() {
		if _, _, err := m.play.Result(); err != nil {
			m.notice = err.Error()
		}
		return m.backToMenu()
	}
	return m, cmd
}

func (m SessionModel) openScoreboard(tab ScoreboardTab) (tea.Model, tea.Cmd) {
	m.board = NewScoreboardModel(m.app.Store, tab, m.width, m.height)
	m.view = viewScoreboard
	return m, m.board.Init()
}

func (m SessionModel) updateScoreboard(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.board.Update(msg)
	if board, ok := next.(ScoreboardModel); ok {
		m.board = board
	}
	switch {
	case m.board.IsQuitting():
		m.quitting = true
		return m, tea.Quit
	case m.board.IsGoingBack():
		return m.backToMenu()
	case m.board.Selected() != "":
		return m.startReplay(m.board.Selected())
	}
	return m, cmd
}

func (m SessionModel) startReplay(path string) (tea.Model, tea.Cmd) {
	tab := m.board.tab
	reader, err := recording.Load(path)
	if err == nil {
		var replayModel ReplayModel
		replayModel, err = NewReplayModel(reader, ReplayOptions{Speed: 1, Logger: m.app.logger()})
		if err == nil {
			next, _ := replayModel.Update(m.resize())
			m.replay = next.(ReplayModel)
			m.view = viewReplay
			return m, m.replay.Init()
		}
	}
	m.app.logger().Warn("cannot replay recording", "path", path, "err", err)
	m.notice = err.Error()
	return m.openScoreboard(tab)
}

func (m SessionModel) updateReplay(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.replay.Update(msg)
	if replayModel, ok := next.(ReplayModel); ok {
		m.replay = replayModel
	}
	if m.replay.Quitting() {
		return m.openScoreboard(m.board.tab)
	}
	return m, cmd
}

// View renders the current view.
func (m SessionModel) View() string {
	if m.quitting {
		return ""
	}

	var view string
	switch m.view {
	case viewPlay:
		view = m.play.View()
	case viewScoreboard:
		view = m.board.View()
	case viewReplay:
		view = m.replay.View()
	default:
		view = m.menu.View()
	}
	if m.notice != "" && m.view != viewPlay && m.view != viewReplay {
		view += "\n" + errorStyle.Render(m.notice)
	}
	return view
}
