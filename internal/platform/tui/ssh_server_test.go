package tui

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/vovakirdan/tui-tetrion/internal/config"
	"github.com/vovakirdan/tui-tetrion/internal/storage"
)

func testApp(t *testing.T, record bool) App {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.Open(filepath.Join(dir, "tetrion.db"))
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() }) //nolint:errcheck // Best-effort

	cfg := config.DefaultTetrionConfig()
	cfg.Recording.Enabled = record
	cfg.Recording.Directory = filepath.Join(dir, "recordings")
	return App{Config: cfg, Store: store, Version: "test"}
}

func send(t *testing.T, m SessionModel, msgs ...tea.Msg) SessionModel {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(SessionModel)
	}
	return m
}

func TestSessionModelPlayAndBack(t *testing.T) {
	app := testApp(t, true)
	m := NewSessionModel(app, "alice", 120, 40)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.view != viewPlay {
		t.Fatalf("enter on Play should start a game, view=%d", m.view)
	}
	if !strings.Contains(m.View(), "alice") {
		t.Error("single player panel should carry the SSH user name")
	}

	m = send(t, m, runes("q"))
	if m.view != viewMenu {
		t.Fatalf("quitting a game should return to the menu, view=%d", m.view)
	}

	recordings, err := app.Store.Recordings(10)
	if err != nil {
		t.Fatalf("Recordings: %v", err)
	}
	if len(recordings) != 1 || recordings[0].Player != "alice" {
		t.Fatalf("expected one recording by alice, got %+v", recordings)
	}
}

func TestSessionModelScoreboardAndReplay(t *testing.T) {
	app := testApp(t, true)
	path := recordGame(t, app.Config.Recording.Directory, 1)
	if _, err := app.Store.SaveRecording(storage.RecordingEntry{Path: path, Tetrions: 1, Player: "ann"}); err != nil {
		t.Fatalf("SaveRecording: %v", err)
	}

	m := NewSessionModel(app, "bob", 120, 40)
	down := tea.KeyMsg{Type: tea.KeyDown}
	m = send(t, m, down, down, tea.KeyMsg{Type: tea.KeyEnter})
	if m.view != viewScoreboard {
		t.Fatalf("expected scoreboard, view=%d", m.view)
	}
	if !strings.Contains(m.View(), "ann") {
		t.Errorf("scoreboard should list the recording:\n%s", m.View())
	}

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.view != viewReplay {
		t.Fatalf("enter on a recording should replay it, view=%d notice=%q", m.view, m.notice)
	}

	m = send(t, m, runes("q"))
	if m.view != viewScoreboard {
		t.Fatalf("leaving a replay should return to the scoreboard, view=%d", m.view)
	}
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.view != viewMenu {
		t.Fatalf("esc should return to the menu, view=%d", m.view)
	}

	next, cmd := m.Update(runes("q"))
	if !next.(SessionModel).quitting || cmd == nil {
		t.Error("q in the menu should end the session")
	}
}

func TestSessionModelMissingRecording(t *testing.T) {
	app := testApp(t, false)
	missing := filepath.Join(t.TempDir(), "gone.rec")
	if _, err := app.Store.SaveRecording(storage.RecordingEntry{Path: missing, Tetrions: 1}); err != nil {
		t.Fatalf("SaveRecording: %v", err)
	}

	m := NewSessionModel(app, "bob", 120, 40)
	m = send(t, m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.view != viewScoreboard || m.notice == "" {
		t.Fatalf("a missing file should stay on the scoreboard with a notice, view=%d notice=%q", m.view, m.notice)
	}
}

func TestConnectionRegistry(t *testing.T) {
	r := NewConnectionRegistry()
	now := time.Now()
	first := Connection{ID: uuid.New(), User: "a", Started: now}
	second := Connection{ID: uuid.New(), User: "b", Started: now.Add(time.Second)}
	r.Register(second)
	r.Register(first)

	if r.Count() != 2 {
		t.Fatalf("Count() = %d, expected 2", r.Count())
	}
	list := r.List()
	if list[0].User != "a" || list[1].User != "b" {
		t.Errorf("List() not oldest first: %+v", list)
	}

	r.Unregister(first.ID)
	if r.Count() != 1 {
		t.Errorf("Count() = %d after unregister, expected 1", r.Count())
	}
}

func TestGameConfigAppliesPreset(t *testing.T) {
	cfg := config.DefaultTetrionConfig()
	gc := GameConfig(cfg, 2, config.DifficultyMaster, 5)

	if gc.Players != 2 || gc.Seed != 5 {
		t.Errorf("players=%d seed=%d, expected 2 and 5", gc.Players, gc.Seed)
	}
	if gc.StartingLevel != 19 || gc.Input.ARR != 1 || gc.Input.DAS != 6 {
		t.Errorf("master preset not applied: %+v", gc)
	}
	if cfg.Simulation.StartingLevel != 0 {
		t.Error("GameConfig must not modify the caller's config")
	}
	if GameConfig(cfg, 1, "", 0).Seed == 0 {
		t.Error("zero seed should be replaced")
	}

	cfg.Recording.Enabled = false
	if RecorderConfig(cfg, nil, "p", "v") != nil {
		t.Error("disabled recording should yield no recorder")
	}
}
