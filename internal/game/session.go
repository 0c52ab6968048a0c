// Package game runs live tetrions against the wall clock and records their
// inputs and snapshots into a single recording.
package game

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-tetrion/internal/core"
	"github.com/vovakirdan/tui-tetrion/internal/input"
	"github.com/vovakirdan/tui-tetrion/internal/recording"
	"github.com/vovakirdan/tui-tetrion/internal/tetrion"
)

// MaxPlayers is the largest number of tetrions in one session.
const MaxPlayers = 4

// Config describes a session.
type Config struct {
	Players       int
	Seed          uint64
	StartingLevel uint32
	TickRate      int
	Input         input.Config
	Logger        *log.Logger
}

// DefaultConfig returns a single-player session at 60 steps per second.
func DefaultConfig() Config {
	return Config{
		Players:  1,
		TickRate: core.DefaultConfig().TickRate,
		Input:    input.DefaultConfig(),
	}
}

func (c Config) validate() error {
	if c.Players < 1 || c.Players > MaxPlayers {
		return fmt.Errorf("game: %d players, must be between 1 and %d", c.Players, MaxPlayers)
	}
	if c.TickRate <= 0 {
		return fmt.Errorf("game: tick rate must be positive, got %d", c.TickRate)
	}
	return nil
}

// Headers returns the tetrion headers a session with cfg records. Every
// tetrion uses the base seed so all players receive the same pieces.
func Headers(cfg Config) []recording.TetrionHeader {
	headers := make([]recording.TetrionHeader, cfg.Players)
	for i := range headers {
		headers[i] = recording.TetrionHeader{Seed: cfg.Seed, StartingLevel: cfg.StartingLevel}
	}
	return headers
}

// Session owns the tetrions of one game. Events are queued and dispatched at
// the next step. A Session is driven from a single goroutine.
type Session struct {
	cfg      Config
	logger   *log.Logger
	writer   *recording.Writer
	tetrions []*tetrion.Tetrion
	inputs   []*input.GameInput
	queued   [][]core.InputEvent

	step     uint64
	start    time.Time
	started  bool
	paused   bool
	pausedAt time.Time
	interval time.Duration

	err error
}

// NewSession creates the tetrions of cfg. When writer is not nil it must have
// been created with Headers(cfg); every dispatched event and every snapshot is
// written to it.
func NewSession(cfg Config, writer *recording.Writer) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	if writer != nil {
		headers := Headers(cfg)
		got := writer.Tetrions()
		if len(got) != len(headers) {
			return nil, fmt.Errorf("game: writer has %d tetrions, session has %d", len(got), len(headers))
		}
		for i := range headers {
			if got[i] != headers[i] {
				return nil, fmt.Errorf("game: writer header %d does not match the session", i)
			}
		}
	}

	s := &Session{
		cfg:      cfg,
		logger:   logger,
		writer:   writer,
		queued:   make([][]core.InputEvent, cfg.Players),
		interval: core.RuntimeConfig{TickRate: cfg.TickRate}.StepDuration(),
	}
	for i := range cfg.Players {
		index := uint8(i)
		tc := tetrion.Config{
			Index:         index,
			Seed:          cfg.Seed,
			StartingLevel: cfg.StartingLevel,
			Logger:        logger.With("tetrion", index),
		}
		if writer != nil {
			tc.Sink = writer
		}
		t := tetrion.New(tc)
		in := input.New(t, cfg.Input)
		if writer != nil {
			in.SetCallback(func(event core.InputEvent, step uint64) {
				if err := writer.AddRecord(index, step, event); err != nil {
					s.fail(err)
				}
			})
		}
		s.tetrions = append(s.tetrions, t)
		s.inputs = append(s.inputs, in)
	}
	return s, nil
}

func (s *Session) fail(err error) {
	if s.err == nil {
		s.err = err
		s.logger.Error("session failed", "step", s.step, "err", err)
	}
}

// Players returns the number of tetrions.
func (s *Session) Players() int { return len(s.tetrions) }

// Tetrion returns tetrion i.
func (s *Session) Tetrion(i int) *tetrion.Tetrion { return s.tetrions[i] }

// Step returns the last simulated step.
func (s *Session) Step() uint64 { return s.step }

// Err returns the first recording or engine error.
func (s *Session) Err() error { return s.err }

// Finished reports whether every tetrion is game over.
func (s *Session) Finished() bool {
	for _, t := range s.tetrions {
		if !t.IsGameOver() {
			return false
		}
	}
	return true
}

// HandleEvent queues event for tetrion i. It is dispatched at the next step.
func (s *Session) HandleEvent(i int, event core.InputEvent) error {
	if i < 0 || i >= len(s.tetrions) {
		return fmt.Errorf("game: no tetrion %d", i)
	}
	if !event.Valid() {
		return fmt.Errorf("game: invalid input event %d", uint8(event))
	}
	s.queued[i] = append(s.queued[i], event)
	return nil
}

// Start anchors the clock. Advance calls Start implicitly on first use.
func (s *Session) Start(now time.Time) {
	s.start = now
	s.started = true
	s.logger.Info("session started", "players", len(s.tetrions), "seed", s.cfg.Seed, "level", s.cfg.StartingLevel)
}

// Pause stops the clock. Advance does nothing until Resume.
func (s *Session) Pause(now time.Time) {
	if s.paused || !s.started {
		return
	}
	s.paused = true
	s.pausedAt = now
}

// Resume restarts the clock without catching up on the paused time.
func (s *Session) Resume(now time.Time) {
	if !s.paused {
		return
	}
	s.start = s.start.Add(now.Sub(s.pausedAt))
	s.paused = false
}

// Paused reports whether the clock is stopped.
func (s *Session) Paused() bool { return s.paused }

// Advance simulates every step that is due at now and returns how many ran.
// Steps are never skipped, a late caller catches up in one call.
func (s *Session) Advance(now time.Time) int {
	if !s.started {
		s.Start(now)
	}
	if s.paused {
		return 0
	}
	elapsed := now.Sub(s.start)
	if elapsed < 0 {
		return 0
	}
	due := uint64(elapsed / s.interval)
	ran := 0
	for s.step < due && s.err == nil && !s.Finished() {
		s.Update()
		ran++
	}
	return ran
}

// Update simulates exactly one step for every tetrion still playing.
func (s *Session) Update() {
	s.step++
	step := s.step
	for i, t := range s.tetrions {
		events := s.queued[i]
		s.queued[i] = s.queued[i][:0]
		if t.IsGameOver() {
			continue
		}
		in := s.inputs[i]
		for _, event := range events {
			in.HandleEvent(event, step)
		}
		in.Update(step)
		t.Update(step)
		in.LateUpdate(step)
		if err := t.Err(); err != nil {
			s.fail(err)
		}
		if t.IsGameOver() {
			s.logger.Info("game over", "tetrion", i, "step", step, "score", t.Score(), "lines", t.LinesCleared())
		}
	}
}

// Result summarizes a finished session.
type Result struct {
	Steps    uint64
	Checksum recording.Checksum
	Scores   []uint64
	Lines    []uint32
	Levels   []uint32
}

// Close finishes the session and closes the writer, if any.
func (s *Session) Close() (Result, error) {
	res := Result{Steps: s.step}
	for _, t := range s.tetrions {
		res.Scores = append(res.Scores, t.Score())
		res.Lines = append(res.Lines, t.LinesCleared())
		res.Levels = append(res.Levels, t.Level())
	}
	var closeErr error
	if s.writer != nil {
		res.Checksum = s.writer.Checksum()
		closeErr = s.writer.Close()
	}
	s.logger.Info("session ended", "steps", s.step, "scores", res.Scores)
	return res, errors.Join(s.err, closeErr)
}
