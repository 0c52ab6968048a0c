package game

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/tui-tetrion/internal/core"
	"github.com/vovakirdan/tui-tetrion/internal/recording"
	"github.com/vovakirdan/tui-tetrion/internal/replay"
)

func newRecordedSession(t *testing.T, cfg Config) (*Session, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	w, err := recording.NewWriter(&buf, Headers(cfg), nil)
	require.NoError(t, err)
	s, err := NewSession(cfg, w)
	require.NoError(t, err)
	return s, &buf
}

func TestHeaders(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Players = 3
	cfg.Seed = 77
	cfg.StartingLevel = 4

	headers := Headers(cfg)
	require.Len(t, headers, 3)
	for _, h := range headers {
		assert.Equal(t, recording.TetrionHeader{Seed: 77, StartingLevel: 4}, h)
	}
}

func TestNewSessionValidates(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no players", func(c *Config) { c.Players = 0 }},
		{"too many players", func(c *Config) { c.Players = MaxPlayers + 1 }},
		{"zero tick rate", func(c *Config) { c.TickRate = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := NewSession(cfg, nil)
			require.Error(t, err)
		})
	}
}

func TestNewSessionRejectsForeignWriter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 1

	var buf bytes.Buffer
	w, err := recording.NewWriter(&buf, []recording.TetrionHeader{{Seed: 2}}, nil)
	require.NoError(t, err)

	_, err = NewSession(cfg, w)
	require.Error(t, err)
}

func TestAdvanceCatchesUp(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TickRate = 10
	s, err := NewSession(cfg, nil)
	require.NoError(t, err)

	start := time.Unix(1000, 0)
	assert.Equal(t, 0, s.Advance(start))
	assert.Equal(t, 0, s.Advance(start.Add(50*time.Millisecond)))
	assert.Equal(t, 1, s.Advance(start.Add(100*time.Millisecond)))
	assert.Equal(t, 25, s.Advance(start.Add(2600*time.Millisecond)))
	assert.Equal(t, uint64(26), s.Step())
	assert.Equal(t, 0, s.Advance(start.Add(2650*time.Millisecond)))
}

func TestAdvanceIgnoresClockGoingBackwards(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TickRate = 10
	s, err := NewSession(cfg, nil)
	require.NoError(t, err)

	start := time.Unix(1000, 0)
	s.Start(start)
	assert.Equal(t, 0, s.Advance(start.Add(-time.Second)))
	assert.Equal(t, uint64(0), s.Step())
	assert.False(t, s.Finished())
	assert.Equal(t, 3, s.Advance(start.Add(300*time.Millisecond)))
}

func TestEventsApplyAtNextStep(t *testing.T) {
	s, buf := newRecordedSession(t, Config{Players: 1, Seed: 5, TickRate: 60})

	s.Update()
	require.NoError(t, s.HandleEvent(0, core.EventDropPressed))
	assert.Equal(t, 0, s.Tetrion(0).Stack().Len())

	s.Update()
	assert.Equal(t, 4, s.Tetrion(0).Stack().Len())

	_, err := s.Close()
	require.NoError(t, err)

	reader, err := recording.Parse(buf)
	require.NoError(t, err)
	require.Len(t, reader.Records(), 1)
	assert.Equal(t, recording.Record{TetrionIndex: 0, Step: 2, Event: core.EventDropPressed}, reader.Records()[0])
	require.Len(t, reader.Snapshots(), 1)
	assert.Equal(t, uint64(2), reader.Snapshots()[0].Step)
}

func TestHandleEventRejectsBadInput(t *testing.T) {
	s, err := NewSession(DefaultConfig(), nil)
	require.NoError(t, err)

	require.Error(t, s.HandleEvent(1, core.EventDropPressed))
	require.Error(t, s.HandleEvent(-1, core.EventDropPressed))
	require.Error(t, s.HandleEvent(0, core.InputEvent(200)))
}

func TestRecordedSessionVerifies(t *testing.T) {
	cfg := Config{Players: 2, Seed: 2024, StartingLevel: 1, TickRate: 60, Input: DefaultConfig().Input}
	s, buf := newRecordedSession(t, cfg)

	moves := []core.InputEvent{
		core.EventMoveLeftPressed, core.EventRotateRightPressed, core.EventMoveRightPressed,
		core.EventDropPressed, core.EventHoldPressed, core.EventMoveDownPressed,
	}
	for step := range 3000 {
		if step%7 == 0 {
			press := moves[(step/7)%len(moves)]
			player := (step / 7) % 2
			require.NoError(t, s.HandleEvent(player, press))
			require.NoError(t, s.HandleEvent(1-player, press.Release()))
		}
		if step%7 == 3 {
			for _, press := range moves {
				require.NoError(t, s.HandleEvent(0, press.Release()))
				require.NoError(t, s.HandleEvent(1, press.Release()))
			}
		}
		s.Update()
		if s.Finished() {
			break
		}
	}
	res, err := s.Close()
	require.NoError(t, err)
	require.Len(t, res.Scores, 2)

	reader, err := recording.Parse(buf)
	require.NoError(t, err)
	assert.Equal(t, res.Checksum, reader.Header().Checksum)
	require.NotEmpty(t, reader.Snapshots())

	verified, err := replay.Verify(reader, replay.Options{Input: &cfg.Input})
	require.NoError(t, err)
	require.Len(t, verified.Tetrions, 2)
	for i, tr := range verified.Tetrions {
		if tr.GameOver {
			assert.Equal(t, res.Scores[i], tr.Score, "tetrion %d", i)
		}
	}
}

func TestFinishedStopsAdvancing(t *testing.T) {
	s, err := NewSession(Config{Players: 1, Seed: 3, TickRate: 60}, nil)
	require.NoError(t, err)
	start := time.Unix(0, 0)
	s.Start(start)

	for !s.Finished() {
		require.NoError(t, s.HandleEvent(0, core.EventDropPressed))
		s.Update()
	}
	step := s.Step()
	assert.Equal(t, 0, s.Advance(start.Add(time.Hour)))
	assert.Equal(t, step, s.Step())
	assert.True(t, s.Tetrion(0).IsGameOver())
}

func TestPauseStopsTheClock(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TickRate = 10
	s, err := NewSession(cfg, nil)
	require.NoError(t, err)

	start := time.Unix(0, 0)
	s.Start(start)
	assert.Equal(t, 5, s.Advance(start.Add(500*time.Millisecond)))

	s.Pause(start.Add(500 * time.Millisecond))
	assert.True(t, s.Paused())
	assert.Equal(t, 0, s.Advance(start.Add(10*time.Second)))

	s.Resume(start.Add(10 * time.Second))
	assert.False(t, s.Paused())
	assert.Equal(t, 0, s.Advance(start.Add(10*time.Second)))
	assert.Equal(t, 2, s.Advance(start.Add(10200*time.Millisecond)))
	assert.Equal(t, uint64(7), s.Step())
}
