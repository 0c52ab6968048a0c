package replay

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-tetrion/internal/input"
	"github.com/vovakirdan/tui-tetrion/internal/recording"
	"github.com/vovakirdan/tui-tetrion/internal/tetrion"
)

// Options configures a Simulation.
type Options struct {
	// Logger defaults to a discarding logger.
	Logger *log.Logger
	// Input overrides the timing stored in the recording.
	Input *input.Config
	// Sink receives the snapshots of the replayed tetrion, e.g. to write a
	// fresh recording while replaying.
	Sink tetrion.SnapshotSink
}

// Simulation replays one tetrion of a recording without any UI.
type Simulation struct {
	tetrion *tetrion.Tetrion
	input   *Input
	step    uint64
}

// NewSimulation prepares the tetrion at index. The first piece is spawned at
// step 0; the first Update simulates step 1.
func NewSimulation(reader *recording.Reader, index uint8, opts Options) (*Simulation, error) {
	headers := reader.TetrionHeaders()
	if int(index) >= len(headers) {
		return nil, fmt.Errorf("replay: tetrion index %d out of range, recording has %d tetrions", index, len(headers))
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	cfg := InputConfig(reader.Information())
	if opts.Input != nil {
		cfg = *opts.Input
	}

	t := tetrion.New(tetrion.Config{
		Index:         index,
		Seed:          headers[index].Seed,
		StartingLevel: headers[index].StartingLevel,
		Sink:          opts.Sink,
		Logger:        logger,
	})
	return &Simulation{
		tetrion: t,
		input:   NewInput(t, reader, cfg, logger.With("tetrion", index)),
	}, nil
}

// Update simulates the next step. It returns false once the simulation has
// finished and did nothing.
func (s *Simulation) Update() bool {
	if s.Finished() {
		return false
	}
	s.step++
	s.input.Update(s.step)
	s.tetrion.Update(s.step)
	s.input.LateUpdate(s.step)
	if s.tetrion.IsGameOver() {
		s.input.Finish(s.step)
	}
	return true
}

// Finished reports whether the game is over or nothing is left to replay.
func (s *Simulation) Finished() bool {
	return s.tetrion.IsGameOver() || (s.input.RecordsDone() && s.input.SnapshotsDone())
}

// Advance is Update for callers that cannot recover: a divergence is returned
// as *DivergenceError instead of panicking.
func (s *Simulation) Advance() (updated bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			divergence, ok := r.(*DivergenceError)
			if !ok {
				panic(r)
			}
			err = divergence
		}
	}()
	return s.Update(), nil
}

// Run updates until finished. A divergence is returned as *DivergenceError.
func (s *Simulation) Run() error {
	for {
		updated, err := s.Advance()
		if err != nil || !updated {
			return err
		}
	}
}

// Tetrion returns the replayed tetrion.
func (s *Simulation) Tetrion() *tetrion.Tetrion { return s.tetrion }

// Input returns the replay input.
func (s *Simulation) Input() *Input { return s.input }

// Step returns the last simulated step.
func (s *Simulation) Step() uint64 { return s.step }

// TetrionResult summarizes the replay of one tetrion.
type TetrionResult struct {
	Index             uint8
	Steps             uint64
	Level             uint32
	Score             uint64
	LinesCleared      uint32
	SnapshotsCompared int
	GameOver          bool
}

// Result summarizes a verification.
type Result struct {
	Checksum recording.Checksum
	Tetrions []TetrionResult
}

// Verify replays every tetrion of reader and checks all snapshots. A
// divergence is returned as *DivergenceError.
func Verify(reader *recording.Reader, opts Options) (Result, error) {
	result := Result{Checksum: reader.Header().Checksum}
	for i := range reader.TetrionHeaders() {
		sim, err := NewSimulation(reader, uint8(i), opts)
		if err != nil {
			return result, err
		}
		runErr := sim.Run()

		t := sim.Tetrion()
		result.Tetrions = append(result.Tetrions, TetrionResult{
			Index:             uint8(i),
			Steps:             sim.Step(),
			Level:             t.Level(),
			Score:             t.Score(),
			LinesCleared:      t.LinesCleared(),
			SnapshotsCompared: sim.Input().Compared(),
			GameOver:          t.IsGameOver(),
		})
		if runErr != nil {
			return result, runErr
		}
	}
	return result, nil
}

// IsDivergence reports whether err is a replay divergence.
func IsDivergence(err error) bool {
	var divergence *DivergenceError
	return errors.As(err, &divergence)
}
