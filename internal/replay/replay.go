// Package replay drives tetrions from a parsed recording and checks every
// recorded snapshot against the reproduced state.
package replay

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-tetrion/internal/input"
	"github.com/vovakirdan/tui-tetrion/internal/recording"
	"github.com/vovakirdan/tui-tetrion/internal/tetrion"
)

// Keys in AdditionalInformation that carry the auto-repeat timing.
const (
	InfoDAS = "das"
	InfoARR = "arr"
)

// DivergenceError reports a snapshot that the replay could not reproduce.
type DivergenceError struct {
	TetrionIndex uint8
	Step         uint64
	Mismatch     *recording.Mismatch
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("replay: tetrion %d diverged at step %d: %v", e.TetrionIndex, e.Step, e.Mismatch)
}

// InputConfig returns the auto-repeat timing stored in info, falling back to
// the defaults for missing keys.
func InputConfig(info *recording.AdditionalInformation) input.Config {
	cfg := input.DefaultConfig()
	if das, ok := recording.Lookup[recording.U64Value](info, InfoDAS); ok {
		cfg.DAS = uint64(das)
	}
	if arr, ok := recording.Lookup[recording.U64Value](info, InfoARR); ok {
		cfg.ARR = uint64(arr)
	}
	return cfg
}

// Input replays the records of one tetrion and verifies its snapshots.
type Input struct {
	base     *input.GameInput
	target   *tetrion.Tetrion
	reader   *recording.Reader
	logger   *log.Logger
	record   int
	snapshot int
	compared int
}

// NewInput returns an input feeding target from reader.
func NewInput(target *tetrion.Tetrion, reader *recording.Reader, cfg input.Config, logger *log.Logger) *Input {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Input{
		base:   input.New(target, cfg),
		target: target,
		reader: reader,
		logger: logger,
	}
}

// SetCallback forwards replayed events to fn, e.g. to re-record them.
func (in *Input) SetCallback(fn input.Callback) {
	in.base.SetCallback(fn)
}

// Update dispatches every record of this tetrion for step, skipping records
// of other tetrions, then runs auto-repeat.
func (in *Input) Update(step uint64) {
	records := in.reader.Records()
	for in.record < len(records) {
		rec := records[in.record]
		if rec.TetrionIndex != in.target.Index() {
			in.record++
			continue
		}
		if rec.Step > step {
			break
		}
		if rec.Step < step {
			in.logger.Warn("skipping stale record", "record", in.record, "record_step", rec.Step, "step", step)
			in.record++
			continue
		}
		in.logger.Debug("replaying event", "event", rec.Event, "step", step)
		in.base.HandleEvent(rec.Event, step)
		in.record++
	}
	in.base.Update(step)
}

// LateUpdate compares the recorded snapshots for step with the live state.
// A mismatch or a snapshot behind step panics with a *DivergenceError: the
// recording and the simulation no longer describe the same game.
func (in *Input) LateUpdate(step uint64) {
	in.base.LateUpdate(step)

	snapshots := in.reader.Snapshots()
	for in.snapshot < len(snapshots) {
		recorded := snapshots[in.snapshot]
		if recorded.TetrionIndex != in.target.Index() {
			in.snapshot++
			continue
		}
		if recorded.Step > step {
			break
		}
		if recorded.Step < step {
			in.logger.Error("snapshot out of order", "snapshot", in.snapshot, "snapshot_step", recorded.Step, "step", step)
			in.diverge(step, &recording.Mismatch{
				Field:    "step indices",
				Expected: fmt.Sprint(recorded.Step),
				Actual:   fmt.Sprint(step),
			})
		}

		live := recording.NewSnapshot(step, in.target.CoreInformation())
		if mismatch := recorded.Compare(live); mismatch != nil {
			in.logger.Error("snapshots are not equal", "step", step, "err", mismatch)
			in.diverge(step, mismatch)
		}
		in.logger.Debug("snapshots are equal", "step", step)
		in.compared++
		in.snapshot++
	}
}

// Finish checks that no snapshot of this tetrion was left behind when the
// replay ended at step. A leftover snapshot panics with a *DivergenceError.
func (in *Input) Finish(step uint64) {
	snapshots := in.reader.Snapshots()
	for i := in.snapshot; i < len(snapshots); i++ {
		if snapshots[i].TetrionIndex != in.target.Index() {
			continue
		}
		in.logger.Error("snapshot never reached", "snapshot", i, "snapshot_step", snapshots[i].Step, "step", step)
		in.diverge(step, &recording.Mismatch{
			Field:    "step indices",
			Expected: fmt.Sprint(snapshots[i].Step),
			Actual:   fmt.Sprint(step),
		})
	}
}

func (in *Input) diverge(step uint64, mismatch *recording.Mismatch) {
	panic(&DivergenceError{TetrionIndex: in.target.Index(), Step: step, Mismatch: mismatch})
}

// RecordsDone reports whether no record of this tetrion is left.
func (in *Input) RecordsDone() bool {
	return in.remaining(in.record, func(i int) uint8 { return in.reader.Records()[i].TetrionIndex }, len(in.reader.Records()))
}

// SnapshotsDone reports whether no snapshot of this tetrion is left.
func (in *Input) SnapshotsDone() bool {
	return in.remaining(in.snapshot, func(i int) uint8 { return in.reader.Snapshots()[i].TetrionIndex }, len(in.reader.Snapshots()))
}

func (in *Input) remaining(from int, index func(int) uint8, n int) bool {
	for i := from; i < n; i++ {
		if index(i) == in.target.Index() {
			return false
		}
	}
	return true
}

// Compared returns the number of snapshots verified so far.
func (in *Input) Compared() int {
	return in.compared
}
