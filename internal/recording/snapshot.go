package recording

import (
	"fmt"
	"strings"

	"github.com/vovakirdan/tui-tetrion/internal/core"
	"github.com/vovakirdan/tui-tetrion/internal/tetrion"
)

const (
	tagRecord   uint8 = 42
	tagSnapshot uint8 = 43
)

// Record is one input event of one tetrion at one step.
type Record struct {
	TetrionIndex uint8
	Step         uint64
	Event        core.InputEvent
}

func (r Record) encode(e *encoder) {
	e.u8(tagRecord)
	e.u8(r.TetrionIndex)
	e.u64(r.Step)
	e.u8(uint8(r.Event))
}

func decodeRecord(d *decoder) (Record, error) {
	index, err := d.u8()
	if err != nil {
		return Record{}, inside(err)
	}
	step, err := d.u64()
	if err != nil {
		return Record{}, inside(err)
	}
	raw, err := d.u8()
	if err != nil {
		return Record{}, inside(err)
	}
	event := core.InputEvent(raw)
	if !event.Valid() {
		return Record{}, fmt.Errorf("%w: invalid input event %d", ErrStructural, raw)
	}
	return Record{TetrionIndex: index, Step: step, Event: event}, nil
}

// Snapshot is the recorded state of one tetrion at the end of a step.
type Snapshot struct {
	TetrionIndex uint8
	Level        uint32
	Score        uint64
	LinesCleared uint32
	Step         uint64
	Stack        *tetrion.MinoStack
}

// NewSnapshot captures info at step. The stack is copied.
func NewSnapshot(step uint64, info tetrion.CoreInformation) Snapshot {
	stack := info.Stack
	if stack == nil {
		stack = tetrion.NewMinoStack()
	}
	return Snapshot{
		TetrionIndex: info.TetrionIndex,
		Level:        info.Level,
		Score:        info.Score,
		LinesCleared: info.LinesCleared,
		Step:         step,
		Stack:        stack.Clone(),
	}
}

func (s Snapshot) encode(e *encoder) error {
	minos := s.Stack.Minos()
	for _, m := range minos {
		if m.Position.X < 0 || m.Position.X > 0xff || m.Position.Y < 0 || m.Position.Y > 0xff {
			return fmt.Errorf("recording: mino at %v does not fit the snapshot format", m.Position)
		}
	}

	e.u8(tagSnapshot)
	e.u8(s.TetrionIndex)
	e.u32(s.Level)
	e.u64(s.Score)
	e.u32(s.LinesCleared)
	e.u64(s.Step)
	e.u64(uint64(len(minos)))
	for _, m := range minos {
		e.u8(uint8(m.Position.X))
		e.u8(uint8(m.Position.Y))
		e.u8(uint8(m.Kind))
	}
	return nil
}

// Bytes returns the framed encoding, tag included.
func (s Snapshot) Bytes() ([]byte, error) {
	var e encoder
	if err := s.encode(&e); err != nil {
		return nil, err
	}
	return e.buf, nil
}

func decodeSnapshot(d *decoder) (Snapshot, error) {
	var (
		s   Snapshot
		err error
	)
	if s.TetrionIndex, err = d.u8(); err != nil {
		return Snapshot{}, fmt.Errorf("recording: cannot read snapshot tetrion index: %w", inside(err))
	}
	if s.Level, err = d.u32(); err != nil {
		return Snapshot{}, fmt.Errorf("recording: cannot read snapshot level: %w", inside(err))
	}
	if s.Score, err = d.u64(); err != nil {
		return Snapshot{}, fmt.Errorf("recording: cannot read snapshot score: %w", inside(err))
	}
	if s.LinesCleared, err = d.u32(); err != nil {
		return Snapshot{}, fmt.Errorf("recording: cannot read snapshot lines cleared: %w", inside(err))
	}
	if s.Step, err = d.u64(); err != nil {
		return Snapshot{}, fmt.Errorf("recording: cannot read snapshot step: %w", inside(err))
	}
	count, err := d.u64()
	if err != nil {
		return Snapshot{}, fmt.Errorf("recording: cannot read snapshot mino count: %w", inside(err))
	}

	s.Stack = tetrion.NewMinoStack()
	for i := range count {
		x, err := d.u8()
		if err != nil {
			return Snapshot{}, fmt.Errorf("recording: cannot read mino %d: %w", i, inside(err))
		}
		y, err := d.u8()
		if err != nil {
			return Snapshot{}, fmt.Errorf("recording: cannot read mino %d: %w", i, inside(err))
		}
		raw, err := d.u8()
		if err != nil {
			return Snapshot{}, fmt.Errorf("recording: cannot read mino %d: %w", i, inside(err))
		}
		kind := tetrion.PieceKind(raw)
		if !kind.Valid() {
			return Snapshot{}, fmt.Errorf("%w: invalid piece kind %d in snapshot", ErrStructural, raw)
		}
		s.Stack.Set(tetrion.Point{X: int(x), Y: int(y)}, kind)
	}
	return s, nil
}

// Mismatch describes the first field in which two snapshots differ.
type Mismatch struct {
	Field    string
	Expected string
	Actual   string
}

func (m *Mismatch) Error() string {
	if m.Field != "mino stacks" {
		return fmt.Sprintf("%s do not match: expected %s but got %s", m.Field, m.Expected, m.Actual)
	}
	return "mino stacks do not match:\n" + sideBySide(m.Expected, m.Actual)
}

// Compare checks s, the recorded snapshot, against actual and returns the first
// difference in the order: tetrion index, level, score, lines cleared, step,
// stack.
func (s Snapshot) Compare(actual Snapshot) *Mismatch {
	fields := []struct {
		name             string
		expected, actual uint64
	}{
		{"tetrion indices", uint64(s.TetrionIndex), uint64(actual.TetrionIndex)},
		{"levels", uint64(s.Level), uint64(actual.Level)},
		{"scores", s.Score, actual.Score},
		{"numbers of lines cleared", uint64(s.LinesCleared), uint64(actual.LinesCleared)},
		{"step indices", s.Step, actual.Step},
	}
	for _, f := range fields {
		if f.expected != f.actual {
			return &Mismatch{
				Field:    f.name,
				Expected: fmt.Sprint(f.expected),
				Actual:   fmt.Sprint(f.actual),
			}
		}
	}
	if !s.Stack.Equal(actual.Stack) {
		return &Mismatch{
			Field:    "mino stacks",
			Expected: s.Stack.String(),
			Actual:   actual.Stack.String(),
		}
	}
	return nil
}

func sideBySide(expected, actual string) string {
	left := strings.Split(expected, "\n")
	right := strings.Split(actual, "\n")

	var b strings.Builder
	fmt.Fprintf(&b, "%-*s   %s\n", tetrion.Width, "expected", "actual")
	for i := range max(len(left), len(right)) {
		var l, r string
		if i < len(left) {
			l = left[i]
		}
		if i < len(right) {
			r = right[i]
		}
		marker := "   "
		if l != r {
			marker = " ! "
		}
		fmt.Fprintf(&b, "%-*s%s%s\n", tetrion.Width, l, marker, r)
	}
	return b.String()
}
