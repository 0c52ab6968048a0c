package tetrion

import (
	"slices"
	"strings"

	"github.com/kamstrup/intmap"
)

// MinoStack is the set of locked minos, at most one per cell. The zero value
// is not usable; call NewMinoStack.
type MinoStack struct {
	cells *intmap.Map[uint16, PieceKind]
	keys  []uint16
}

// NewMinoStack returns an empty stack.
func NewMinoStack() *MinoStack {
	return &MinoStack{
		cells: intmap.New[uint16, PieceKind](Width * Height),
	}
}

// cellKey packs a position into the index key. Positions outside the byte
// range cannot be stored and report ok=false.
func cellKey(p Point) (key uint16, ok bool) {
	if p.X < 0 || p.X > 0xff || p.Y < 0 || p.Y > 0xff {
		return 0, false
	}
	return uint16(p.Y)<<8 | uint16(p.X), true
}

func keyPoint(key uint16) Point {
	return Point{X: int(key & 0xff), Y: int(key >> 8)}
}

// IsEmpty reports whether no mino occupies p.
func (s *MinoStack) IsEmpty(p Point) bool {
	key, ok := cellKey(p)
	if !ok {
		return true
	}
	_, found := s.cells.Get(key)
	return !found
}

// At returns the kind stored at p.
func (s *MinoStack) At(p Point) (PieceKind, bool) {
	key, ok := cellKey(p)
	if !ok {
		return 0, false
	}
	return s.cells.Get(key)
}

// Set stores a mino at p, replacing whatever was there. Positions that do not
// fit in a byte per axis are ignored.
func (s *MinoStack) Set(p Point, kind PieceKind) {
	key, ok := cellKey(p)
	if !ok {
		return
	}
	if _, found := s.cells.Get(key); !found {
		s.keys = append(s.keys, key)
	}
	s.cells.Put(key, kind)
}

// Len returns the number of minos.
func (s *MinoStack) Len() int {
	return len(s.keys)
}

// Minos returns all minos ordered by row, then column.
func (s *MinoStack) Minos() []Mino {
	keys := slices.Clone(s.keys)
	slices.Sort(keys)

	minos := make([]Mino, 0, len(keys))
	for _, key := range keys {
		kind, _ := s.cells.Get(key)
		minos = append(minos, Mino{Position: keyPoint(key), Kind: kind})
	}
	return minos
}

// ClearRowAndSink removes every mino in row and moves every mino above it one
// row down.
func (s *MinoStack) ClearRowAndSink(row int) {
	minos := s.Minos()
	s.cells = intmap.New[uint16, PieceKind](Width * Height)
	s.keys = s.keys[:0]

	for _, m := range minos {
		switch {
		case m.Position.Y == row:
			continue
		case m.Position.Y < row:
			m.Position.Y++
		}
		s.Set(m.Position, m.Kind)
	}
}

// Clone returns an independent copy.
func (s *MinoStack) Clone() *MinoStack {
	clone := NewMinoStack()
	for _, m := range s.Minos() {
		clone.Set(m.Position, m.Kind)
	}
	return clone
}

// Equal reports set equality: same cells holding the same kinds.
func (s *MinoStack) Equal(other *MinoStack) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.Len() != other.Len() {
		return false
	}
	for _, key := range s.keys {
		mine, _ := s.cells.Get(key)
		theirs, ok := other.cells.Get(key)
		if !ok || mine != theirs {
			return false
		}
	}
	return true
}

// Rows renders the visible field as Height strings of Width characters, using
// the kind letter for occupied cells and a dot for empty ones.
func (s *MinoStack) Rows() []string {
	rows := make([]string, Height)
	line := make([]byte, Width)
	for y := range Height {
		for x := range Width {
			line[x] = '.'
			if kind, ok := s.At(Point{X: x, Y: y}); ok {
				line[x] = kind.Letter()
			}
		}
		rows[y] = string(line)
	}
	return rows
}

// String renders the field grid, one row per line.
func (s *MinoStack) String() string {
	return strings.Join(s.Rows(), "\n")
}
