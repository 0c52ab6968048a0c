// Package tetrion implements the deterministic per-player simulation: the
// seven-piece bag randomizer, the stack of locked minos and the step-driven
// engine that moves, rotates, locks and clears.
package tetrion

import "fmt"

// PieceKind identifies one of the seven tetrominoes. Its numeric value is part
// of the recording format.
type PieceKind uint8

const (
	KindI PieceKind = iota
	KindJ
	KindL
	KindO
	KindS
	KindT
	KindZ

	// KindCount is the number of piece kinds and the size of a bag.
	KindCount = 7
)

// Valid reports whether k is one of the seven kinds.
func (k PieceKind) Valid() bool {
	return k < KindCount
}

// Letter returns the single-letter name used in grid dumps.
func (k PieceKind) Letter() byte {
	if !k.Valid() {
		return '?'
	}
	return "IJLOSTZ"[k]
}

// String returns the kind name, e.g. "T".
func (k PieceKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("PieceKind(%d)", uint8(k))
	}
	return string(k.Letter())
}

// Rotation is the orientation of a tetromino.
type Rotation uint8

const (
	North Rotation = iota
	East
	South
	West
)

// Right returns the orientation after a clockwise turn.
func (r Rotation) Right() Rotation {
	return (r + 1) % 4
}

// Left returns the orientation after a counter-clockwise turn.
func (r Rotation) Left() Rotation {
	return (r + 3) % 4
}

func (r Rotation) String() string {
	switch r {
	case North:
		return "North"
	case East:
		return "East"
	case South:
		return "South"
	case West:
		return "West"
	default:
		return "Unknown"
	}
}

// Point is a grid coordinate; x grows to the right and y grows downwards.
type Point struct {
	X, Y int
}

// Add returns p translated by o.
func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

// Mino is one occupied cell.
type Mino struct {
	Position Point
	Kind     PieceKind
}

// shapes holds, per kind and rotation, the four cell offsets relative to the
// tetromino position.
var shapes = [KindCount][4][4]Point{
	KindI: {
		North: {{0, 1}, {1, 1}, {2, 1}, {3, 1}},
		East:  {{2, 0}, {2, 1}, {2, 2}, {2, 3}},
		South: {{0, 2}, {1, 2}, {2, 2}, {3, 2}},
		West:  {{1, 0}, {1, 1}, {1, 2}, {1, 3}},
	},
	KindJ: {
		North: {{0, 0}, {0, 1}, {1, 1}, {2, 1}},
		East:  {{2, 0}, {1, 0}, {1, 1}, {1, 2}},
		South: {{0, 1}, {1, 1}, {2, 1}, {2, 2}},
		West:  {{0, 2}, {1, 2}, {1, 1}, {1, 0}},
	},
	KindL: {
		North: {{0, 1}, {1, 1}, {2, 1}, {2, 0}},
		East:  {{1, 0}, {1, 1}, {1, 2}, {2, 2}},
		South: {{0, 2}, {0, 1}, {1, 1}, {2, 1}},
		West:  {{0, 0}, {1, 0}, {1, 1}, {1, 2}},
	},
	KindO: {
		North: {{1, 0}, {2, 0}, {1, 1}, {2, 1}},
		East:  {{1, 0}, {2, 0}, {1, 1}, {2, 1}},
		South: {{1, 0}, {2, 0}, {1, 1}, {2, 1}},
		West:  {{1, 0}, {2, 0}, {1, 1}, {2, 1}},
	},
	KindS: {
		North: {{0, 1}, {1, 1}, {1, 0}, {2, 0}},
		East:  {{1, 0}, {1, 1}, {2, 1}, {2, 2}},
		South: {{0, 2}, {1, 2}, {1, 1}, {2, 1}},
		West:  {{0, 0}, {0, 1}, {1, 1}, {1, 2}},
	},
	KindT: {
		North: {{0, 1}, {1, 1}, {1, 0}, {2, 1}},
		East:  {{1, 0}, {1, 1}, {2, 1}, {1, 2}},
		South: {{0, 1}, {1, 1}, {2, 1}, {1, 2}},
		West:  {{1, 0}, {1, 1}, {0, 1}, {1, 2}},
	},
	KindZ: {
		North: {{0, 0}, {1, 0}, {1, 1}, {2, 1}},
		East:  {{2, 0}, {2, 1}, {1, 1}, {1, 2}},
		South: {{0, 1}, {1, 1}, {1, 2}, {2, 2}},
		West:  {{1, 0}, {1, 1}, {0, 1}, {0, 2}},
	},
}

// Tetromino is a piece in play: kind, orientation and the position of its
// 4x4 bounding box.
type Tetromino struct {
	Kind     PieceKind
	Rotation Rotation
	Position Point
}

// Minos returns the four cells the tetromino covers.
func (t Tetromino) Minos() [4]Mino {
	var minos [4]Mino
	for i, offset := range shapes[t.Kind][t.Rotation] {
		minos[i] = Mino{Position: t.Position.Add(offset), Kind: t.Kind}
	}
	return minos
}

// Shape returns the cell offsets of a kind in the given orientation, for
// rendering previews and the hold slot.
func Shape(kind PieceKind, rotation Rotation) [4]Point {
	return shapes[kind][rotation]
}
