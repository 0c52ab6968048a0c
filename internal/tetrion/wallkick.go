package tetrion

// kickTable lists, for each of the eight rotation transitions, the five
// translations tried in order after rotating.
type kickTable [8][5]Point

var jlstzKicks = kickTable{
	{{0, 0}, {-1, 0}, {-1, -1}, {0, 2}, {-1, 2}},
	{{0, 0}, {1, 0}, {1, 1}, {0, -2}, {1, -2}},
	{{0, 0}, {1, 0}, {1, 1}, {0, -2}, {1, -2}},
	{{0, 0}, {-1, 0}, {-1, -1}, {0, 2}, {-1, 2}},
	{{0, 0}, {1, 0}, {1, -1}, {0, 2}, {1, 2}},
	{{0, 0}, {-1, 0}, {-1, 1}, {0, -2}, {-1, -2}},
	{{0, 0}, {-1, 0}, {-1, 1}, {0, -2}, {-1, -2}},
	{{0, 0}, {1, 0}, {1, -1}, {0, 2}, {1, 2}},
}

var iKicks = kickTable{
	{{0, 0}, {-2, 0}, {1, 0}, {-2, 1}, {1, -2}},
	{{0, 0}, {2, 0}, {-1, 0}, {2, -1}, {-1, 2}},
	{{0, 0}, {-1, 0}, {2, 0}, {-1, -2}, {2, 1}},
	{{0, 0}, {1, 0}, {-2, 0}, {1, 2}, {-2, -1}},
	{{0, 0}, {2, 0}, {-1, 0}, {2, -1}, {-1, 2}},
	{{0, 0}, {-2, 0}, {1, 0}, {-2, 1}, {1, -2}},
	{{0, 0}, {1, 0}, {-2, 0}, {1, 2}, {-2, -1}},
	{{0, 0}, {-1, 0}, {2, 0}, {-1, -2}, {2, 1}},
}

// kicksFor returns the table for a kind. The O piece has none.
func kicksFor(kind PieceKind) (*kickTable, bool) {
	switch kind {
	case KindO:
		return nil, false
	case KindI:
		return &iKicks, true
	default:
		return &jlstzKicks, true
	}
}

// kickIndex maps a single-step rotation transition to its table row.
func kickIndex(from, to Rotation) int {
	switch {
	case from == North && to == East:
		return 0
	case from == East && to == North:
		return 1
	case from == East && to == South:
		return 2
	case from == South && to == East:
		return 3
	case from == South && to == West:
		return 4
	case from == West && to == South:
		return 5
	case from == West && to == North:
		return 6
	case from == North && to == West:
		return 7
	}
	panic("tetrion: rotation transition is not a single step")
}
