package core

import "testing"

func TestRectContains(t *testing.T) {
	r := NewRect(2, 3, 4, 5)

	tests := []struct {
		name     string
		x, y     int
		expected bool
	}{
		{"top left corner", 2, 3, true},
		{"bottom right cell", 5, 7, true},
		{"right edge is exclusive", 6, 3, false},
		{"bottom edge is exclusive", 2, 8, false},
		{"left of rect", 1, 4, false},
		{"above rect", 3, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Contains(tt.x, tt.y); got != tt.expected {
				t.Errorf("Contains(%d, %d) = %v, expected %v", tt.x, tt.y, got, tt.expected)
			}
		})
	}
}

func TestRectInset(t *testing.T) {
	tests := []struct {
		name     string
		r        Rect
		n        int
		expected Rect
	}{
		{"border", NewRect(0, 0, 22, 22), 1, NewRect(1, 1, 20, 20)},
		{"zero", NewRect(3, 4, 5, 6), 0, NewRect(3, 4, 5, 6)},
		{"collapses to empty", NewRect(0, 0, 3, 1), 2, NewRect(2, 2, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Inset(tt.n); got != tt.expected {
				t.Errorf("Inset(%d) = %+v, expected %+v", tt.n, got, tt.expected)
			}
		})
	}
}

func TestRectEdges(t *testing.T) {
	r := NewRect(10, 20, 5, 3)
	if r.Right() != 15 || r.Bottom() != 23 {
		t.Errorf("Right() = %d, Bottom() = %d, expected 15 and 23", r.Right(), r.Bottom())
	}
}
