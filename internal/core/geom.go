// Package core holds the types shared by the simulation, the recording layer and
// the terminal front end: input events, runtime configuration and a cell buffer
// the UI draws into. It has no dependencies outside the standard library.
package core

// Rect is an axis-aligned area on the screen, used to lay out panels.
type Rect struct {
	X, Y int
	W, H int
}

// NewRect creates a new rectangle with the given position and dimensions.
func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// Right returns the x-coordinate one past the right edge.
func (r Rect) Right() int {
	return r.X + r.W
}

// Bottom returns the y-coordinate one past the bottom edge.
func (r Rect) Bottom() int {
	return r.Y + r.H
}

// Contains returns true if the point (x, y) is inside this rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Inset shrinks the rectangle by n cells on every side.
func (r Rect) Inset(n int) Rect {
	w := max(r.W-2*n, 0)
	h := max(r.H-2*n, 0)
	return Rect{X: r.X + n, Y: r.Y + n, W: w, H: h}
}
