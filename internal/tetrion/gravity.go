package tetrion

import "math"

// framesPerTile is the gravity delay per level; levels beyond the table use
// the last entry.
var framesPerTile = [...]uint64{
	48, 43, 38, 33, 28, 23, 18, 13, 8, 6,
	5, 5, 5, 4, 4, 4, 3, 3, 3, 2,
	2, 2, 2, 2, 2, 2, 2, 2, 2, 1,
}

// GravityDelay returns the number of steps between two gravity moves at the
// given level. Soft drop divides the delay by twenty, never below one step.
func GravityDelay(level uint32, accelerated bool) uint64 {
	frames := framesPerTile[len(framesPerTile)-1]
	if uint64(level) < uint64(len(framesPerTile)) {
		frames = framesPerTile[level]
	}
	if accelerated {
		return max(1, uint64(math.Round(float64(frames)/20.0)))
	}
	return frames
}
