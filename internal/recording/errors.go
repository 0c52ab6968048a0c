// Package recording reads and writes the versioned, checksummed binary
// recording format: a header with one entry per tetrion and a typed
// key/value side-channel, followed by a stream of input records and state
// snapshots.
package recording

import "errors"

// Stream errors.
var (
	// ErrInvalidStream is returned by every read after the stream failed once.
	ErrInvalidStream = errors.New("recording: stream is in a failed state")
	// ErrEndOfFile means no byte was available; at a frame boundary this is
	// a clean end.
	ErrEndOfFile = errors.New("recording: end of file")
	// ErrIncomplete means the stream ended in the middle of a value.
	ErrIncomplete = errors.New("recording: incomplete data")
)

var (
	// ErrStructural reports a malformed file: bad magic, unsupported version,
	// unknown frame or value tag, out-of-range enum.
	ErrStructural = errors.New("recording: malformed data")
	// ErrIntegrity reports a checksum mismatch.
	ErrIntegrity = errors.New("recording: checksum mismatch")
	// ErrRecursionDepth reports list nesting beyond MaxRecursionDepth.
	ErrRecursionDepth = errors.New("recording: maximum recursion depth exceeded")
	// ErrDuplicateKey reports a key added twice without overwrite.
	ErrDuplicateKey = errors.New("recording: duplicate key")
)

// IsStreamError reports whether err is one of the stream errors.
func IsStreamError(err error) bool {
	return errors.Is(err, ErrInvalidStream) ||
		errors.Is(err, ErrEndOfFile) ||
		errors.Is(err, ErrIncomplete)
}
