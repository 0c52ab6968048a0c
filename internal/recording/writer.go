package recording

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vovakirdan/tui-tetrion/internal/core"
	"github.com/vovakirdan/tui-tetrion/internal/tetrion"
)

// Writer appends records and snapshots to a recording. The header is written
// once on construction; every Add call writes one frame synchronously. A
// Writer must be driven from a single goroutine.
type Writer struct {
	w        io.Writer
	closer   io.Closer
	tetrions []TetrionHeader
	checksum Checksum
	enc      encoder
	closed   bool
}

// Create creates path and writes the header. An existing file is only
// replaced when overwrite is set.
func Create(path string, tetrions []TetrionHeader, info *AdditionalInformation, overwrite bool) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("recording: cannot create directory: %w", err)
		}
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("recording: %s already exists", path)
		}
		return nil, fmt.Errorf("recording: cannot create %s: %w", path, err)
	}

	w, err := NewWriter(f, tetrions, info)
	if err != nil {
		f.Close() //nolint:errcheck // Best-effort
		return nil, err
	}
	w.closer = f
	return w, nil
}

// NewWriter writes the header to w and returns a Writer appending to it.
func NewWriter(w io.Writer, tetrions []TetrionHeader, info *AdditionalInformation) (*Writer, error) {
	header, sum, err := encodeHeader(tetrions, info)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(header); err != nil {
		return nil, fmt.Errorf("recording: cannot write header: %w", err)
	}
	return &Writer{
		w:        w,
		tetrions: append([]TetrionHeader(nil), tetrions...),
		checksum: sum,
	}, nil
}

// Checksum returns the header checksum written to the file.
func (w *Writer) Checksum() Checksum {
	return w.checksum
}

// Tetrions returns the headers the recording was created with.
func (w *Writer) Tetrions() []TetrionHeader {
	return w.tetrions
}

// AddRecord appends one input event.
func (w *Writer) AddRecord(index uint8, step uint64, event core.InputEvent) error {
	if err := w.checkIndex(index); err != nil {
		return err
	}
	if !event.Valid() {
		return fmt.Errorf("recording: invalid input event %d", uint8(event))
	}
	w.enc.reset()
	Record{TetrionIndex: index, Step: step, Event: event}.encode(&w.enc)
	return w.flush("record")
}

// AddSnapshot appends the state of one tetrion at the end of step.
func (w *Writer) AddSnapshot(step uint64, info tetrion.CoreInformation) error {
	if err := w.checkIndex(info.TetrionIndex); err != nil {
		return err
	}
	w.enc.reset()
	if err := NewSnapshot(step, info).encode(&w.enc); err != nil {
		return err
	}
	return w.flush("snapshot")
}

func (w *Writer) checkIndex(index uint8) error {
	if w.closed {
		return errors.New("recording: writer is closed")
	}
	if int(index) >= len(w.tetrions) {
		return fmt.Errorf("recording: tetrion index %d out of range, recording has %d tetrions", index, len(w.tetrions))
	}
	return nil
}

func (w *Writer) flush(what string) error {
	if _, err := w.w.Write(w.enc.buf); err != nil {
		return fmt.Errorf("recording: cannot write %s: %w", what, err)
	}
	return nil
}

// Close closes the underlying file if the Writer opened it.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.closer == nil {
		return nil
	}
	if err := w.closer.Close(); err != nil {
		return fmt.Errorf("recording: cannot close: %w", err)
	}
	return nil
}
