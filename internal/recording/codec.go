package recording

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// decoder reads little-endian values. The first failure is sticky: later
// reads return ErrInvalidStream.
type decoder struct {
	r   io.Reader
	err error
	buf [8]byte
}

func newDecoder(r io.Reader) *decoder {
	return &decoder{r: r}
}

func (d *decoder) fail(err error) error {
	d.err = err
	return err
}

func (d *decoder) fill(n int) ([]byte, error) {
	if d.err != nil {
		return nil, fmt.Errorf("%w (%w)", ErrInvalidStream, d.err)
	}
	buf := d.buf[:n]
	read, err := io.ReadFull(d.r, buf)
	switch {
	case err == nil:
		return buf, nil
	case errors.Is(err, io.EOF) && read == 0:
		return nil, d.fail(ErrEndOfFile)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return nil, d.fail(ErrIncomplete)
	default:
		return nil, d.fail(fmt.Errorf("%w: %w", ErrInvalidStream, err))
	}
}

func (d *decoder) u8() (uint8, error) {
	b, err := d.fill(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *decoder) u32() (uint32, error) {
	b, err := d.fill(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *decoder) u64() (uint64, error) {
	b, err := d.fill(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// bytes reads exactly n bytes. The buffer grows as data arrives so a corrupt
// length cannot force a huge allocation.
func (d *decoder) bytes(n uint64) ([]byte, error) {
	if d.err != nil {
		return nil, fmt.Errorf("%w (%w)", ErrInvalidStream, d.err)
	}
	if n == 0 {
		return []byte{}, nil
	}
	var buf bytes.Buffer
	copied, err := io.CopyN(&buf, d.r, int64(n))
	switch {
	case err == nil:
		return buf.Bytes(), nil
	case errors.Is(err, io.EOF) && copied == 0:
		return nil, d.fail(ErrEndOfFile)
	case errors.Is(err, io.EOF):
		return nil, d.fail(ErrIncomplete)
	default:
		return nil, d.fail(fmt.Errorf("%w: %w", ErrInvalidStream, err))
	}
}

func (d *decoder) string() (string, error) {
	n, err := d.u32()
	if err != nil {
		return "", err
	}
	b, err := d.bytes(uint64(n))
	if err != nil {
		if errors.Is(err, ErrEndOfFile) {
			err = ErrIncomplete
		}
		return "", err
	}
	return string(b), nil
}

func (d *decoder) checksum() (Checksum, error) {
	var c Checksum
	b, err := d.bytes(ChecksumSize)
	if err != nil {
		return c, err
	}
	copy(c[:], b)
	return c, nil
}

// encoder appends little-endian values to a byte slice.
type encoder struct {
	buf []byte
}

func (e *encoder) u8(v uint8) {
	e.buf = append(e.buf, v)
}

func (e *encoder) u32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

func (e *encoder) u64(v uint64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

func (e *encoder) bytes(b []byte) {
	e.buf = append(e.buf, b...)
}

func (e *encoder) string(s string) {
	e.u32(uint32(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *encoder) reset() {
	e.buf = e.buf[:0]
}

// inside turns a clean end of file into ErrIncomplete for reads that continue
// a value or frame already started.
func inside(err error) error {
	if errors.Is(err, ErrEndOfFile) {
		return ErrIncomplete
	}
	return err
}
