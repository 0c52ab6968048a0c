package recording

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// Reader holds a fully parsed recording. It is immutable after construction.
type Reader struct {
	header    Header
	records   []Record
	snapshots []Snapshot
}

// Open parses the recording at path.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("recording: cannot open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // Best-effort

	return Parse(bufio.NewReader(f))
}

// Parse reads a header and every frame until the end of r.
func Parse(r io.Reader) (*Reader, error) {
	d := newDecoder(r)
	header, err := decodeHeader(d)
	if err != nil {
		return nil, err
	}

	reader := &Reader{header: header}
	for {
		tag, err := d.u8()
		if errors.Is(err, ErrEndOfFile) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("recording: cannot read frame tag: %w", err)
		}

		switch tag {
		case tagRecord:
			record, err := decodeRecord(d)
			if err != nil {
				return nil, fmt.Errorf("recording: invalid record %d: %w", len(reader.records), err)
			}
			reader.records = append(reader.records, record)
		case tagSnapshot:
			snapshot, err := decodeSnapshot(d)
			if err != nil {
				return nil, fmt.Errorf("recording: invalid snapshot %d: %w", len(reader.snapshots), err)
			}
			reader.snapshots = append(reader.snapshots, snapshot)
		default:
			return nil, fmt.Errorf("%w: invalid frame tag %d", ErrStructural, tag)
		}
	}
	return reader, nil
}

// Header returns the verified header.
func (r *Reader) Header() Header { return r.header }

// TetrionHeaders returns one header per recorded tetrion.
func (r *Reader) TetrionHeaders() []TetrionHeader { return r.header.Tetrions }

// Information returns the additional information of the recording.
func (r *Reader) Information() *AdditionalInformation { return r.header.Information }

// Records returns every input record in file order.
func (r *Reader) Records() []Record { return r.records }

// Snapshots returns every snapshot in file order.
func (r *Reader) Snapshots() []Snapshot { return r.snapshots }

// NumRecords returns the number of input records.
func (r *Reader) NumRecords() int { return len(r.records) }

// At returns the record at index i.
func (r *Reader) At(i int) Record { return r.records[i] }

// LastStep returns the highest step referenced by any frame.
func (r *Reader) LastStep() uint64 {
	var last uint64
	for _, rec := range r.records {
		last = max(last, rec.Step)
	}
	for _, snap := range r.snapshots {
		last = max(last, snap.Step)
	}
	return last
}
