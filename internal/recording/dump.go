package recording

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"
)

// Document is the JSON form of a recording.
type Document struct {
	Version        uint8                  `json:"version"`
	Checksum       Checksum               `json:"checksum"`
	Information    *AdditionalInformation `json:"information"`
	TetrionHeaders []TetrionHeader        `json:"tetrion_headers"`
	Records        []RecordDocument       `json:"records"`
	Snapshots      []SnapshotDocument     `json:"snapshots"`
}

// RecordDocument is the JSON form of a Record; the event is named.
type RecordDocument struct {
	TetrionIndex uint8  `json:"tetrion_index"`
	Step         uint64 `json:"simulation_step_index"`
	Event        string `json:"event"`
}

// SnapshotDocument is the JSON form of a Snapshot.
type SnapshotDocument struct {
	TetrionIndex uint8          `json:"tetrion_index"`
	Level        uint32         `json:"level"`
	Score        uint64         `json:"score"`
	LinesCleared uint32         `json:"lines_cleared"`
	Step         uint64         `json:"simulation_step_index"`
	MinoStack    []MinoDocument `json:"mino_stack"`
}

// MinoDocument is one mino of a snapshot stack.
type MinoDocument struct {
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Type string `json:"type"`
}

// Document converts the recording into its JSON form.
func (r *Reader) Document() Document {
	doc := Document{
		Version:        r.header.Version,
		Checksum:       r.header.Checksum,
		Information:    r.header.Information,
		TetrionHeaders: r.header.Tetrions,
		Records:        make([]RecordDocument, 0, len(r.records)),
		Snapshots:      make([]SnapshotDocument, 0, len(r.snapshots)),
	}
	for _, rec := range r.records {
		doc.Records = append(doc.Records, RecordDocument{
			TetrionIndex: rec.TetrionIndex,
			Step:         rec.Step,
			Event:        rec.Event.String(),
		})
	}
	for _, snap := range r.snapshots {
		minos := snap.Stack.Minos()
		sd := SnapshotDocument{
			TetrionIndex: snap.TetrionIndex,
			Level:        snap.Level,
			Score:        snap.Score,
			LinesCleared: snap.LinesCleared,
			Step:         snap.Step,
			MinoStack:    make([]MinoDocument, 0, len(minos)),
		}
		for _, m := range minos {
			sd.MinoStack = append(sd.MinoStack, MinoDocument{X: m.Position.X, Y: m.Position.Y, Type: m.Kind.String()})
		}
		doc.Snapshots = append(doc.Snapshots, sd)
	}
	return doc
}

// DumpOptions controls Dump output.
type DumpOptions struct {
	Pretty bool
	// EnsureASCII escapes every non-ASCII character as \uXXXX.
	EnsureASCII bool
}

// Dump writes the recording as JSON.
func (r *Reader) Dump(w io.Writer, opts DumpOptions) error {
	var (
		data []byte
		err  error
	)
	if opts.Pretty {
		data, err = json.MarshalIndent(r.Document(), "", "  ")
	} else {
		data, err = json.Marshal(r.Document())
	}
	if err != nil {
		return fmt.Errorf("recording: cannot encode json: %w", err)
	}
	if opts.EnsureASCII {
		data = escapeNonASCII(data)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("recording: cannot write json: %w", err)
	}
	return nil
}

// escapeNonASCII rewrites multi-byte runes as JSON \u escapes. Such runes
// only occur inside JSON strings, so the result stays valid JSON.
func escapeNonASCII(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		data = data[size:]
		if r < utf8.RuneSelf {
			out = append(out, byte(r))
			continue
		}
		if r > 0xFFFF {
			r -= 0x10000
			out = appendEscape(out, 0xD800+(r>>10))
			out = appendEscape(out, 0xDC00+(r&0x3FF))
			continue
		}
		out = appendEscape(out, r)
	}
	return out
}

func appendEscape(out []byte, r rune) []byte {
	out = append(out, '\\', 'u')
	hex := strconv.FormatInt(int64(r), 16)
	for range 4 - len(hex) {
		out = append(out, '0')
	}
	return append(out, hex...)
}
