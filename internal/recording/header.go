package recording

import (
	"bufio"
	"fmt"
	"os"
)

const (
	fileMagic uint32 = 0x504F4FFF

	// Version is the only format version read and written.
	Version uint8 = 1

	// FileExtension is the conventional suffix of recording files.
	FileExtension = ".rec"

	// MaxTetrions is the largest number of tetrions a header can describe.
	MaxTetrions = 255
)

// TetrionHeader holds the parameters a tetrion was started with.
type TetrionHeader struct {
	Seed          uint64 `json:"seed"`
	StartingLevel uint32 `json:"starting_level"`
}

// Header is the parsed, checksum-verified file header.
type Header struct {
	Version     uint8
	Tetrions    []TetrionHeader
	Information *AdditionalInformation
	Checksum    Checksum
}

// headerChecksum hashes version, tetrion count, every tetrion header and the
// information checksum.
func headerChecksum(version uint8, tetrions []TetrionHeader, info Checksum) Checksum {
	h := newHasher()
	h.u8(version)
	h.u8(uint8(len(tetrions)))
	for _, t := range tetrions {
		h.u64(t.Seed)
		h.u32(t.StartingLevel)
	}
	h.checksum(info)
	return h.sum()
}

// encodeHeader returns the encoded header and its checksum.
func encodeHeader(tetrions []TetrionHeader, info *AdditionalInformation) ([]byte, Checksum, error) {
	if len(tetrions) > MaxTetrions {
		return nil, Checksum{}, fmt.Errorf("recording: %d tetrions exceed the maximum of %d", len(tetrions), MaxTetrions)
	}
	if info == nil {
		info = NewAdditionalInformation()
	}
	infoSum, err := info.Checksum()
	if err != nil {
		return nil, Checksum{}, err
	}

	var e encoder
	e.u32(fileMagic)
	e.u8(Version)
	e.u8(uint8(len(tetrions)))
	for _, t := range tetrions {
		e.u64(t.Seed)
		e.u32(t.StartingLevel)
	}
	if err := info.encode(&e); err != nil {
		return nil, Checksum{}, err
	}

	sum := headerChecksum(Version, tetrions, infoSum)
	e.bytes(sum[:])
	return e.buf, sum, nil
}

func decodeHeader(d *decoder) (Header, error) {
	magic, err := d.u32()
	if err != nil {
		return Header{}, fmt.Errorf("recording: cannot read file magic: %w", inside(err))
	}
	if magic != fileMagic {
		return Header{}, fmt.Errorf("%w: file magic %#08x, this is either a legacy recording or no recording at all", ErrStructural, magic)
	}

	version, err := d.u8()
	if err != nil {
		return Header{}, fmt.Errorf("recording: cannot read version: %w", inside(err))
	}
	if version != Version {
		return Header{}, fmt.Errorf("%w: unsupported version %d, only %d is supported", ErrStructural, version, Version)
	}

	count, err := d.u8()
	if err != nil {
		return Header{}, fmt.Errorf("recording: cannot read tetrion count: %w", inside(err))
	}
	tetrions := make([]TetrionHeader, 0, count)
	for i := range count {
		seed, err := d.u64()
		if err != nil {
			return Header{}, fmt.Errorf("recording: cannot read seed of tetrion %d: %w", i, inside(err))
		}
		level, err := d.u32()
		if err != nil {
			return Header{}, fmt.Errorf("recording: cannot read level of tetrion %d: %w", i, inside(err))
		}
		tetrions = append(tetrions, TetrionHeader{Seed: seed, StartingLevel: level})
	}

	info, err := decodeInformation(d)
	if err != nil {
		return Header{}, err
	}
	infoSum, err := info.Checksum()
	if err != nil {
		return Header{}, err
	}

	expected := headerChecksum(version, tetrions, infoSum)
	stored, err := d.checksum()
	if err != nil {
		return Header{}, fmt.Errorf("recording: cannot read header checksum: %w", inside(err))
	}
	if stored != expected {
		return Header{}, fmt.Errorf("%w: header expected %s but got %s", ErrIntegrity, expected, stored)
	}

	return Header{
		Version:     version,
		Tetrions:    tetrions,
		Information: info,
		Checksum:    stored,
	}, nil
}

// ReadHeader validates and returns only the header of the file at path.
func ReadHeader(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, fmt.Errorf("recording: cannot open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // Best-effort

	return decodeHeader(newDecoder(bufio.NewReader(f)))
}
