package recording

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
)

// ChecksumSize is the length of a SHA-256 digest.
const ChecksumSize = sha256.Size

// Checksum is a SHA-256 digest.
type Checksum [ChecksumSize]byte

// String returns the lowercase hex digest.
func (c Checksum) String() string {
	return hex.EncodeToString(c[:])
}

// MarshalText implements encoding.TextMarshaler.
func (c Checksum) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// hasher streams encoded values into SHA-256.
type hasher struct {
	h   hash.Hash
	enc encoder
}

func newHasher() *hasher {
	return &hasher{h: sha256.New()}
}

func (h *hasher) flush() {
	h.h.Write(h.enc.buf) //nolint:errcheck // hash.Hash never fails
	h.enc.reset()
}

func (h *hasher) u8(v uint8) {
	h.enc.u8(v)
	h.flush()
}

func (h *hasher) u32(v uint32) {
	h.enc.u32(v)
	h.flush()
}

func (h *hasher) u64(v uint64) {
	h.enc.u64(v)
	h.flush()
}

func (h *hasher) bytes(b []byte) {
	h.h.Write(b) //nolint:errcheck // hash.Hash never fails
}

func (h *hasher) checksum(c Checksum) {
	h.bytes(c[:])
}

func (h *hasher) sum() Checksum {
	var c Checksum
	copy(c[:], h.h.Sum(nil))
	return c
}
