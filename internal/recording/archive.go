package recording

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// ArchiveExtension is appended to compressed recordings.
const ArchiveExtension = ".zst"

// IsArchive reports whether path names a compressed recording.
func IsArchive(path string) bool {
	return strings.HasSuffix(path, ArchiveExtension)
}

// Archive compresses the recording at src into dst with zstd. The source
// header is verified first so corrupt files are not archived.
func Archive(src, dst string) error {
	if _, err := ReadHeader(src); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("recording: cannot open %s: %w", src, err)
	}
	defer in.Close() //nolint:errcheck // Best-effort

	out, err := createFile(dst)
	if err != nil {
		return err
	}
	defer out.Close() //nolint:errcheck // Best-effort

	enc, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("recording: cannot create compressor: %w", err)
	}
	if _, err := io.Copy(enc, bufio.NewReader(in)); err != nil {
		enc.Close() //nolint:errcheck // Best-effort
		return fmt.Errorf("recording: cannot compress %s: %w", src, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("recording: cannot finish %s: %w", dst, err)
	}
	return out.Close()
}

// Unarchive decompresses src into dst and verifies the result parses.
func Unarchive(src, dst string) error {
	data, err := readArchive(src)
	if err != nil {
		return err
	}
	if _, err := Parse(bytes.NewReader(data)); err != nil {
		return err
	}

	out, err := createFile(dst)
	if err != nil {
		return err
	}
	defer out.Close() //nolint:errcheck // Best-effort

	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("recording: cannot write %s: %w", dst, err)
	}
	return out.Close()
}

// OpenArchive parses a compressed recording without unpacking it to disk.
func OpenArchive(path string) (*Reader, error) {
	data, err := readArchive(path)
	if err != nil {
		return nil, err
	}
	return Parse(bytes.NewReader(data))
}

// Load opens path as an archive or a plain recording depending on its
// extension.
func Load(path string) (*Reader, error) {
	if IsArchive(path) {
		return OpenArchive(path)
	}
	return Open(path)
}

func readArchive(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("recording: cannot open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // Best-effort

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("recording: cannot create decompressor: %w", err)
	}
	defer dec.Close()

	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("recording: cannot decompress %s: %w", path, err)
	}
	return data, nil
}

func createFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("recording: cannot create directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("recording: cannot create %s: %w", path, err)
	}
	return f, nil
}
