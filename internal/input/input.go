// Package input loads the bytes to be hashed, optionally undoing a
// compression layer so that compressed and uncompressed copies of the same
// content hash alike.
package input

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// MaxDecompressedSize bounds the output of Decompress. Inputs are hashed in
// memory, so a compressed file may not expand beyond this.
const MaxDecompressedSize = 1 << 30

// ErrTooLarge is returned when decompressed data exceeds its size limit.
var ErrTooLarge = errors.New("decompressed data too large")

// Format identifies a compression container by its magic bytes.
type Format uint8

const (
	// FormatNone is uncompressed (or unrecognized) data.
	FormatNone Format = iota
	// FormatGzip is RFC 1952 gzip.
	FormatGzip
	// FormatZstd is a zstd frame.
	FormatZstd
	// FormatLZ4 is an LZ4 frame (not raw LZ4 blocks).
	FormatLZ4
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// String returns the human-readable name of a format.
func (f Format) String() string {
	switch f {
	case FormatNone:
		return "none"
	case FormatGzip:
		return "gzip"
	case FormatZstd:
		return "zstd"
	case FormatLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", f)
	}
}

// Detect returns the compression format of data from its leading bytes.
func Detect(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		return FormatGzip
	case bytes.HasPrefix(data, zstdMagic):
		return FormatZstd
	case bytes.HasPrefix(data, lz4Magic):
		return FormatLZ4
	default:
		return FormatNone
	}
}

// Load reads the file at path into memory, or standard input when path is
// Stdin. With decompress set, a recognized compression layer is removed.
// Errors name the path.
func Load(path string, decompress bool) ([]byte, error) {
	if path == Stdin {
		data, err := Read(os.Stdin, decompress)
		if err != nil {
			return nil, fmt.Errorf("standard input: %w", err)
		}

		return data, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := Read(file, decompress)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return data, nil
}

// Read reads r to EOF. With decompress set, a recognized compression layer
// is removed.
func Read(r io.Reader, decompress bool) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading: %w", err)
	}

	if !decompress {
		return data, nil
	}

	return Decompress(data)
}

// Decompress removes the compression layer detected by Detect. Data in no
// recognized format is returned unchanged. Output larger than
// MaxDecompressedSize fails with ErrTooLarge.
func Decompress(data []byte) ([]byte, error) {
	return decompress(data, MaxDecompressedSize)
}

func decompress(data []byte, limit int64) ([]byte, error) {
	format := Detect(data)

	var (
		out []byte
		err error
	)

	switch format {
	case FormatNone:
		return data, nil
	case FormatGzip:
		out, err = decompressGzip(data, limit)
	case FormatZstd:
		out, err = decompressZstd(data, limit)
	case FormatLZ4:
		out, err = decompressLZ4(data, limit)
	}

	if err != nil {
		return nil, fmt.Errorf("%s decompress: %w", format, err)
	}

	return out, nil
}

// readLimited reads r to EOF, failing once more than limit bytes arrive.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}

	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}

	return data, nil
}

func decompressGzip(data []byte, limit int64) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return readLimited(reader, limit)
}

func decompressZstd(data []byte, limit int64) ([]byte, error) {
	decoder, err := zstd.NewReader(bytes.NewReader(data),
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(uint64(limit)),
	)
	if err != nil {
		return nil, err
	}
	defer decoder.Close()

	return readLimited(decoder, limit)
}

func decompressLZ4(data []byte, limit int64) ([]byte, error) {
	return readLimited(lz4.NewReader(bytes.NewReader(data)), limit)
}
