package input

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

var sample = []byte("X-Spam: YES\nX-Score: 1337\n\nDear Sir\n\nPlease buy\n")

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer

	writer := gzip.NewWriter(&buf)
	if _, err := writer.Write(data); err != nil {
		t.Fatalf("gzip write: %v", err)
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}

	return buf.Bytes()
}

func zstdBytes(t *testing.T, data []byte) []byte {
	t.Helper()

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd encoder: %v", err)
	}
	defer encoder.Close()

	return encoder.EncodeAll(data, nil)
}

func lz4Bytes(t *testing.T, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer

	writer := lz4.NewWriter(&buf)
	if _, err := writer.Write(data); err != nil {
		t.Fatalf("lz4 write: %v", err)
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("lz4 close: %v", err)
	}

	return buf.Bytes()
}

func TestDecompress(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		format Format
	}{
		{"plain", sample, FormatNone},
		{"gzip", gzipBytes(t, sample), FormatGzip},
		{"zstd", zstdBytes(t, sample), FormatZstd},
		{"lz4", lz4Bytes(t, sample), FormatLZ4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.data); got != tt.format {
				t.Errorf("Detect = %s, want %s", got, tt.format)
			}

			got, err := Decompress(tt.data)
			if err != nil {
				t.Fatalf("Decompress: %v", err)
			}

			if !bytes.Equal(got, sample) {
				t.Errorf("Decompress = %q, want %q", got, sample)
			}
		})
	}
}

func TestDecompressCorrupt(t *testing.T) {
	corrupt := append([]byte{0x1f, 0x8b}, []byte("definitely not deflate")...)

	_, err := Decompress(corrupt)
	if err == nil {
		t.Fatal("Decompress should fail for a corrupt gzip stream")
	}

	if !strings.Contains(err.Error(), "gzip") {
		t.Errorf("error %q does not name the format", err)
	}
}

func TestReadLimited(t *testing.T) {
	got, err := readLimited(strings.NewReader("abcd"), 4)
	if err != nil || string(got) != "abcd" {
		t.Errorf("readLimited at the limit = %q, %v", got, err)
	}

	_, err = readLimited(strings.NewReader("abcd"), 3)
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("readLimited over the limit error = %v, want ErrTooLarge", err)
	}
}

// TestDecompressSizeLimit verifies that a small compressed input cannot
// expand past the limit.
func TestDecompressSizeLimit(t *testing.T) {
	expanded := make([]byte, 64<<10)
	limit := int64(4 << 10)

	tests := []struct {
		name string
		data []byte
	}{
		{"gzip", gzipBytes(t, expanded)},
		{"zstd", zstdBytes(t, expanded)},
		{"lz4", lz4Bytes(t, expanded)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if len(tt.data) >= len(expanded) {
				t.Fatalf("%d compressed bytes do not expand", len(tt.data))
			}

			_, err := decompress(tt.data, limit)
			if err == nil {
				t.Fatalf("decompress of %d bytes with limit %d should fail", len(expanded), limit)
			}

			if !strings.Contains(err.Error(), tt.name) {
				t.Errorf("error %q does not name the format", err)
			}

			got, err := decompress(tt.data, int64(len(expanded)))
			if err != nil {
				t.Fatalf("decompress at the exact size: %v", err)
			}

			if !bytes.Equal(got, expanded) {
				t.Errorf("decompress returned %d bytes, want %d", len(got), len(expanded))
			}
		})
	}

	_, err := decompress(gzipBytes(t, expanded), limit)
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("gzip error = %v, want ErrTooLarge", err)
	}
}

func TestLoad(t *testing.T) {
	directory := t.TempDir()

	plain := filepath.Join(directory, "plain.eml")
	if err := os.WriteFile(plain, sample, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	compressed := filepath.Join(directory, "mail.eml.gz")
	if err := os.WriteFile(compressed, gzipBytes(t, sample), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := Load(plain, false)
	if err != nil {
		t.Fatalf("Load(plain): %v", err)
	}

	if !bytes.Equal(got, sample) {
		t.Errorf("Load(plain) = %q", got)
	}

	raw, err := Load(compressed, false)
	if err != nil {
		t.Fatalf("Load(compressed, false): %v", err)
	}

	if Detect(raw) != FormatGzip {
		t.Errorf("Load without decompress should return the gzip bytes")
	}

	got, err = Load(compressed, true)
	if err != nil {
		t.Fatalf("Load(compressed, true): %v", err)
	}

	if !bytes.Equal(got, sample) {
		t.Errorf("Load(compressed, true) = %q", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist")

	_, err := Load(path, false)
	if err == nil {
		t.Fatal("Load should fail for a nonexistent file")
	}

	if !os.IsNotExist(err) {
		t.Errorf("error %v is not a not-exist error", err)
	}

	if !strings.Contains(err.Error(), path) {
		t.Errorf("error %q does not name %s", err, path)
	}
}
