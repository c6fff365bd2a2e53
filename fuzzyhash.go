package spamsum

import (
	"fmt"
	"strconv"
	"strings"
)

// FuzzyHash is the result of a computation: the fine-resolution blocksize and
// the hashes at both resolutions.
type FuzzyHash struct {
	Blocksize uint32 // Fine-resolution blocksize
	LeftHash  string // Fine resolution, at most LeftHashLength characters
	RightHash string // Coarse resolution, at most RightHashLength characters
}

// RightBlocksize returns the coarse-resolution blocksize, always twice
// Blocksize.
func (f FuzzyHash) RightBlocksize() uint32 {
	return f.Blocksize * 2
}

// String returns the canonical form "<blocksize>:<left>:<right>". The
// separator is not part of the hash alphabet so no escaping is needed.
func (f FuzzyHash) String() string {
	var b strings.Builder

	b.Grow(10 + 2 + len(f.LeftHash) + len(f.RightHash))
	b.WriteString(strconv.FormatUint(uint64(f.Blocksize), 10))
	b.WriteByte(':')
	b.WriteString(f.LeftHash)
	b.WriteByte(':')
	b.WriteString(f.RightHash)

	return b.String()
}

// MarshalText implements encoding.TextMarshaler using the canonical form.
func (f FuzzyHash) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *FuzzyHash) UnmarshalText(text []byte) error {
	parsed, err := ParseFuzzyHash(string(text))
	if err != nil {
		return err
	}

	*f = parsed

	return nil
}

// ParseFuzzyHash parses the canonical form produced by FuzzyHash.String.
func ParseFuzzyHash(s string) (FuzzyHash, error) {
	fields := strings.Split(s, ":")
	if len(fields) != 3 {
		return FuzzyHash{}, fmt.Errorf("%w: %q: want 3 colon-separated fields, got %d", ErrMalformedHash, s, len(fields))
	}

	blocksize, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil {
		return FuzzyHash{}, fmt.Errorf("%w: %q: blocksize: %w", ErrMalformedHash, s, err)
	}

	if blocksize == 0 || blocksize > MaxBlocksize {
		return FuzzyHash{}, fmt.Errorf("%w: %q: blocksize %d out of range", ErrMalformedHash, s, blocksize)
	}

	if err := checkHashField(fields[1], LeftHashLength); err != nil {
		return FuzzyHash{}, fmt.Errorf("%w: %q: left hash: %w", ErrMalformedHash, s, err)
	}

	if err := checkHashField(fields[2], RightHashLength); err != nil {
		return FuzzyHash{}, fmt.Errorf("%w: %q: right hash: %w", ErrMalformedHash, s, err)
	}

	return FuzzyHash{
		Blocksize: uint32(blocksize),
		LeftHash:  fields[1],
		RightHash: fields[2],
	}, nil
}

func checkHashField(field string, maxLength int) error {
	if len(field) > maxLength {
		return fmt.Errorf("length %d exceeds %d", len(field), maxLength)
	}

	for i := 0; i < len(field); i++ {
		if strings.IndexByte(alphabet, field[i]) < 0 {
			return fmt.Errorf("invalid character %q at offset %d", field[i], i)
		}
	}

	return nil
}
