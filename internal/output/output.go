// Package output renders per-file hash records as text, JSON lines or a
// CBOR sequence.
package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/kalbasit/spamsum"
	"github.com/kalbasit/spamsum/internal/config"
)

// Record is the outcome for one input file. Exactly one of Hash and Error is
// set.
type Record struct {
	Path   string             `json:"path" cbor:"path"`
	Hash   *spamsum.FuzzyHash `json:"hash,omitempty" cbor:"hash,omitempty"`
	Size   int                `json:"size" cbor:"size"`
	Digest string             `json:"digest,omitempty" cbor:"digest,omitempty"`
	Error  string             `json:"error,omitempty" cbor:"error,omitempty"`
}

// Writer encodes records to an underlying stream.
type Writer interface {
	Write(record Record) error
	// Flush writes any buffered data.
	Flush() error
}

// New returns a Writer for the named format (see the config.Format*
// constants).
func New(w io.Writer, format string) (Writer, error) {
	switch format {
	case config.FormatText:
		return &textWriter{out: bufio.NewWriter(w)}, nil
	case config.FormatJSON:
		out := bufio.NewWriter(w)
		return &jsonWriter{out: out, encoder: json.NewEncoder(out)}, nil
	case config.FormatCBOR:
		out := bufio.NewWriter(w)
		return &cborWriter{out: out, encoder: encMode.NewEncoder(out)}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// textWriter prints "<hash>  <path>" lines, with the digest between the two
// when present. Failed records are skipped: the command reports them on
// standard error.
type textWriter struct {
	out *bufio.Writer
}

func (w *textWriter) Write(record Record) error {
	if record.Hash == nil {
		return nil
	}

	var err error
	if record.Digest != "" {
		_, err = fmt.Fprintf(w.out, "%s  %s  %s\n", record.Hash, record.Digest, record.Path)
	} else {
		_, err = fmt.Fprintf(w.out, "%s  %s\n", record.Hash, record.Path)
	}

	return err
}

func (w *textWriter) Flush() error {
	return w.out.Flush()
}

type jsonWriter struct {
	out     *bufio.Writer
	encoder *json.Encoder
}

func (w *jsonWriter) Write(record Record) error {
	return w.encoder.Encode(record)
}

func (w *jsonWriter) Flush() error {
	return w.out.Flush()
}

// encMode uses Core Deterministic Encoding so the same records always
// produce identical bytes. FuzzyHash is a TextMarshaler and is stored as its
// canonical string.
var encMode cbor.EncMode

func init() {
	options := cbor.CoreDetEncOptions()
	options.TextMarshaler = cbor.TextMarshalerTextString

	var err error

	encMode, err = options.EncMode()
	if err != nil {
		panic("output: CBOR encoder initialization failed: " + err.Error())
	}
}

type cborWriter struct {
	out     *bufio.Writer
	encoder *cbor.Encoder
}

func (w *cborWriter) Write(record Record) error {
	return w.encoder.Encode(record)
}

func (w *cborWriter) Flush() error {
	return w.out.Flush()
}
