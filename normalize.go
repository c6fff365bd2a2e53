package spamsum

import "bytes"

// headerSeparator ends the header block of an e-mail message.
var headerSeparator = []byte{'\n', '\n'}

// StripHeaders returns the bytes following the first blank line ("\n\n").
// If there is no blank line the input is returned unchanged. The result
// shares storage with data.
func StripHeaders(data []byte) []byte {
	i := bytes.Index(data, headerSeparator)
	if i < 0 {
		return data
	}

	return data[i+len(headerSeparator):]
}

// StripWhitespace returns a copy of data without the bytes the C locale
// classifies as whitespace: space, \t, \n, \v, \f and \r.
func StripWhitespace(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for _, c := range data {
		if isSpace(c) {
			continue
		}

		out = append(out, c)
	}

	return out
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	default:
		return false
	}
}

// normalize applies the filters enabled in cfg, headers first.
func normalize(data []byte, cfg *config) []byte {
	if cfg.ignoreHeaders {
		data = StripHeaders(data)
	}

	if cfg.ignoreWhitespace {
		data = StripWhitespace(data)
	}

	return data
}
