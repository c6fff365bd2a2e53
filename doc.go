// Package spamsum computes context-triggered piecewise hashes ("fuzzy
// hashes") in the spamsum format.
//
// # Overview
//
// A fuzzy hash is a short string in which similar inputs produce similar
// outputs. It is used for near-duplicate detection, for example when
// triaging spam or malware samples. Hashes are rendered as
//
//	<blocksize>:<left hash>:<right hash>
//
// where the left hash is computed at the given blocksize (at most 64
// characters) and the right hash at twice that blocksize (at most 32
// characters). Characters are drawn from the base64 alphabet.
//
// # Quick Start
//
// Hash an in-memory buffer with automatic blocksize selection:
//
//	hash, _ := spamsum.Sum(data)
//	fmt.Println(hash) // 3:clclDDvWIMF/hv:cGZ/EJv
//
// Normalize e-mail before hashing:
//
//	hash, _ := spamsum.Sum(message,
//	    spamsum.WithIgnoreHeaders(true),
//	    spamsum.WithIgnoreWhitespace(true),
//	)
//
// Stream data through a Hasher when the blocksize is known in advance:
//
//	h, _ := spamsum.NewHasher(48)
//	io.Copy(h, reader)
//	hash := h.Sum()
//
// # Algorithm
//
// A rolling checksum over a 7-byte window decides, for every input byte,
// whether a chunk ends there. A chunk ends at blocksize B when
// (rolling+1) mod B == 0. Alongside the window, two FNV-style accumulators
// hash every byte; at the end of each chunk the accumulator contributes one
// base64 character to its output and is reseeded.
//
// Automatic blocksize selection starts from the smallest 3*2^k for which
// 64 chunks would cover the input, then halves the blocksize and hashes the
// input again until the left hash is long enough or the blocksize reaches 3.
//
// All arithmetic is 32-bit and wraps, so hashes are compatible with other
// spamsum implementations.
//
// # Thread Safety
//
// Sum, SumReader and the normalization functions keep no shared state and
// are safe for concurrent use. A Hasher must not be shared between
// goroutines without synchronization.
package spamsum
