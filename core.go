package spamsum

import "fmt"

const (
	// hashPrime and hashInit are the FNV-1 32-bit parameters; hashInit is the
	// historic spamsum seed rather than the FNV offset basis.
	hashPrime uint32 = 0x01000193
	hashInit  uint32 = 0x28021967

	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
)

// Hasher computes a fuzzy hash for a fixed blocksize over a stream of writes.
// It combines the rolling trigger that decides chunk boundaries with the two
// piecewise hash accumulators that emit one output character per chunk.
//
// A Hasher never retries with a smaller blocksize; use Sum for automatic
// blocksize selection. A Hasher is not safe for concurrent use.
type Hasher struct {
	// Rolling trigger
	window   [RollingWindow]byte
	h1       uint32 // sum of the bytes in the window
	h2       uint32 // position-weighted sum of the window
	h3       uint32 // shift/xor of recent bytes
	rolling  uint32 // h1 + h2 + h3 after the last byte
	position uint32 // wraps like the rest of the state

	// Piecewise accumulators
	left  uint32
	right uint32

	// Config (read-only after initialization)
	blocksize uint32

	// Output
	leftHash  []byte
	rightHash []byte
	size      uint64
}

// NewHasher creates a Hasher for the given blocksize. The coarse resolution
// uses twice the blocksize, so blocksize must be between 1 and MaxBlocksize.
func NewHasher(blocksize uint32) (*Hasher, error) {
	if blocksize == 0 || blocksize > MaxBlocksize {
		return nil, fmt.Errorf("%w: blocksize must be between 1 and %d, got %d",
			ErrInvalidConfiguration, MaxBlocksize, blocksize)
	}

	return newHasher(blocksize), nil
}

func newHasher(blocksize uint32) *Hasher {
	return &Hasher{
		left:      hashInit,
		right:     hashInit,
		blocksize: blocksize,
		leftHash:  make([]byte, 0, LeftHashLength),
		rightHash: make([]byte, 0, RightHashLength),
	}
}

// Reset clears all state so the Hasher can process a new stream with the
// same blocksize.
func (h *Hasher) Reset() {
	h.window = [RollingWindow]byte{}
	h.h1, h.h2, h.h3 = 0, 0, 0
	h.rolling = 0
	h.position = 0
	h.left = hashInit
	h.right = hashInit
	h.leftHash = h.leftHash[:0]
	h.rightHash = h.rightHash[:0]
	h.size = 0
}

// Write feeds p through the rolling trigger and both accumulators. It
// implements io.Writer and never returns an error.
func (h *Hasher) Write(p []byte) (int, error) {
	// Capture state into local variables (CPU registers)
	window := h.window
	h1, h2, h3 := h.h1, h.h2, h.h3
	rolling := h.rolling
	position := h.position
	left, right := h.left, h.right
	leftHash, rightHash := h.leftHash, h.rightHash
	fine := h.blocksize
	coarse := h.blocksize * 2

	for _, c := range p {
		v := uint32(c)
		slot := position % RollingWindow

		h2 = h2 - h1 + RollingWindow*v
		h1 = h1 - uint32(window[slot]) + v
		h3 = (h3 << 5) ^ v
		window[slot] = c
		position++

		left = (left * hashPrime) ^ v
		right = (right * hashPrime) ^ v

		rolling = h1 + h2 + h3

		if (rolling+1)%fine == 0 {
			left, leftHash = emit(left, leftHash, LeftHashLength)
		}

		if (rolling+1)%coarse == 0 {
			right, rightHash = emit(right, rightHash, RightHashLength)
		}
	}

	h.window = window
	h.h1, h.h2, h.h3 = h1, h2, h3
	h.rolling = rolling
	h.position = position
	h.left, h.right = left, right
	h.leftHash, h.rightHash = leftHash, rightHash
	h.size += uint64(len(p))

	return len(p), nil
}

// Sum returns the fuzzy hash of everything written so far. Unless the last
// rolling value is zero, the unfinished tail chunk is emitted at both
// resolutions so the end of the input is always represented. Sum does not
// change the Hasher's state.
func (h *Hasher) Sum() FuzzyHash {
	leftHash := append(make([]byte, 0, LeftHashLength), h.leftHash...)
	rightHash := append(make([]byte, 0, RightHashLength), h.rightHash...)

	if h.rolling != 0 {
		_, leftHash = emit(h.left, leftHash, LeftHashLength)
		_, rightHash = emit(h.right, rightHash, RightHashLength)
	}

	return FuzzyHash{
		Blocksize: h.blocksize,
		LeftHash:  string(leftHash),
		RightHash: string(rightHash),
	}
}

// Blocksize returns the fine-resolution blocksize.
func (h *Hasher) Blocksize() uint32 {
	return h.blocksize
}

// Size returns the number of bytes written since creation or the last Reset.
func (h *Hasher) Size() uint64 {
	return h.size
}

// emit appends the character selected by value to out. A full buffer keeps
// its length by replacing its last character. Otherwise the accumulator is
// reseeded, except when exactly one slot is left: the final character then
// covers the whole remainder of the input.
func emit(value uint32, out []byte, maxLength int) (uint32, []byte) {
	c := alphabet[value%64]

	switch {
	case len(out) == maxLength:
		out = out[:len(out)-1]
	case len(out) < maxLength-1:
		value = hashInit
	}

	return value, append(out, c)
}
