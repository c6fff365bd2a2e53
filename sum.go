package spamsum

import (
	"fmt"
	"io"
)

// maxAttempts bounds the retry loop of the blocksize selector. Halving from
// MaxBlocksize reaches MinBlocksize in fewer steps than this.
const maxAttempts = 32

// Sum computes the fuzzy hash of data.
//
// Unless WithBlocksize pins the blocksize, Sum starts from GuessBlocksize and
// halves the blocksize, rerunning the whole pass with fresh state, while the
// fine-resolution hash has at most RightHashLength characters and the
// blocksize is above MinBlocksize.
//
// The only error Sum returns is ErrInvalidConfiguration for options that
// cannot be satisfied. data is never modified.
func Sum(data []byte, opts ...Option) (FuzzyHash, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return FuzzyHash{}, err
	}

	return sum(data, &cfg), nil
}

// SumReader reads r to EOF and returns the fuzzy hash of its contents. The
// selector may need several passes, so the whole stream is held in memory.
func SumReader(r io.Reader, opts ...Option) (FuzzyHash, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return FuzzyHash{}, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return FuzzyHash{}, fmt.Errorf("reading input: %w", err)
	}

	return sum(data, &cfg), nil
}

func sum(data []byte, cfg *config) FuzzyHash {
	data = normalize(data, cfg)

	if cfg.pinned() {
		return sumWithBlocksize(data, cfg.blocksize)
	}

	result := sumWithBlocksize(data, GuessBlocksize(len(data)))
	for attempt := 0; attempt < maxAttempts && needsRetry(result); attempt++ {
		result = sumWithBlocksize(data, result.Blocksize/2)
	}

	return result
}

// needsRetry reports whether the fine-resolution hash is too short for its
// blocksize. The length test is len-1 < RightHashLength, so an empty hash
// always retries and a hash of exactly RightHashLength characters does too.
func needsRetry(result FuzzyHash) bool {
	return result.Blocksize > MinBlocksize && len(result.LeftHash)-1 < RightHashLength
}

// sumWithBlocksize runs one complete pass with new state.
func sumWithBlocksize(data []byte, blocksize uint32) FuzzyHash {
	h := newHasher(blocksize)
	_, _ = h.Write(data)

	return h.Sum()
}

// GuessBlocksize returns the initial blocksize for an input of length bytes:
// the smallest MinBlocksize*2^k such that blocksize*LeftHashLength covers the
// input, capped at the largest such value not exceeding MaxBlocksize.
func GuessBlocksize(length int) uint32 {
	blocksize := uint64(MinBlocksize)
	for blocksize*LeftHashLength < uint64(length) && blocksize*2 <= MaxBlocksize {
		blocksize *= 2
	}

	return uint32(blocksize)
}
