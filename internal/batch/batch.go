// Package batch hashes many files concurrently. Each file is loaded,
// hashed and optionally digested on its own; a failure affects only that
// file's result. Results are returned in input order.
package batch

import (
	"context"
	"encoding/hex"
	"log/slog"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/kalbasit/spamsum"
	"github.com/kalbasit/spamsum/internal/input"
)

// Options configures a batch run.
type Options struct {
	// Workers is the number of files processed at once. Values below 1
	// mean 1.
	Workers int

	// Decompress removes a gzip, zstd or lz4 layer before hashing.
	Decompress bool

	// Digest adds the hex BLAKE3 digest of the loaded bytes.
	Digest bool

	// Hash is passed to spamsum.Sum for every file.
	Hash []spamsum.Option
}

// Result is the outcome for one path.
type Result struct {
	Path   string
	Hash   spamsum.FuzzyHash
	Size   int    // bytes after decompression, before normalization
	Digest string // empty unless Options.Digest
	Err    error
}

// loadFunc is replaced in tests.
type loadFunc func(path string, decompress bool) ([]byte, error)

// Run processes paths with a bounded worker pool and returns one Result per
// path, at the same index. Paths not yet started when ctx is cancelled get
// ctx.Err() as their error.
func Run(ctx context.Context, paths []string, opts Options, logger *slog.Logger) []Result {
	return run(ctx, paths, opts, logger, input.Load)
}

func run(ctx context.Context, paths []string, opts Options, logger *slog.Logger, load loadFunc) []Result {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	workers := max(opts.Workers, 1)
	workers = min(workers, max(len(paths), 1))

	results := make([]Result, len(paths))
	indices := make(chan int)

	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range indices {
				results[i] = process(paths[i], opts, logger, load)
			}
		}()
	}

	next := 0

feed:
	for ; next < len(paths); next++ {
		if ctx.Err() != nil {
			break
		}

		select {
		case indices <- next:
		case <-ctx.Done():
			break feed
		}
	}

	close(indices)
	wg.Wait()

	for i := next; i < len(paths); i++ {
		results[i] = Result{Path: paths[i], Err: ctx.Err()}
	}

	return results
}

func process(path string, opts Options, logger *slog.Logger, load loadFunc) Result {
	result := Result{Path: path}

	data, err := load(path, opts.Decompress)
	if err != nil {
		logger.Debug("loading input failed", "path", path, "error", err)
		result.Err = err

		return result
	}

	result.Size = len(data)

	hash, err := spamsum.Sum(data, opts.Hash...)
	if err != nil {
		logger.Debug("hashing failed", "path", path, "error", err)
		result.Err = err

		return result
	}

	result.Hash = hash

	if opts.Digest {
		digest := blake3.Sum256(data)
		result.Digest = hex.EncodeToString(digest[:])
	}

	logger.Debug("hashed", "path", path, "size", result.Size, "hash", hash.String())

	return result
}

// Failed reports how many results carry an error.
func Failed(results []Result) int {
	failed := 0

	for _, result := range results {
		if result.Err != nil {
			failed++
		}
	}

	return failed
}
