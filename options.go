package spamsum

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidConfiguration is returned when a combination of options cannot
	// produce a hash.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrMalformedHash is returned when a string is not a canonical fuzzy hash.
	ErrMalformedHash = errors.New("malformed fuzzy hash")
)

const (
	// LeftHashLength is the maximum length of the fine-resolution hash.
	LeftHashLength = 64

	// RightHashLength is the maximum length of the coarse-resolution hash.
	RightHashLength = LeftHashLength / 2

	// MinBlocksize is the smallest blocksize the selector will try.
	MinBlocksize = 3

	// MaxBlocksize is the largest blocksize whose coarse resolution (twice the
	// blocksize) still fits in 32 bits.
	MaxBlocksize = math.MaxUint32 / 2

	// RollingWindow is the size of the rolling trigger's sliding window.
	RollingWindow = 7

	// AutoBlocksize asks the selector to pick the blocksize from the input.
	AutoBlocksize = 0
)

// Option is a function that configures a hash computation.
type Option func(*config) error

// config holds the configuration for one computation.
type config struct {
	blocksize        uint32
	ignoreWhitespace bool
	ignoreHeaders    bool
}

func defaultConfig() config {
	return config{blocksize: AutoBlocksize}
}

// validate checks that the configuration is valid.
func (c *config) validate() error {
	if c.blocksize > MaxBlocksize {
		return fmt.Errorf("%w: blocksize (%d) exceeds maximum (%d)", ErrInvalidConfiguration, c.blocksize, MaxBlocksize)
	}

	return nil
}

// pinned reports whether the caller fixed the blocksize.
func (c *config) pinned() bool {
	return c.blocksize != AutoBlocksize
}

// WithBlocksize pins the blocksize. Zero restores automatic selection.
func WithBlocksize(size uint32) Option {
	return func(c *config) error {
		if size > MaxBlocksize {
			return fmt.Errorf("%w: blocksize (%d) exceeds maximum (%d)", ErrInvalidConfiguration, size, MaxBlocksize)
		}

		c.blocksize = size

		return nil
	}
}

// WithIgnoreWhitespace drops POSIX whitespace bytes before hashing.
func WithIgnoreWhitespace(ignore bool) Option {
	return func(c *config) error {
		c.ignoreWhitespace = ignore

		return nil
	}
}

// WithIgnoreHeaders drops everything up to and including the first blank
// line, which in an e-mail message is the header block.
func WithIgnoreHeaders(ignore bool) Option {
	return func(c *config) error {
		c.ignoreHeaders = ignore

		return nil
	}
}

// Options is the plain-struct form of the hash configuration, convenient for
// callers that load settings from a file.
type Options struct {
	Blocksize        uint32 `yaml:"blocksize"`
	IgnoreWhitespace bool   `yaml:"ignore_whitespace"`
	IgnoreHeaders    bool   `yaml:"ignore_headers"`
}

// Apply converts the struct into the equivalent list of Option values.
func (o Options) Apply() []Option {
	return []Option{
		WithBlocksize(o.Blocksize),
		WithIgnoreWhitespace(o.IgnoreWhitespace),
		WithIgnoreHeaders(o.IgnoreHeaders),
	}
}

func newConfig(opts []Option) (config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, err
		}
	}

	if err := cfg.validate(); err != nil {
		return config{}, err
	}

	return cfg, nil
}
