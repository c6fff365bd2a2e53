// Package config loads spamsum command configuration.
//
// Configuration comes from a single YAML file named by the --config flag or
// the SPAMSUM_CONFIG environment variable. There is no automatic discovery:
// without either, the built-in defaults apply. Command-line flags override
// values from the file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/kalbasit/spamsum"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "SPAMSUM_CONFIG"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCBOR = "cbor"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config is the complete command configuration.
type Config struct {
	// Hash options, inlined so the file reads blocksize:, ignore_headers:, ...
	spamsum.Options `yaml:",inline"`

	// Workers is the number of files hashed concurrently.
	Workers int `yaml:"workers"`

	// Format selects the output encoding: text, json or cbor.
	Format string `yaml:"format"`

	// Decompress removes gzip, zstd or lz4 framing before hashing.
	Decompress bool `yaml:"decompress"`

	// Digest adds a BLAKE3 digest of each input, after decompression, to its
	// record.
	Digest bool `yaml:"digest"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `yaml:"log_format"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Workers:   runtime.GOMAXPROCS(0),
		Format:    FormatText,
		LogLevel:  "warn",
		LogFormat: LogFormatText,
	}
}

// Path returns the config path: the flag value when set, otherwise the
// environment variable. Empty means no file.
func Path(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}

	return os.Getenv(EnvVar)
}

// Load reads the YAML file at path on top of Default. An empty path yields
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config file %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks field values.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}

	switch c.Format {
	case FormatText, FormatJSON, FormatCBOR:
	default:
		return fmt.Errorf("unknown format %q (want %s, %s or %s)", c.Format, FormatText, FormatJSON, FormatCBOR)
	}

	if c.Blocksize > spamsum.MaxBlocksize {
		return fmt.Errorf("blocksize %d exceeds maximum %d", c.Blocksize, spamsum.MaxBlocksize)
	}

	if _, err := c.Level(); err != nil {
		return err
	}

	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("unknown log_format %q (want %s or %s)", c.LogFormat, LogFormatText, LogFormatJSON)
	}

	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}

	return level, nil
}
