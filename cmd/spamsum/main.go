package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/kalbasit/spamsum"
	"github.com/kalbasit/spamsum/internal/batch"
	"github.com/kalbasit/spamsum/internal/config"
	"github.com/kalbasit/spamsum/internal/input"
	"github.com/kalbasit/spamsum/internal/output"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1 // at least one file could not be hashed
	exitUsage  = 2 // bad flags or configuration
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// flags holds the raw command-line values before they are merged into the
// loaded configuration.
type flags struct {
	blocksize        uint32
	ignoreWhitespace bool
	ignoreHeaders    bool
	jobs             int
	format           string
	decompress       bool
	digest           bool
	configPath       string
	logLevel         string
	logFormat        string
	help             bool
}

func newFlagSet(f *flags) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("spamsum", pflag.ContinueOnError)
	flagSet.Uint32VarP(&f.blocksize, "blocksize", "B", spamsum.AutoBlocksize, "set a static blocksize (default is dynamic)")
	flagSet.BoolVarP(&f.ignoreWhitespace, "ignore-whitespace", "W", false, "ignore whitespace")
	flagSet.BoolVarP(&f.ignoreHeaders, "ignore-headers", "H", false, "ignore (e-mail) headers")
	flagSet.IntVarP(&f.jobs, "jobs", "j", 0, "number of files hashed concurrently (default GOMAXPROCS)")
	flagSet.StringVarP(&f.format, "format", "f", config.FormatText, "output format: text, json or cbor")
	flagSet.BoolVarP(&f.decompress, "decompress", "d", false, "transparently decompress gzip, zstd and lz4 input")
	flagSet.BoolVar(&f.digest, "digest", false, "also print a BLAKE3 digest of each input")
	flagSet.StringVarP(&f.configPath, "config", "c", "", "YAML config file (default $"+config.EnvVar+")")
	flagSet.StringVar(&f.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	flagSet.StringVar(&f.logFormat, "log-format", config.LogFormatText, "log format: text or json")
	flagSet.BoolVarP(&f.help, "help", "h", false, "show help")

	return flagSet
}

// run hashes every file named on the command line and returns the exit
// code. Files that fail are reported on stderr and skipped; the others are
// still printed, in argument order.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var f flags

	flagSet := newFlagSet(&f)
	// Parse errors are reported below with the command prefix.
	flagSet.SetOutput(io.Discard)

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stderr, flagSet)
			return exitOK
		}

		fmt.Fprintf(stderr, "spamsum: %v\n", err)

		return exitUsage
	}

	if f.help {
		printHelp(stderr, flagSet)
		return exitOK
	}

	cfg, err := resolveConfig(flagSet, &f)
	if err != nil {
		fmt.Fprintf(stderr, "spamsum: %v\n", err)
		return exitUsage
	}

	logger, err := newLogger(stderr, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "spamsum: %v\n", err)
		return exitUsage
	}

	paths := flagSet.Args()
	if len(paths) == 0 {
		fmt.Fprintln(stderr, "spamsum: no input files (use - for standard input)")
		return exitUsage
	}

	if err := checkStdin(paths); err != nil {
		fmt.Fprintf(stderr, "spamsum: %v\n", err)
		return exitUsage
	}

	writer, err := output.New(stdout, cfg.Format)
	if err != nil {
		fmt.Fprintf(stderr, "spamsum: %v\n", err)
		return exitUsage
	}

	logger.Debug("starting", "files", len(paths), "workers", cfg.Workers, "blocksize", cfg.Blocksize)

	results := batch.Run(ctx, paths, batch.Options{
		Workers:    cfg.Workers,
		Decompress: cfg.Decompress,
		Digest:     cfg.Digest,
		Hash:       cfg.Options.Apply(),
	}, logger)

	exitCode := exitOK

	for _, result := range results {
		record := output.Record{Path: result.Path, Size: result.Size, Digest: result.Digest}

		if result.Err != nil {
			fmt.Fprintf(stderr, "spamsum: %s: %v\n", result.Path, result.Err)
			record.Error = result.Err.Error()
			exitCode = exitFailed
		} else {
			hash := result.Hash
			record.Hash = &hash
		}

		if err := writer.Write(record); err != nil {
			fmt.Fprintf(stderr, "spamsum: writing output: %v\n", err)
			return exitFailed
		}
	}

	if err := writer.Flush(); err != nil {
		fmt.Fprintf(stderr, "spamsum: writing output: %v\n", err)
		return exitFailed
	}

	if exitCode != exitOK {
		logger.Info("finished with failures", "failed", batch.Failed(results), "files", len(results))
	}

	return exitCode
}

// checkStdin rejects more than one standard input path. The stream can be
// read only once.
func checkStdin(paths []string) error {
	count := 0

	for _, path := range paths {
		if path == input.Stdin {
			count++
		}
	}

	if count > 1 {
		return fmt.Errorf("standard input (%s) named %d times, it can be read only once", input.Stdin, count)
	}

	return nil
}

// resolveConfig loads the config file and lets explicitly set flags
// override it.
func resolveConfig(flagSet *pflag.FlagSet, f *flags) (config.Config, error) {
	cfg, err := config.Load(config.Path(f.configPath))
	if err != nil {
		return config.Config{}, err
	}

	if flagSet.Changed("blocksize") {
		cfg.Blocksize = f.blocksize
	}

	if flagSet.Changed("ignore-whitespace") {
		cfg.IgnoreWhitespace = f.ignoreWhitespace
	}

	if flagSet.Changed("ignore-headers") {
		cfg.IgnoreHeaders = f.ignoreHeaders
	}

	if flagSet.Changed("jobs") {
		cfg.Workers = f.jobs
	}

	if flagSet.Changed("format") {
		cfg.Format = f.format
	}

	if flagSet.Changed("decompress") {
		cfg.Decompress = f.decompress
	}

	if flagSet.Changed("digest") {
		cfg.Digest = f.digest
	}

	if flagSet.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}

	if flagSet.Changed("log-format") {
		cfg.LogFormat = f.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}

func newLogger(stderr io.Writer, cfg config.Config) (*slog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}

	options := &slog.HandlerOptions{Level: level}

	switch cfg.LogFormat {
	case config.LogFormatJSON:
		return slog.New(slog.NewJSONHandler(stderr, options)), nil
	default:
		return slog.New(slog.NewTextHandler(stderr, options)), nil
	}
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `spamsum: compute context-triggered piecewise (fuzzy) hashes of files.

Each file is read into memory and hashed. One line per file is printed in
argument order as "<blocksize>:<left hash>:<right hash>  <path>". Files that
cannot be read are reported on standard error and skipped; the exit status
is then 1.

Usage:
  spamsum [flags] FILE...

Examples:
  # Hash a mail message, ignoring its headers
  spamsum -H message.eml

  # Hash compressed samples with a fixed blocksize, as JSON lines
  spamsum -d -B 48 -f json samples/*.gz

Flags:
`)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
