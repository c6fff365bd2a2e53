package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "spamsum.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg != Default() {
		t.Errorf("Load(\"\") = %+v, want %+v", cfg, Default())
	}

	if cfg.Workers < 1 {
		t.Errorf("default workers = %d", cfg.Workers)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
blocksize: 48
ignore_whitespace: true
ignore_headers: true
workers: 2
format: json
decompress: true
digest: true
log_level: debug
log_format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Blocksize != 48 || !cfg.IgnoreWhitespace || !cfg.IgnoreHeaders {
		t.Errorf("hash options = %+v", cfg.Options)
	}

	if cfg.Workers != 2 || cfg.Format != FormatJSON || !cfg.Decompress || !cfg.Digest || cfg.LogFormat != LogFormatJSON {
		t.Errorf("config = %+v", cfg)
	}

	level, err := cfg.Level()
	if err != nil {
		t.Fatalf("Level: %v", err)
	}

	if level != slog.LevelDebug {
		t.Errorf("Level = %v, want debug", level)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "format: cbor\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := Default()
	want.Format = FormatCBOR

	if cfg != want {
		t.Errorf("Load = %+v, want %+v", cfg, want)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg != Default() {
		t.Errorf("Load(empty) = %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown field", "blocksizes: 3\n", "blocksizes"},
		{"bad format", "format: xml\n", "unknown format"},
		{"zero workers", "workers: 0\n", "workers"},
		{"bad level", "log_level: loud\n", "log_level"},
		{"bad log format", "log_format: xml\n", "log_format"},
		{"blocksize overflow", "blocksize: 4294967295\n", "blocksize"},
		{"not yaml", "format: [\n", "parsing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Load should fail")
			}

			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), path) {
		t.Errorf("Load error = %v, want one naming %s", err, path)
	}
}

func TestPath(t *testing.T) {
	t.Setenv(EnvVar, "/etc/spamsum.yaml")

	if got := Path(""); got != "/etc/spamsum.yaml" {
		t.Errorf("Path(\"\") = %q, want environment value", got)
	}

	if got := Path("/tmp/flag.yaml"); got != "/tmp/flag.yaml" {
		t.Errorf("Path(flag) = %q, want flag value", got)
	}
}
