//nolint:varnamelen // Test files use idiomatic short variable names (t, tt, etc.)
package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/alexflint/go-arg"

	"github.com/joe/fsinfo/internal/config"
	"github.com/joe/fsinfo/internal/logger"
	"github.com/joe/fsinfo/pkg/fsinfo"
)

func TestFormatString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		f        config.Format
		expected string
	}{
		{config.FormatText, "text"},
		{config.FormatYAML, "yaml"},
		{config.Format(999), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.f.String(); got != tt.expected {
			t.Errorf("Format(%d).String() = %q, want %q", tt.f, got, tt.expected)
		}
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected config.Format
		wantErr  bool
	}{
		{"text", config.FormatText, false},
		{"TXT", config.FormatText, false},
		{"yaml", config.FormatYAML, false},
		{"yml", config.FormatYAML, false},
		{"json", config.FormatText, true},
		{"", config.FormatText, true},
	}

	for _, tt := range tests {
		var f config.Format

		err := f.UnmarshalText([]byte(tt.input))
		if (err != nil) != tt.wantErr {
			t.Errorf("UnmarshalText(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}

		if !tt.wantErr && f != tt.expected {
			t.Errorf("UnmarshalText(%q) = %v, want %v", tt.input, f, tt.expected)
		}
	}
}

func TestConfigDescriptionAndVersion(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}

	if cfg.Description() == "" {
		t.Error("Description() should not be empty")
	}

	if cfg.Version() == "" {
		t.Error("Version() should not be empty")
	}
}

func TestParseScan(t *testing.T) {
	t.Parallel()

	cfg, _, err := config.Parse([]string{"--mode", "immutable", "-j", "8", "scan", "/srv", "--shallow", "--include", "**/*.go"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Scan == nil || cfg.Describe != nil {
		t.Fatalf("expected the scan command, got %+v", cfg)
	}

	if cfg.Scan.Path != "/srv" || !cfg.Scan.Shallow || cfg.Scan.Include != "**/*.go" {
		t.Errorf("unexpected scan options: %+v", cfg.Scan)
	}

	if cfg.Mode != fsinfo.ModeImmutable {
		t.Errorf("Mode = %v, want immutable", cfg.Mode)
	}

	if got := cfg.Filesystem(); got.MaxInFlight != 8 || got.TTL != 3*time.Second {
		t.Errorf("Filesystem() = %+v", got)
	}
}

func TestParseScanDefaults(t *testing.T) {
	t.Parallel()

	cfg, _, err := config.Parse([]string{"scan"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Scan.Path != "." {
		t.Errorf("Path = %q, want \".\"", cfg.Scan.Path)
	}

	if cfg.LogLevel != logger.LevelWarn || cfg.PoolSize != 16 || cfg.MaxInFlight != 0 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestParseDescribe(t *testing.T) {
	t.Parallel()

	cfg, _, err := config.Parse([]string{"describe", "notes.txt", "--format", "yaml"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Describe == nil || cfg.Describe.Path != "notes.txt" || cfg.Describe.Format != config.FormatYAML {
		t.Errorf("unexpected describe options: %+v", cfg.Describe)
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{"no command", []string{}},
		{"describe without a path", []string{"describe"}},
		{"unknown mode", []string{"--mode", "frozen", "scan"}},
		{"bad ttl", []string{"--ttl", "soon", "scan"}},
		{"bad include", []string{"scan", "--include", "[oops"}},
		{"stream with export", []string{"scan", "--stream", "--export", "out.db"}},
		{"negative in-flight bound", []string{"-j", "-1", "scan"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, _, err := config.Parse(tt.args); err == nil {
				t.Errorf("Parse(%v) should fail", tt.args)
			}
		})
	}
}

func TestParseHelp(t *testing.T) {
	t.Parallel()

	_, parser, err := config.Parse([]string{"--help"})
	if !errors.Is(err, arg.ErrHelp) {
		t.Fatalf("expected arg.ErrHelp, got %v", err)
	}

	if parser == nil {
		t.Error("parser should be returned so help can be printed")
	}
}

//nolint:paralleltest // t.Setenv cannot be combined with t.Parallel
func TestParseEnvironment(t *testing.T) {
	t.Setenv("FSINFO_MODE", "immutable")
	t.Setenv("FSINFO_TTL", "250ms")
	t.Setenv("FSINFO_LOG_LEVEL", "debug")

	cfg, _, err := config.Parse([]string{"scan"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Mode != fsinfo.ModeImmutable || cfg.TTL != 250*time.Millisecond || cfg.LogLevel != logger.LevelDebug {
		t.Errorf("environment not applied: %+v", cfg)
	}

	cfg, _, err = config.Parse([]string{"--mode", "live", "scan"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Mode != fsinfo.ModeLive {
		t.Error("flags should override the environment")
	}
}

func TestPoolConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()
	cfg.PoolSize = 2

	pool := cfg.PoolConfig()
	if err := pool.Validate(); err != nil {
		t.Fatalf("PoolConfig() is invalid: %v", err)
	}

	if pool.MaxSize != 2 || pool.InitialSize != 2 {
		t.Errorf("PoolConfig() = %+v", pool)
	}
}

func TestValidateFilePattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		wantErr bool
	}{
		{"empty pattern is valid", "", false},
		{"simple wildcard", "*.mov", false},
		{"double star", "**/*.mov", false},
		{"brace expansion", "*.{mov,mp4}", false},
		{"unclosed bracket", "[invalid", true},
		{"unclosed brace", "*.{mov", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := config.ValidateFilePattern(tt.pattern)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFilePattern(%q) error = %v, wantErr %v", tt.pattern, err, tt.wantErr)
			}
		})
	}
}
