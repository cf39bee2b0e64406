// Package config handles application configuration and command-line argument parsing.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexflint/go-arg"

	"github.com/joe/fsinfo/internal/logger"
	"github.com/joe/fsinfo/pkg/fileinfo"
	"github.com/joe/fsinfo/pkg/filesystem"
	"github.com/joe/fsinfo/pkg/fsinfo"
)

// Format selects how describe prints an entry.
type Format int

const (
	// FormatText prints aligned "key: value" lines
	FormatText Format = iota
	// FormatYAML prints a YAML document
	FormatYAML
)

// String returns the string representation of Format
func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// ParseFormat parses a string into a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "text", "txt":
		return FormatText, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return FormatText, fmt.Errorf("invalid format: %s (valid: text, yaml)", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for go-arg
func (f *Format) UnmarshalText(text []byte) error {
	parsed, err := ParseFormat(string(text))
	if err != nil {
		return err
	}

	*f = parsed

	return nil
}

// ScanCmd lists a directory tree.
type ScanCmd struct {
	Path    string `arg:"positional" default:"." help:"Directory to scan (local path or sftp://user@host[:port]/path)"`
	Shallow bool   `arg:"--shallow" help:"List only the immediate children"`
	Include string `arg:"-i,--include" help:"Keep only entries matching this glob (relative to the root, e.g. '**/*.go')"`
	Stream  bool   `arg:"--stream" help:"Print entries in lexical order as they are walked instead of scanning concurrently"`
	Export  string `arg:"-o,--export" help:"Also write the result to this SQLite database"`
	Plain   bool   `arg:"--plain" help:"Disable the interactive progress display"`
}

// DescribeCmd prints the metadata of one entry.
type DescribeCmd struct {
	Path   string `arg:"positional,required" help:"Entry to describe"`
	Format Format `arg:"-f,--format" default:"text" help:"Output format: text|yaml"`
}

// Config holds the application configuration
type Config struct {
	Scan     *ScanCmd     `arg:"subcommand:scan" help:"Scan a directory concurrently"`
	Describe *DescribeCmd `arg:"subcommand:describe" help:"Show everything known about one entry"`

	LogLevel    logger.Level  `arg:"--log-level,env:FSINFO_LOG_LEVEL" default:"warn" help:"trace|debug|info|warn|error"`
	Mode        fsinfo.Mode   `arg:"-m,--mode,env:FSINFO_MODE" default:"live" help:"live (cached, re-validated) or immutable (one snapshot per entry)"`
	TTL         time.Duration `arg:"--ttl,env:FSINFO_TTL" default:"3s" help:"Attribute cache lifetime in live mode (negative disables caching)"`
	MaxInFlight int           `arg:"-j,--max-in-flight,env:FSINFO_MAX_IN_FLIGHT" default:"0" help:"Bound on concurrent filesystem calls (0 = unbounded)"`
	PoolSize    int           `arg:"--pool-size,env:FSINFO_POOL_SIZE" default:"16" help:"Maximum SFTP clients for remote paths"`
	Trace       bool          `arg:"--trace,env:FSINFO_TRACE" help:"Print OpenTelemetry spans to stderr"`
}

// Description returns the program description for go-arg
func (Config) Description() string {
	return "Concurrent filesystem introspection: scan trees and describe entries, locally or over SFTP"
}

// Version returns the version string for go-arg
func (Config) Version() string {
	return "fsinfo 1.0.0"
}

// Defaults returns a Config with every default applied.
func Defaults() *Config {
	return &Config{
		LogLevel: logger.LevelWarn,
		Mode:     fsinfo.ModeLive,
		TTL:      fileinfo.DefaultTTL,
		PoolSize: filesystem.DefaultPoolConfig().MaxSize,
	}
}

// ErrNoCommand is returned when neither scan nor describe was given.
var ErrNoCommand = errors.New("a command is required: scan or describe")

// Parse parses args (without the program name). Help and version requests
// surface as arg.ErrHelp and arg.ErrVersion; the returned parser can print
// them.
func Parse(args []string) (*Config, *arg.Parser, error) {
	cfg := &Config{}

	parser, err := arg.NewParser(arg.Config{Program: "fsinfo"}, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build argument parser: %w", err)
	}

	if err := parser.Parse(args); err != nil {
		return nil, parser, err //nolint:wrapcheck // callers compare against arg.ErrHelp
	}

	cfg, err = PostProcessConfig(cfg)

	return cfg, parser, err
}

// PostProcessConfig applies post-processing logic to a parsed config
func PostProcessConfig(cfg *Config) (*Config, error) {
	if cfg.Scan == nil && cfg.Describe == nil {
		return nil, ErrNoCommand
	}

	if cfg.MaxInFlight < 0 {
		return nil, fmt.Errorf("max-in-flight must be >= 0, got %d", cfg.MaxInFlight)
	}

	if cfg.PoolSize < 1 {
		return nil, fmt.Errorf("pool-size must be >= 1, got %d", cfg.PoolSize)
	}

	if cfg.Scan != nil {
		if cfg.Scan.Path == "" {
			cfg.Scan.Path = "."
		}

		if err := ValidateFilePattern(cfg.Scan.Include); err != nil {
			return nil, err
		}

		if cfg.Scan.Stream && cfg.Scan.Export != "" {
			return nil, errors.New("--stream and --export cannot be combined")
		}
	}

	return cfg, nil
}

// ValidateFilePattern checks that an --include glob is well formed.
func ValidateFilePattern(pattern string) error {
	if pattern == "" {
		return nil
	}

	if !fsinfo.ValidatePattern(pattern) {
		return fmt.Errorf("invalid include pattern: %s", pattern)
	}

	return nil
}

// PoolConfig returns SFTP pool limits capped at PoolSize.
func (cfg *Config) PoolConfig() *filesystem.PoolConfig {
	pool := filesystem.DefaultPoolConfig()
	pool.MaxSize = cfg.PoolSize

	if pool.InitialSize > pool.MaxSize {
		pool.InitialSize = pool.MaxSize
	}

	if pool.MinSize > pool.InitialSize {
		pool.MinSize = pool.InitialSize
	}

	return pool
}

// Filesystem returns the facade settings carried by the flags.
func (cfg *Config) Filesystem() fsinfo.Config {
	return fsinfo.Config{
		Mode:        cfg.Mode,
		TTL:         cfg.TTL,
		MaxInFlight: cfg.MaxInFlight,
	}
}
