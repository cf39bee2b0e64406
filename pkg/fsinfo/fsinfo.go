// Package fsinfo is the entry point for inspecting a filesystem: concurrent
// scans, single-entry descriptions and sequential walks over one driver,
// plus pass-throughs for the driver's modifying operations.
package fsinfo

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/joe/fsinfo/pkg/fileinfo"
	"github.com/joe/fsinfo/pkg/filesystem"
	"github.com/joe/fsinfo/pkg/scanner"
)

// Mode selects the kind of Info handed out.
type Mode int

// Info modes.
const (
	// ModeLive Infos query the driver on demand and cache for the TTL.
	ModeLive Mode = iota
	// ModeImmutable Infos are captured once and never query again.
	ModeImmutable
)

func (m Mode) String() string {
	if m == ModeImmutable {
		return "immutable"
	}

	return "live"
}

// ParseMode parses "live" or "immutable".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "live", "":
		return ModeLive, nil
	case "immutable":
		return ModeImmutable, nil
	}

	return ModeLive, fmt.Errorf("unknown mode %q (want live or immutable)", s)
}

// UnmarshalText implements encoding.TextUnmarshaler for go-arg.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}

	*m = parsed

	return nil
}

// Config configures a Filesystem. The zero value is usable.
type Config struct {
	Mode Mode
	// TTL of live attribute caches; see fileinfo.Options.
	TTL time.Duration
	// MaxInFlight bounds concurrent driver calls; 0 means unbounded. Pooled
	// drivers are resized to match.
	MaxInFlight int
	Clock       fileinfo.Clock
	// Getwd overrides the working directory source. Defaults to the
	// driver's own when it has one, else os.Getwd.
	Getwd          func() (string, error)
	Logger         scanner.Logger
	Emitter        scanner.EventEmitter
	TracerProvider trace.TracerProvider
}

// Filesystem inspects and modifies one filesystem.
type Filesystem struct {
	fs      filesystem.FileSystem
	driver  filesystem.Driver
	mode    Mode
	opts    fileinfo.Options
	factory fileinfo.Factory
	scanner *scanner.Scanner
	clock   fileinfo.Clock
}

// New creates a Filesystem over fs.
func New(fs filesystem.FileSystem, cfg Config) *Filesystem {
	getwd := cfg.Getwd
	if getwd == nil {
		getwd = os.Getwd

		if provider, ok := fs.(filesystem.WorkDirProvider); ok {
			// a remote session's directory does not change under us
			getwd = sync.OnceValues(func() (string, error) {
				return provider.Getwd(context.Background())
			})
		}
	}

	if cfg.MaxInFlight > 0 {
		if pool, ok := fs.(filesystem.ResizablePool); ok {
			pool.ResizePool(cfg.MaxInFlight)
		}
	}

	clock := cfg.Clock
	if clock == nil {
		clock = fileinfo.RealClock{}
	}

	driver := filesystem.Limit(fs, cfg.MaxInFlight)
	opts := fileinfo.Options{TTL: cfg.TTL, Clock: clock, Getwd: getwd}

	factory := fileinfo.LiveFactory(driver, opts)
	if cfg.Mode == ModeImmutable {
		factory = fileinfo.ImmutableFactory(driver, opts)
	}

	scanOpts := []scanner.Option{scanner.WithGetwd(getwd)}
	if cfg.Logger != nil {
		scanOpts = append(scanOpts, scanner.WithLogger(cfg.Logger))
	}

	if cfg.Emitter != nil {
		scanOpts = append(scanOpts, scanner.WithEventEmitter(cfg.Emitter))
	}

	if cfg.TracerProvider != nil {
		scanOpts = append(scanOpts, scanner.WithTracerProvider(cfg.TracerProvider))
	}

	return &Filesystem{
		fs:      fs,
		driver:  driver,
		mode:    cfg.Mode,
		opts:    opts,
		factory: factory,
		scanner: scanner.New(driver, factory, scanOpts...),
		clock:   clock,
	}
}

// Mode reports the Info flavor this Filesystem hands out.
func (f *Filesystem) Mode() Mode { return f.mode }

// Scan enumerates path, recursively or one level deep. The only error is the
// context's.
func (f *Filesystem) Scan(ctx context.Context, path string, recursive bool) (*scanner.Result, error) {
	return f.scanner.Scan(ctx, path, recursive)
}

// ScanAsync starts a scan and returns a channel receiving its one Outcome.
func (f *Filesystem) ScanAsync(ctx context.Context, path string, recursive bool) <-chan scanner.Outcome {
	return f.scanner.ScanAsync(ctx, path, recursive)
}

// Describe returns the Info of a single path. Nonexistent paths are not an
// error: the Info reports TypeNone.
func (f *Filesystem) Describe(ctx context.Context, path string) (fileinfo.Info, error) {
	ctx = f.withWorkDir(ctx)
	info := f.factory(ctx, path)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return info, nil
}

// Walk streams the tree under root in lexical order without following links.
func (f *Filesystem) Walk(ctx context.Context, root string) *filesystem.Walker {
	wd, _ := f.workDir(ctx)

	return filesystem.NewWalker(ctx, f.driver, fileinfo.AbsPath(root, wd))
}

func (f *Filesystem) workDir(ctx context.Context) (string, bool) {
	if wd, ok := fileinfo.WorkDirFrom(ctx); ok {
		return wd, true
	}

	wd, err := f.opts.Getwd()

	return wd, err == nil
}

func (f *Filesystem) withWorkDir(ctx context.Context) context.Context {
	if _, ok := fileinfo.WorkDirFrom(ctx); ok {
		return ctx
	}

	wd, ok := f.workDir(ctx)
	if !ok {
		return ctx
	}

	return fileinfo.WithWorkDir(ctx, wd)
}

// Exists reports whether anything, including a dangling link, is at path.
func (f *Filesystem) Exists(ctx context.Context, path string) bool {
	return f.fs.Exists(ctx, path)
}

func (f *Filesystem) Chmod(ctx context.Context, path string, perm os.FileMode) error {
	return f.fs.Chmod(ctx, path, perm)
}

func (f *Filesystem) Chown(ctx context.Context, path string, uid, gid int) error {
	return f.fs.Chown(ctx, path, uid, gid)
}

func (f *Filesystem) Chtimes(ctx context.Context, path string, atime, mtime time.Time) error {
	return f.fs.Chtimes(ctx, path, atime, mtime)
}

// Touch creates path if it is missing and sets its times. A zero mtime means
// now; a zero atime means mtime.
func (f *Filesystem) Touch(ctx context.Context, path string, mtime, atime time.Time) error {
	if !f.fs.Exists(ctx, path) {
		file, err := f.fs.Create(ctx, path)
		if err != nil {
			return err
		}

		if err := file.Close(); err != nil {
			return fmt.Errorf("failed to close %s: %w", path, err)
		}
	}

	if mtime.IsZero() {
		mtime = f.clock.Now()
	}

	if atime.IsZero() {
		atime = mtime
	}

	return f.fs.Chtimes(ctx, path, atime, mtime)
}

// Link creates a hard link named link to target.
func (f *Filesystem) Link(ctx context.Context, target, link string) error {
	return f.fs.Link(ctx, target, link)
}

// Symlink creates a symbolic link named link pointing at target.
func (f *Filesystem) Symlink(ctx context.Context, target, link string) error {
	return f.fs.Symlink(ctx, target, link)
}

func (f *Filesystem) Rename(ctx context.Context, from, to string) error {
	return f.fs.Rename(ctx, from, to)
}

// Remove unlinks a file or removes an empty directory.
func (f *Filesystem) Remove(ctx context.Context, path string) error {
	return f.fs.Remove(ctx, path)
}

func (f *Filesystem) Mkdir(ctx context.Context, path string, perm os.FileMode, recursive bool) error {
	return f.fs.Mkdir(ctx, path, perm, recursive)
}

func (f *Filesystem) Open(ctx context.Context, path string) (filesystem.File, error) {
	return f.fs.Open(ctx, path)
}

func (f *Filesystem) Create(ctx context.Context, path string) (filesystem.File, error) {
	return f.fs.Create(ctx, path)
}

// ReadFile returns the whole content of path.
func (f *Filesystem) ReadFile(ctx context.Context, path string) ([]byte, error) {
	file, err := f.fs.Open(ctx, path)
	if err != nil {
		return nil, err
	}

	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return data, nil
}

// WriteFile replaces the content of path, creating it if needed.
func (f *Filesystem) WriteFile(ctx context.Context, path string, data []byte) error {
	file, err := f.fs.Create(ctx, path)
	if err != nil {
		return err
	}

	if _, err := file.Write(data); err != nil {
		_ = file.Close()

		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	return nil
}
