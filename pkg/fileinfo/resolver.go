// Package fileinfo describes single filesystem entries: their attributes,
// type and link target, either queried lazily through a cache or frozen in a
// snapshot.
package fileinfo

import (
	"context"
	"os"
	"path"
	"sync"
	"time"

	"github.com/joe/fsinfo/pkg/filesystem"
)

// DefaultTTL is how long resolved attributes are reused.
const DefaultTTL = 3 * time.Second

// Options configure attribute resolution.
type Options struct {
	// TTL is the freshness window of cached attributes. Zero selects
	// DefaultTTL; a negative value disables caching.
	TTL time.Duration
	// Clock drives freshness; defaults to RealClock.
	Clock Clock
	// Getwd supplies the working directory when the context carries none;
	// defaults to os.Getwd.
	Getwd func() (string, error)
}

func (o Options) withDefaults() Options {
	if o.TTL == 0 {
		o.TTL = DefaultTTL
	}

	if o.Clock == nil {
		o.Clock = RealClock{}
	}

	if o.Getwd == nil {
		o.Getwd = os.Getwd
	}

	return o
}

// cached is one resolved attribute set and when it was fetched.
type cached struct {
	attrs *filesystem.Attributes
	at    time.Time
}

// Resolver answers stat, lstat and readlink for one path through a Driver,
// caching results. Driver failures other than the context ending are
// absorbed: the attributes are reported as nil and the failure is kept for
// LastError.
//
// A Resolver is safe for concurrent use; concurrent misses may both reach
// the driver.
type Resolver struct {
	path   string
	driver filesystem.Driver
	opts   Options

	mu      sync.Mutex
	stat    *cached
	lstat   *cached
	target  *string
	wd      string
	lastErr error
}

// NewResolver creates a Resolver for p.
func NewResolver(p string, driver filesystem.Driver, opts Options) *Resolver {
	return &Resolver{
		path:   p,
		driver: driver,
		opts:   opts.withDefaults(),
	}
}

// Path returns the path the resolver answers for.
func (r *Resolver) Path() string {
	return r.path
}

// WorkDir returns the working directory captured with the cached attributes.
func (r *Resolver) WorkDir() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.wd
}

// LastError returns the most recent absorbed driver failure, or nil.
func (r *Resolver) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.lastErr
}

// Invalidate drops every cached value.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clearLocked()
}

func (r *Resolver) clearLocked() {
	r.stat = nil
	r.lstat = nil
	r.target = nil
}

func (r *Resolver) workDir(ctx context.Context) string {
	if wd, ok := WorkDirFrom(ctx); ok {
		return wd
	}

	wd, err := r.opts.Getwd()
	if err != nil {
		return ""
	}

	return wd
}

// expireLocked drops the cache once any entry is older than the TTL, or when
// a relative path is now being resolved from a different directory.
func (r *Resolver) expireLocked(now time.Time, wd string) {
	stale := func(c *cached) bool {
		return c != nil && now.Sub(c.at) > r.opts.TTL
	}

	if stale(r.stat) || stale(r.lstat) {
		r.clearLocked()

		return
	}

	if !path.IsAbs(r.path) && (r.stat != nil || r.lstat != nil) && wd != r.wd {
		r.clearLocked()
	}
}

// Stat returns the attributes of the path, following symbolic links; nil
// when the path cannot be resolved. The only error is the context's.
func (r *Resolver) Stat(ctx context.Context) (*filesystem.Attributes, error) {
	return r.fetch(ctx, true)
}

// Lstat returns the attributes of the path itself; nil when it does not
// exist. The only error is the context's.
func (r *Resolver) Lstat(ctx context.Context) (*filesystem.Attributes, error) {
	return r.fetch(ctx, false)
}

func (r *Resolver) slot(follow bool) **cached {
	if follow {
		return &r.stat
	}

	return &r.lstat
}

func (r *Resolver) fetch(ctx context.Context, follow bool) (*filesystem.Attributes, error) {
	wd := r.workDir(ctx)

	r.mu.Lock()
	r.expireLocked(r.opts.Clock.Now(), wd)

	if c := *r.slot(follow); c != nil {
		r.mu.Unlock()

		return c.attrs, nil
	}
	r.mu.Unlock()

	query := r.driver.Lstat
	if follow {
		query = r.driver.Stat
	}

	attrs, err := query(ctx, r.path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		r.mu.Lock()
		r.lastErr = err
		r.mu.Unlock()

		return nil, nil
	}

	if attrs == nil {
		return nil, nil
	}

	r.mu.Lock()
	r.lastErr = nil

	if r.opts.TTL >= 0 {
		*r.slot(follow) = &cached{attrs: attrs, at: r.opts.Clock.Now()}
		r.wd = wd
	}
	r.mu.Unlock()

	return attrs, nil
}

// IsLink derives link-ness from the current stat and lstat: the path is a
// link when both exist under different identities, or when only lstat does
// (a dangling link). Never cached.
func (r *Resolver) IsLink(ctx context.Context) (bool, error) {
	lstat, err := r.Lstat(ctx)
	if err != nil || lstat == nil {
		return false, err
	}

	stat, err := r.Stat(ctx)
	if err != nil {
		return false, err
	}

	return !filesystem.SameIdentity(stat, lstat), nil
}

// ReadLink returns the raw link target, cached alongside the attributes.
// ok is false when the target cannot be read.
func (r *Resolver) ReadLink(ctx context.Context) (string, bool, error) {
	wd := r.workDir(ctx)

	r.mu.Lock()
	r.expireLocked(r.opts.Clock.Now(), wd)

	if r.target != nil {
		target := *r.target
		r.mu.Unlock()

		return target, true, nil
	}
	r.mu.Unlock()

	target, err := r.driver.ReadLink(ctx, r.path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", false, ctxErr
		}

		r.mu.Lock()
		r.lastErr = err
		r.mu.Unlock()

		return "", false, nil
	}

	if r.opts.TTL >= 0 {
		r.mu.Lock()
		r.target = &target
		r.mu.Unlock()
	}

	return target, true, nil
}

// Access probes a permission through the driver. Not cached.
func (r *Resolver) Access(ctx context.Context, mode filesystem.AccessMode) bool {
	return r.driver.Access(ctx, r.path, mode)
}
