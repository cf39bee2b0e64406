package fileinfo

import (
	"context"
	"path"
	"sync"
	"time"

	"github.com/joe/fsinfo/pkg/filesystem"
)

// Snapshot is everything known about an entry at capture time.
type Snapshot struct {
	Path    string
	WorkDir string
	Stat    *filesystem.Attributes
	Lstat   *filesystem.Attributes
	// LinkTarget is set only for symbolic links.
	LinkTarget string
	// LinkErr is why the target of a symbolic link could not be read.
	LinkErr  error
	IsLink   bool
	Readable bool
	Writable bool
	Err      error
}

// Capture resolves stat, lstat and access bits of p concurrently, then the
// link target when the identities differ. Driver failures are absorbed into
// Snapshot.Err; the returned error is the context's.
func Capture(ctx context.Context, driver filesystem.Driver, p string, opts Options) (Snapshot, error) {
	p = NormalizePath(p)
	resolver := NewResolver(p, driver, Options{TTL: -1, Getwd: opts.Getwd})

	snap := Snapshot{Path: p, WorkDir: resolver.workDir(ctx)}

	var (
		wg       sync.WaitGroup
		statErr  error
		lstatErr error
	)

	wg.Add(4)

	go func() {
		defer wg.Done()

		snap.Stat, statErr = resolver.Stat(ctx)
	}()

	go func() {
		defer wg.Done()

		snap.Lstat, lstatErr = resolver.Lstat(ctx)
	}()

	go func() {
		defer wg.Done()

		snap.Readable = driver.Access(ctx, p, filesystem.AccessRead)
	}()

	go func() {
		defer wg.Done()

		snap.Writable = driver.Access(ctx, p, filesystem.AccessWrite)
	}()

	wg.Wait()

	if statErr != nil {
		return Snapshot{}, statErr
	}

	if lstatErr != nil {
		return Snapshot{}, lstatErr
	}

	if snap.Lstat != nil && !filesystem.SameIdentity(snap.Stat, snap.Lstat) {
		snap.IsLink = true

		target, ok, err := resolver.ReadLink(ctx)
		if err != nil {
			return Snapshot{}, err
		}

		if ok {
			snap.LinkTarget = target
		} else {
			snap.LinkErr = resolver.LastError()
		}
	}

	if snap.Lstat == nil || (snap.Stat == nil && !snap.IsLink) {
		snap.Err = resolver.LastError()
	}

	if snap.Stat == nil {
		snap.Readable, snap.Writable = false, false
	}

	return snap, nil
}

// ImmutableInfo answers every query from a Snapshot.
type ImmutableInfo struct {
	snap    Snapshot
	factory Factory
}

// NewImmutable wraps a snapshot. factory, when not nil, builds Parent.
func NewImmutable(snap Snapshot, factory Factory) *ImmutableInfo {
	return &ImmutableInfo{snap: snap, factory: factory}
}

// ImmutableFactory returns a Factory that captures a snapshot per path.
// A capture interrupted by the context yields an empty snapshot whose
// LastError is the context's error.
func ImmutableFactory(driver filesystem.Driver, opts Options) Factory {
	var factory Factory

	factory = func(ctx context.Context, p string) Info {
		snap, err := Capture(ctx, driver, p, opts)
		if err != nil {
			snap = Snapshot{Path: NormalizePath(p), Err: err}
		}

		return NewImmutable(snap, factory)
	}

	return factory
}

// Snapshot returns the captured data.
func (i *ImmutableInfo) Snapshot() Snapshot { return i.snap }

func (i *ImmutableInfo) Path() string                  { return i.snap.Path }
func (i *ImmutableInfo) Basename(suffix string) string { return Basename(i.snap.Path, suffix) }
func (i *ImmutableInfo) Filename() string              { return Filename(i.snap.Path) }
func (i *ImmutableInfo) Extension() string             { return Extension(i.snap.Path) }
func (i *ImmutableInfo) Dir() string                   { return Dir(i.snap.Path) }
func (i *ImmutableInfo) LastError() error              { return i.snap.Err }

func (i *ImmutableInfo) Type(context.Context) (Type, error) {
	switch {
	case i.snap.Lstat == nil:
		return TypeNone, nil
	case i.snap.IsLink:
		return TypeLink, nil
	case i.snap.Lstat.IsDir():
		return TypeDir, nil
	default:
		return TypeFile, nil
	}
}

func (i *ImmutableInfo) IsDir(context.Context) (bool, error)  { return i.snap.Stat.IsDir(), nil }
func (i *ImmutableInfo) IsFile(context.Context) (bool, error) { return i.snap.Stat.IsRegular(), nil }
func (i *ImmutableInfo) IsLink(context.Context) (bool, error) { return i.snap.IsLink, nil }

func (i *ImmutableInfo) IsReadable(context.Context) (bool, error) { return i.snap.Readable, nil }
func (i *ImmutableInfo) IsWritable(context.Context) (bool, error) { return i.snap.Writable, nil }

func (i *ImmutableInfo) IsExecutable(context.Context) (bool, error) {
	return i.snap.Stat != nil && i.snap.Stat.Mode&filesystem.ModeExecAny != 0, nil
}

func (i *ImmutableInfo) attributes(op string) (*filesystem.Attributes, error) {
	if i.snap.Stat == nil {
		return nil, &StatUnavailableError{Op: op, Path: i.snap.Path}
	}

	return i.snap.Stat, nil
}

func (i *ImmutableInfo) Stat(context.Context) (*filesystem.Attributes, error) {
	return i.attributes("Stat")
}

func (i *ImmutableInfo) Size(context.Context) (int64, error) {
	stat, err := i.attributes("Size")
	if err != nil {
		return 0, err
	}

	return stat.Size, nil
}

func (i *ImmutableInfo) ATime(context.Context) (time.Time, error) {
	stat, err := i.attributes("ATime")
	if err != nil {
		return time.Time{}, err
	}

	return stat.ATime, nil
}

func (i *ImmutableInfo) MTime(context.Context) (time.Time, error) {
	stat, err := i.attributes("MTime")
	if err != nil {
		return time.Time{}, err
	}

	return stat.MTime, nil
}

func (i *ImmutableInfo) CTime(context.Context) (time.Time, error) {
	stat, err := i.attributes("CTime")
	if err != nil {
		return time.Time{}, err
	}

	return stat.CTime, nil
}

func (i *ImmutableInfo) Owner(context.Context) (uint32, error) {
	stat, err := i.attributes("Owner")
	if err != nil {
		return 0, err
	}

	return stat.UID, nil
}

func (i *ImmutableInfo) Group(context.Context) (uint32, error) {
	stat, err := i.attributes("Group")
	if err != nil {
		return 0, err
	}

	return stat.GID, nil
}

func (i *ImmutableInfo) Inode(context.Context) (uint64, error) {
	stat, err := i.attributes("Inode")
	if err != nil {
		return 0, err
	}

	return stat.Inode, nil
}

func (i *ImmutableInfo) Permissions(context.Context) (uint32, error) {
	stat, err := i.attributes("Permissions")
	if err != nil {
		return 0, err
	}

	return stat.Permissions(), nil
}

func (i *ImmutableInfo) LinkTarget(context.Context) (string, error) {
	if i.snap.IsLink {
		if i.snap.LinkErr != nil {
			return "", &LinkResolutionError{Path: i.snap.Path, Reason: LinkUnreadable, Err: i.snap.LinkErr}
		}

		return i.snap.LinkTarget, nil
	}

	if i.snap.Lstat == nil {
		return "", &LinkResolutionError{Path: i.snap.Path, Reason: LinkMissing}
	}

	return "", &LinkResolutionError{Path: i.snap.Path, Reason: LinkNotALink}
}

func (i *ImmutableInfo) RealPath(context.Context) (string, bool, error) {
	if i.snap.Stat == nil {
		return "", false, nil
	}

	abs := AbsPath(i.snap.Path, i.snap.WorkDir)

	switch {
	case !i.snap.IsLink || i.snap.LinkTarget == "":
		return abs, true, nil
	case path.IsAbs(i.snap.LinkTarget):
		return NormalizePath(i.snap.LinkTarget), true, nil
	default:
		return JoinPath(Dir(abs), i.snap.LinkTarget), true, nil
	}
}

// Parent captures the containing directory when a factory was supplied.
func (i *ImmutableInfo) Parent(ctx context.Context) (Info, error) {
	parent := parentPath(i.snap.Path)
	if parent == "" {
		return nil, nil //nolint:nilnil // no parent at the root
	}

	if i.factory == nil {
		return nil, &UnsupportedOperationError{Op: "Parent"}
	}

	info := i.factory(ctx, parent)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return info, nil
}

// OpenFile is not offered on snapshots.
func (i *ImmutableInfo) OpenFile() error {
	return &UnsupportedOperationError{Op: "OpenFile"}
}
