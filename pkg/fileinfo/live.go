package fileinfo

import (
	"context"
	"path"
	"time"

	"github.com/joe/fsinfo/pkg/filesystem"
)

// LiveInfo queries the driver on demand through a Resolver.
type LiveInfo struct {
	path     string
	resolver *Resolver
	driver   filesystem.Driver
	opts     Options
}

// NewLive creates a LiveInfo for p.
func NewLive(p string, driver filesystem.Driver, opts Options) *LiveInfo {
	p = NormalizePath(p)

	return &LiveInfo{
		path:     p,
		resolver: NewResolver(p, driver, opts),
		driver:   driver,
		opts:     opts,
	}
}

// LiveFactory returns a Factory producing LiveInfo.
func LiveFactory(driver filesystem.Driver, opts Options) Factory {
	return func(_ context.Context, p string) Info {
		return NewLive(p, driver, opts)
	}
}

// Resolver exposes the attribute cache, for explicit invalidation.
func (i *LiveInfo) Resolver() *Resolver { return i.resolver }

func (i *LiveInfo) Path() string                  { return i.path }
func (i *LiveInfo) Basename(suffix string) string { return Basename(i.path, suffix) }
func (i *LiveInfo) Filename() string              { return Filename(i.path) }
func (i *LiveInfo) Extension() string             { return Extension(i.path) }
func (i *LiveInfo) Dir() string                   { return Dir(i.path) }
func (i *LiveInfo) LastError() error              { return i.resolver.LastError() }

// Type classifies the entry from lstat first, so a link is reported as a
// link whatever it points at.
func (i *LiveInfo) Type(ctx context.Context) (Type, error) {
	lstat, err := i.resolver.Lstat(ctx)
	if err != nil || lstat == nil {
		return TypeNone, err
	}

	link, err := i.resolver.IsLink(ctx)
	if err != nil {
		return TypeNone, err
	}

	switch {
	case link:
		return TypeLink, nil
	case lstat.IsDir():
		return TypeDir, nil
	default:
		return TypeFile, nil
	}
}

// IsDir reports whether the path resolves to a directory, following links.
func (i *LiveInfo) IsDir(ctx context.Context) (bool, error) {
	stat, err := i.resolver.Stat(ctx)

	return stat.IsDir(), err
}

// IsFile reports whether the path resolves to a regular file, following links.
func (i *LiveInfo) IsFile(ctx context.Context) (bool, error) {
	stat, err := i.resolver.Stat(ctx)

	return stat.IsRegular(), err
}

func (i *LiveInfo) IsLink(ctx context.Context) (bool, error) {
	return i.resolver.IsLink(ctx)
}

func (i *LiveInfo) IsReadable(ctx context.Context) (bool, error) {
	return i.access(ctx, filesystem.AccessRead)
}

func (i *LiveInfo) IsWritable(ctx context.Context) (bool, error) {
	return i.access(ctx, filesystem.AccessWrite)
}

// IsExecutable reports whether any execute bit is set.
func (i *LiveInfo) IsExecutable(ctx context.Context) (bool, error) {
	stat, err := i.resolver.Stat(ctx)
	if err != nil || stat == nil {
		return false, err
	}

	return stat.Mode&filesystem.ModeExecAny != 0, nil
}

func (i *LiveInfo) access(ctx context.Context, mode filesystem.AccessMode) (bool, error) {
	stat, err := i.resolver.Stat(ctx)
	if err != nil || stat == nil {
		return false, err
	}

	ok := i.resolver.Access(ctx, mode)

	return ok, ctx.Err()
}

// Stat returns the followed attributes.
func (i *LiveInfo) Stat(ctx context.Context) (*filesystem.Attributes, error) {
	return i.attributes(ctx, "Stat")
}

func (i *LiveInfo) attributes(ctx context.Context, op string) (*filesystem.Attributes, error) {
	stat, err := i.resolver.Stat(ctx)
	if err != nil {
		return nil, err
	}

	if stat == nil {
		return nil, &StatUnavailableError{Op: op, Path: i.path}
	}

	return stat, nil
}

func (i *LiveInfo) Size(ctx context.Context) (int64, error) {
	stat, err := i.attributes(ctx, "Size")
	if err != nil {
		return 0, err
	}

	return stat.Size, nil
}

func (i *LiveInfo) ATime(ctx context.Context) (time.Time, error) {
	stat, err := i.attributes(ctx, "ATime")
	if err != nil {
		return time.Time{}, err
	}

	return stat.ATime, nil
}

func (i *LiveInfo) MTime(ctx context.Context) (time.Time, error) {
	stat, err := i.attributes(ctx, "MTime")
	if err != nil {
		return time.Time{}, err
	}

	return stat.MTime, nil
}

func (i *LiveInfo) CTime(ctx context.Context) (time.Time, error) {
	stat, err := i.attributes(ctx, "CTime")
	if err != nil {
		return time.Time{}, err
	}

	return stat.CTime, nil
}

func (i *LiveInfo) Owner(ctx context.Context) (uint32, error) {
	stat, err := i.attributes(ctx, "Owner")
	if err != nil {
		return 0, err
	}

	return stat.UID, nil
}

func (i *LiveInfo) Group(ctx context.Context) (uint32, error) {
	stat, err := i.attributes(ctx, "Group")
	if err != nil {
		return 0, err
	}

	return stat.GID, nil
}

func (i *LiveInfo) Inode(ctx context.Context) (uint64, error) {
	stat, err := i.attributes(ctx, "Inode")
	if err != nil {
		return 0, err
	}

	return stat.Inode, nil
}

func (i *LiveInfo) Permissions(ctx context.Context) (uint32, error) {
	stat, err := i.attributes(ctx, "Permissions")
	if err != nil {
		return 0, err
	}

	return stat.Permissions(), nil
}

// LinkTarget returns the raw target of the link.
func (i *LiveInfo) LinkTarget(ctx context.Context) (string, error) {
	link, err := i.resolver.IsLink(ctx)
	if err != nil {
		return "", err
	}

	if !link {
		return "", i.notALink(ctx)
	}

	target, ok, err := i.resolver.ReadLink(ctx)
	if err != nil {
		return "", err
	}

	if !ok {
		return "", &LinkResolutionError{Path: i.path, Reason: LinkUnreadable, Err: i.resolver.LastError()}
	}

	return target, nil
}

func (i *LiveInfo) notALink(ctx context.Context) error {
	lstat, err := i.resolver.Lstat(ctx)
	if err != nil {
		return err
	}

	if lstat == nil {
		return &LinkResolutionError{Path: i.path, Reason: LinkMissing}
	}

	return &LinkResolutionError{Path: i.path, Reason: LinkNotALink}
}

// RealPath resolves a final link one level, against the link's directory for
// a relative target, and makes the result absolute with the working
// directory captured at stat time.
func (i *LiveInfo) RealPath(ctx context.Context) (string, bool, error) {
	stat, err := i.resolver.Stat(ctx)
	if err != nil || stat == nil {
		return "", false, err
	}

	abs := AbsPath(i.path, i.resolver.WorkDir())

	link, err := i.resolver.IsLink(ctx)
	if err != nil || !link {
		return abs, err == nil, err
	}

	target, ok, err := i.resolver.ReadLink(ctx)
	if err != nil || !ok {
		return abs, err == nil, err
	}

	if path.IsAbs(target) {
		return NormalizePath(target), true, nil
	}

	return JoinPath(Dir(abs), target), true, nil
}

// Parent describes the containing directory with the same driver and options.
func (i *LiveInfo) Parent(_ context.Context) (Info, error) {
	parent := parentPath(i.path)
	if parent == "" {
		return nil, nil //nolint:nilnil // no parent at the root
	}

	return NewLive(parent, i.driver, i.opts), nil
}

// OpenFile is not offered; open files through the filesystem instead.
func (i *LiveInfo) OpenFile() error {
	return &UnsupportedOperationError{Op: "OpenFile"}
}
