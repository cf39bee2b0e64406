package fileinfo

import (
	"context"
	"time"

	"github.com/joe/fsinfo/pkg/filesystem"
)

// Type classifies an entry.
type Type int

// Entry types. TypeNone means nothing exists at the path.
const (
	TypeNone Type = iota
	TypeFile
	TypeDir
	TypeLink
)

func (t Type) String() string {
	switch t {
	case TypeFile:
		return "file"
	case TypeDir:
		return "dir"
	case TypeLink:
		return "link"
	case TypeNone:
		return "none"
	}

	return "unknown"
}

// Info describes one filesystem entry. Predicates report false for a path
// whose attributes cannot be obtained; value accessors fail with
// *StatUnavailableError. Live implementations may block on the driver and
// return the context's error; snapshots never block.
type Info interface {
	Path() string
	Basename(suffix string) string
	Filename() string
	Extension() string
	Dir() string

	Type(ctx context.Context) (Type, error)
	IsDir(ctx context.Context) (bool, error)
	IsFile(ctx context.Context) (bool, error)
	IsLink(ctx context.Context) (bool, error)
	IsReadable(ctx context.Context) (bool, error)
	IsWritable(ctx context.Context) (bool, error)
	IsExecutable(ctx context.Context) (bool, error)

	Stat(ctx context.Context) (*filesystem.Attributes, error)
	Size(ctx context.Context) (int64, error)
	ATime(ctx context.Context) (time.Time, error)
	MTime(ctx context.Context) (time.Time, error)
	CTime(ctx context.Context) (time.Time, error)
	Owner(ctx context.Context) (uint32, error)
	Group(ctx context.Context) (uint32, error)
	Inode(ctx context.Context) (uint64, error)
	Permissions(ctx context.Context) (uint32, error)

	// LinkTarget returns the raw target of a symbolic link, or a
	// *LinkResolutionError when the path is not one.
	LinkTarget(ctx context.Context) (string, error)
	// RealPath returns the normalized absolute path, following a final
	// link one level; ok is false when the entry does not exist.
	RealPath(ctx context.Context) (realPath string, ok bool, err error)

	// Parent describes the containing directory, nil at the root.
	Parent(ctx context.Context) (Info, error)
	// LastError is the most recent driver failure absorbed while
	// describing the entry.
	LastError() error
}

// Factory builds an Info for a path. Scanners and facades receive one so the
// Info flavor can be chosen without changing them.
type Factory func(ctx context.Context, path string) Info

// parentPath returns the parent of p, or "" when p has none.
func parentPath(p string) string {
	parent := Dir(p)
	if parent == p || p == "." {
		return ""
	}

	return parent
}
