// Package filesystem provides the driver boundary used to inspect and modify
// filesystems, with local, SFTP and in-memory implementations.
package filesystem

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// AccessMode selects the permission probed by Driver.Access.
type AccessMode int

// Access probes.
const (
	AccessRead AccessMode = iota
	AccessWrite
	AccessExecute
)

// File is an interface that abstracts file operations.
// This allows us to work with both real files and mock files.
type File interface {
	io.Reader
	io.Writer
	io.Closer
	Stat() (os.FileInfo, error)
}

// Driver is the read side of a filesystem: everything a scan or a describe
// needs. Stat and Lstat return an error wrapping fs.ErrNotExist for missing
// paths. Implementations must be safe for concurrent use.
type Driver interface {
	// ReadDir returns the names of the entries of a directory, without "." and "..".
	ReadDir(ctx context.Context, path string) ([]string, error)
	// Stat returns the attributes of path, following symbolic links.
	Stat(ctx context.Context, path string) (*Attributes, error)
	// Lstat returns the attributes of path itself.
	Lstat(ctx context.Context, path string) (*Attributes, error)
	// ReadLink returns the raw target of a symbolic link.
	ReadLink(ctx context.Context, path string) (string, error)
	Exists(ctx context.Context, path string) bool
	// Access reports whether the current user holds the given permission.
	Access(ctx context.Context, path string, mode AccessMode) bool
}

// FileSystem is a Driver that can also modify the filesystem.
type FileSystem interface {
	Driver

	Chmod(ctx context.Context, path string, perm os.FileMode) error
	Chown(ctx context.Context, path string, uid, gid int) error
	Chtimes(ctx context.Context, path string, atime, mtime time.Time) error
	Link(ctx context.Context, target, link string) error
	Symlink(ctx context.Context, target, link string) error
	Rename(ctx context.Context, from, to string) error
	Remove(ctx context.Context, path string) error
	Mkdir(ctx context.Context, path string, perm os.FileMode, recursive bool) error
	Open(ctx context.Context, path string) (File, error)
	Create(ctx context.Context, path string) (File, error)
}

// RealFileSystem implements FileSystem on the local operating system.
type RealFileSystem struct{}

// NewRealFileSystem creates a new RealFileSystem instance.
func NewRealFileSystem() *RealFileSystem {
	return &RealFileSystem{}
}

// Access reports whether the current user holds the given permission on path.
func (fs *RealFileSystem) Access(ctx context.Context, path string, mode AccessMode) bool {
	if ctx.Err() != nil {
		return false
	}

	return accessPath(path, mode)
}

// Chmod changes the permission bits of path.
func (fs *RealFileSystem) Chmod(ctx context.Context, path string, perm os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Chmod(path, perm)
	if err != nil {
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}

	return nil
}

// Chown changes the owner and group of path.
func (fs *RealFileSystem) Chown(ctx context.Context, path string, uid, gid int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Chown(path, uid, gid)
	if err != nil {
		return fmt.Errorf("failed to chown %s: %w", path, err)
	}

	return nil
}

// Chtimes changes the access and modification times of a file.
func (fs *RealFileSystem) Chtimes(ctx context.Context, path string, atime, mtime time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Chtimes(path, atime, mtime)
	if err != nil {
		return fmt.Errorf("failed to change times for %s: %w", path, err)
	}

	return nil
}

// Create creates a file for writing.
func (fs *RealFileSystem) Create(ctx context.Context, path string) (File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	return file, nil
}

// Exists reports whether path exists without following a final symlink.
func (fs *RealFileSystem) Exists(ctx context.Context, path string) bool {
	_, err := fs.Lstat(ctx, path)

	return err == nil
}

// Link creates a hard link named link pointing at target.
func (fs *RealFileSystem) Link(ctx context.Context, target, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Link(target, link)
	if err != nil {
		return fmt.Errorf("failed to link %s: %w", link, err)
	}

	return nil
}

// Lstat returns the attributes of path without following a final symlink.
func (fs *RealFileSystem) Lstat(ctx context.Context, path string) (*Attributes, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	attrs, err := statPath(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to lstat %s: %w", path, err)
	}

	return attrs, nil
}

// Mkdir creates a directory, and its parents when recursive is set.
func (fs *RealFileSystem) Mkdir(ctx context.Context, path string, perm os.FileMode, recursive bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mkdir := os.Mkdir
	if recursive {
		mkdir = os.MkdirAll
	}

	err := mkdir(path, perm)
	if err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}

	return nil
}

// Open opens a file for reading.
func (fs *RealFileSystem) Open(ctx context.Context, path string) (File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	return file, nil
}

// ReadDir returns the entry names of a directory.
func (fs *RealFileSystem) ReadDir(ctx context.Context, path string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
	}
	defer dir.Close()

	names, err := dir.Readdirnames(-1)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
	}

	return names, nil
}

// ReadLink returns the target of a symbolic link.
func (fs *RealFileSystem) ReadLink(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	target, err := os.Readlink(path)
	if err != nil {
		return "", fmt.Errorf("failed to read link %s: %w", path, err)
	}

	return target, nil
}

// Remove removes a file or empty directory.
func (fs *RealFileSystem) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(path)
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}

	return nil
}

// Rename moves from to to.
func (fs *RealFileSystem) Rename(ctx context.Context, from, to string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Rename(from, to)
	if err != nil {
		return fmt.Errorf("failed to rename %s: %w", from, err)
	}

	return nil
}

// Stat returns the attributes of path, following symbolic links.
func (fs *RealFileSystem) Stat(ctx context.Context, path string) (*Attributes, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	attrs, err := statPath(path, true)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	return attrs, nil
}

// Symlink creates a symbolic link named link pointing at target.
func (fs *RealFileSystem) Symlink(ctx context.Context, target, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Symlink(target, link)
	if err != nil {
		return fmt.Errorf("failed to symlink %s: %w", link, err)
	}

	return nil
}
