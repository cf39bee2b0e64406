package filesystem

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/pkg/sftp"
)

// SFTPFileSystem implements FileSystem over a pool of SFTP sessions. SFTP
// has no device/inode numbers: the device is derived from the remote address
// and the inode from the server-resolved real path, so hard links to one
// file are not recognised as the same entry.
type SFTPFileSystem struct {
	pool   *SFTPClientPool
	device uint64
}

// NewSFTPFileSystem creates a new SFTP filesystem using an established connection.
// If config is nil, DefaultPoolConfig() is used.
func NewSFTPFileSystem(conn *SFTPConnection, config *PoolConfig) (*SFTPFileSystem, error) {
	if config == nil {
		config = DefaultPoolConfig()
	}

	pool, err := NewSFTPClientPool(conn.SSHClient(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create SFTP client pool: %w", err)
	}

	return newSFTPFileSystem(pool, conn.Address()), nil
}

func newSFTPFileSystem(pool *SFTPClientPool, address string) *SFTPFileSystem {
	return &SFTPFileSystem{pool: pool, device: pathIdentity(address)}
}

// Close closes the SFTP client pool and releases all resources.
func (fs *SFTPFileSystem) Close() error {
	return fs.pool.Close()
}

// with runs fn on a pooled session.
func (fs *SFTPFileSystem) with(ctx context.Context, fn func(client *sftp.Client) error) error {
	client, err := fs.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire SFTP client: %w", err)
	}
	defer fs.pool.Release(client)

	return fn(client)
}

// ReadDir lists a remote directory.
func (fs *SFTPFileSystem) ReadDir(ctx context.Context, dir string) ([]string, error) {
	var names []string

	err := fs.with(ctx, func(client *sftp.Client) error {
		infos, err := client.ReadDir(dir)
		if err != nil {
			return err
		}

		names = make([]string, 0, len(infos))
		for _, info := range infos {
			names = append(names, info.Name())
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read remote directory %s: %w", dir, err)
	}

	return names, nil
}

// Stat returns the attributes of p, following symbolic links.
func (fs *SFTPFileSystem) Stat(ctx context.Context, p string) (*Attributes, error) {
	var attrs *Attributes

	err := fs.with(ctx, func(client *sftp.Client) error {
		info, err := client.Stat(p)
		if err != nil {
			return err
		}

		attrs = AttributesFromFileInfo(info, fs.device, pathIdentity(resolveLinks(client, p)))

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to stat remote %s: %w", p, err)
	}

	return attrs, nil
}

// Lstat returns the attributes of p itself. The identity of a link is taken
// from its resolved parent directory plus its own name.
func (fs *SFTPFileSystem) Lstat(ctx context.Context, p string) (*Attributes, error) {
	var attrs *Attributes

	err := fs.with(ctx, func(client *sftp.Client) error {
		info, err := client.Lstat(p)
		if err != nil {
			return err
		}

		name := p
		if info.Mode()&os.ModeSymlink != 0 {
			if dir, err := client.RealPath(path.Dir(p)); err == nil {
				name = path.Join(dir, path.Base(p))
			}
		} else if resolved, err := client.RealPath(p); err == nil {
			name = resolved
		}

		attrs = AttributesFromFileInfo(info, fs.device, pathIdentity(name))

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to lstat remote %s: %w", p, err)
	}

	return attrs, nil
}

// resolveLinks follows p to its final target. Not every server resolves
// symbolic links in realpath, so links are chased explicitly first.
func resolveLinks(client *sftp.Client, p string) string {
	current := p

	for range maxSymlinkHops {
		info, err := client.Lstat(current)
		if err != nil || info.Mode()&os.ModeSymlink == 0 {
			break
		}

		target, err := client.ReadLink(current)
		if err != nil {
			break
		}

		if !path.IsAbs(target) {
			target = path.Join(path.Dir(current), target)
		}

		current = target
	}

	if resolved, err := client.RealPath(current); err == nil {
		return resolved
	}

	return path.Clean(current)
}

// ReadLink returns the target of a remote symbolic link.
func (fs *SFTPFileSystem) ReadLink(ctx context.Context, p string) (string, error) {
	var target string

	err := fs.with(ctx, func(client *sftp.Client) error {
		var err error
		target, err = client.ReadLink(p)

		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to read remote link %s: %w", p, err)
	}

	return target, nil
}

// Exists reports whether p exists on the remote host.
func (fs *SFTPFileSystem) Exists(ctx context.Context, p string) bool {
	_, err := fs.Lstat(ctx, p)

	return err == nil
}

// Access approximates the permission check with the owner permission bits;
// SFTP does not expose the session's credentials.
func (fs *SFTPFileSystem) Access(ctx context.Context, p string, mode AccessMode) bool {
	attrs, err := fs.Stat(ctx, p)
	if err != nil {
		return false
	}

	return permitsOwner(attrs.Mode, mode)
}

// Getwd returns the remote working directory relative paths resolve against.
func (fs *SFTPFileSystem) Getwd(ctx context.Context) (string, error) {
	var wd string

	err := fs.with(ctx, func(client *sftp.Client) error {
		var err error
		wd, err = client.Getwd()

		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to get remote working directory: %w", err)
	}

	return wd, nil
}

// Chmod changes the permission bits of a remote path.
func (fs *SFTPFileSystem) Chmod(ctx context.Context, p string, perm os.FileMode) error {
	err := fs.with(ctx, func(client *sftp.Client) error {
		return client.Chmod(p, perm)
	})
	if err != nil {
		return fmt.Errorf("failed to chmod remote %s: %w", p, err)
	}

	return nil
}

// Chown changes the owner and group of a remote path.
func (fs *SFTPFileSystem) Chown(ctx context.Context, p string, uid, gid int) error {
	err := fs.with(ctx, func(client *sftp.Client) error {
		return client.Chown(p, uid, gid)
	})
	if err != nil {
		return fmt.Errorf("failed to chown remote %s: %w", p, err)
	}

	return nil
}

// Chtimes changes the access and modification times of a remote file.
func (fs *SFTPFileSystem) Chtimes(ctx context.Context, p string, atime, mtime time.Time) error {
	err := fs.with(ctx, func(client *sftp.Client) error {
		return client.Chtimes(p, atime, mtime)
	})
	if err != nil {
		return fmt.Errorf("failed to change times for remote file %s: %w", p, err)
	}

	return nil
}

// Link creates a remote hard link.
func (fs *SFTPFileSystem) Link(ctx context.Context, target, link string) error {
	err := fs.with(ctx, func(client *sftp.Client) error {
		return client.Link(target, link)
	})
	if err != nil {
		return fmt.Errorf("failed to link remote %s: %w", link, err)
	}

	return nil
}

// Symlink creates a remote symbolic link.
func (fs *SFTPFileSystem) Symlink(ctx context.Context, target, link string) error {
	err := fs.with(ctx, func(client *sftp.Client) error {
		return client.Symlink(target, link)
	})
	if err != nil {
		return fmt.Errorf("failed to symlink remote %s: %w", link, err)
	}

	return nil
}

// Rename moves a remote path.
func (fs *SFTPFileSystem) Rename(ctx context.Context, from, to string) error {
	err := fs.with(ctx, func(client *sftp.Client) error {
		return client.Rename(from, to)
	})
	if err != nil {
		return fmt.Errorf("failed to rename remote %s: %w", from, err)
	}

	return nil
}

// Remove removes a remote file or empty directory.
func (fs *SFTPFileSystem) Remove(ctx context.Context, p string) error {
	err := fs.with(ctx, func(client *sftp.Client) error {
		return client.Remove(p)
	})
	if err != nil {
		return fmt.Errorf("failed to remove remote %s: %w", p, err)
	}

	return nil
}

// Mkdir creates a remote directory, and its parents when recursive is set.
// The server's umask applies before perm is set explicitly.
func (fs *SFTPFileSystem) Mkdir(ctx context.Context, p string, perm os.FileMode, recursive bool) error {
	err := fs.with(ctx, func(client *sftp.Client) error {
		mkdir := client.Mkdir
		if recursive {
			mkdir = client.MkdirAll
		}

		if err := mkdir(p); err != nil {
			return err
		}

		return client.Chmod(p, perm)
	})
	if err != nil {
		return fmt.Errorf("failed to create remote directory %s: %w", p, err)
	}

	return nil
}

// Open opens a remote file for reading.
func (fs *SFTPFileSystem) Open(ctx context.Context, p string) (File, error) {
	return fs.pooledFile(ctx, p, (*sftp.Client).Open)
}

// Create creates a remote file for writing.
func (fs *SFTPFileSystem) Create(ctx context.Context, p string) (File, error) {
	return fs.pooledFile(ctx, p, (*sftp.Client).Create)
}

// pooledFile keeps the session checked out until the file is closed.
func (fs *SFTPFileSystem) pooledFile(
	ctx context.Context,
	p string,
	open func(*sftp.Client, string) (*sftp.File, error),
) (File, error) {
	client, err := fs.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire SFTP client: %w", err)
	}

	file, err := open(client, p)
	if err != nil {
		fs.pool.Release(client)

		return nil, fmt.Errorf("failed to open remote file %s: %w", p, err)
	}

	pooled, err := NewPooledSFTPFile(file, client, fs.pool)
	if err != nil {
		_ = file.Close()
		fs.pool.Release(client)

		return nil, fmt.Errorf("failed to create pooled file: %w", err)
	}

	return pooled, nil
}

// ResizePool sets the target number of SFTP sessions.
func (fs *SFTPFileSystem) ResizePool(targetSize int) {
	fs.pool.Resize(targetSize)
}

// PoolSize returns the number of open SFTP sessions.
func (fs *SFTPFileSystem) PoolSize() int {
	return fs.pool.Size()
}

// PoolTargetSize returns the target number of SFTP sessions.
func (fs *SFTPFileSystem) PoolTargetSize() int {
	return fs.pool.TargetSize()
}
