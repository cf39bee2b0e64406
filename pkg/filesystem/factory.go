package filesystem

import (
	"context"
	"fmt"
)

// Open resolves target to a FileSystem. It returns the filesystem, the path
// to use with it (stripped of any URL prefix) and a closer releasing remote
// connections; the closer is never nil.
func Open(ctx context.Context, target string, pool *PoolConfig) (FileSystem, string, func(), error) {
	loc, err := ParseLocation(target)
	if err != nil {
		return nil, "", nil, err
	}

	if !loc.Remote {
		return NewRealFileSystem(), loc.Path, func() {}, nil
	}

	conn, err := Connect(ctx, loc.Host, loc.Port, loc.User)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to connect to %s@%s:%d: %w", loc.User, loc.Host, loc.Port, err)
	}

	sfs, err := NewSFTPFileSystem(conn, pool)
	if err != nil {
		_ = conn.Close()

		return nil, "", nil, err
	}

	closer := func() {
		_ = sfs.Close()
		_ = conn.Close()
	}

	return sfs, loc.Path, closer, nil
}
