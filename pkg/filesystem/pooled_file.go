package filesystem

import (
	"errors"
	"io/fs"
	"sync"

	"github.com/pkg/sftp"
)

// clientReleaser is the part of SFTPClientPool a pooled file needs.
type clientReleaser interface {
	Release(client *sftp.Client)
}

// PooledSFTPFile is a remote file that holds a pool session for its whole
// lifetime and hands it back on Close.
type PooledSFTPFile struct {
	file   File
	client *sftp.Client
	pool   clientReleaser
	mu     sync.Mutex
	closed bool
}

// NewPooledSFTPFile wraps file, opened on client, so that Close releases
// client to pool.
func NewPooledSFTPFile(file File, client *sftp.Client, pool clientReleaser) (*PooledSFTPFile, error) {
	switch {
	case file == nil:
		return nil, errors.New("file cannot be nil")
	case client == nil:
		return nil, errors.New("client cannot be nil")
	case pool == nil:
		return nil, errors.New("pool cannot be nil")
	}

	return &PooledSFTPFile{file: file, client: client, pool: pool}, nil
}

func (f *PooledSFTPFile) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.closed
}

// Read reads from the remote file.
func (f *PooledSFTPFile) Read(p []byte) (int, error) {
	if f.isClosed() {
		return 0, fs.ErrClosed
	}

	return f.file.Read(p)
}

// Write writes to the remote file.
func (f *PooledSFTPFile) Write(p []byte) (int, error) {
	if f.isClosed() {
		return 0, fs.ErrClosed
	}

	return f.file.Write(p)
}

// Close closes the remote file and always releases the session, even when
// closing fails. Repeated calls are no-ops.
func (f *PooledSFTPFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}

	f.closed = true
	err := f.file.Close()
	f.pool.Release(f.client)

	return err
}

// Stat returns the remote file's information.
func (f *PooledSFTPFile) Stat() (fs.FileInfo, error) {
	if f.isClosed() {
		return nil, fs.ErrClosed
	}

	return f.file.Stat()
}
