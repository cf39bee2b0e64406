package filesystem

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("pool is closed")

// SFTPClientPool manages SFTP sessions over a single SSH connection. The
// buffered channel doubles as the semaphore bounding concurrent requests.
type SFTPClientPool struct {
	clients    chan *sftp.Client
	minSize    int
	maxSize    int
	targetSize atomic.Int32
	actualSize atomic.Int32
	mu         sync.Mutex
	closed     bool
	newClient  func() (*sftp.Client, error)
}

// PoolConfig configures the SFTP client pool size limits.
type PoolConfig struct {
	InitialSize int
	MinSize     int
	MaxSize     int
}

// DefaultPoolConfig returns the pool limits used when none are given.
func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{InitialSize: 4, MinSize: 1, MaxSize: 16}
}

// Validate checks 0 < MinSize <= InitialSize <= MaxSize.
func (c *PoolConfig) Validate() error {
	if c.MinSize <= 0 {
		return fmt.Errorf("minSize must be greater than 0, got %d", c.MinSize) //nolint:err113 // carries values
	}

	if c.InitialSize < c.MinSize {
		return fmt.Errorf("initialSize (%d) must be >= minSize (%d)", c.InitialSize, c.MinSize) //nolint:err113 // carries values
	}

	if c.InitialSize > c.MaxSize {
		return fmt.Errorf("initialSize (%d) must be <= maxSize (%d)", c.InitialSize, c.MaxSize) //nolint:err113 // carries values
	}

	return nil
}

// NewSFTPClientPool opens config.InitialSize sessions on sshClient.
func NewSFTPClientPool(sshClient *ssh.Client, config *PoolConfig) (*SFTPClientPool, error) {
	return newClientPool(func() (*sftp.Client, error) {
		return sftp.NewClient(sshClient)
	}, config)
}

func newClientPool(newClient func() (*sftp.Client, error), config *PoolConfig) (*SFTPClientPool, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	pool := &SFTPClientPool{
		clients:   make(chan *sftp.Client, config.MaxSize),
		minSize:   config.MinSize,
		maxSize:   config.MaxSize,
		newClient: newClient,
	}
	pool.targetSize.Store(int32(config.InitialSize)) //nolint:gosec // bounded by MaxSize

	for i := range config.InitialSize {
		client, err := pool.newClient()
		if err != nil {
			_ = pool.Close()

			return nil, fmt.Errorf("failed to create client %d/%d: %w", i+1, config.InitialSize, err)
		}

		pool.clients <- client
		pool.actualSize.Add(1)
	}

	return pool, nil
}

// Acquire takes a session from the pool, waiting until one is free or ctx
// ends.
func (p *SFTPClientPool) Acquire(ctx context.Context) (*sftp.Client, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()

	if closed {
		return nil, ErrPoolClosed
	}

	select {
	case client, ok := <-p.clients:
		if !ok {
			return nil, ErrPoolClosed
		}

		return client, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a session. Sessions above the target size are closed
// instead (lazy scale-down); after Close every released session is closed.
func (p *SFTPClientPool) Release(client *sftp.Client) {
	if client == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		_ = client.Close()

		return
	}

	for {
		target := p.targetSize.Load()
		actual := p.actualSize.Load()

		if actual <= target {
			break
		}

		if p.actualSize.CompareAndSwap(actual, actual-1) {
			_ = client.Close()

			return
		}
	}

	select {
	case p.clients <- client:
	default:
		p.actualSize.Add(-1)
		_ = client.Close()
	}
}

// Close closes every idle session. It does not close the SSH connection.
func (p *SFTPClientPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true
	close(p.clients)

	var firstErr error

	for client := range p.clients {
		if err := client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	p.actualSize.Store(0)
	p.targetSize.Store(0)

	return firstErr
}

// Resize sets the target size, clamped to [min, max]. Growth is immediate,
// shrinking happens as sessions are released.
func (p *SFTPClientPool) Resize(targetSize int) {
	clamped := min(max(targetSize, p.minSize), p.maxSize)
	p.targetSize.Store(int32(clamped)) //nolint:gosec // clamped

	p.mu.Lock()
	defer p.mu.Unlock()

	for !p.closed && p.actualSize.Load() < p.targetSize.Load() {
		client, err := p.newClient()
		if err != nil {
			return
		}

		select {
		case p.clients <- client:
			p.actualSize.Add(1)
		default:
			_ = client.Close()

			return
		}
	}
}

// Size returns the number of open sessions.
func (p *SFTPClientPool) Size() int {
	return int(p.actualSize.Load())
}

// TargetSize returns the desired number of sessions.
func (p *SFTPClientPool) TargetSize() int {
	return int(p.targetSize.Load())
}

// MinSize returns the minimum pool size.
func (p *SFTPClientPool) MinSize() int {
	return p.minSize
}

// MaxSize returns the maximum pool size.
func (p *SFTPClientPool) MaxSize() int {
	return p.maxSize
}
