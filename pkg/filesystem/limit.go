package filesystem

import (
	"context"
)

// limitedDriver bounds the number of driver calls in flight. A slot is held
// only for the duration of a single call, so callers that nest calls (a scan
// listing a directory while its parent waits) cannot starve each other.
type limitedDriver struct {
	driver Driver
	slots  chan struct{}
}

// Limit wraps driver so that at most n calls run at once. n <= 0 returns the
// driver unchanged.
func Limit(driver Driver, n int) Driver {
	if n <= 0 {
		return driver
	}

	return &limitedDriver{driver: driver, slots: make(chan struct{}, n)}
}

func (l *limitedDriver) acquire(ctx context.Context) error {
	select {
	case l.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *limitedDriver) release() {
	<-l.slots
}

func (l *limitedDriver) ReadDir(ctx context.Context, path string) ([]string, error) {
	if err := l.acquire(ctx); err != nil {
		return nil, err
	}
	defer l.release()

	return l.driver.ReadDir(ctx, path)
}

func (l *limitedDriver) Stat(ctx context.Context, path string) (*Attributes, error) {
	if err := l.acquire(ctx); err != nil {
		return nil, err
	}
	defer l.release()

	return l.driver.Stat(ctx, path)
}

func (l *limitedDriver) Lstat(ctx context.Context, path string) (*Attributes, error) {
	if err := l.acquire(ctx); err != nil {
		return nil, err
	}
	defer l.release()

	return l.driver.Lstat(ctx, path)
}

func (l *limitedDriver) ReadLink(ctx context.Context, path string) (string, error) {
	if err := l.acquire(ctx); err != nil {
		return "", err
	}
	defer l.release()

	return l.driver.ReadLink(ctx, path)
}

func (l *limitedDriver) Exists(ctx context.Context, path string) bool {
	if l.acquire(ctx) != nil {
		return false
	}
	defer l.release()

	return l.driver.Exists(ctx, path)
}

func (l *limitedDriver) Access(ctx context.Context, path string, mode AccessMode) bool {
	if l.acquire(ctx) != nil {
		return false
	}
	defer l.release()

	return l.driver.Access(ctx, path, mode)
}
