package filesystem

import "context"

// ResizablePool is implemented by drivers backed by a connection pool. The
// facade sizes the pool to its in-flight limit when one is configured.
type ResizablePool interface {
	ResizePool(targetSize int)
	PoolSize() int
	PoolTargetSize() int
}

// WorkDirProvider is implemented by drivers whose relative paths are not
// relative to the local process working directory.
type WorkDirProvider interface {
	Getwd(ctx context.Context) (string, error)
}
