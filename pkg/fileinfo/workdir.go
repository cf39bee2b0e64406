package fileinfo

import "context"

type workDirKey struct{}

// WithWorkDir returns a context carrying the working directory relative
// paths resolve against.
func WithWorkDir(ctx context.Context, dir string) context.Context {
	return context.WithValue(ctx, workDirKey{}, dir)
}

// WorkDirFrom returns the working directory set by WithWorkDir.
func WorkDirFrom(ctx context.Context) (string, bool) {
	dir, ok := ctx.Value(workDirKey{}).(string)

	return dir, ok
}
