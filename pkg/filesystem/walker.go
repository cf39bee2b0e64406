package filesystem

import (
	"context"
	"fmt"
	"os"
	"path"
	"sort"
	"time"

	"github.com/kr/fs"
)

// WalkEntry is one path produced by a Walker.
type WalkEntry struct {
	Path       string
	Attributes *Attributes
}

// Walker is a sequential, lexically ordered iterator over a tree, reading
// through a Driver. Unlike the concurrent scanner it does not follow symbolic
// links: entries are reported with their lstat attributes.
//
// Paths that cannot be read are skipped and collected in Problems; Err only
// reports that the context ended.
type Walker struct {
	ctx      context.Context //nolint:containedctx // iterator bound to one walk
	walker   *fs.Walker
	problems []error
	err      error
}

// NewWalker starts a walk of root.
func NewWalker(ctx context.Context, driver Driver, root string) *Walker {
	w := &Walker{ctx: ctx}
	w.walker = fs.WalkFS(root, &driverFS{ctx: ctx, driver: driver, walker: w})

	return w
}

// Next advances to the next entry and returns it.
// Returns (WalkEntry{}, false) when done or when the context ended.
func (w *Walker) Next() (WalkEntry, bool) {
	for w.err == nil && w.walker.Step() {
		if err := w.ctx.Err(); err != nil {
			w.err = err

			break
		}

		if err := w.walker.Err(); err != nil {
			w.problems = append(w.problems, fmt.Errorf("failed to walk %s: %w", w.walker.Path(), err))

			continue
		}

		attrs, _ := w.walker.Stat().Sys().(*Attributes)

		return WalkEntry{Path: w.walker.Path(), Attributes: attrs}, true
	}

	return WalkEntry{}, false
}

// Err returns the context error that stopped the walk, if any.
func (w *Walker) Err() error {
	return w.err
}

// Problems returns the failures skipped so far.
func (w *Walker) Problems() []error {
	return w.problems
}

// driverFS adapts a Driver to kr/fs.FileSystem.
type driverFS struct {
	ctx    context.Context //nolint:containedctx // see Walker
	driver Driver
	walker *Walker
}

func (d *driverFS) ReadDir(dir string) ([]os.FileInfo, error) {
	names, err := d.driver.ReadDir(d.ctx, dir)
	if err != nil {
		return nil, err
	}

	sort.Strings(names)

	infos := make([]os.FileInfo, 0, len(names))

	for _, name := range names {
		child := d.Join(dir, name)

		info, err := d.Lstat(child)
		if err != nil {
			d.walker.problems = append(d.walker.problems, fmt.Errorf("failed to walk %s: %w", child, err))

			continue
		}

		infos = append(infos, info)
	}

	return infos, nil
}

func (d *driverFS) Lstat(name string) (os.FileInfo, error) {
	attrs, err := d.driver.Lstat(d.ctx, name)
	if err != nil {
		return nil, err
	}

	return &attributeInfo{name: path.Base(name), attrs: attrs}, nil
}

func (d *driverFS) Join(elem ...string) string {
	return path.Join(elem...)
}

// attributeInfo presents Attributes as an os.FileInfo; Sys returns the
// *Attributes.
type attributeInfo struct {
	name  string
	attrs *Attributes
}

func (fi *attributeInfo) Name() string       { return fi.name }
func (fi *attributeInfo) Size() int64        { return fi.attrs.Size }
func (fi *attributeInfo) Mode() os.FileMode  { return fi.attrs.FileMode() }
func (fi *attributeInfo) ModTime() time.Time { return fi.attrs.MTime }
func (fi *attributeInfo) IsDir() bool        { return fi.attrs.IsDir() }
func (fi *attributeInfo) Sys() any           { return fi.attrs }
