package filesystem

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"
)

// MockOp names a driver call of the MockFileSystem for delay and failure
// injection.
type MockOp string

// Injectable operations.
const (
	OpReadDir  MockOp = "readdir"
	OpStat     MockOp = "stat"
	OpLstat    MockOp = "lstat"
	OpReadLink MockOp = "readlink"
)

const (
	mockDevice     = 1
	maxSymlinkHops = 40
)

// errEmptyListing is returned by ReadDir for empty directories when
// FailEmptyListings is enabled, mimicking drivers that report an error there.
var errEmptyListing = errors.New("no entries in directory")

// MockFileSystem is an in-memory filesystem implementation for testing.
// Paths are slash separated; relative paths are taken relative to "/".
type MockFileSystem struct {
	mu         sync.RWMutex
	files      map[string]*mockFile
	nextInode  uint64
	delays     map[mockKey]time.Duration
	failures   map[mockKey]error
	failEmpty  bool
	calls      map[MockOp]int
	now        func() time.Time
	defaultUID uint32
	defaultGID uint32
}

type mockKey struct {
	op   MockOp
	path string
}

// mockFile represents a node in the mock filesystem. Hard links share one
// node between several paths.
type mockFile struct {
	inode   uint64
	data    []byte
	mode    uint32
	target  string
	nlink   uint64
	uid     uint32
	gid     uint32
	atime   time.Time
	modTime time.Time
	ctime   time.Time
}

func (f *mockFile) isDir() bool     { return f.mode&ModeTypeMask == ModeDir }
func (f *mockFile) isSymlink() bool { return f.mode&ModeTypeMask == ModeSymlink }

// stat reports the node as a name→value record, the schema loosely keyed
// drivers use.
func (f *mockFile) stat() map[string]int64 {
	values := map[string]int64{
		"dev":  mockDevice,
		"ino":  int64(f.inode), //nolint:gosec // inodes are allocated sequentially
		"mode": int64(f.mode),
		"link": int64(f.nlink), //nolint:gosec // small link counts
		"uid":  int64(f.uid),
		"gid":  int64(f.gid),
		"size": int64(len(f.data)),
	}

	for name, t := range map[string]time.Time{"atime": f.atime, "mtime": f.modTime, "ctime": f.ctime} {
		values[name] = t.Unix()
		values[name+"_nsec"] = int64(t.Nanosecond())
	}

	return values
}

func (f *mockFile) attributes() (*Attributes, error) {
	return AttributesFromMap(f.stat())
}

// mockFileHandle implements the File interface for reading/writing.
type mockFileHandle struct {
	fs     *MockFileSystem
	path   string
	reader *bytes.Reader
	writer *bytes.Buffer
	closed bool
}

func (f *mockFileHandle) Read(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}

	if f.reader == nil {
		return 0, io.EOF
	}

	return f.reader.Read(p)
}

func (f *mockFileHandle) Write(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}

	if f.writer == nil {
		return 0, fmt.Errorf("failed to write %s: opened read-only", f.path)
	}

	return f.writer.Write(p)
}

func (f *mockFileHandle) Close() error {
	if f.closed {
		return os.ErrClosed
	}

	f.closed = true

	if f.writer == nil {
		return nil
	}

	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()

	file, ok := f.fs.files[f.path]
	if !ok {
		return fmt.Errorf("failed to close %s: %w", f.path, os.ErrNotExist)
	}

	file.data = append([]byte(nil), f.writer.Bytes()...)
	file.modTime = f.fs.now()

	return nil
}

func (f *mockFileHandle) Stat() (os.FileInfo, error) {
	if f.closed {
		return nil, os.ErrClosed
	}

	f.fs.mu.RLock()
	defer f.fs.mu.RUnlock()

	file, ok := f.fs.files[f.path]
	if !ok {
		return nil, os.ErrNotExist
	}

	attrs, err := file.attributes()
	if err != nil {
		return nil, err
	}

	return &attributeInfo{name: path.Base(f.path), attrs: attrs}, nil
}

// NewMockFileSystem creates a new in-memory filesystem holding only "/".
func NewMockFileSystem() *MockFileSystem {
	mfs := &MockFileSystem{
		files:    make(map[string]*mockFile),
		delays:   make(map[mockKey]time.Duration),
		failures: make(map[mockKey]error),
		calls:    make(map[MockOp]int),
		now:      time.Now,
	}
	mfs.files["/"] = mfs.newNodeLocked(ModeDir|0o755, mfs.now())

	return mfs
}

func mockPath(p string) string {
	return path.Join("/", p)
}

func (m *MockFileSystem) newNodeLocked(mode uint32, modTime time.Time) *mockFile {
	m.nextInode++

	return &mockFile{
		inode:   m.nextInode,
		mode:    mode,
		nlink:   1,
		uid:     m.defaultUID,
		gid:     m.defaultGID,
		atime:   modTime,
		modTime: modTime,
		ctime:   modTime,
	}
}

// SetOwner sets the uid/gid given to nodes created afterwards.
func (m *MockFileSystem) SetOwner(uid, gid uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.defaultUID = uid
	m.defaultGID = gid
}

// SetDelay makes every op call on path sleep for d first.
func (m *MockFileSystem) SetDelay(op MockOp, p string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.delays[mockKey{op, mockPath(p)}] = d
}

// FailOn makes every op call on path return err.
func (m *MockFileSystem) FailOn(op MockOp, p string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failures[mockKey{op, mockPath(p)}] = err
}

// FailEmptyListings makes ReadDir fail on directories with no entries.
func (m *MockFileSystem) FailEmptyListings(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failEmpty = fail
}

// Calls returns how many times op was invoked.
func (m *MockFileSystem) Calls(op MockOp) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.calls[op]
}

// begin records a call, applies the injected delay and returns the injected
// failure, if any.
func (m *MockFileSystem) begin(ctx context.Context, op MockOp, p string) error {
	key := mockKey{op, p}

	m.mu.Lock()
	m.calls[op]++
	delay := m.delays[key]
	failure := m.failures[key]
	m.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return failure
}

// resolveLocked walks p component by component, substituting symlink targets
// for every intermediate component and, when followLast is set, for the final
// one too. It returns the node and the path it was found under.
func (m *MockFileSystem) resolveLocked(p string, followLast bool) (*mockFile, string, error) {
	p = mockPath(p)

	for hops := 0; hops <= maxSymlinkHops; hops++ {
		if p == "/" {
			return m.files["/"], "/", nil
		}

		parts := strings.Split(strings.TrimPrefix(p, "/"), "/")
		current := "/"
		redirected := false

		for i, part := range parts {
			next := path.Join(current, part)

			node, ok := m.files[next]
			if !ok {
				return nil, "", syscall.ENOENT
			}

			last := i == len(parts)-1

			if node.isSymlink() && (!last || followLast) {
				target := node.target
				if !path.IsAbs(target) {
					target = path.Join(current, target)
				}

				p = path.Join(append([]string{target}, parts[i+1:]...)...)
				redirected = true

				break
			}

			if !last && !node.isDir() {
				return nil, "", syscall.ENOTDIR
			}

			current = next
		}

		if !redirected {
			return m.files[current], current, nil
		}
	}

	return nil, "", syscall.ELOOP
}

// ReadDir returns the entry names of a directory.
func (m *MockFileSystem) ReadDir(ctx context.Context, dir string) ([]string, error) {
	dir = mockPath(dir)

	if err := m.begin(ctx, OpReadDir, dir); err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	node, resolved, err := m.resolveLocked(dir, true)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, &os.PathError{Op: "readdir", Path: dir, Err: err})
	}

	if !node.isDir() {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, syscall.ENOTDIR)
	}

	names := m.childrenLocked(resolved)
	if len(names) == 0 && m.failEmpty {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, errEmptyListing)
	}

	return names, nil
}

func (m *MockFileSystem) childrenLocked(dir string) []string {
	var names []string

	for p := range m.files {
		if p != "/" && path.Dir(p) == dir {
			names = append(names, path.Base(p))
		}
	}

	sort.Strings(names)

	return names
}

// Stat returns the attributes of path, following symbolic links.
func (m *MockFileSystem) Stat(ctx context.Context, p string) (*Attributes, error) {
	return m.stat(ctx, OpStat, p, true)
}

// Lstat returns the attributes of path itself.
func (m *MockFileSystem) Lstat(ctx context.Context, p string) (*Attributes, error) {
	return m.stat(ctx, OpLstat, p, false)
}

func (m *MockFileSystem) stat(ctx context.Context, op MockOp, p string, follow bool) (*Attributes, error) {
	p = mockPath(p)

	if err := m.begin(ctx, op, p); err != nil {
		return nil, fmt.Errorf("failed to %s %s: %w", op, p, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	node, _, err := m.resolveLocked(p, follow)
	if err != nil {
		return nil, fmt.Errorf("failed to %s %s: %w", op, p, &os.PathError{Op: string(op), Path: p, Err: err})
	}

	attrs, err := node.attributes()
	if err != nil {
		return nil, fmt.Errorf("failed to %s %s: %w", op, p, err)
	}

	return attrs, nil
}

// ReadLink returns the target of a symbolic link.
func (m *MockFileSystem) ReadLink(ctx context.Context, p string) (string, error) {
	p = mockPath(p)

	if err := m.begin(ctx, OpReadLink, p); err != nil {
		return "", fmt.Errorf("failed to read link %s: %w", p, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	node, _, err := m.resolveLocked(p, false)
	if err != nil {
		return "", fmt.Errorf("failed to read link %s: %w", p, &os.PathError{Op: "readlink", Path: p, Err: err})
	}

	if !node.isSymlink() {
		return "", fmt.Errorf("failed to read link %s: %w", p, syscall.EINVAL)
	}

	return node.target, nil
}

// Exists checks if a path exists in the mock filesystem.
func (m *MockFileSystem) Exists(_ context.Context, p string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, _, err := m.resolveLocked(p, false)

	return err == nil
}

// Access checks the owner permission bits of the resolved node.
func (m *MockFileSystem) Access(_ context.Context, p string, mode AccessMode) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	node, _, err := m.resolveLocked(p, true)
	if err != nil {
		return false
	}

	return permitsOwner(node.mode, mode)
}

// Chmod changes the permission bits of path.
func (m *MockFileSystem) Chmod(_ context.Context, p string, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	node, _, err := m.resolveLocked(p, true)
	if err != nil {
		return fmt.Errorf("failed to chmod %s: %w", p, err)
	}

	node.mode = node.mode&ModeTypeMask | RawMode(perm)&^ModeTypeMask
	node.ctime = m.now()

	return nil
}

// Chown changes the owner and group of path.
func (m *MockFileSystem) Chown(_ context.Context, p string, uid, gid int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	node, _, err := m.resolveLocked(p, true)
	if err != nil {
		return fmt.Errorf("failed to chown %s: %w", p, err)
	}

	node.uid = uint32(uid) //nolint:gosec // test double
	node.gid = uint32(gid) //nolint:gosec // test double
	node.ctime = m.now()

	return nil
}

// Chtimes changes the access and modification times of a file.
func (m *MockFileSystem) Chtimes(_ context.Context, p string, atime, mtime time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	node, _, err := m.resolveLocked(p, true)
	if err != nil {
		return fmt.Errorf("failed to change times for %s: %w", p, err)
	}

	node.atime = atime
	node.modTime = mtime

	return nil
}

// Link creates a hard link named link sharing target's node.
func (m *MockFileSystem) Link(_ context.Context, target, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	node, _, err := m.resolveLocked(target, false)
	if err != nil {
		return fmt.Errorf("failed to link %s: %w", link, err)
	}

	if node.isDir() {
		return fmt.Errorf("failed to link %s: %w", link, syscall.EPERM)
	}

	link = mockPath(link)
	if err := m.checkParentLocked(link); err != nil {
		return fmt.Errorf("failed to link %s: %w", link, err)
	}

	node.nlink++
	m.files[link] = node

	return nil
}

// Symlink creates a symbolic link named link pointing at target.
func (m *MockFileSystem) Symlink(_ context.Context, target, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	link = mockPath(link)
	if err := m.checkParentLocked(link); err != nil {
		return fmt.Errorf("failed to symlink %s: %w", link, err)
	}

	node := m.newNodeLocked(ModeSymlink|0o777, m.now())
	node.target = target
	node.data = []byte(target)
	m.files[link] = node

	return nil
}

// Rename moves from, and everything below it, to to.
func (m *MockFileSystem) Rename(_ context.Context, from, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	from, to = mockPath(from), mockPath(to)

	if _, ok := m.files[from]; !ok {
		return fmt.Errorf("failed to rename %s: %w", from, os.ErrNotExist)
	}

	if err := m.checkParentLocked(to); err != nil {
		return fmt.Errorf("failed to rename %s: %w", from, err)
	}

	moved := make(map[string]*mockFile)

	for p, node := range m.files {
		if p == from || strings.HasPrefix(p, from+"/") {
			moved[to+strings.TrimPrefix(p, from)] = node
			delete(m.files, p)
		}
	}

	for p, node := range moved {
		m.files[p] = node
	}

	return nil
}

// Remove removes a file or empty directory.
func (m *MockFileSystem) Remove(_ context.Context, p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = mockPath(p)

	node, ok := m.files[p]
	if !ok || p == "/" {
		return fmt.Errorf("failed to remove %s: %w", p, os.ErrNotExist)
	}

	if node.isDir() && len(m.childrenLocked(p)) > 0 {
		return fmt.Errorf("failed to remove %s: %w", p, syscall.ENOTEMPTY)
	}

	node.nlink--
	delete(m.files, p)

	return nil
}

// Mkdir creates a directory, and its parents when recursive is set.
func (m *MockFileSystem) Mkdir(_ context.Context, p string, perm os.FileMode, recursive bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = mockPath(p)

	if recursive {
		return m.mkdirAllLocked(p, perm)
	}

	if _, ok := m.files[p]; ok {
		return fmt.Errorf("failed to create directory %s: %w", p, syscall.EEXIST)
	}

	if err := m.checkParentLocked(p); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", p, err)
	}

	m.files[p] = m.newNodeLocked(ModeDir|RawMode(perm)&ModePermMask, m.now())

	return nil
}

// mkdirAllLocked is the internal implementation that assumes the lock is held.
func (m *MockFileSystem) mkdirAllLocked(p string, perm os.FileMode) error {
	if p == "/" {
		return nil
	}

	if err := m.mkdirAllLocked(path.Dir(p), perm); err != nil {
		return err
	}

	node, ok := m.files[p]
	if !ok {
		m.files[p] = m.newNodeLocked(ModeDir|RawMode(perm)&ModePermMask, m.now())

		return nil
	}

	if !node.isDir() {
		return fmt.Errorf("failed to create directory %s: %w", p, syscall.ENOTDIR)
	}

	return nil
}

func (m *MockFileSystem) checkParentLocked(p string) error {
	parent, ok := m.files[path.Dir(p)]
	if !ok {
		return os.ErrNotExist
	}

	if !parent.isDir() {
		return syscall.ENOTDIR
	}

	return nil
}

// Open opens a file for reading.
func (m *MockFileSystem) Open(_ context.Context, p string) (File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	node, resolved, err := m.resolveLocked(p, true)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", p, &os.PathError{Op: "open", Path: p, Err: err})
	}

	if node.isDir() {
		return nil, fmt.Errorf("failed to open %s: %w", p, syscall.EISDIR)
	}

	return &mockFileHandle{
		fs:     m,
		path:   resolved,
		reader: bytes.NewReader(node.data),
	}, nil
}

// Create creates or truncates a file for writing. The parent must exist.
func (m *MockFileSystem) Create(_ context.Context, p string) (File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = mockPath(p)

	if err := m.checkParentLocked(p); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", p, err)
	}

	node, ok := m.files[p]
	switch {
	case !ok:
		m.files[p] = m.newNodeLocked(ModeRegular|0o644, m.now())
	case node.isDir():
		return nil, fmt.Errorf("failed to create %s: %w", p, syscall.EISDIR)
	default:
		node.data = nil
	}

	return &mockFileHandle{
		fs:     m,
		path:   p,
		writer: &bytes.Buffer{},
	}, nil
}

// Helper methods for testing

// AddFile adds a file with the given content and modtime, creating parents.
func (m *MockFileSystem) AddFile(p string, content []byte, modTime time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = mockPath(p)
	_ = m.mkdirAllLocked(path.Dir(p), 0o755)

	node := m.newNodeLocked(ModeRegular|0o644, modTime)
	node.data = append([]byte(nil), content...)
	m.files[p] = node
}

// AddDir adds a directory, creating parents.
func (m *MockFileSystem) AddDir(p string, modTime time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = mockPath(p)
	_ = m.mkdirAllLocked(path.Dir(p), 0o755)

	if node, ok := m.files[p]; ok && node.isDir() {
		node.modTime = modTime

		return
	}

	m.files[p] = m.newNodeLocked(ModeDir|0o755, modTime)
}

// AddSymlink adds a symbolic link named link pointing at target, creating the
// link's parents. The target need not exist.
func (m *MockFileSystem) AddSymlink(target, link string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	link = mockPath(link)
	_ = m.mkdirAllLocked(path.Dir(link), 0o755)

	node := m.newNodeLocked(ModeSymlink|0o777, m.now())
	node.target = target
	node.data = []byte(target)
	m.files[link] = node
}

// GetFile retrieves a file's content from the mock filesystem.
func (m *MockFileSystem) GetFile(p string) ([]byte, time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	node, _, err := m.resolveLocked(p, true)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to read %s: %w", p, &os.PathError{Op: "read", Path: p, Err: err})
	}

	if node.isDir() {
		return nil, time.Time{}, fmt.Errorf("failed to read %s: %w", p, syscall.EISDIR)
	}

	return append([]byte(nil), node.data...), node.modTime, nil
}

// ListFiles returns all paths in the mock filesystem, sorted.
func (m *MockFileSystem) ListFiles() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}

	sort.Strings(paths)

	return paths
}
