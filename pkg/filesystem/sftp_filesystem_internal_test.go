//nolint:varnamelen // Test files use idiomatic short variable names (t, g, etc.)
package filesystem

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers
	"github.com/pkg/sftp"
)

// pipeConn joins the read end of one pipe and the write end of another.
type pipeConn struct {
	io.Reader
	io.WriteCloser
}

// newPipeClient starts an in-process SFTP server serving the local
// filesystem and returns a client talking to it.
func newPipeClient(t *testing.T) (*sftp.Client, error) {
	t.Helper()

	clientRead, serverWrite := io.Pipe()
	serverRead, clientWrite := io.Pipe()

	server, err := sftp.NewServer(pipeConn{serverRead, serverWrite})
	if err != nil {
		return nil, err
	}

	go func() {
		_ = server.Serve()
		_ = serverWrite.Close()
	}()

	return sftp.NewClientPipe(clientRead, clientWrite)
}

func newTestSFTPFileSystem(t *testing.T, config *PoolConfig) *SFTPFileSystem {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("in-process SFTP server paths are POSIX")
	}

	pool, err := newClientPool(func() (*sftp.Client, error) { return newPipeClient(t) }, config)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}

	t.Cleanup(func() { _ = pool.Close() })

	return newSFTPFileSystem(pool, "test@localhost:22")
}

func TestSFTPFileSystem_ReadDirAndStat(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	ctx := context.Background()

	dir := t.TempDir()
	g.Expect(os.WriteFile(filepath.Join(dir, "a.txt"), []byte("abc"), 0o640)).To(Succeed())
	g.Expect(os.Mkdir(filepath.Join(dir, "sub"), 0o755)).To(Succeed())

	sfs := newTestSFTPFileSystem(t, DefaultPoolConfig())

	names, err := sfs.ReadDir(ctx, dir)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(names).To(ConsistOf("a.txt", "sub"))

	file, err := sfs.Stat(ctx, filepath.Join(dir, "a.txt"))
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(file.IsRegular()).To(BeTrue())
	g.Expect(file.Size).To(Equal(int64(3)))
	g.Expect(file.Permissions()).To(Equal(uint32(0o640)))

	sub, err := sfs.Stat(ctx, filepath.Join(dir, "sub"))
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(sub.IsDir()).To(BeTrue())

	lsub, err := sfs.Lstat(ctx, filepath.Join(dir, "sub"))
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(SameIdentity(sub, lsub)).To(BeTrue())
}

func TestSFTPFileSystem_SymlinkIdentity(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	ctx := context.Background()

	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	link := filepath.Join(dir, "link")
	g.Expect(os.Mkdir(target, 0o755)).To(Succeed())
	g.Expect(os.Symlink("target", link)).To(Succeed())

	sfs := newTestSFTPFileSystem(t, DefaultPoolConfig())

	stat, err := sfs.Stat(ctx, link)
	g.Expect(err).ToNot(HaveOccurred())
	lstat, err := sfs.Lstat(ctx, link)
	g.Expect(err).ToNot(HaveOccurred())
	targetStat, err := sfs.Stat(ctx, target)
	g.Expect(err).ToNot(HaveOccurred())

	g.Expect(stat.IsDir()).To(BeTrue())
	g.Expect(lstat.IsSymlink()).To(BeTrue())
	g.Expect(SameIdentity(stat, targetStat)).To(BeTrue())
	g.Expect(SameIdentity(stat, lstat)).To(BeFalse())

	got, err := sfs.ReadLink(ctx, link)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(got).To(Equal("target"))
}

func TestSFTPFileSystem_CreateOpenRemove(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "file.txt")

	sfs := newTestSFTPFileSystem(t, &PoolConfig{InitialSize: 1, MinSize: 1, MaxSize: 2})

	g.Expect(sfs.Mkdir(ctx, filepath.Dir(path), 0o755, true)).To(Succeed())

	w, err := sfs.Create(ctx, path)
	g.Expect(err).ToNot(HaveOccurred())
	_, err = w.Write([]byte("remote"))
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(w.Close()).To(Succeed())

	r, err := sfs.Open(ctx, path)
	g.Expect(err).ToNot(HaveOccurred())
	data, err := io.ReadAll(r)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(r.Close()).To(Succeed())
	g.Expect(string(data)).To(Equal("remote"))

	g.Expect(sfs.Exists(ctx, path)).To(BeTrue())
	g.Expect(sfs.Remove(ctx, path)).To(Succeed())
	g.Expect(sfs.Exists(ctx, path)).To(BeFalse())
}

func TestSFTPFileSystem_StatMissing(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	sfs := newTestSFTPFileSystem(t, DefaultPoolConfig())

	_, err := sfs.Stat(context.Background(), filepath.Join(t.TempDir(), "missing"))
	g.Expect(err).To(MatchError(os.ErrNotExist))
}

func TestSFTPClientPool_ResizeAndRelease(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	ctx := context.Background()

	sfs := newTestSFTPFileSystem(t, &PoolConfig{InitialSize: 1, MinSize: 1, MaxSize: 4})
	g.Expect(sfs.PoolSize()).To(Equal(1))

	sfs.ResizePool(3)
	g.Expect(sfs.PoolSize()).To(Equal(3))
	g.Expect(sfs.PoolTargetSize()).To(Equal(3))

	sfs.ResizePool(100)
	g.Expect(sfs.PoolTargetSize()).To(Equal(4))

	sfs.ResizePool(1)
	g.Expect(sfs.PoolTargetSize()).To(Equal(1))

	client, err := sfs.pool.Acquire(ctx)
	g.Expect(err).ToNot(HaveOccurred())
	sfs.pool.Release(client)
	g.Expect(sfs.PoolSize()).To(Equal(3))
}

func TestSFTPClientPool_AcquireAfterClose(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	sfs := newTestSFTPFileSystem(t, DefaultPoolConfig())
	g.Expect(sfs.Close()).To(Succeed())

	_, err := sfs.pool.Acquire(context.Background())
	g.Expect(err).To(MatchError(ErrPoolClosed))
}

func TestSFTPClientPool_CloseReturnsWithIdleSessions(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	sfs := newTestSFTPFileSystem(t, &PoolConfig{InitialSize: 2, MinSize: 1, MaxSize: 2})

	client, err := sfs.pool.Acquire(context.Background())
	g.Expect(err).ToNot(HaveOccurred())
	sfs.pool.Release(client)

	done := make(chan error, 1)

	go func() { done <- sfs.Close() }()

	g.Eventually(done, 5*time.Second).Should(Receive())
}

func TestSFTPClientPool_AcquireHonoursContext(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	sfs := newTestSFTPFileSystem(t, &PoolConfig{InitialSize: 1, MinSize: 1, MaxSize: 1})

	client, err := sfs.pool.Acquire(context.Background())
	g.Expect(err).ToNot(HaveOccurred())

	defer sfs.pool.Release(client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = sfs.pool.Acquire(ctx)
	g.Expect(err).To(MatchError(context.Canceled))
}

func TestPoolConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config PoolConfig
		want   string
	}{
		{"zero min", PoolConfig{InitialSize: 1, MinSize: 0, MaxSize: 2}, "minSize"},
		{"initial below min", PoolConfig{InitialSize: 1, MinSize: 2, MaxSize: 4}, ">= minSize"},
		{"initial above max", PoolConfig{InitialSize: 5, MinSize: 1, MaxSize: 4}, "<= maxSize"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			g.Expect(tt.config.Validate()).To(MatchError(ContainSubstring(tt.want)))
		})
	}

	g := NewWithT(t)
	g.Expect(DefaultPoolConfig().Validate()).To(Succeed())
}
