//nolint:varnamelen // Test files use idiomatic short variable names (t, g, etc.)
package fileinfo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/joe/fsinfo/pkg/fileinfo"
	"github.com/joe/fsinfo/pkg/filesystem"
	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedWd(dir string) func() (string, error) {
	return func() (string, error) { return dir, nil }
}

func TestResolver_ReusesAttributesWithinTTL(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	ctx := context.Background()

	mfs := filesystem.NewMockFileSystem()
	mfs.AddFile("/data/a.txt", []byte("abc"), epoch)

	clock := fileinfo.NewManualClock(epoch)
	r := fileinfo.NewResolver("/data/a.txt", mfs, fileinfo.Options{Clock: clock, Getwd: fixedWd("/")})

	for range 3 {
		stat, err := r.Stat(ctx)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(stat.Size).To(Equal(int64(3)))
	}

	g.Expect(mfs.Calls(filesystem.OpStat)).To(Equal(1))

	clock.Advance(fileinfo.DefaultTTL - time.Millisecond)
	_, _ = r.Stat(ctx)
	g.Expect(mfs.Calls(filesystem.OpStat)).To(Equal(1))

	clock.Advance(2 * time.Millisecond)
	_, _ = r.Stat(ctx)
	g.Expect(mfs.Calls(filesystem.OpStat)).To(Equal(2))
}

func TestResolver_NegativeTTLDisablesCache(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	ctx := context.Background()

	mfs := filesystem.NewMockFileSystem()
	mfs.AddFile("/a", nil, epoch)

	r := fileinfo.NewResolver("/a", mfs, fileinfo.Options{TTL: -1, Getwd: fixedWd("/")})
	_, _ = r.Lstat(ctx)
	_, _ = r.Lstat(ctx)

	g.Expect(mfs.Calls(filesystem.OpLstat)).To(Equal(2))
}

func TestResolver_ExpiredEntryDropsWholeCache(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	ctx := context.Background()

	mfs := filesystem.NewMockFileSystem()
	mfs.AddFile("/a", nil, epoch)

	clock := fileinfo.NewManualClock(epoch)
	r := fileinfo.NewResolver("/a", mfs, fileinfo.Options{TTL: time.Second, Clock: clock, Getwd: fixedWd("/")})

	_, _ = r.Stat(ctx)
	clock.Advance(800 * time.Millisecond)
	_, _ = r.Lstat(ctx)
	clock.Advance(400 * time.Millisecond)

	// stat is now stale, so the still-fresh lstat is dropped with it
	_, _ = r.Lstat(ctx)

	g.Expect(mfs.Calls(filesystem.OpLstat)).To(Equal(2))
}

func TestResolver_RelativePathFollowsWorkDir(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	mfs := filesystem.NewMockFileSystem()
	mfs.AddFile("/a.txt", nil, epoch)

	r := fileinfo.NewResolver("a.txt", mfs, fileinfo.Options{Getwd: fixedWd("/")})

	first := fileinfo.WithWorkDir(context.Background(), "/srv")
	second := fileinfo.WithWorkDir(context.Background(), "/home")

	_, _ = r.Stat(first)
	_, _ = r.Stat(first)
	g.Expect(mfs.Calls(filesystem.OpStat)).To(Equal(1))
	g.Expect(r.WorkDir()).To(Equal("/srv"))

	_, _ = r.Stat(second)
	g.Expect(mfs.Calls(filesystem.OpStat)).To(Equal(2))
	g.Expect(r.WorkDir()).To(Equal("/home"))
}

func TestResolver_AbsolutePathIgnoresWorkDir(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	mfs := filesystem.NewMockFileSystem()
	mfs.AddFile("/a.txt", nil, epoch)

	r := fileinfo.NewResolver("/a.txt", mfs, fileinfo.Options{})

	_, _ = r.Stat(fileinfo.WithWorkDir(context.Background(), "/srv"))
	_, _ = r.Stat(fileinfo.WithWorkDir(context.Background(), "/home"))

	g.Expect(mfs.Calls(filesystem.OpStat)).To(Equal(1))
}

func TestResolver_AbsorbsDriverFailures(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	ctx := context.Background()

	errBoom := errors.New("boom")

	mfs := filesystem.NewMockFileSystem()
	mfs.AddFile("/a", nil, epoch)
	mfs.FailOn(filesystem.OpStat, "/a", errBoom)

	r := fileinfo.NewResolver("/a", mfs, fileinfo.Options{Getwd: fixedWd("/")})

	stat, err := r.Stat(ctx)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(stat).To(BeNil())
	g.Expect(r.LastError()).To(MatchError(errBoom))

	// failures are not cached
	_, _ = r.Stat(ctx)
	g.Expect(mfs.Calls(filesystem.OpStat)).To(Equal(2))
}

func TestResolver_SuccessClearsLastError(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	ctx := context.Background()

	mfs := filesystem.NewMockFileSystem()
	mfs.AddFile("/a", nil, epoch)
	mfs.FailOn(filesystem.OpStat, "/a", errors.New("boom"))

	r := fileinfo.NewResolver("/a", mfs, fileinfo.Options{Getwd: fixedWd("/")})

	_, _ = r.Stat(ctx)
	g.Expect(r.LastError()).To(HaveOccurred())

	mfs.FailOn(filesystem.OpStat, "/a", nil)
	r.Invalidate()

	stat, err := r.Stat(ctx)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(stat).ToNot(BeNil())
	g.Expect(r.LastError()).ToNot(HaveOccurred())
}

func TestResolver_ReturnsContextError(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	mfs := filesystem.NewMockFileSystem()
	mfs.AddFile("/a", nil, epoch)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := fileinfo.NewResolver("/a", mfs, fileinfo.Options{Getwd: fixedWd("/")})

	_, err := r.Stat(ctx)
	g.Expect(err).To(MatchError(context.Canceled))
	g.Expect(r.LastError()).ToNot(HaveOccurred())
}

func TestResolver_IsLink(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	ctx := context.Background()

	mfs := filesystem.NewMockFileSystem()
	mfs.AddDir("/d", epoch)
	mfs.AddFile("/f", nil, epoch)
	mfs.AddSymlink("/d", "/to-dir")
	mfs.AddSymlink("/gone", "/dangling")

	cases := map[string]bool{
		"/d":        false,
		"/f":        false,
		"/to-dir":   true,
		"/dangling": true,
		"/missing":  false,
	}

	for p, want := range cases {
		r := fileinfo.NewResolver(p, mfs, fileinfo.Options{Getwd: fixedWd("/")})

		link, err := r.IsLink(ctx)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(link).To(Equal(want), p)
	}
}

func TestResolver_ReadLinkCachedUntilInvalidated(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	ctx := context.Background()

	mfs := filesystem.NewMockFileSystem()
	mfs.AddSymlink("target", "/l")

	r := fileinfo.NewResolver("/l", mfs, fileinfo.Options{Getwd: fixedWd("/")})

	target, ok, err := r.ReadLink(ctx)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(ok).To(BeTrue())
	g.Expect(target).To(Equal("target"))

	_, _, _ = r.ReadLink(ctx)
	g.Expect(mfs.Calls(filesystem.OpReadLink)).To(Equal(1))

	r.Invalidate()
	_, _, _ = r.ReadLink(ctx)
	g.Expect(mfs.Calls(filesystem.OpReadLink)).To(Equal(2))
}

func TestResolver_ReadLinkOnRegularFile(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	mfs := filesystem.NewMockFileSystem()
	mfs.AddFile("/f", nil, epoch)

	r := fileinfo.NewResolver("/f", mfs, fileinfo.Options{Getwd: fixedWd("/")})

	_, ok, err := r.ReadLink(context.Background())
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(ok).To(BeFalse())
	g.Expect(r.LastError()).To(HaveOccurred())
}
