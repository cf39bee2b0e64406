//nolint:varnamelen // Test files use idiomatic short variable names (t, g, etc.)
package filesystem_test

import (
	"errors"
	"io/fs"
	"os"
	"testing"

	"github.com/joe/fsinfo/pkg/filesystem"
	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers
	"github.com/pkg/sftp"
)

type stubFile struct {
	closeErr error
	closes   int
}

func (f *stubFile) Read(p []byte) (int, error)  { return copy(p, "data"), nil }
func (f *stubFile) Write(p []byte) (int, error) { return len(p), nil }
func (f *stubFile) Stat() (os.FileInfo, error)  { return nil, nil }

func (f *stubFile) Close() error {
	f.closes++

	return f.closeErr
}

type countingPool struct {
	released []*sftp.Client
}

func (p *countingPool) Release(client *sftp.Client) {
	p.released = append(p.released, client)
}

func TestPooledSFTPFile_CloseReleasesOnce(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	file := &stubFile{}
	client := &sftp.Client{}
	pool := &countingPool{}

	pooled, err := filesystem.NewPooledSFTPFile(file, client, pool)
	g.Expect(err).ToNot(HaveOccurred())

	g.Expect(pooled.Close()).To(Succeed())
	g.Expect(pooled.Close()).To(Succeed())

	g.Expect(file.closes).To(Equal(1))
	g.Expect(pool.released).To(HaveLen(1))
	g.Expect(pool.released[0]).To(BeIdenticalTo(client))
}

func TestPooledSFTPFile_CloseReleasesEvenOnError(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	boom := errors.New("close failed")
	pool := &countingPool{}

	pooled, err := filesystem.NewPooledSFTPFile(&stubFile{closeErr: boom}, &sftp.Client{}, pool)
	g.Expect(err).ToNot(HaveOccurred())

	g.Expect(pooled.Close()).To(MatchError(boom))
	g.Expect(pool.released).To(HaveLen(1))
}

func TestPooledSFTPFile_OperationsAfterClose(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	pooled, err := filesystem.NewPooledSFTPFile(&stubFile{}, &sftp.Client{}, &countingPool{})
	g.Expect(err).ToNot(HaveOccurred())

	buf := make([]byte, 8)
	n, err := pooled.Read(buf)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(string(buf[:n])).To(Equal("data"))

	g.Expect(pooled.Close()).To(Succeed())

	_, err = pooled.Read(buf)
	g.Expect(err).To(MatchError(fs.ErrClosed))
	_, err = pooled.Write(buf)
	g.Expect(err).To(MatchError(fs.ErrClosed))
	_, err = pooled.Stat()
	g.Expect(err).To(MatchError(fs.ErrClosed))
}

func TestNewPooledSFTPFile_RejectsNil(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	_, err := filesystem.NewPooledSFTPFile(nil, &sftp.Client{}, &countingPool{})
	g.Expect(err).To(MatchError(ContainSubstring("file")))

	_, err = filesystem.NewPooledSFTPFile(&stubFile{}, nil, &countingPool{})
	g.Expect(err).To(MatchError(ContainSubstring("client")))

	_, err = filesystem.NewPooledSFTPFile(&stubFile{}, &sftp.Client{}, nil)
	g.Expect(err).To(MatchError(ContainSubstring("pool")))
}
