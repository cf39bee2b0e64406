//nolint:varnamelen // Test files use idiomatic short variable names (t, g, etc.)
package scanner_test

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/charlievieth/fastwalk"

	"github.com/joe/fsinfo/pkg/fileinfo"
	"github.com/joe/fsinfo/pkg/filesystem"
	"github.com/joe/fsinfo/pkg/scanner"
	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers
)

func writeTree(t *testing.T, root string) {
	t.Helper()

	for _, dir := range []string{"a/b/c", "a/d", "e", "empty"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	for _, file := range []string{"top.txt", "a/one.go", "a/b/two.md", "a/b/c/three", "a/d/.hidden", "e/four.json"} {
		if err := os.WriteFile(filepath.Join(root, file), []byte(file), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	if err := os.Symlink("top.txt", filepath.Join(root, "e/link")); err != nil {
		t.Fatal(err)
	}
}

func TestScan_MatchesFastwalkOnRealTree(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	root := t.TempDir()
	writeTree(t, root)

	var (
		mu   sync.Mutex
		want = map[string]struct{}{root: {}}
	)

	err := fastwalk.Walk(&fastwalk.Config{Follow: false}, root, func(p string, _ fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		mu.Lock()
		want[p] = struct{}{}
		mu.Unlock()

		return nil
	})
	g.Expect(err).ToNot(HaveOccurred())

	driver := filesystem.NewRealFileSystem()
	s := scanner.New(driver, fileinfo.LiveFactory(driver, fileinfo.Options{}))

	result, err := s.Scan(context.Background(), root, true)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(result.Problems).To(BeEmpty())

	wantPaths := make([]string, 0, len(want))
	for p := range want {
		wantPaths = append(wantPaths, p)
	}

	g.Expect(result.Paths()).To(ConsistOf(wantPaths))
	g.Expect(result.Len()).To(Equal(len(wantPaths)))
}

func TestScan_RealTreeClassification(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	ctx := context.Background()

	root := t.TempDir()
	writeTree(t, root)

	driver := filesystem.NewRealFileSystem()
	s := scanner.New(driver, fileinfo.ImmutableFactory(driver, fileinfo.Options{}))

	result, err := s.Scan(ctx, root, false)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(result.Len()).To(Equal(5))

	top, ok := result.Get(filepath.Join(root, "top.txt"))
	g.Expect(ok).To(BeTrue())
	g.Expect(top.Type(ctx)).To(Equal(fileinfo.TypeFile))
	g.Expect(top.Size(ctx)).To(Equal(int64(len("top.txt"))))

	e, ok := result.Get(filepath.Join(root, "e"))
	g.Expect(ok).To(BeTrue())
	g.Expect(e.Type(ctx)).To(Equal(fileinfo.TypeDir))
}
