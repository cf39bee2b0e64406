//nolint:varnamelen // Test files use idiomatic short variable names (t, tt, etc.)
package fsinfo_test

import (
	"context"
	"testing"

	"github.com/joe/fsinfo/pkg/filesystem"
	"github.com/joe/fsinfo/pkg/fsinfo"
	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers
)

func TestGlobFilterInvalidPattern(t *testing.T) {
	t.Parallel()

	filter := fsinfo.NewGlobFilter("[invalid")
	if filter.ShouldInclude("test.txt") {
		t.Error("Invalid pattern should not match files")
	}

	if fsinfo.ValidatePattern("[invalid") {
		t.Error("expected pattern to be reported invalid")
	}
}

func TestGlobFilterShouldInclude(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		pattern     string
		path        string
		shouldMatch bool
	}{
		{"empty pattern matches all", "", "any/file.txt", true},
		{"simple extension match", "*.go", "main.go", true},
		{"star does not cross directories", "*.go", "cmd/main.go", false},
		{"double star crosses directories", "**/*.go", "cmd/fsinfo/main.go", true},
		{"double star matches top level", "**/*.go", "main.go", true},
		{"case insensitive", "**/*.MD", "docs/README.md", true},
		{"alternatives", "**/*.{yaml,yml}", "deploy/app.yml", true},
		{"directory prefix", "vendor/**", "vendor/x/y.go", true},
		{"no match", "vendor/**", "internal/x.go", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			filter := fsinfo.NewGlobFilter(tt.pattern)
			if got := filter.ShouldInclude(tt.path); got != tt.shouldMatch {
				t.Errorf("pattern %q path %q: expected %v, got %v", tt.pattern, tt.path, tt.shouldMatch, got)
			}
		})
	}
}

func TestFilterResult(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	mfs := filesystem.NewMockFileSystem()
	mfs.AddFile("/src/main.go", nil, epoch)
	mfs.AddFile("/src/README.md", nil, epoch)
	mfs.AddFile("/src/pkg/lib.go", nil, epoch)

	f := fsinfo.New(mfs, fsinfo.Config{Getwd: rootWd})

	result, err := f.Scan(context.Background(), "/src", true)
	g.Expect(err).ToNot(HaveOccurred())

	filtered := fsinfo.FilterResult(result, fsinfo.NewGlobFilter("**/*.go"))
	g.Expect(filtered.Paths()).To(Equal([]string{"/src", "/src/main.go", "/src/pkg/lib.go"}))

	fromRoot, err := f.Scan(context.Background(), "/", true)
	g.Expect(err).ToNot(HaveOccurred())

	filtered = fsinfo.FilterResult(fromRoot, fsinfo.NewGlobFilter("src/*.md"))
	g.Expect(filtered.Paths()).To(Equal([]string{"/", "/src/README.md"}))
}

func TestRelativePath(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(fsinfo.RelativePath("/", "/etc/hosts")).To(Equal("etc/hosts"))
	g.Expect(fsinfo.RelativePath("/srv", "/srv/a/b.txt")).To(Equal("a/b.txt"))
	g.Expect(fsinfo.RelativePath("/srv", "/other/c.txt")).To(Equal("c.txt"))
}
