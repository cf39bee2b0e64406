package fileinfo_test

import (
	"testing"

	"github.com/joe/fsinfo/pkg/fileinfo"
	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers
)

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"/a/./b/../c/", "/a/c"},
		{"/../x", "/x"},
		{"../x/..", ".."},
		{"a//b", "a/b"},
		{"", "."},
		{"/", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			NewWithT(t).Expect(fileinfo.NormalizePath(tt.in)).To(Equal(tt.want))
		})
	}
}

func TestPathParts(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(fileinfo.Basename("/a/b.txt", ".txt")).To(Equal("b"))
	g.Expect(fileinfo.Basename("/a/.txt", ".txt")).To(Equal(".txt"))
	g.Expect(fileinfo.Basename("/a/b.txt", "")).To(Equal("b.txt"))
	g.Expect(fileinfo.Extension("/a/b.tar.gz")).To(Equal("gz"))
	g.Expect(fileinfo.Extension("/a/Makefile")).To(BeEmpty())
	g.Expect(fileinfo.Filename("/a/b.tar.gz")).To(Equal("b.tar"))
	g.Expect(fileinfo.Dir("a")).To(Equal("."))
	g.Expect(fileinfo.Dir("/")).To(Equal("/"))
	g.Expect(fileinfo.AbsPath("x/../y", "/w")).To(Equal("/w/y"))
	g.Expect(fileinfo.AbsPath("/x/", "/w")).To(Equal("/x"))
	g.Expect(fileinfo.JoinPath("/w", "../v")).To(Equal("/v"))
}
