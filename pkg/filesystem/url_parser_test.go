//nolint:varnamelen // Test files use idiomatic short variable names (t, tt, etc.)
package filesystem_test

import (
	"testing"

	"github.com/joe/fsinfo/pkg/filesystem"
	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers
)

func TestParseLocation_Local(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	loc, err := filesystem.ParseLocation("/local/path")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(loc.Remote).To(BeFalse())
	g.Expect(loc.Path).To(Equal("/local/path"))
	g.Expect(loc.String()).To(Equal("/local/path"))
}

func TestParseLocation_SFTP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		wantUser string
		wantHost string
		wantPort int
		wantPath string
	}{
		{"home relative", "sftp://user@host/path", "user", "host", 22, "path"},
		{"custom port", "sftp://admin@server.com:2222/home/data", "admin", "server.com", 2222, "home/data"},
		{"absolute path", "sftp://joe@host//srv/data", "joe", "host", 22, "/srv/data"},
		{"home directory", "sftp://joe@host", "joe", "host", 22, "."},
		{"trailing slash only", "sftp://joe@host/", "joe", "host", 22, "."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			loc, err := filesystem.ParseLocation(tt.input)
			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(loc.Remote).To(BeTrue())
			g.Expect(loc.User).To(Equal(tt.wantUser))
			g.Expect(loc.Host).To(Equal(tt.wantHost))
			g.Expect(loc.Port).To(Equal(tt.wantPort))
			g.Expect(loc.Path).To(Equal(tt.wantPath))
		})
	}
}

func TestParseLocation_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"missing user", "sftp://host/path", "username"},
		{"missing host", "sftp://user@/path", "host"},
		{"bad port", "sftp://user@host:abc/path", "port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			_, err := filesystem.ParseLocation(tt.input)
			g.Expect(err).To(MatchError(ContainSubstring(tt.want)))
		})
	}
}
