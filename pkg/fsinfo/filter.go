package fsinfo

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/joe/fsinfo/pkg/scanner"
)

// FileFilter decides which entries of a result are kept.
type FileFilter interface {
	// ShouldInclude returns true if the entry at relativePath (relative to the
	// scan root) should be kept.
	ShouldInclude(relativePath string) bool
}

// GlobFilter implements FileFilter using doublestar patterns, matched
// case-insensitively.
type GlobFilter struct {
	normalizedPattern string
	isEmpty           bool
}

// NewGlobFilter creates a new GlobFilter. The empty pattern matches everything.
func NewGlobFilter(pattern string) *GlobFilter {
	return &GlobFilter{
		normalizedPattern: strings.ToLower(pattern),
		isEmpty:           pattern == "",
	}
}

// ShouldInclude returns true if relativePath matches the pattern.
func (f *GlobFilter) ShouldInclude(relativePath string) bool {
	if f.isEmpty {
		return true
	}

	matched, err := doublestar.Match(f.normalizedPattern, strings.ToLower(relativePath))
	if err != nil {
		return false
	}

	return matched
}

// ValidatePattern reports whether pattern is a well-formed glob.
func ValidatePattern(pattern string) bool {
	return doublestar.ValidatePattern(pattern)
}

// FilterResult keeps the root and every entry whose path relative to the
// root the filter accepts.
func FilterResult(result *scanner.Result, filter FileFilter) *scanner.Result {
	return result.Filter(func(entry scanner.Entry) bool {
		if entry.Path == result.Root {
			return true
		}

		return filter.ShouldInclude(RelativePath(result.Root, entry.Path))
	})
}

// RelativePath returns p relative to root, which must be one of its
// ancestors; otherwise the base name of p.
func RelativePath(root, p string) string {
	if root == "/" {
		return strings.TrimPrefix(p, "/")
	}

	rel := strings.TrimPrefix(p, root+"/")
	if rel == p {
		return path.Base(p)
	}

	return rel
}
