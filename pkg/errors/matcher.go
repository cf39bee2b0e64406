package errors

import (
	"errors"
	"io/fs"
	"strings"
	"syscall"
)

// PatternMatcher matches error messages to categories using string patterns.
type PatternMatcher interface {
	Match(errorMsg string) ErrorCategory
}

type categoryPatterns struct {
	category ErrorCategory
	patterns []string
}

// NewPatternMatcher creates a new PatternMatcher with predefined patterns.
func NewPatternMatcher() PatternMatcher {
	return &patternMatcher{
		// checked in order: "directory cycle" must win over path wording
		patterns: []categoryPatterns{
			{CategoryLinkLoop, []string{
				"too many levels of symbolic links",
				"too many links",
				"directory cycle",
			}},
			{CategoryPermission, []string{
				"permission denied",
				"access denied",
				"operation not permitted",
			}},
			{CategoryNotFound, []string{
				"no such file or directory",
				"file does not exist",
				"not a directory",
			}},
			{CategoryConnection, []string{
				"connection refused",
				"connection reset",
				"connection lost",
				"handshake failed",
				"no route to host",
				"i/o timeout",
			}},
			{CategoryIO, []string{
				"input/output error",
				"i/o error",
				"stale file handle",
			}},
		},
	}
}

type patternMatcher struct {
	patterns []categoryPatterns
}

// Match returns the error category based on pattern matching.
func (m *patternMatcher) Match(errorMsg string) ErrorCategory {
	lowerMsg := strings.ToLower(errorMsg)

	for _, group := range m.patterns {
		for _, pattern := range group.patterns {
			if strings.Contains(lowerMsg, pattern) {
				return group.category
			}
		}
	}

	return CategoryUnknown
}

// classify categorises err from its chain, returning CategoryUnknown when no
// known cause is found.
func classify(err error) ErrorCategory {
	switch {
	case errors.Is(err, syscall.ELOOP):
		return CategoryLinkLoop
	case errors.Is(err, fs.ErrPermission):
		return CategoryPermission
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return CategoryNotFound
	case errors.Is(err, syscall.EIO), errors.Is(err, syscall.ESTALE):
		return CategoryIO
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET):
		return CategoryConnection
	}

	return CategoryUnknown
}
