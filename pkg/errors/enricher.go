package errors

import (
	"errors"
	"regexp"
	"strings"
)

// Enricher enriches standard errors with actionable suggestions.
type Enricher interface {
	Enrich(err error, affectedPath string) error
}

// NewEnricher creates a new Enricher with default pattern matcher and suggestion generator.
func NewEnricher() Enricher {
	return &enricher{
		matcher:   NewPatternMatcher(),
		generator: NewSuggestionGenerator(),
	}
}

var (
	//nolint:gochecknoglobals // Compiled regexes shared across all enricher instances
	pathExtractionPatterns = []*regexp.Regexp{
		// "failed to stat /srv/data: ..." as wrapped by the drivers
		regexp.MustCompile(`\bfailed to [\w ]+? (/[^\s:]*|\.{1,2}/[^\s:]*):`),
		// "open /path: ..." as produced by os.PathError
		regexp.MustCompile(`\b\w+\s+([./][^\s:]+):`),
	}
)

type enricher struct {
	matcher   PatternMatcher
	generator SuggestionGenerator
}

// Enrich categorises err and attaches suggestions. An ActionableError is
// returned unchanged; nil stays nil. When affectedPath is empty a path is
// extracted from the message if possible. The chain of err is consulted
// before its message.
func (e *enricher) Enrich(err error, affectedPath string) error {
	if err == nil {
		return nil
	}

	var actionableErr ActionableError
	if errors.As(err, &actionableErr) {
		return actionableErr
	}

	errMsg := err.Error()

	if affectedPath == "" {
		affectedPath = extractPath(errMsg)
	}

	category := classify(err)
	if category == CategoryUnknown {
		category = e.matcher.Match(errMsg)
	}

	return &actionableError{
		originalError: errMsg,
		category:      category,
		suggestions:   e.generator.Generate(category, affectedPath),
		affectedPath:  affectedPath,
		cause:         err,
	}
}

// extractPath pulls a path out of messages like
// "failed to read directory /srv/data: permission denied" or
// "lstat ./a: no such file or directory". Returns "" if none is found.
func extractPath(errorMsg string) string {
	for _, pattern := range pathExtractionPatterns {
		if matches := pattern.FindStringSubmatch(errorMsg); len(matches) > 1 {
			path := strings.TrimSpace(matches[1])
			if path != "" {
				return path
			}
		}
	}

	return ""
}
