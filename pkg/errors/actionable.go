// Package errors turns problems absorbed during a scan or describe into
// categorised errors carrying suggestions for the user.
//
// Basic Usage:
//
//	enricher := errors.NewEnricher()
//	for _, problem := range result.Problems {
//	    actionable := enricher.Enrich(problem.Err, problem.Path)
//	    fmt.Println(actionable.Error())
//	    fmt.Println(errors.FormatSuggestions(actionable))
//	}
//
// The enricher extracts a path from messages such as
// "failed to stat /srv/data: permission denied" when none is given.
package errors

import "strings"

// Exported constants.
const (
	CategoryConnection ErrorCategory = "connection"
	CategoryIO         ErrorCategory = "io"
	CategoryLinkLoop   ErrorCategory = "link_loop"
	CategoryNotFound   ErrorCategory = "not_found"
	CategoryPermission ErrorCategory = "permission"
	CategoryUnknown    ErrorCategory = "unknown"
)

// ActionableError represents an error with actionable suggestions for the user.
type ActionableError interface {
	error
	OriginalError() string
	Category() ErrorCategory
	Suggestions() []string
	AffectedPath() string
}

// NewActionableError creates a new ActionableError with the given details.
func NewActionableError(
	originalError string,
	category ErrorCategory,
	suggestions []string,
	affectedPath string,
) ActionableError {
	return &actionableError{
		originalError: originalError,
		category:      category,
		suggestions:   suggestions,
		affectedPath:  affectedPath,
	}
}

// ErrorCategory represents the type of error that occurred.
type ErrorCategory string

// FormatSuggestions formats the suggestions of an ActionableError as a
// bulleted list. Returns "" if err is nil, not actionable or has no
// suggestions.
func FormatSuggestions(err error) string {
	if err == nil {
		return ""
	}

	actionable, ok := err.(ActionableError)
	if !ok {
		return ""
	}

	suggestions := actionable.Suggestions()
	if len(suggestions) == 0 {
		return ""
	}

	var builder strings.Builder
	for i, suggestion := range suggestions {
		if i > 0 {
			builder.WriteString("\n")
		}

		builder.WriteString("  • ")
		builder.WriteString(suggestion)
	}

	return builder.String()
}

type actionableError struct {
	originalError string
	category      ErrorCategory
	suggestions   []string
	affectedPath  string
	cause         error
}

func (e *actionableError) AffectedPath() string {
	return e.affectedPath
}

func (e *actionableError) Category() ErrorCategory {
	return e.category
}

func (e *actionableError) Error() string {
	return e.originalError
}

func (e *actionableError) OriginalError() string {
	return e.originalError
}

func (e *actionableError) Suggestions() []string {
	return e.suggestions
}

// Unwrap returns the enriched error, when there is one.
func (e *actionableError) Unwrap() error {
	return e.cause
}
