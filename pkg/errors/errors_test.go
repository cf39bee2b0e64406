package errors_test

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"syscall"
	"testing"

	"github.com/joe/fsinfo/pkg/errors"
)

func TestPatternMatcher_Categories(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		errorMsg string
		expected errors.ErrorCategory
	}{
		{"permission", "open /x: permission denied", errors.CategoryPermission},
		{"uppercase permission", "PERMISSION DENIED", errors.CategoryPermission},
		{"not found", "stat /x: no such file or directory", errors.CategoryNotFound},
		{"loop", "stat /x: too many levels of symbolic links", errors.CategoryLinkLoop},
		{"cycle", "directory cycle", errors.CategoryLinkLoop},
		{"io", "read /x: input/output error", errors.CategoryIO},
		{"connection", "dial tcp 10.0.0.1:22: connect: connection refused", errors.CategoryConnection},
		{"unknown", "something odd happened", errors.CategoryUnknown},
	}

	matcher := errors.NewPatternMatcher()

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			category := matcher.Match(testCase.errorMsg)
			if category != testCase.expected {
				t.Errorf("expected category %q, got %q for error: %q",
					testCase.expected, category, testCase.errorMsg)
			}
		})
	}
}

func TestEnricher_UsesErrorChainBeforeMessage(t *testing.T) {
	t.Parallel()

	enricher := errors.NewEnricher()
	err := fmt.Errorf("classification failed: %w", &os.PathError{Op: "stat", Path: "/srv/a", Err: syscall.EACCES})

	enriched := enricher.Enrich(err, "/srv/a")

	var actionable errors.ActionableError
	if !stderrors.As(enriched, &actionable) {
		t.Fatalf("expected ActionableError, got %T", enriched)
	}

	if actionable.Category() != errors.CategoryPermission {
		t.Errorf("expected category %q, got %q", errors.CategoryPermission, actionable.Category())
	}

	if !stderrors.Is(enriched, fs.ErrPermission) {
		t.Error("expected enriched error to keep its chain")
	}
}

func TestEnricher_CategorisesSentinels(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		err      error
		expected errors.ErrorCategory
	}{
		{"loop", fmt.Errorf("failed to stat /a: %w", syscall.ELOOP), errors.CategoryLinkLoop},
		{"missing", fmt.Errorf("failed to lstat /a: %w", fs.ErrNotExist), errors.CategoryNotFound},
		{"not dir", fmt.Errorf("failed to read directory /a: %w", syscall.ENOTDIR), errors.CategoryNotFound},
		{"io", fmt.Errorf("failed to read directory /a: %w", syscall.EIO), errors.CategoryIO},
	}

	enricher := errors.NewEnricher()

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			actionable, ok := enricher.Enrich(testCase.err, "").(errors.ActionableError)
			if !ok {
				t.Fatal("expected ActionableError")
			}

			if actionable.Category() != testCase.expected {
				t.Errorf("expected category %q, got %q", testCase.expected, actionable.Category())
			}

			if actionable.AffectedPath() != "/a" {
				t.Errorf("expected path /a, got %q", actionable.AffectedPath())
			}
		})
	}
}

func TestEnricher_AlreadyActionableUnchanged(t *testing.T) {
	t.Parallel()

	original := errors.NewActionableError("permission denied", errors.CategoryPermission, []string{"x"}, "/p")

	enriched := errors.NewEnricher().Enrich(original, "/other")
	if enriched != original {
		t.Error("expected same ActionableError instance")
	}
}

func TestEnricher_NilStaysNil(t *testing.T) {
	t.Parallel()

	if errors.NewEnricher().Enrich(nil, "/p") != nil {
		t.Error("expected nil")
	}
}

func TestEnricher_ExtractsPathFromMessage(t *testing.T) {
	t.Parallel()

	testCases := map[string]string{
		"failed to read directory /srv/data: permission denied": "/srv/data",
		"lstat ./rel/x: no such file or directory":              "./rel/x",
		"no path here":                                          "",
	}

	enricher := errors.NewEnricher()

	for msg, want := range testCases {
		actionable, _ := enricher.Enrich(stderrors.New(msg), "").(errors.ActionableError)
		if actionable.AffectedPath() != want {
			t.Errorf("expected path %q for %q, got %q", want, msg, actionable.AffectedPath())
		}
	}
}

func TestSuggestionGenerator_MentionsPath(t *testing.T) {
	t.Parallel()

	generator := errors.NewSuggestionGenerator()

	for _, category := range []errors.ErrorCategory{
		errors.CategoryPermission,
		errors.CategoryNotFound,
		errors.CategoryLinkLoop,
		errors.CategoryIO,
		errors.CategoryUnknown,
	} {
		suggestions := generator.Generate(category, "/srv/data")
		if len(suggestions) == 0 {
			t.Errorf("expected suggestions for %q", category)

			continue
		}

		if !strings.Contains(strings.Join(suggestions, "\n"), "/srv/data") {
			t.Errorf("expected suggestions for %q to mention the path, got %v", category, suggestions)
		}
	}

	if len(generator.Generate(errors.CategoryConnection, "")) == 0 {
		t.Error("expected connection suggestions")
	}
}

func TestFormatSuggestions(t *testing.T) {
	t.Parallel()

	err := errors.NewActionableError("permission denied", errors.CategoryPermission,
		[]string{"Check permissions", "Run as another user"}, "/p")

	expected := "  • Check permissions\n  • Run as another user"
	if got := errors.FormatSuggestions(err); got != expected {
		t.Errorf("expected:\n%q\ngot:\n%q", expected, got)
	}

	if got := errors.FormatSuggestions(stderrors.New("plain")); got != "" {
		t.Errorf("expected empty string for plain error, got %q", got)
	}

	if got := errors.FormatSuggestions(nil); got != "" {
		t.Errorf("expected empty string for nil, got %q", got)
	}
}
