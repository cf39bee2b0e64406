package errors

import "fmt"

// SuggestionGenerator generates actionable suggestions based on error category.
type SuggestionGenerator interface {
	Generate(category ErrorCategory, affectedPath string) []string
}

// NewSuggestionGenerator creates a new SuggestionGenerator.
func NewSuggestionGenerator() SuggestionGenerator {
	return &suggestionGenerator{}
}

type suggestionGenerator struct{}

// Generate returns actionable suggestions based on the error category and affected path.
func (g *suggestionGenerator) Generate(category ErrorCategory, affectedPath string) []string {
	switch category {
	case CategoryPermission:
		return g.generatePermissionSuggestions(affectedPath)
	case CategoryNotFound:
		return g.generateNotFoundSuggestions(affectedPath)
	case CategoryLinkLoop:
		return g.generateLinkLoopSuggestions(affectedPath)
	case CategoryIO:
		return g.generateIOSuggestions(affectedPath)
	case CategoryConnection:
		return g.generateConnectionSuggestions()
	case CategoryUnknown:
		return g.generateUnknownSuggestions(affectedPath)
	default:
		return g.generateUnknownSuggestions(affectedPath)
	}
}

func (g *suggestionGenerator) generateConnectionSuggestions() []string {
	return []string{
		"Check that the SSH server is reachable and accepting connections",
		"Verify your SSH agent or keys in ~/.ssh are loaded",
		"Lower --max-in-flight if the server limits concurrent sessions",
	}
}

func (g *suggestionGenerator) generateIOSuggestions(path string) []string {
	suggestions := []string{
		"Try the scan again - this may be a transient I/O error",
		"Check system logs for hardware or network filesystem issues",
	}

	if path != "" {
		suggestions = append(suggestions, "Check whether the filesystem holding "+path+" is still mounted")
	}

	return suggestions
}

func (g *suggestionGenerator) generateLinkLoopSuggestions(path string) []string {
	suggestions := []string{
		"A symbolic link points back at one of its own parents",
	}

	if path != "" {
		suggestions = append(suggestions, fmt.Sprintf("Inspect the link with 'ls -l %s'", path))
	}

	suggestions = append(suggestions, "Scan the link target directly if its contents are needed")

	return suggestions
}

func (g *suggestionGenerator) generateNotFoundSuggestions(path string) []string {
	suggestions := []string{
		"The entry may have been removed while the scan was running",
	}

	if path != "" {
		suggestions = append(suggestions, "Check if the path exists: "+path)
		suggestions = append(suggestions, "If it is a symbolic link, check its target: "+path)
	} else {
		suggestions = append(suggestions, "Verify the path exists and is spelled correctly")
	}

	return suggestions
}

func (g *suggestionGenerator) generatePermissionSuggestions(path string) []string {
	suggestions := []string{
		"Ensure you have read and execute permission on the directories being scanned",
	}

	if path != "" {
		suggestions = append(suggestions, fmt.Sprintf("Check permissions with 'ls -ld %s'", path))
	} else {
		suggestions = append(suggestions, "Check permissions with 'ls -ld' on the affected path")
	}

	suggestions = append(suggestions, "Try running as a user that can read the tree")

	return suggestions
}

func (g *suggestionGenerator) generateUnknownSuggestions(path string) []string {
	suggestions := []string{
		"Check the error message for more details",
		"Run again with --log-level debug to see every absorbed problem",
	}

	if path != "" {
		suggestions = append(suggestions, "Verify the path is accessible: "+path)
	}

	return suggestions
}
