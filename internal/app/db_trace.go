package app

import (
	"regexp"
	"strings"
)

// Span attributes get unwieldy beyond this; long statements are cut.
const maxTracedQueryLen = 512

var collapseWhitespace = regexp.MustCompile(`\s+`)

// formatDBQueryForTrace flattens a SQL statement to a single line for span
// attributes.
func formatDBQueryForTrace(query string) string {
	normalized := collapseWhitespace.ReplaceAllString(strings.TrimSpace(query), " ")
	if len(normalized) > maxTracedQueryLen {
		return normalized[:maxTracedQueryLen] + "..."
	}
	return normalized
}
