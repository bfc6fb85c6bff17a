package portfolio

import (
	"regexp"
	"strings"
)

var slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateSlug lower-cases name, collapses every run of characters outside [a-z0-9]
// into a single hyphen and trims hyphens from both ends.
func GenerateSlug(name string) string {
	slug := slugSeparators.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
