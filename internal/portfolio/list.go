package portfolio

import "strings"

// ParseCommaList splits a comma separated form value into trimmed, non-empty entries.
// The result is never nil so it serialises as [] rather than null.
func ParseCommaList(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinCommaList is the display form used to pre-fill edit forms.
func JoinCommaList(items []string) string {
	return strings.Join(items, ", ")
}
