package parse

import "strings"

// NormalizeText collapses every whitespace run to a single space and trims.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
