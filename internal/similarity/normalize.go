package similarity

import "strings"

// Normalize collapses every whitespace run into one space, trims both ends and lowercases.
func Normalize(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}
