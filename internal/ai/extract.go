package ai

import "strings"

// InvalidFormat is the soft sentinel substituted when a generation response
// does not contain the expected delimited span. It is never surfaced to
// players; the pipeline treats it the same as a decision not to speak.
const InvalidFormat = "INVALID_FORMAT"

// extractBetween returns the trimmed text between the first pair of delim
// occurrences in s. The second return value is false when no complete pair
// exists.
func extractBetween(s, delim string) (string, bool) {
	start := strings.Index(s, delim)
	if start < 0 {
		return "", false
	}
	rest := s[start+len(delim):]
	end := strings.Index(rest, delim)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}
