package util

import "strings"

// Normalize lower-cases and trims a string. Channel names are
// case-insensitive on every supported platform.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// FirstNonEmpty returns the first candidate that is not empty after trimming,
// or fallback when none is. Upstream payloads spell the same field several
// ways, so callers list the known locations in preference order.
func FirstNonEmpty(fallback string, candidates ...string) string {
	for _, c := range candidates {
		if trimmed := strings.TrimSpace(c); trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
