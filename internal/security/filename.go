// Package security holds the sanitisation used where user-supplied
// strings reach filesystem or header contexts.
package security

import "strings"

// SanitizeFilename makes a safe filename component from an arbitrary
// string such as a trajectory name. Any character that is not an ASCII
// letter, digit, dot, underscore or dash becomes an underscore, runs of
// underscores collapse, and the result is length-capped so download
// filenames built from user input stay well-formed.
func SanitizeFilename(s string) string {
	if s == "" {
		return "unknown"
	}
	const maxLen = 128
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastUnderscore = false
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
