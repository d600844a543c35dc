package sanitizer

import (
	"strings"
	"unicode"
)

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// NormalizeUsername is the display form of a username: trimmed, inner
// whitespace collapsed. Case is preserved.
func NormalizeUsername(name string) string {
	return TrimAndNormalize(name)
}

// UsernameKey is the case-insensitive uniqueness key for a username.
// Two usernames denote the same account iff their keys are equal.
func UsernameKey(name string) string {
	return strings.ToLower(NormalizeUsername(name))
}
