package post

import (
	"strings"
	"unicode"
)

// Slugify turns a title into a URL-safe identifier: lowercase, characters
// outside [a-z0-9\s-] removed, whitespace runs collapsed to single hyphens,
// hyphen runs collapsed, edge hyphens trimmed. Empty input (including titles
// that are entirely non-Latin) yields "untitled". Applying Slugify to its own
// output is a no-op.
func Slugify(title string) string {
	lowered := strings.ToLower(title)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	fields := strings.FieldsFunc(b.String(), func(r rune) bool {
		return r == ' '
	})
	slug := strings.Join(fields, "-")

	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	slug = strings.Trim(slug, "-")

	if slug == "" {
		return "untitled"
	}
	return slug
}
