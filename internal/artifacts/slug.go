package artifacts

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSlugLen = 50

// unnamedSlug is returned for titles with no usable characters.
const unnamedSlug = "unnamed-feature"

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Slugify converts a title into a URL/filesystem-safe slug.
// Example: "User Authentication (OAuth)" → "user-authentication-oauth"
//
// Rules:
//   - Accents are folded ("Café" → "cafe")
//   - Lowercase
//   - Spaces, underscores and hyphens become a single hyphen
//   - Other non-alphanumeric characters are removed
//   - Leading/trailing hyphens are trimmed
//   - Truncated to 50 characters (at a word boundary if possible)
//   - Empty input returns "unnamed-feature"
//
// Slugify is idempotent: Slugify(Slugify(s)) == Slugify(s).
func Slugify(title string) string {
	if strings.TrimSpace(title) == "" {
		return unnamedSlug
	}

	s := strings.ToLower(strings.TrimSpace(foldAccents(title)))

	var b strings.Builder
	prevHyphen := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			prevHyphen = false
		case r == ' ' || r == '_' || r == '-' || r == '\t' || r == '/':
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return unnamedSlug
	}

	if len(slug) <= maxSlugLen {
		return slug
	}

	truncated := slug[:maxSlugLen]
	if lastHyphen := strings.LastIndex(truncated, "-"); lastHyphen > maxSlugLen/2 {
		truncated = truncated[:lastHyphen]
	}
	return strings.TrimRight(truncated, "-")
}

// IsSlug reports whether s already has slug syntax.
func IsSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// StableSlug returns the slug an artifact should keep. Once a document has a
// slug it is never re-derived from an edited title.
func StableSlug(existing, title string) string {
	if existing = strings.TrimSpace(existing); existing != "" {
		return existing
	}
	return Slugify(title)
}

// foldAccents strips combining marks after canonical decomposition. On a
// transform error the input is returned unchanged and the ASCII filter in
// Slugify drops whatever it cannot map.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
