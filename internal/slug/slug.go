// Package slug turns titles and names into URL slugs.
package slug

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength is the longest slug the store accepts.
const MaxLength = 255

var (
	// nonAlphanumeric matches every run of characters outside [a-z0-9].
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	validSlug       = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Generate creates a URL-friendly slug from the given string.
// Example: "Café Déjà Vu, 2025!" → "cafe-deja-vu-2025"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(transliterate(s)))
	result = nonAlphanumeric.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	if len(result) > MaxLength {
		result = strings.TrimRight(result[:MaxLength], "-")
	}
	return result
}

// Valid reports whether s is already in slug form.
func Valid(s string) bool {
	return len(s) <= MaxLength && validSlug.MatchString(s)
}

// WithSuffix returns base for n == 0 and "base-n" otherwise, shortening
// base when the result would exceed MaxLength.
func WithSuffix(base string, n int) string {
	if n <= 0 {
		return base
	}
	suffix := "-" + strconv.Itoa(n)
	if len(base)+len(suffix) > MaxLength {
		base = strings.TrimRight(base[:MaxLength-len(suffix)], "-")
	}
	return base + suffix
}

// transliterate strips combining marks after decomposition so accented
// latin letters fall back to their ASCII base.
func transliterate(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
