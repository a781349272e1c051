package song

import (
	"regexp"
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxSlugLength caps the length of derived slugs.
const MaxSlugLength = 80

var nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)

// combiningMarks covers the Combining Diacritical Marks block (U+0300..U+036F).
var combiningMarks = runes.Predicate(func(r rune) bool {
	return r >= 0x0300 && r <= 0x036f
})

// Slugify lowercases text, strips diacritics, collapses every run of
// characters outside [a-z0-9] into one hyphen and caps the result at
// MaxSlugLength. The result never starts or ends with a hyphen and may be empty.
func Slugify(text string) string {
	lowered := strings.ToLower(text)
	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(combiningMarks)), lowered)
	if err != nil {
		stripped = lowered
	}
	slug := strings.Trim(nonSlugRun.ReplaceAllString(stripped, "-"), "-")
	if len(slug) > MaxSlugLength {
		slug = strings.TrimRight(slug[:MaxSlugLength], "-")
	}
	return slug
}
