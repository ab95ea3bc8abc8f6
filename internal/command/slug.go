package command

import (
	"regexp"
	"strings"
)

const maxSlugLen = 32

var slugSeparators = regexp.MustCompile(`[^a-z0-9\x{4e00}-\x{9fa5}]+`)

// Slugify lowercases s, joins runs of characters outside a-z, 0-9 and the
// CJK unified ideographs with "-", trims dashes and caps the result at 32
// characters. It returns "" when nothing survives.
func Slugify(s string) string {
	slug := slugSeparators.ReplaceAllString(strings.ToLower(s), "-")
	slug = strings.Trim(slug, "-")
	if r := []rune(slug); len(r) > maxSlugLen {
		slug = string(r[:maxSlugLen])
	}
	return slug
}
