package recipegen

import (
	"strings"
	"unicode"
)

var lithuanianTranslit = map[rune]rune{
	'ą': 'a', 'č': 'c', 'ę': 'e', 'ė': 'e', 'į': 'i',
	'š': 's', 'ų': 'u', 'ū': 'u', 'ž': 'z',
}

// Slugify converts a Lithuanian recipe title into a lowercase ASCII slug.
// Diacritics are transliterated, everything else non-alphanumeric becomes a
// hyphen. Callers append the job id to guarantee uniqueness.
func Slugify(title string) string {
	var sb strings.Builder
	prevHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		if mapped, ok := lithuanianTranslit[r]; ok {
			r = mapped
		}
		switch {
		case r >= 'a' && r <= 'z' || unicode.IsDigit(r) && r < 128:
			sb.WriteRune(r)
			prevHyphen = false
		case !prevHyphen:
			sb.WriteByte('-')
			prevHyphen = true
		}
	}
	slug := strings.Trim(sb.String(), "-")
	if slug == "" {
		return "receptas"
	}
	return slug
}
