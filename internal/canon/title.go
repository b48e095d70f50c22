package canon

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Title maps a display title to the identity key used to join listings across
// storefronts.
//
// The key is lowercase ASCII: accents are folded away, hyphens and underscores
// act as word separators, every other character outside [a-z0-9] and
// whitespace is dropped, and each whitespace run becomes a single hyphen.
// Title(Title(s)) == Title(s) for every s.
func Title(title string) string {
	s := strings.TrimSpace(strings.ToLower(title))
	if s == "" {
		return ""
	}
	s = foldAccents(s)

	var b strings.Builder
	b.Grow(len(s))
	pendingSep := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			pendingSep = true
		}
	}
	return b.String()
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
