package automationyaml

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify turns an automation alias into the object id Home Assistant
// derives from it: "Porch Lights (evening)" becomes "porch_lights_evening".
func Slugify(alias string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), alias)
	if err != nil {
		folded = alias
	}
	folded = strings.TrimSpace(strings.ToLower(folded))

	var b strings.Builder
	b.Grow(len(folded))
	inSpace := false
	for _, r := range folded {
		switch {
		case unicode.IsSpace(r):
			inSpace = true
			continue
		case isWord(r) || r == '-':
		default:
			continue
		}
		if inSpace {
			b.WriteByte('_')
			inSpace = false
		}
		b.WriteRune(r)
	}
	if inSpace {
		b.WriteByte('_')
	}
	return collapseUnderscores(b.String())
}

func isWord(r rune) bool {
	return r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
}

func collapseUnderscores(s string) string {
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return s
}
