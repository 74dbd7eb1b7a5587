package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// The catalog stores only unaccented uppercase names, so queries and entries
// go through the same transform: decompose, drop combining marks (accents and
// cedillas), recompose.
var diacriticStripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Normalize lowercases s, strips diacritics and collapses whitespace. It is
// applied both at index-build time and to every incoming query.
func Normalize(s string) string {
	out, _, err := transform.String(diacriticStripper, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}
