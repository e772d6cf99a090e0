package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// asciiFold maps characters that survive combining-mark stripping to ASCII
// equivalents. Includes the typographic spaces, dashes, and quotes common in
// rendered HTML.
var asciiFold = strings.NewReplacer(
	"\u00a0", " ",
	"\u2007", " ",
	"\u2009", " ",
	"\u202f", " ",
	"–", "-",
	"—", "-",
	"‘", "'",
	"’", "'",
	"“", `"`,
	"”", `"`,
	"…", "...",
	// Bullets separate address parts in rendered footers.
	"•", ",",
	"·", ",",
	"ß", "ss",
	"ẞ", "SS",
	"Ø", "O",
	"ø", "o",
	"Æ", "AE",
	"æ", "ae",
	"Œ", "OE",
	"œ", "oe",
	"Đ", "D",
	"đ", "d",
	"Ð", "D",
	"ð", "d",
	"Þ", "Th",
	"þ", "th",
	"Ł", "L",
	"ł", "l",
	"İ", "I",
	"ı", "i",
)

var markStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Transliterate folds text to its closest ASCII form. Characters with no
// mapping are dropped rather than guessed.
func Transliterate(s string) string {
	s = asciiFold.Replace(s)
	if out, _, err := transform.String(markStripper, s); err == nil {
		s = out
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
