package state

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/unicode/norm"
)

// Matches reports whether a typed answer is close enough to the expected one.
// Case, punctuation, "ё" and extra spaces are ignored; a few typos are
// tolerated on longer answers (one per five letters).
func Matches(given, expected string) bool {
	g, e := fold(given), fold(expected)
	if g == "" || e == "" {
		return false
	}
	if g == e {
		return true
	}
	return levenshtein.ComputeDistance(g, e) <= len([]rune(e))/5
}

func fold(s string) string {
	s = norm.NFC.String(strings.ToLower(s))
	s = strings.ReplaceAll(s, "ё", "е")
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsNumber(r):
			return r
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
