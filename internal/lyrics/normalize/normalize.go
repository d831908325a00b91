// Package normalize holds the text rules shared by the lyrics pipeline:
// artist-name matching keys and the display cleanup of scraped lyrics.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	parenthetical = regexp.MustCompile(`\(.*\)`)

	sectionMarker = regexp.MustCompile(`\[.*?\]`)
	spaceRuns     = regexp.MustCompile(` +`)
	newlinePad    = regexp.MustCompile(` *\n *`)
	blankRuns     = regexp.MustCompile(`\n{3,}`)
)

// Artist reduces an artist name to its matching key: NFC, lower case, "э" folded
// to "е", parenthetical suffix removed, only letters, digits and '_' kept.
// Two names match when their keys are equal; there is no fuzzy matching.
func Artist(name string) string {
	return fold(parenthetical.ReplaceAllString(lower(name), ""))
}

// Fingerprint is the cache key for a song request. Unlike Artist it keeps
// parenthetical parts, so "Song (Live)" and "Song" are cached apart.
func Fingerprint(artist, song string) string {
	return fold(lower(artist)) + "|" + fold(lower(song))
}

func lower(s string) string {
	s = norm.NFC.String(s)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "э", "е")
}

// fold keeps only letters, digits and '_'.
func fold(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' {
			return r
		}
		return -1
	}, s)
}

// Lyrics turns raw scraped text into display-ready lines. The steps run in a
// fixed order; reordering them changes the output.
func Lyrics(raw string) string {
	text := sectionMarker.ReplaceAllString(raw, "\n$0\n")
	text = spaceRuns.ReplaceAllString(text, " ")
	text = breakBeforeCapitals(text)
	text = newlinePad.ReplaceAllString(text, "\n")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// breakBeforeCapitals replaces a space inside a line with a newline when an
// upper-case letter follows it. Sources that flatten lines into one paragraph
// still start every line with a capital.
func breakBeforeCapitals(text string) string {
	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text))

	for i, r := range runes {
		if r == ' ' && i > 0 && runes[i-1] != '\n' && i+1 < len(runes) && unicode.IsUpper(runes[i+1]) {
			b.WriteRune('\n')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
