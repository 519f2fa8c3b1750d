// Package textproc turns headline and summary text into normalized tokens.
package textproc

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lower-cases s and removes diacritics ("Café" -> "cafe").
func Fold(s string) string {
	// transform chains keep state, so one is built per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

func isTokenRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Tokenize splits s into folded tokens on every rune that is not a letter
// or digit. The slice index of a token is its ordinal position.
func Tokenize(s string) []string {
	return strings.FieldsFunc(Fold(s), func(r rune) bool { return !isTokenRune(r) })
}

// TokenizeAll tokenizes each part and concatenates the results so positions
// run on across parts, as if the parts were one text.
func TokenizeAll(parts ...string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, Tokenize(p)...)
	}
	return out
}

// SplitGlobWord folds word and splits it where Tokenize would, keeping '*'
// and '?' inside the pieces. "e-mail*" yields "e" and "mail*".
func SplitGlobWord(word string) []string {
	return strings.FieldsFunc(Fold(word), func(r rune) bool {
		return !isTokenRune(r) && r != '*' && r != '?'
	})
}

// FoldGlob folds a wildcard piece like a token while keeping '*' and '?'.
// Other punctuation is dropped and runs of '*' collapse to one. Callers
// split words with SplitGlobWord first.
func FoldGlob(word string) string {
	var b strings.Builder
	var prev rune
	for _, r := range Fold(word) {
		switch {
		case r == '*':
			if prev == '*' {
				continue
			}
			b.WriteRune(r)
		case r == '?' || isTokenRune(r):
			b.WriteRune(r)
		default:
			continue
		}
		prev = r
	}
	return b.String()
}

// StripHTML returns the text content of an HTML fragment with whitespace
// collapsed. Plain text passes through unchanged apart from spacing.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return CollapseSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return CollapseSpace(s)
	}
	return CollapseSpace(doc.Text())
}

// CollapseSpace trims s and replaces each whitespace run with one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
