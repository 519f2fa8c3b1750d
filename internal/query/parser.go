package query

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"newsdesk/internal/apperr"
	"newsdesk/internal/textproc"
)

// Parse turns raw into a Query for the given mode.
func Parse(raw string, mode Mode) (Query, error) {
	switch mode {
	case ModeHeadlineSummary:
		return parseField(raw)
	case ModeWildcardPhrase:
		return parsePattern(raw)
	default:
		return nil, apperr.Newf(apperr.Validation, "parse query", "unknown search mode %q", mode)
	}
}

func parseField(raw string) (Query, error) {
	terms := textproc.Tokenize(raw)
	if len(terms) == 0 {
		return nil, apperr.New(apperr.EmptyQuery, "parse query", "please enter a search term")
	}
	return FieldQuery{Terms: terms}, nil
}

func parsePattern(raw string) (Query, error) {
	var clauses []Clause
	i := 0
	for i < len(raw) {
		r, size := utf8.DecodeRuneInString(raw[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case r == '"':
			end := strings.IndexByte(raw[i+1:], '"')
			if end < 0 {
				return nil, apperr.Newf(apperr.Syntax, "parse query", "unbalanced quote at offset %d", i)
			}
			clauses = appendPhrase(clauses, raw[i+1:i+1+end])
			i += end + 2
		default:
			start := i
			for i < len(raw) {
				r, size = utf8.DecodeRuneInString(raw[i:])
				if unicode.IsSpace(r) || r == '"' {
					break
				}
				i += size
			}
			clauses = appendWord(clauses, raw[start:i])
		}
	}
	if len(clauses) == 0 {
		return nil, apperr.New(apperr.EmptyQuery, "parse query", "please enter a search term")
	}
	return PatternQuery{Clauses: clauses}, nil
}

func appendPhrase(clauses []Clause, text string) []Clause {
	tokens := textproc.Tokenize(text)
	switch len(tokens) {
	case 0:
		return clauses
	case 1:
		return append(clauses, Clause{Kind: Literal, Token: tokens[0]})
	default:
		return append(clauses, Clause{Kind: Phrase, Tokens: tokens})
	}
}

// appendWord splits word at punctuation the way tokenization does. Pieces
// holding '*' or '?' become wildcards, the rest literals.
func appendWord(clauses []Clause, word string) []Clause {
	for _, piece := range textproc.SplitGlobWord(word) {
		if strings.ContainsAny(piece, "*?") {
			clauses = append(clauses, Clause{Kind: Wildcard, Glob: textproc.FoldGlob(piece)})
			continue
		}
		clauses = append(clauses, Clause{Kind: Literal, Token: piece})
	}
	return clauses
}
