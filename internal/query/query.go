// Package query parses raw search strings into one of two query shapes:
// a FieldQuery of plain terms, or a PatternQuery of literal, wildcard and
// phrase clauses.
package query

import (
	"path"
	"strconv"
	"strings"

	"newsdesk/internal/apperr"
)

// Mode selects the query language.
type Mode string

const (
	ModeHeadlineSummary Mode = "headline_summary"
	ModeWildcardPhrase  Mode = "wildcard_phrase"
)

// ParseMode maps user input to a Mode. The empty string selects
// ModeHeadlineSummary.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ModeHeadlineSummary), "field", "simple":
		return ModeHeadlineSummary, nil
	case string(ModeWildcardPhrase), "pattern", "advanced":
		return ModeWildcardPhrase, nil
	default:
		return "", apperr.Newf(apperr.Validation, "parse mode", "unknown search mode %q", s)
	}
}

// Query is either a FieldQuery or a PatternQuery.
type Query interface {
	Mode() Mode
	// String renders the canonical form; equal queries render equally.
	String() string
	isQuery()
}

// FieldQuery matches articles containing every term.
type FieldQuery struct {
	Terms []string
}

func (FieldQuery) Mode() Mode { return ModeHeadlineSummary }
func (FieldQuery) isQuery()   {}

func (q FieldQuery) String() string {
	return "field(" + strings.Join(q.Terms, " ") + ")"
}

// ClauseKind tags a PatternQuery clause.
type ClauseKind int

const (
	Literal ClauseKind = iota
	Wildcard
	Phrase
)

func (k ClauseKind) String() string {
	switch k {
	case Literal:
		return "literal"
	case Wildcard:
		return "wildcard"
	case Phrase:
		return "phrase"
	default:
		return "clause(" + strconv.Itoa(int(k)) + ")"
	}
}

// Clause is one AND-ed condition of a PatternQuery. Token is set for
// Literal, Glob for Wildcard and Tokens for Phrase.
type Clause struct {
	Kind   ClauseKind
	Token  string
	Glob   string
	Tokens []string
}

func (c Clause) String() string {
	switch c.Kind {
	case Wildcard:
		return c.Glob
	case Phrase:
		return strconv.Quote(strings.Join(c.Tokens, " "))
	default:
		return c.Token
	}
}

// PatternQuery matches articles satisfying every clause.
type PatternQuery struct {
	Clauses []Clause
}

func (PatternQuery) Mode() Mode { return ModeWildcardPhrase }
func (PatternQuery) isQuery()   {}

func (q PatternQuery) String() string {
	parts := make([]string, len(q.Clauses))
	for i, c := range q.Clauses {
		parts[i] = c.String()
	}
	return "pattern(" + strings.Join(parts, " ") + ")"
}

// MatchGlob reports whether a whole normalized token matches glob, where
// '*' matches any run of runes (including none) and '?' exactly one rune.
func MatchGlob(glob, token string) bool {
	// Globs and tokens only hold letters, digits, '*' and '?', so none of
	// path.Match's separator or class syntax can occur.
	ok, err := path.Match(glob, token)
	return err == nil && ok
}
