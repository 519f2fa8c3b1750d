// Package search evaluates parsed queries against an index snapshot.
package search

import (
	"slices"

	"newsdesk/internal/index"
	"newsdesk/internal/query"
)

// Searcher evaluates q against snap and returns matching article ids in
// recency order.
type Searcher interface {
	Search(q query.Query, snap *index.Snapshot) []int64
}

// Engine is the uncached Searcher.
type Engine struct{}

// NewEngine returns an Engine.
func NewEngine() *Engine { return &Engine{} }

// Search dispatches on the query variant. The result is never nil.
func (e *Engine) Search(q query.Query, snap *index.Snapshot) []int64 {
	var ids []int64
	switch q := q.(type) {
	case query.FieldQuery:
		ids = evalField(q, snap)
	case query.PatternQuery:
		ids = evalPattern(q, snap)
	}
	if ids == nil {
		return []int64{}
	}
	snap.SortByRecency(ids)
	return ids
}

type idSet map[int64]struct{}

func setOf(p index.Postings) idSet {
	s := make(idSet, len(p))
	for id := range p {
		s[id] = struct{}{}
	}
	return s
}

func evalField(q query.FieldQuery, snap *index.Snapshot) []int64 {
	lists := make([]index.Postings, 0, len(q.Terms))
	for _, term := range q.Terms {
		p := snap.Postings(term)
		if len(p) == 0 {
			return nil
		}
		lists = append(lists, p)
	}
	slices.SortFunc(lists, func(a, b index.Postings) int { return len(a) - len(b) })

	var out []int64
next:
	for id := range lists[0] {
		for _, p := range lists[1:] {
			if _, ok := p[id]; !ok {
				continue next
			}
		}
		out = append(out, id)
	}
	return out
}

func evalPattern(q query.PatternQuery, snap *index.Snapshot) []int64 {
	sets := make([]idSet, 0, len(q.Clauses))
	for _, c := range q.Clauses {
		s := evalClause(c, snap)
		if len(s) == 0 {
			return nil
		}
		sets = append(sets, s)
	}
	slices.SortFunc(sets, func(a, b idSet) int { return len(a) - len(b) })

	var out []int64
next:
	for id := range sets[0] {
		for _, s := range sets[1:] {
			if _, ok := s[id]; !ok {
				continue next
			}
		}
		out = append(out, id)
	}
	return out
}

func evalClause(c query.Clause, snap *index.Snapshot) idSet {
	switch c.Kind {
	case query.Literal:
		return setOf(snap.Postings(c.Token))
	case query.Wildcard:
		return evalWildcard(c.Glob, snap)
	case query.Phrase:
		return evalPhrase(c.Tokens, snap)
	}
	return nil
}

// evalWildcard scans the vocabulary, which is far smaller than the corpus,
// and unions the postings of every token the glob matches.
func evalWildcard(glob string, snap *index.Snapshot) idSet {
	out := idSet{}
	snap.Vocabulary(func(tok string, p index.Postings) bool {
		if query.MatchGlob(glob, tok) {
			for id := range p {
				out[id] = struct{}{}
			}
		}
		return true
	})
	return out
}

// evalPhrase intersects the postings of the phrase tokens, then keeps the
// articles where they occur at consecutive positions.
func evalPhrase(tokens []string, snap *index.Snapshot) idSet {
	lists := make([]index.Postings, len(tokens))
	for i, tok := range tokens {
		p := snap.Postings(tok)
		if len(p) == 0 {
			return nil
		}
		lists[i] = p
	}
	out := idSet{}
	for id, starts := range lists[0] {
		for _, start := range starts {
			if phraseAt(lists, id, start) {
				out[id] = struct{}{}
				break
			}
		}
	}
	return out
}

func phraseAt(lists []index.Postings, id int64, start int) bool {
	for k := 1; k < len(lists); k++ {
		if !slices.Contains(lists[k][id], start+k) {
			return false
		}
	}
	return true
}
