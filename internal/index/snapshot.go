package index

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Postings maps an article id to the ordinal positions of one token in that
// article's headline+summary token stream. Published postings are never
// modified.
type Postings map[int64][]int

// Doc is the indexed form of one article.
type Doc struct {
	ID        int64
	CreatedAt time.Time
	Tokens    []string
}

// Snapshot is an immutable, versioned view of the index. A snapshot stores
// only what changed relative to its parent; a nil map value marks a token or
// article removed in this layer.
type Snapshot struct {
	version  uint64
	parent   *Snapshot
	depth    int
	terms    map[string]Postings
	docs     map[int64]*Doc
	articles int
	vocab    int

	refs      atomic.Int64
	released  atomic.Bool
	onRelease func(*Snapshot)

	orderOnce sync.Once
	order     []int64
}

func emptySnapshot(version uint64) *Snapshot {
	return &Snapshot{
		version: version,
		terms:   map[string]Postings{},
		docs:    map[int64]*Doc{},
	}
}

// Version is the publication number; later snapshots have larger versions.
func (s *Snapshot) Version() uint64 { return s.version }

// Len is the number of indexed articles.
func (s *Snapshot) Len() int { return s.articles }

// Terms is the vocabulary size.
func (s *Snapshot) Terms() int { return s.vocab }

// Postings returns the postings of token, or nil when no article has it.
func (s *Snapshot) Postings(token string) Postings {
	for l := s; l != nil; l = l.parent {
		if p, ok := l.terms[token]; ok {
			return p
		}
	}
	return nil
}

// Doc returns the indexed article, or nil.
func (s *Snapshot) Doc(id int64) *Doc {
	for l := s; l != nil; l = l.parent {
		if d, ok := l.docs[id]; ok {
			return d
		}
	}
	return nil
}

// Vocabulary calls fn for every token with at least one posting until fn
// returns false. Order is unspecified.
func (s *Snapshot) Vocabulary(fn func(token string, p Postings) bool) {
	seen := map[string]struct{}{}
	for l := s; l != nil; l = l.parent {
		for tok, p := range l.terms {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			if len(p) == 0 {
				continue
			}
			if !fn(tok, p) {
				return
			}
		}
	}
}

func (s *Snapshot) eachDoc(fn func(d *Doc)) {
	seen := map[int64]struct{}{}
	for l := s; l != nil; l = l.parent {
		for id, d := range l.docs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			if d != nil {
				fn(d)
			}
		}
	}
}

// AllIDs returns every indexed article id in recency order. The slice is
// shared between callers and must not be modified.
func (s *Snapshot) AllIDs() []int64 {
	s.orderOnce.Do(func() {
		docs := make([]*Doc, 0, s.articles)
		s.eachDoc(func(d *Doc) { docs = append(docs, d) })
		sortDocs(docs)
		s.order = make([]int64, len(docs))
		for i, d := range docs {
			s.order[i] = d.ID
		}
	})
	return s.order
}

// SortByRecency orders ids by created_at descending, then id descending.
// Ids unknown to the snapshot sort last.
func (s *Snapshot) SortByRecency(ids []int64) {
	docs := make([]*Doc, len(ids))
	for i, id := range ids {
		d := s.Doc(id)
		if d == nil {
			d = &Doc{ID: id}
		}
		docs[i] = d
	}
	sortDocs(docs)
	for i, d := range docs {
		ids[i] = d.ID
	}
}

func sortDocs(docs []*Doc) {
	slices.SortFunc(docs, func(a, b *Doc) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
}

// Release drops a reference taken with Manager.Acquire. The snapshot must
// not be used afterwards.
func (s *Snapshot) Release() {
	n := s.refs.Add(-1)
	if n < 0 {
		panic("index: snapshot released more times than acquired")
	}
	if n == 0 && s.released.CompareAndSwap(false, true) && s.onRelease != nil {
		s.onRelease(s)
	}
}

// Released reports whether the last reference has been dropped.
func (s *Snapshot) Released() bool { return s.released.Load() }

// tryAcquire adds a reference unless the snapshot has already been released.
func (s *Snapshot) tryAcquire() bool {
	for {
		n := s.refs.Load()
		if n <= 0 {
			return false
		}
		if s.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func flatten(s *Snapshot) *Snapshot {
	out := &Snapshot{
		version:  s.version,
		terms:    make(map[string]Postings, s.vocab),
		docs:     make(map[int64]*Doc, s.articles),
		articles: s.articles,
		vocab:    s.vocab,
	}
	s.Vocabulary(func(tok string, p Postings) bool {
		out.terms[tok] = p
		return true
	})
	s.eachDoc(func(d *Doc) { out.docs[d.ID] = d })
	return out
}
