// Package index maintains the inverted index over article headlines and
// summaries. Each change publishes a new immutable Snapshot with a single
// atomic pointer swap, so queries bound to an older snapshot finish against
// a consistent view while writers move on.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"newsdesk/internal/model"
	"newsdesk/internal/textproc"
)

// DefaultMaxLayers bounds how many delta layers a snapshot chain may reach
// before it is flattened.
const DefaultMaxLayers = 16

// Getter loads the current state of specific articles; missing ids are
// omitted from the result.
type Getter interface {
	GetMany(ctx context.Context, ids []int64) ([]model.Article, error)
}

// Lister lists articles in recency order; limit <= 0 means all.
type Lister interface {
	ListOrderedByRecency(ctx context.Context, offset, limit int) ([]model.Article, error)
}

// Stats describes the current snapshot.
type Stats struct {
	Version       uint64 `json:"version"`
	Articles      int    `json:"articles"`
	Terms         int    `json:"terms"`
	Layers        int    `json:"layers"`
	LiveSnapshots int64  `json:"live_snapshots"`
}

// Options configures a Manager.
type Options struct {
	MaxLayers int
	// OnPublish, when set, is called after every publication while the
	// writer lock is still held.
	OnPublish func(Stats)
}

// Manager is the single writer of the index. Readers call Acquire and never
// contend with writers.
type Manager struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
	live    atomic.Int64
	opts    Options

	// batches is held shared by multi-article writes from their first store
	// write through their Refresh, and exclusively by Rebuild.
	batches sync.RWMutex
}

// NewManager returns a manager holding an empty version-0 snapshot.
func NewManager(opts Options) *Manager {
	if opts.MaxLayers <= 0 {
		opts.MaxLayers = DefaultMaxLayers
	}
	m := &Manager{opts: opts}
	root := emptySnapshot(0)
	m.adopt(root)
	m.current.Store(root)
	return m
}

func (m *Manager) adopt(s *Snapshot) {
	s.refs.Store(1)
	s.onRelease = m.released
	m.live.Add(1)
}

func (m *Manager) released(*Snapshot) {
	m.live.Add(-1)
}

// Acquire returns the current snapshot with a reference held. Callers must
// Release it when their query is done.
func (m *Manager) Acquire() *Snapshot {
	for {
		s := m.current.Load()
		if s.tryAcquire() {
			return s
		}
	}
}

// Version is the version of the current snapshot.
func (m *Manager) Version() uint64 {
	return m.current.Load().version
}

// Stats describes the current snapshot.
func (m *Manager) Stats() Stats {
	return m.statsOf(m.current.Load())
}

func (m *Manager) statsOf(s *Snapshot) Stats {
	return Stats{
		Version:       s.version,
		Articles:      s.articles,
		Terms:         s.vocab,
		Layers:        s.depth + 1,
		LiveSnapshots: m.live.Load(),
	}
}

// Apply indexes upserts and removes deletes in one new snapshot and returns
// its version. An empty change set publishes nothing.
func (m *Manager) Apply(upserts []model.Article, deletes []int64) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applyLocked(upserts, deletes)
}

func (m *Manager) applyLocked(upserts []model.Article, deletes []int64) uint64 {
	cur := m.current.Load()
	if len(upserts) == 0 && len(deletes) == 0 {
		return cur.version
	}
	b := newBuilder(cur, cur.version+1, cur)
	for _, id := range deletes {
		b.remove(id)
	}
	for _, a := range upserts {
		b.add(a)
	}
	return m.publish(b.finish())
}

// Refresh re-reads ids from the store and makes the index agree with what
// it finds: present articles are re-indexed, missing ones removed. Running
// it after every store mutation makes the index converge on the store even
// when mutations of the same article race.
func (m *Manager) Refresh(ctx context.Context, g Getter, ids []int64) (uint64, error) {
	if len(ids) == 0 {
		return m.Version(), nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	arts, err := g.GetMany(ctx, ids)
	if err != nil {
		return m.current.Load().version, fmt.Errorf("index refresh: %w", err)
	}
	present := make(map[int64]struct{}, len(arts))
	for _, a := range arts {
		present[a.ID] = struct{}{}
	}
	var deletes []int64
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			deletes = append(deletes, id)
		}
	}
	return m.applyLocked(arts, deletes), nil
}

// BeginBatch marks the start of a write that commits several articles to the
// store before a single Refresh. Rebuild waits until every open batch has
// ended, so it never reads a batch half written. Call end after the Refresh.
func (m *Manager) BeginBatch() (end func()) {
	m.batches.RLock()
	return m.batches.RUnlock
}

// Rebuild replaces the index with one built from every article in l. It
// waits for open batches to end first.
func (m *Manager) Rebuild(ctx context.Context, l Lister) (uint64, error) {
	m.batches.Lock()
	defer m.batches.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()

	arts, err := l.ListOrderedByRecency(ctx, 0, 0)
	if err != nil {
		return m.current.Load().version, fmt.Errorf("index rebuild: %w", err)
	}
	cur := m.current.Load()
	b := newBuilder(emptySnapshot(0), cur.version+1, nil)
	for _, a := range arts {
		b.add(a)
	}
	v := m.publish(b.finish())
	slog.Info("index: rebuilt", "version", v, "articles", len(arts))
	return v, nil
}

func (m *Manager) publish(next *Snapshot) uint64 {
	if next.depth >= m.opts.MaxLayers {
		next = flatten(next)
	}
	m.adopt(next)
	old := m.current.Swap(next)
	old.Release()
	if m.opts.OnPublish != nil {
		m.opts.OnPublish(m.statsOf(next))
	}
	return next.version
}

// builder accumulates one batch of changes on top of base. Postings are
// copied the first time the batch touches their token and shared otherwise.
type builder struct {
	base *Snapshot
	next *Snapshot
	work map[string]Postings
}

func newBuilder(base *Snapshot, version uint64, parent *Snapshot) *builder {
	next := emptySnapshot(version)
	next.parent = parent
	if parent != nil {
		next.depth = parent.depth + 1
		next.articles = parent.articles
		next.vocab = parent.vocab
	}
	return &builder{base: base, next: next, work: map[string]Postings{}}
}

func (b *builder) postings(tok string) Postings {
	if p, ok := b.work[tok]; ok {
		return p
	}
	orig := b.base.Postings(tok)
	p := make(Postings, len(orig)+1)
	for id, pos := range orig {
		p[id] = pos
	}
	b.work[tok] = p
	return p
}

func (b *builder) doc(id int64) *Doc {
	if d, ok := b.next.docs[id]; ok {
		return d
	}
	return b.base.Doc(id)
}

func (b *builder) remove(id int64) {
	d := b.doc(id)
	if d == nil {
		return
	}
	for _, tok := range d.Tokens {
		delete(b.postings(tok), id)
	}
	b.next.docs[id] = nil
	b.next.articles--
}

func (b *builder) add(a model.Article) {
	b.remove(a.ID)
	tokens := textproc.TokenizeAll(a.Headline, a.Summary)
	for i, tok := range tokens {
		p := b.postings(tok)
		p[a.ID] = append(p[a.ID], i)
	}
	b.next.docs[a.ID] = &Doc{ID: a.ID, CreatedAt: a.CreatedAt, Tokens: tokens}
	b.next.articles++
}

func (b *builder) finish() *Snapshot {
	for tok, p := range b.work {
		existed := len(b.base.Postings(tok)) > 0
		switch {
		case len(p) > 0:
			b.next.terms[tok] = p
			if !existed {
				b.next.vocab++
			}
		case existed:
			b.next.terms[tok] = nil
			b.next.vocab--
		}
	}
	return b.next
}
