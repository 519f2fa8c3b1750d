package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"newsdesk/internal/ai"
	"newsdesk/internal/apperr"
	"newsdesk/internal/index"
	"newsdesk/internal/model"
	"newsdesk/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	name  string
	cands []model.Candidate
	err   error
	calls atomic.Int32
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(ctx context.Context, limit int) ([]model.Candidate, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.cands, nil
}

type fixture struct {
	store     *storage.SQLiteStore
	idx       *index.Manager
	publishes atomic.Int32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "ingest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	f := &fixture{store: s}
	f.idx = index.NewManager(index.Options{OnPublish: func(index.Stats) { f.publishes.Add(1) }})
	return f
}

func cand(headline, link string) model.Candidate {
	return model.Candidate{Headline: headline, Summary: "about " + headline, Link: link}
}

func TestIngestDedupesAndValidates(t *testing.T) {
	f := newFixture(t)
	p := New(f.store, f.idx, Options{})
	src := &fakeSource{name: "wire", cands: []model.Candidate{
		cand("First", "https://example.com/1"),
		cand("First again", "https://EXAMPLE.com/1#dup"),
		cand("", "https://example.com/no-headline"),
		cand("Bad link", "mailto:editor@example.com"),
		{Headline: " <b>Second</b>  story ", Summary: "<p>Body &amp; more</p>", Link: "https://example.com/2"},
	}}

	r, err := p.Ingest(context.Background(), src)
	require.NoError(t, err)
	assert.NotEmpty(t, r.RunID)
	assert.Equal(t, "wire", r.Source)
	assert.Equal(t, 5, r.Fetched)
	assert.Equal(t, 2, r.Added)
	assert.Equal(t, 3, r.Skipped)
	assert.Zero(t, r.Failed)
	assert.Equal(t, int32(1), f.publishes.Load())
	assert.Equal(t, f.idx.Version(), r.IndexVersion)

	got, err := f.store.GetByLink(context.Background(), "https://example.com/2")
	require.NoError(t, err)
	assert.Equal(t, "Second story", got.Headline)
	assert.Equal(t, "Body & more", got.Summary)
	assert.Equal(t, "wire", got.Source)

	snap := f.idx.Acquire()
	defer snap.Release()
	assert.Equal(t, 2, snap.Len())
}

func TestIngestSameLinkAgainUpdates(t *testing.T) {
	f := newFixture(t)
	p := New(f.store, f.idx, Options{})
	ctx := context.Background()
	src := &fakeSource{name: "wire", cands: []model.Candidate{cand("One", "https://example.com/1")}}
	_, err := p.Ingest(ctx, src)
	require.NoError(t, err)
	first, err := f.store.GetByLink(ctx, "https://example.com/1")
	require.NoError(t, err)

	// Unchanged content still refreshes the timestamp.
	r, err := p.Ingest(ctx, src)
	require.NoError(t, err)
	assert.Zero(t, r.Added)
	assert.Zero(t, r.Skipped)
	assert.Equal(t, 1, r.Updated)
	second, err := f.store.GetByLink(ctx, "https://example.com/1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	src.cands = []model.Candidate{cand("One, revised", "https://example.com/1")}
	r, err = p.Ingest(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Updated)
	third, err := f.store.GetByLink(ctx, "https://example.com/1")
	require.NoError(t, err)
	assert.Equal(t, "One, revised", third.Headline)
	assert.True(t, third.UpdatedAt.After(second.UpdatedAt))

	n, err := f.store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, int32(3), f.publishes.Load())
}

func TestIngestFetchFailureLeavesIndexUntouched(t *testing.T) {
	f := newFixture(t)
	p := New(f.store, f.idx, Options{})
	r, err := p.Ingest(context.Background(), &fakeSource{name: "down", err: errors.New("connection refused")})
	assert.ErrorIs(t, err, apperr.ErrIngestion)
	assert.Contains(t, r.Error, "connection refused")
	assert.Zero(t, f.idx.Version())
	assert.Zero(t, f.publishes.Load())
}

func TestIngestMaxCandidates(t *testing.T) {
	f := newFixture(t)
	p := New(f.store, f.idx, Options{MaxCandidates: 2})
	src := &fakeSource{name: "wire", cands: []model.Candidate{
		cand("a", "https://example.com/a"),
		cand("b", "https://example.com/b"),
		cand("c", "https://example.com/c"),
	}}
	r, err := p.Ingest(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Fetched)
	assert.Equal(t, 2, r.Added)
}

// slowStore blocks every Create after the first until ctx ends.
type slowStore struct {
	*storage.SQLiteStore
	creates atomic.Int32
}

func (s *slowStore) Create(ctx context.Context, a model.Article) (model.Article, error) {
	if s.creates.Add(1) > 1 {
		<-ctx.Done()
		return model.Article{}, ctx.Err()
	}
	return s.SQLiteStore.Create(ctx, a)
}

func TestIngestTimeoutKeepsCommittedItems(t *testing.T) {
	f := newFixture(t)
	store := &slowStore{SQLiteStore: f.store}
	p := New(store, f.idx, Options{FetchTimeout: 100 * time.Millisecond})
	src := &fakeSource{name: "slow", cands: []model.Candidate{
		cand("kept", "https://example.com/kept"),
		cand("stuck", "https://example.com/stuck"),
		cand("never", "https://example.com/never"),
		cand("never either", "https://example.com/never2"),
	}}

	r, err := p.Ingest(context.Background(), src)
	assert.ErrorIs(t, err, apperr.ErrIngestion)
	assert.Equal(t, 1, r.Added)
	assert.Equal(t, 3, r.Failed)

	snap := f.idx.Acquire()
	defer snap.Release()
	assert.Equal(t, 1, snap.Len())
	assert.Equal(t, int32(1), f.publishes.Load())
}

type fakeSummarizer struct{ calls atomic.Int32 }

func (f *fakeSummarizer) Summarize(ctx context.Context, title, content string) (string, error) {
	f.calls.Add(1)
	return "Generated summary for " + title, nil
}

func (f *fakeSummarizer) Analyze(ctx context.Context, title, content string) (ai.Analysis, error) {
	return ai.Analysis{}, apperr.New(apperr.Unavailable, "analyze", "not used")
}

func TestIngestBackfillsEmptySummary(t *testing.T) {
	f := newFixture(t)
	sum := &fakeSummarizer{}
	p := New(f.store, f.idx, Options{Summarizer: sum})
	src := &fakeSource{name: "wire", cands: []model.Candidate{
		{Headline: "Bare", Link: "https://example.com/bare"},
		cand("Full", "https://example.com/full"),
	}}
	_, err := p.Ingest(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, int32(1), sum.calls.Load())

	got, err := f.store.GetByLink(context.Background(), "https://example.com/bare")
	require.NoError(t, err)
	assert.Equal(t, "Generated summary for Bare", got.Summary)
}

func TestIngestAll(t *testing.T) {
	f := newFixture(t)
	p := New(f.store, f.idx, Options{Concurrency: 2})
	srcs := []Source{
		&fakeSource{name: "a", cands: []model.Candidate{cand("from a", "https://a.example/1")}},
		&fakeSource{name: "b", err: errors.New("boom")},
		&fakeSource{name: "c", cands: []model.Candidate{cand("from c", "https://c.example/1")}},
	}
	reports, err := p.IngestAll(context.Background(), srcs)
	assert.ErrorIs(t, err, apperr.ErrIngestion)
	require.Len(t, reports, 3)
	assert.Equal(t, "a", reports[0].Source)
	assert.Equal(t, 1, reports[0].Added)
	assert.NotEmpty(t, reports[1].Error)
	assert.Equal(t, 1, reports[2].Added)

	n, err := f.store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
