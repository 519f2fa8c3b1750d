package newsroom

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"newsdesk/internal/ai"
	"newsdesk/internal/apperr"
	"newsdesk/internal/ingest"
	"newsdesk/internal/model"
	"newsdesk/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, opts Options) *Service {
	t.Helper()
	store, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "newsroom.db"))
	require.NoError(t, err)
	s := New(store, opts)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Open(context.Background()))
	return s
}

func add(t *testing.T, s *Service, headline, summary, link string) model.Article {
	t.Helper()
	a, err := s.Create(context.Background(), model.Article{Headline: headline, Summary: summary, Link: link})
	require.NoError(t, err)
	return a
}

func ids(r Results) []int64 {
	out := make([]int64, 0, len(r.Items))
	for _, a := range r.Items {
		out = append(out, a.ID)
	}
	return out
}

func TestWritesAreSearchableImmediately(t *testing.T) {
	ctx := context.Background()
	s := newService(t, Options{})
	a := add(t, s, "Climate change summit opens", "Leaders gather in Paris", "https://example.com/climate")
	b := add(t, s, "AI startup raises funds", "Investors bet on air taxis", "https://example.com/ai")

	r, err := s.Search(ctx, "climate", "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID}, ids(r))
	assert.Equal(t, "headline_summary", r.Mode)

	r, err = s.Search(ctx, `ai*`, "wildcard_phrase", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID}, ids(r))

	_, err = s.Update(ctx, a.ID, model.ArticleUpdate{Headline: ptr("Ocean summit opens")})
	require.NoError(t, err)
	r, err = s.Search(ctx, "climate", "", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, r.Items)
	assert.Equal(t, 0, r.Total)

	require.NoError(t, s.Delete(ctx, b.ID))
	r, err = s.Search(ctx, `ai*`, "wildcard_phrase", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, r.Items)

	_, err = s.Get(ctx, b.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func ptr(s string) *string { return &s }

func TestSearchErrors(t *testing.T) {
	ctx := context.Background()
	s := newService(t, Options{})

	_, err := s.Search(ctx, "   ", "", 1, 10)
	assert.ErrorIs(t, err, apperr.ErrEmptyQuery)

	_, err = s.Search(ctx, `"open quote`, "wildcard_phrase", 1, 10)
	assert.ErrorIs(t, err, apperr.ErrSyntax)

	_, err = s.Search(ctx, "x", "regex", 1, 10)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestBrowsePaginates(t *testing.T) {
	ctx := context.Background()
	s := newService(t, Options{PageSize: 2})
	var want []int64
	for _, h := range []string{"one", "two", "three"} {
		a := add(t, s, h, "", "https://example.com/"+h)
		want = append([]int64{a.ID}, want...)
	}

	p1, err := s.Browse(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, p1.TotalPages)
	assert.Equal(t, 3, p1.Total)
	p2, err := s.Browse(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, want, append(ids(p1), ids(p2)...))

	clamped, err := s.Browse(ctx, 99, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, clamped.Page)
}

func TestReopenRebuildsIndex(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reopen.db")
	store, err := storage.OpenSQLite(path)
	require.NoError(t, err)
	first := New(store, Options{})
	require.NoError(t, first.Open(ctx))
	a := add(t, first, "Persistent headline", "", "https://example.com/p")
	require.NoError(t, first.Close())

	store, err = storage.OpenSQLite(path)
	require.NoError(t, err)
	second := New(store, Options{})
	defer second.Close()
	require.NoError(t, second.Open(ctx))
	r, err := second.Search(ctx, "persistent", "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID}, ids(r))
}

func TestUpdateRequiresAField(t *testing.T) {
	s := newService(t, Options{})
	a := add(t, s, "x", "", "https://example.com/x")
	_, err := s.Update(context.Background(), a.ID, model.ArticleUpdate{})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

type staticSource struct{ cands []model.Candidate }

func (staticSource) Name() string { return "static" }

func (s staticSource) Fetch(ctx context.Context, limit int) ([]model.Candidate, error) {
	return s.cands, nil
}

func TestIngestBySourceName(t *testing.T) {
	ctx := context.Background()
	src := staticSource{cands: []model.Candidate{{Headline: "Wire story", Link: "https://wire.example/1"}}}
	s := newService(t, Options{Sources: []ingest.Source{src}})
	assert.Equal(t, []string{"static"}, s.Sources())

	r, err := s.Ingest(ctx, "static")
	require.NoError(t, err)
	assert.Equal(t, 1, r.Added)

	res, err := s.Search(ctx, "wire", "", 1, 10)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "static", res.Items[0].Source)

	_, err = s.Ingest(ctx, "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = s.IngestAll(ctx, "static", "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	reports, err := s.IngestAll(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, 1, reports[0].Updated)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Stored)
	assert.Equal(t, 1, st.Index.Articles)
}

type fakeAI struct {
	analysis ai.Analysis
	err      error
}

func (f fakeAI) Summarize(ctx context.Context, title, content string) (string, error) {
	return "summary of " + title, f.err
}

func (f fakeAI) Analyze(ctx context.Context, title, content string) (ai.Analysis, error) {
	return f.analysis, f.err
}

func TestAIOperations(t *testing.T) {
	ctx := context.Background()
	none := newService(t, Options{})
	_, err := none.Summarize(ctx, "t", "c")
	assert.ErrorIs(t, err, apperr.ErrUnavailable)
	_, err = none.AnalyzeArticle(ctx, 1)
	assert.ErrorIs(t, err, apperr.ErrUnavailable)

	s := newService(t, Options{Summarizer: fakeAI{analysis: ai.Analysis{Summary: "Good news.", Sentiment: ai.Positive}}})
	out, err := s.Summarize(ctx, "Title", "Body")
	require.NoError(t, err)
	assert.Equal(t, "summary of Title", out)

	a := add(t, s, "Test Title", "Original Summary", "http://example.com")
	got, err := s.AnalyzeArticle(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Good news.", got.AISummary)
	assert.Equal(t, ai.Positive, got.Sentiment)

	_, err = s.AnalyzeArticle(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	broken := newService(t, Options{Summarizer: fakeAI{err: apperr.New(apperr.Unavailable, "ai", "incomplete AI response")}})
	b := add(t, broken, "x", "", "https://example.com/x")
	_, err = broken.AnalyzeArticle(ctx, b.ID)
	assert.ErrorIs(t, err, apperr.ErrUnavailable)
}

type namedSource struct {
	name string
	link string
}

func (n namedSource) Name() string { return n.name }

func (n namedSource) Fetch(ctx context.Context, limit int) ([]model.Candidate, error) {
	return []model.Candidate{{Headline: "From " + n.link, Link: n.link}}, nil
}

func TestDuplicateSourceNameKeepsFirst(t *testing.T) {
	ctx := context.Background()
	s := newService(t, Options{Sources: []ingest.Source{
		namedSource{name: "feed", link: "https://first.example/1"},
		namedSource{name: "feed", link: "https://second.example/1"},
	}})
	assert.Equal(t, []string{"feed"}, s.Sources())

	_, err := s.Ingest(ctx, "feed")
	require.NoError(t, err)
	_, err = s.Get(ctx, 1)
	require.NoError(t, err)
	_, err = s.store.GetByLink(ctx, "https://first.example/1")
	assert.NoError(t, err)
	_, err = s.store.GetByLink(ctx, "https://second.example/1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

type bulkSource struct{ n int }

func (bulkSource) Name() string { return "bulk" }

func (b bulkSource) Fetch(ctx context.Context, limit int) ([]model.Candidate, error) {
	out := make([]model.Candidate, 0, b.n)
	for i := 0; i < b.n; i++ {
		out = append(out, model.Candidate{
			Headline: fmt.Sprintf("Zebra sighting %d", i),
			Link:     fmt.Sprintf("https://bulk.example/%d", i),
		})
	}
	return out, nil
}

func TestReindexDuringIngestSeesWholeBatchOrNone(t *testing.T) {
	ctx := context.Background()
	const n = 300
	s := newService(t, Options{Sources: []ingest.Source{bulkSource{n: n}}})

	done := make(chan error, 1)
	go func() {
		_, err := s.Ingest(ctx, "bulk")
		done <- err
	}()

	for {
		select {
		case err := <-done:
			require.NoError(t, err)
			r, err := s.Search(ctx, "zebra", "", 1, 1)
			require.NoError(t, err)
			assert.Equal(t, n, r.Total)
			return
		default:
		}
		_, err := s.Reindex(ctx)
		require.NoError(t, err)
		r, err := s.Search(ctx, "zebra", "", 1, 1)
		require.NoError(t, err)
		if r.Total != 0 && r.Total != n {
			t.Fatalf("index holds %d of %d articles from one batch", r.Total, n)
		}
	}
}

type flakyStore struct {
	*storage.SQLiteStore
	failReads atomic.Bool
}

func (f *flakyStore) GetMany(ctx context.Context, ids []int64) ([]model.Article, error) {
	if f.failReads.Load() {
		return nil, errors.New("disk I/O error")
	}
	return f.SQLiteStore.GetMany(ctx, ids)
}

func TestFailedIndexRefreshIsReportedAndHealed(t *testing.T) {
	ctx := context.Background()
	base, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "flaky.db"))
	require.NoError(t, err)
	store := &flakyStore{SQLiteStore: base}
	s := New(store, Options{})
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Open(ctx))

	a := add(t, s, "Harbor opens", "", "https://example.com/a")
	b := add(t, s, "Harbor closes", "", "https://example.com/b")

	store.failReads.Store(true)
	err = s.Delete(ctx, a.ID)
	assert.ErrorIs(t, err, apperr.ErrStorage)
	store.failReads.Store(false)

	_, err = s.Get(ctx, a.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	r, err := s.Search(ctx, "harbor", "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID}, ids(r))
	assert.Equal(t, 1, r.Total)
	assert.Equal(t, 1, r.TotalPages)
	assert.Equal(t, 1, s.Index().Stats().Articles)

	r, err = s.Search(ctx, "harbor", "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Total)
}
