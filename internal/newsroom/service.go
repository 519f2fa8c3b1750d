// Package newsroom is the application facade used by the CLI, the HTTP API
// and the workers. Every store mutation is followed by an index refresh of
// the touched article, so searches see a write as soon as it returns.
package newsroom

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"newsdesk/internal/ai"
	"newsdesk/internal/apperr"
	"newsdesk/internal/index"
	"newsdesk/internal/ingest"
	"newsdesk/internal/metrics"
	"newsdesk/internal/model"
	"newsdesk/internal/paginate"
	"newsdesk/internal/query"
	"newsdesk/internal/search"
	"newsdesk/internal/storage"
)

type Options struct {
	MaxLayers int
	CacheSize int
	PageSize  int
	Ingest    ingest.Options
	// Summarizer is optional; AI operations return Unavailable without it.
	Summarizer ai.Summarizer
	Metrics    *metrics.Metrics
	Sources    []ingest.Source
}

type Service struct {
	store    storage.Store
	index    *index.Manager
	engine   *search.CachedEngine
	pipeline *ingest.Pipeline
	sources  map[string]ingest.Source
	ai       ai.Summarizer
	metrics  *metrics.Metrics
	pageSize int
}

// Results is one page of articles plus the snapshot it was computed from.
type Results struct {
	paginate.Page[model.Article]
	Query        string `json:"query,omitempty"`
	Mode         string `json:"mode,omitempty"`
	Canonical    string `json:"canonical,omitempty"`
	IndexVersion uint64 `json:"index_version"`
}

// Stats summarizes the corpus for the stats endpoint and CLI.
type Stats struct {
	Index       index.Stats `json:"index"`
	Stored      int         `json:"stored"`
	CachedPages int         `json:"cached_results"`
	Sources     []string    `json:"sources"`
}

func New(store storage.Store, opts Options) *Service {
	idx := index.NewManager(index.Options{MaxLayers: opts.MaxLayers, OnPublish: opts.Metrics.ObserveIndex})
	ingOpts := opts.Ingest
	ingOpts.Metrics = opts.Metrics
	if ingOpts.Summarizer == nil {
		ingOpts.Summarizer = opts.Summarizer
	}
	s := &Service{
		store:    store,
		index:    idx,
		engine:   search.NewCachedEngine(search.NewEngine(), opts.CacheSize),
		pipeline: ingest.New(store, idx, ingOpts),
		sources:  map[string]ingest.Source{},
		ai:       opts.Summarizer,
		metrics:  opts.Metrics,
		pageSize: opts.PageSize,
	}
	for _, src := range opts.Sources {
		name := src.Name()
		if _, dup := s.sources[name]; dup {
			slog.Warn("newsroom: duplicate source name ignored", "source", name)
			continue
		}
		s.sources[name] = src
	}
	return s
}

// Open builds the index from the store. Call once before serving.
func (s *Service) Open(ctx context.Context) error {
	_, err := s.Reindex(ctx)
	return err
}

// Reindex rebuilds the index from scratch and returns the new version.
func (s *Service) Reindex(ctx context.Context) (uint64, error) {
	v, err := s.index.Rebuild(ctx, s.store)
	if err != nil {
		return 0, apperr.Wrap(apperr.Storage, "reindex", "could not read the store", err)
	}
	return v, nil
}

func (s *Service) Close() error {
	return s.store.Close()
}

// Index exposes the manager for callers that acquire snapshots directly.
func (s *Service) Index() *index.Manager { return s.index }

// refresh brings the index in line with the store for ids. A failure means
// the write is durable but searches may not reflect it yet.
func (s *Service) refresh(ctx context.Context, op string, ids ...int64) error {
	if _, err := s.index.Refresh(context.WithoutCancel(ctx), s.store, ids); err != nil {
		slog.Error("newsroom: index refresh failed", "ids", ids, "err", err)
		return apperr.Wrap(apperr.Storage, op, "saved, but the search index could not be refreshed", err)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, a model.Article) (model.Article, error) {
	out, err := s.store.Create(ctx, a)
	if err != nil {
		return model.Article{}, err
	}
	if err := s.refresh(ctx, "create article", out.ID); err != nil {
		return out, err
	}
	slog.Info("newsroom: article created", "id", out.ID, "source", out.Source)
	return out, nil
}

func (s *Service) Update(ctx context.Context, id int64, u model.ArticleUpdate) (model.Article, error) {
	if u.Empty() {
		return model.Article{}, apperr.New(apperr.Validation, "update article", "nothing to update")
	}
	out, err := s.store.Update(ctx, id, u)
	if err != nil {
		return model.Article{}, err
	}
	if err := s.refresh(ctx, "update article", id); err != nil {
		return out, err
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.refresh(ctx, "delete article", id); err != nil {
		return err
	}
	slog.Info("newsroom: article deleted", "id", id)
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (model.Article, error) {
	return s.store.Get(ctx, id)
}

// Browse lists the corpus newest first.
func (s *Service) Browse(ctx context.Context, page, size int) (Results, error) {
	snap := s.index.Acquire()
	defer snap.Release()
	return s.hydrate(ctx, snap, snap.AllIDs(), page, size)
}

// Search parses raw in the given mode and pages through the matches.
func (s *Service) Search(ctx context.Context, raw, mode string, page, size int) (res Results, err error) {
	start := time.Now()
	m, err := query.ParseMode(mode)
	if err != nil {
		return Results{}, err
	}
	defer func() {
		s.metrics.ObserveSearch(string(m), searchResult(err), time.Since(start))
	}()
	q, err := query.Parse(raw, m)
	if err != nil {
		return Results{}, err
	}

	snap := s.index.Acquire()
	defer snap.Release()
	ids := s.engine.Search(q, snap)
	res, err = s.hydrate(ctx, snap, ids, page, size)
	if err != nil {
		return Results{}, err
	}
	res.Query = raw
	res.Mode = string(m)
	res.Canonical = q.String()
	return res, nil
}

func searchResult(err error) string {
	switch apperr.KindOf(err) {
	case apperr.Unknown:
		if err == nil {
			return "ok"
		}
		return "error"
	case apperr.EmptyQuery:
		return "empty_query"
	case apperr.Syntax:
		return "syntax"
	default:
		return "error"
	}
}

func (s *Service) hydrate(ctx context.Context, snap *index.Snapshot, ids []int64, page, size int) (Results, error) {
	if size <= 0 {
		size = s.pageSize
	}
	p := paginate.Paginate(ids, page, size)
	arts, err := s.store.GetMany(ctx, p.Items)
	if err != nil {
		return Results{}, err
	}
	res := Results{Page: paginate.WithItems(p, arts), IndexVersion: snap.Version()}
	if miss := len(p.Items) - len(arts); miss > 0 {
		// The snapshot lists articles the store no longer holds, left over
		// from a failed refresh. Drop them from the index and the counts.
		found := make(map[int64]bool, len(arts))
		for _, a := range arts {
			found[a.ID] = true
		}
		var gone []int64
		for _, id := range p.Items {
			if !found[id] {
				gone = append(gone, id)
			}
		}
		_ = s.refresh(ctx, "hydrate", gone...)
		res.Total -= miss
		res.TotalPages = max(1, (res.Total+res.PageSize-1)/res.PageSize)
	}
	return res, nil
}

// Sources lists configured source names in sorted order.
func (s *Service) Sources() []string {
	names := make([]string, 0, len(s.sources))
	for n := range s.sources {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Ingest runs one configured source by name.
func (s *Service) Ingest(ctx context.Context, name string) (model.IngestReport, error) {
	src, ok := s.sources[name]
	if !ok {
		return model.IngestReport{}, apperr.Newf(apperr.NotFound, "ingest", "unknown source %q", name)
	}
	return s.pipeline.Ingest(ctx, src)
}

// IngestAll runs every configured source, or the named subset.
func (s *Service) IngestAll(ctx context.Context, names ...string) ([]model.IngestReport, error) {
	if len(names) == 0 {
		names = s.Sources()
	}
	srcs := make([]ingest.Source, 0, len(names))
	for _, n := range names {
		src, ok := s.sources[n]
		if !ok {
			return nil, apperr.Newf(apperr.NotFound, "ingest", "unknown source %q", n)
		}
		srcs = append(srcs, src)
	}
	return s.pipeline.IngestAll(ctx, srcs)
}

// Summarize asks the AI for a short summary of arbitrary text.
func (s *Service) Summarize(ctx context.Context, title, content string) (string, error) {
	if s.ai == nil {
		return "", apperr.New(apperr.Unavailable, "summarize", "AI is not configured")
	}
	if title == "" && content == "" {
		return "", apperr.New(apperr.Validation, "summarize", "title or content is required")
	}
	return s.ai.Summarize(ctx, title, content)
}

// AnalyzeArticle stores an AI summary and sentiment on the article.
func (s *Service) AnalyzeArticle(ctx context.Context, id int64) (model.Article, error) {
	if s.ai == nil {
		return model.Article{}, apperr.New(apperr.Unavailable, "analyze article", "AI is not configured")
	}
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return model.Article{}, err
	}
	res, err := s.ai.Analyze(ctx, a.Headline, a.Summary)
	if err != nil {
		return model.Article{}, err
	}
	return s.Update(ctx, id, model.ArticleUpdate{AISummary: &res.Summary, Sentiment: &res.Sentiment})
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Index:       s.index.Stats(),
		Stored:      n,
		CachedPages: s.engine.Len(),
		Sources:     s.Sources(),
	}, nil
}
