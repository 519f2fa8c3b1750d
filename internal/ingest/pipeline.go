// Package ingest pulls candidate articles from external sources into the
// store and folds each batch into the index with a single refresh.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"newsdesk/internal/ai"
	"newsdesk/internal/apperr"
	"newsdesk/internal/index"
	"newsdesk/internal/metrics"
	"newsdesk/internal/model"
	"newsdesk/internal/textproc"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Source lists candidate articles from one external origin.
type Source interface {
	Name() string
	Fetch(ctx context.Context, limit int) ([]model.Candidate, error)
}

// Store is the part of storage.Store the pipeline writes through.
type Store interface {
	Create(ctx context.Context, a model.Article) (model.Article, error)
	GetByLink(ctx context.Context, link string) (model.Article, error)
	Update(ctx context.Context, id int64, u model.ArticleUpdate) (model.Article, error)
	GetMany(ctx context.Context, ids []int64) ([]model.Article, error)
}

type Options struct {
	FetchTimeout  time.Duration
	MaxCandidates int
	Concurrency   int
	// Summarizer, when set, fills empty summaries.
	Summarizer ai.Summarizer
	Metrics    *metrics.Metrics
}

type Pipeline struct {
	store Store
	index *index.Manager
	opts  Options
}

func New(store Store, idx *index.Manager, opts Options) *Pipeline {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 30 * time.Second
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Pipeline{store: store, index: idx, opts: opts}
}

type outcome int

const (
	added outcome = iota
	updated
	failed
)

// Ingest runs one batch from src. Items committed before a deadline or
// cancellation stay committed and indexed; the remainder counts as failed.
func (p *Pipeline) Ingest(ctx context.Context, src Source) (report model.IngestReport, err error) {
	name := src.Name()
	report = model.IngestReport{RunID: uuid.NewString(), Source: name, StartedAt: time.Now().UTC()}
	log := slog.With("source", name, "run", report.RunID)
	defer func() {
		report.FinishedAt = time.Now().UTC()
		if err != nil {
			report.Error = err.Error()
		}
		p.opts.Metrics.ObserveIngest(report)
	}()

	ctx, cancel := context.WithTimeout(ctx, p.opts.FetchTimeout)
	defer cancel()

	cands, err := src.Fetch(ctx, p.opts.MaxCandidates)
	if err != nil {
		log.Error("ingest: fetch failed", "err", err)
		return report, apperr.Wrap(apperr.Ingestion, "ingest "+name, "fetch failed", err)
	}
	if p.opts.MaxCandidates > 0 && len(cands) > p.opts.MaxCandidates {
		cands = cands[:p.opts.MaxCandidates]
	}
	report.Fetched = len(cands)

	// Rebuilds wait for the batch so the index never holds part of it.
	end := p.index.BeginBatch()
	defer end()

	seen := make(map[string]bool, len(cands))
	var affected []int64
	var cut error
	for i, c := range cands {
		if err := ctx.Err(); err != nil {
			report.Failed += len(cands) - i
			cut = err
			break
		}
		a := p.prepare(ctx, c, name)
		if err := a.Validate(); err != nil {
			log.Debug("ingest: skip invalid candidate", "link", c.Link, "reason", apperr.ReasonOf(err))
			report.Skipped++
			continue
		}
		if seen[a.Link] {
			report.Skipped++
			continue
		}
		seen[a.Link] = true

		out, id, err := p.apply(ctx, a)
		switch out {
		case added:
			report.Added++
		case updated:
			report.Updated++
		case failed:
			log.Warn("ingest: item failed", "link", a.Link, "err", err)
			report.Failed++
		}
		if out == added || out == updated {
			affected = append(affected, id)
		}
	}

	if len(affected) > 0 {
		// The batch's committed writes must reach the index even when ctx ended.
		v, rerr := p.index.Refresh(context.WithoutCancel(ctx), p.store, affected)
		if rerr != nil {
			log.Error("ingest: index refresh failed", "err", rerr)
			return report, apperr.Wrap(apperr.Storage, "ingest "+name, "index refresh failed", rerr)
		}
		report.IndexVersion = v
	} else {
		report.IndexVersion = p.index.Version()
	}

	log.Info("ingest: batch applied",
		"fetched", report.Fetched, "added", report.Added, "updated", report.Updated,
		"skipped", report.Skipped, "failed", report.Failed, "index_version", report.IndexVersion)

	if cut != nil {
		return report, apperr.Wrap(apperr.Ingestion, "ingest "+name,
			fmt.Sprintf("batch cut short, %d items not applied", report.Failed), cut)
	}
	return report, nil
}

// prepare turns a candidate into a normalized article attributed to source.
func (p *Pipeline) prepare(ctx context.Context, c model.Candidate, source string) model.Article {
	a := model.Article{
		Headline:  textproc.CollapseSpace(textproc.StripHTML(c.Headline)),
		Summary:   textproc.StripHTML(c.Summary),
		Link:      c.Link,
		Source:    source,
		CreatedAt: c.PublishedAt,
	}
	a.Normalize()
	if a.Summary == "" && a.Headline != "" && p.opts.Summarizer != nil {
		s, err := p.opts.Summarizer.Summarize(ctx, a.Headline, "")
		if err != nil {
			slog.Warn("ingest: summary backfill failed", "link", a.Link, "err", err)
		} else {
			a.Summary = s
		}
	}
	return a
}

// apply writes one article: update by link when it exists, create otherwise.
func (p *Pipeline) apply(ctx context.Context, a model.Article) (outcome, int64, error) {
	existing, err := p.store.GetByLink(ctx, a.Link)
	switch {
	case err == nil:
		return p.refresh(ctx, existing, a)
	case !apperr.Is(err, apperr.NotFound):
		return failed, 0, err
	}

	created, err := p.store.Create(ctx, a)
	if err == nil {
		return added, created.ID, nil
	}
	if !apperr.Is(err, apperr.Conflict) {
		return failed, 0, err
	}
	// Lost a race with another writer for the same link.
	existing, err = p.store.GetByLink(ctx, a.Link)
	if err != nil {
		return failed, 0, err
	}
	return p.refresh(ctx, existing, a)
}

// refresh rewrites the content of an article the source listed again and
// bumps its updated_at even when the content is unchanged.
func (p *Pipeline) refresh(ctx context.Context, existing, a model.Article) (outcome, int64, error) {
	up, err := p.store.Update(ctx, existing.ID, model.ArticleUpdate{Headline: &a.Headline, Summary: &a.Summary, Touch: true})
	if err != nil {
		return failed, 0, err
	}
	return updated, up.ID, nil
}

// IngestAll runs every source concurrently, at most Concurrency at a time.
// Reports keep the order of sources; errors are joined.
func (p *Pipeline) IngestAll(ctx context.Context, sources []Source) ([]model.IngestReport, error) {
	reports := make([]model.IngestReport, len(sources))
	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(p.opts.Concurrency)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			r, err := p.Ingest(ctx, src)
			reports[i] = r
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return reports, errors.Join(errs...)
}
