package cmd

import (
	"context"
	"time"

	"newsdesk/internal/ai"
	"newsdesk/internal/config"
	"newsdesk/internal/feed"
	"newsdesk/internal/hackernews"
	"newsdesk/internal/ingest"
	"newsdesk/internal/listing"
	"newsdesk/internal/metrics"
	"newsdesk/internal/newsroom"
	"newsdesk/internal/scrape"
	"newsdesk/internal/storage"
	"newsdesk/internal/v2ex"
)

// openService opens the configured store and rebuilds the index from it.
func openService(ctx context.Context, cfg config.Config, m *metrics.Metrics) (*newsroom.Service, error) {
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	var summarizer ai.Summarizer
	if c := ai.NewOpenAI(ai.Config{APIKey: cfg.OpenAI.APIKey, Model: cfg.OpenAI.Model, BaseURL: cfg.OpenAI.BaseURL}); c != nil {
		summarizer = c
	}
	ingOpts := ingest.Options{
		FetchTimeout:  cfg.Ingest.Timeout(),
		MaxCandidates: cfg.Ingest.MaxCandidates,
		Concurrency:   cfg.Ingest.Concurrency,
	}
	if cfg.Ingest.BackfillSummaries {
		ingOpts.Summarizer = summarizer
	}
	svc := newsroom.New(store, newsroom.Options{
		MaxLayers:  cfg.Index.MaxLayers,
		CacheSize:  cfg.Index.CacheSize,
		PageSize:   cfg.Pagination.PageSize,
		Ingest:     ingOpts,
		Summarizer: summarizer,
		Metrics:    m,
		Sources:    buildSources(cfg),
	})
	if err := svc.Open(ctx); err != nil {
		svc.Close()
		return nil, err
	}
	return svc, nil
}

// sourceSpec pairs a source with its schedule for serve.
type sourceSpec struct {
	source   ingest.Source
	schedule config.Schedule
}

func sourceSpecs(cfg config.Config) []sourceSpec {
	ua := cfg.Ingest.UserAgent
	var out []sourceSpec
	if hn := cfg.Sources.HN; hn.Enabled {
		out = append(out, sourceSpec{hackernews.NewClient(hn.BaseAPI, hn.Lists...), hn.Schedule})
	}
	if vx := cfg.Sources.V2EX; vx.Enabled {
		out = append(out, sourceSpec{v2ex.NewClient(vx.BaseURL, vx.Token, vx.Nodes...), vx.Schedule})
	}
	for _, f := range cfg.Sources.Feeds {
		out = append(out, sourceSpec{feed.New(f.Name, f.URL, ua), f.Schedule})
	}
	for _, s := range cfg.Sources.Scrapers {
		sel := scrape.Selectors{Item: s.Item, Headline: s.Headline, Summary: s.Summary, Link: s.Link}
		out = append(out, sourceSpec{scrape.New(s.Name, s.URL, ua, sel), s.Schedule})
	}
	for _, l := range cfg.Sources.Listings {
		out = append(out, sourceSpec{listing.New(l.Name, l.URL, l.Token), l.Schedule})
	}
	return out
}

func buildSources(cfg config.Config) []ingest.Source {
	specs := sourceSpecs(cfg)
	out := make([]ingest.Source, 0, len(specs))
	for _, s := range specs {
		out = append(out, s.source)
	}
	return out
}

// commandTimeout bounds one-shot CLI operations.
const commandTimeout = 2 * time.Minute
