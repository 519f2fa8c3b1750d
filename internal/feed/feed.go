// Package feed ingests RSS and Atom feeds.
package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"newsdesk/internal/model"
	"newsdesk/internal/textproc"

	"github.com/mmcdole/gofeed"
)

const maxSummaryRunes = 500

// Source reads one feed URL.
type Source struct {
	name   string
	url    string
	parser *gofeed.Parser
}

func New(name, url, userAgent string) *Source {
	p := gofeed.NewParser()
	p.Client = &http.Client{Timeout: 20 * time.Second}
	if userAgent != "" {
		p.UserAgent = userAgent
	}
	return &Source{name: name, url: url, parser: p}
}

func (s *Source) Name() string { return s.name }

func (s *Source) Fetch(ctx context.Context, limit int) ([]model.Candidate, error) {
	f, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", s.name, err)
	}
	items := f.Items
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	out := make([]model.Candidate, 0, len(items))
	for _, item := range items {
		var pub time.Time
		if item.PublishedParsed != nil {
			pub = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			pub = *item.UpdatedParsed
		}
		desc := item.Description
		if desc == "" {
			desc = item.Content
		}
		out = append(out, model.Candidate{
			Headline:    item.Title,
			Summary:     truncate(textproc.StripHTML(desc), maxSummaryRunes),
			Link:        item.Link,
			PublishedAt: pub,
		})
	}
	return out, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
