// Package scrape extracts article candidates from an HTML listing page
// using CSS selectors.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"newsdesk/internal/model"
	"newsdesk/internal/textproc"

	"github.com/PuerkitoBio/goquery"
)

// Selectors locate the parts of each article block on the page.
// Headline, Summary and Link are evaluated inside each Item match.
type Selectors struct {
	Item     string
	Headline string
	Summary  string
	Link     string
}

func (s Selectors) withDefaults() Selectors {
	if s.Item == "" {
		s.Item = "article"
	}
	if s.Headline == "" {
		s.Headline = "h1, h2, h3"
	}
	if s.Summary == "" {
		s.Summary = "p"
	}
	if s.Link == "" {
		s.Link = "a[href]"
	}
	return s
}

// Source scrapes one page.
type Source struct {
	name      string
	pageURL   string
	sel       Selectors
	userAgent string
	http      *http.Client
}

func New(name, pageURL, userAgent string, sel Selectors) *Source {
	return &Source{
		name:      name,
		pageURL:   pageURL,
		sel:       sel.withDefaults(),
		userAgent: userAgent,
		http:      &http.Client{Timeout: 20 * time.Second},
	}
}

func (s *Source) Name() string { return s.name }

func (s *Source) Fetch(ctx context.Context, limit int) ([]model.Candidate, error) {
	base, err := url.Parse(s.pageURL)
	if err != nil {
		return nil, fmt.Errorf("scrape %s: invalid url: %w", s.name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.pageURL, nil)
	if err != nil {
		return nil, err
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("scrape %s: status=%d body=%s", s.name, resp.StatusCode, string(b))
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("scrape %s: parse html: %w", s.name, err)
	}
	return Extract(doc, base, s.sel, limit), nil
}

// Extract walks the item blocks of doc. Relative links resolve against base.
func Extract(doc *goquery.Document, base *url.URL, sel Selectors, limit int) []model.Candidate {
	sel = sel.withDefaults()
	var out []model.Candidate
	doc.Find(sel.Item).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		headline := textproc.CollapseSpace(item.Find(sel.Headline).First().Text())
		summary := textproc.CollapseSpace(item.Find(sel.Summary).First().Text())
		href, ok := item.Find(sel.Link).First().Attr("href")
		if !ok && goquery.NodeName(item) == "a" {
			href, ok = item.Attr("href")
		}
		if headline == "" || !ok {
			return true
		}
		out = append(out, model.Candidate{
			Headline: headline,
			Summary:  summary,
			Link:     resolve(base, href),
		})
		return limit <= 0 || len(out) < limit
	})
	return out
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	ref, err := url.Parse(href)
	if err != nil || base == nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
