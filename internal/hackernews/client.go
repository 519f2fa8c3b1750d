package hackernews

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"newsdesk/internal/model"
	"newsdesk/internal/textproc"
)

// Client is a minimal Hacker News API client.
// Docs: https://github.com/HackerNews/API
type Client struct {
	baseAPI string
	lists   []string
	client  *http.Client
}

// NewClient creates a new Hacker News client. baseAPI should be something like
// "https://hacker-news.firebaseio.com/v0". If empty, it defaults to the v0 endpoint.
// lists names the story lists to read (top, new, best, ask, show, job).
func NewClient(baseAPI string, lists ...string) *Client {
	if strings.TrimSpace(baseAPI) == "" {
		baseAPI = "https://hacker-news.firebaseio.com/v0"
	}
	if len(lists) == 0 {
		lists = []string{"top"}
	}
	return &Client{
		baseAPI: strings.TrimRight(baseAPI, "/"),
		lists:   lists,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// hnItem mirrors the subset of HN item fields we care about.
type hnItem struct {
	ID      int    `json:"id"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Text    string `json:"text"`
	Time    int64  `json:"time"`
	Deleted bool   `json:"deleted"`
	Dead    bool   `json:"dead"`
}

func (c *Client) Name() string { return "hackernews" }

// Fetch reads every configured list and returns up to limit unique stories.
// A list that fails is skipped; the fetch fails only when every list does.
func (c *Client) Fetch(ctx context.Context, limit int) ([]model.Candidate, error) {
	seen := map[int]bool{}
	var ids []int
	var lastErr error
	for _, list := range c.lists {
		got, err := c.fetchIDs(ctx, listEndpoint(list))
		if err != nil {
			slog.Warn("hackernews: list fetch failed", "list", list, "err", err)
			lastErr = err
			continue
		}
		for _, id := range got {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 && lastErr != nil {
		return nil, lastErr
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	slog.Info("hackernews: fetching items", "lists", c.lists, "count", len(ids))
	return c.itemsByIDs(ctx, ids), nil
}

// listEndpoint maps short names (top) to API list names (topstories).
func listEndpoint(list string) string {
	list = strings.ToLower(strings.TrimSpace(list))
	if strings.HasSuffix(list, "stories") {
		return list
	}
	return list + "stories"
}

// Item fetches a single HN item by ID.
func (c *Client) Item(ctx context.Context, id int) (model.Candidate, error) {
	var zero model.Candidate
	endpoint := fmt.Sprintf("%s/item/%d.json", c.baseAPI, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return zero, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return zero, fmt.Errorf("hackernews: item %d status %d", id, resp.StatusCode)
	}
	var it hnItem
	if err := json.NewDecoder(resp.Body).Decode(&it); err != nil {
		return zero, err
	}
	if it.Deleted || it.Dead || strings.TrimSpace(it.Title) == "" {
		return zero, fmt.Errorf("hackernews: item %d not a live story", id)
	}
	return convertItem(it), nil
}

// fetchIDs loads a list endpoint such as topstories/newstories/etc.
func (c *Client) fetchIDs(ctx context.Context, list string) ([]int, error) {
	path := fmt.Sprintf("%s/%s.json", c.baseAPI, url.PathEscape(list))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("hackernews: %s status %d", list, resp.StatusCode)
	}
	var ids []int
	if err := json.NewDecoder(resp.Body).Decode(&ids); err != nil {
		return nil, fmt.Errorf("hackernews: decode %s: %w", list, err)
	}
	return ids, nil
}

// itemsByIDs resolves multiple IDs concurrently, preserving list order.
// Items that fail to load are dropped.
func (c *Client) itemsByIDs(ctx context.Context, ids []int) []model.Candidate {
	if len(ids) == 0 {
		return nil
	}
	// bounded concurrency
	const maxWorkers = 8
	type result struct {
		idx  int
		item model.Candidate
		err  error
	}
	out := make([]*model.Candidate, len(ids))
	sem := make(chan struct{}, maxWorkers)
	done := make(chan result, len(ids))
	for i, id := range ids {
		i, id := i, id
		sem <- struct{}{}
		go func() {
			defer func() { <-sem }()
			// Per-item timeout to avoid hanging
			ictx, cancel := context.WithTimeout(ctx, 8*time.Second)
			defer cancel()
			it, err := c.Item(ictx, id)
			done <- result{idx: i, item: it, err: err}
		}()
	}
	for range ids {
		r := <-done
		if r.err != nil {
			slog.Debug("hackernews: skip item", "err", r.err)
			continue
		}
		out[r.idx] = &r.item
	}
	items := make([]model.Candidate, 0, len(ids))
	for _, it := range out {
		if it != nil {
			items = append(items, *it)
		}
	}
	return items
}

// convertItem maps an hnItem to a candidate. Text posts link to the HN thread.
func convertItem(h hnItem) model.Candidate {
	urlStr := strings.TrimSpace(h.URL)
	if urlStr == "" {
		urlStr = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", h.ID)
	}
	return model.Candidate{
		Headline:    h.Title,
		Summary:     textproc.StripHTML(h.Text),
		Link:        urlStr,
		PublishedAt: time.Unix(h.Time, 0).UTC(),
	}
}
