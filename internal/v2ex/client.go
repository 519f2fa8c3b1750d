package v2ex

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

type Client struct {
	baseURL string
	client  *http.Client
	token   string
	nodes   []string
}

func NewClient(baseURL, token string, nodes ...string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		token:   token,
		nodes:   nodes,
	}
}

// Topic represents a subset of V2EX topic fields used by this service.
type Topic struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
	Node    struct {
		Name string `json:"name"`
	} `json:"node"`
	Created int64 `json:"created"`
}

func (c *Client) Name() string { return "v2ex" }

// Fetch collects topics from every configured node (the latest feed when
// none is configured) and returns up to limit of them.
func (c *Client) Fetch(ctx context.Context, limit int) ([]model.Candidate, error) {
	if len(c.nodes) == 0 {
		topics, err := c.get(ctx, "/api/topics/latest.json", nil)
		if err != nil {
			return nil, err
		}
		return c.candidates(topics, limit), nil
	}
	var all []Topic
	var lastErr error
	for _, node := range c.nodes {
		topics, err := c.TopicsByNode(ctx, node)
		if err != nil {
			slog.Warn("v2ex: node fetch failed", "node", node, "err", err)
			lastErr = err
			continue
		}
		all = append(all, topics...)
	}
	if len(all) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return c.candidates(all, limit), nil
}

// TopicsByNode fetches topics for a given node.
// API: GET /api/topics/show.json?node_name={node}
func (c *Client) TopicsByNode(ctx context.Context, node string) ([]Topic, error) {
	return c.get(ctx, "/api/topics/show.json", url.Values{"node_name": {node}})
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]Topic, error) {
	endpoint := c.baseURL + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("v2ex: status %d", resp.StatusCode)
	}
	var raw []Topic
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("v2ex: decode topics: %w", err)
	}
	return raw, nil
}

func (c *Client) candidates(topics []Topic, limit int) []model.Candidate {
	if limit > 0 && len(topics) > limit {
		topics = topics[:limit]
	}
	out := make([]model.Candidate, 0, len(topics))
	for _, t := range topics {
		urlStr := t.URL
		if urlStr == "" {
			urlStr = fmt.Sprintf("%s/t/%d", c.baseURL, t.ID)
		}
		out = append(out, model.Candidate{
			Headline:    t.Title,
			Summary:     textproc.StripHTML(t.Content),
			Link:        urlStr,
			PublishedAt: time.Unix(t.Created, 0).UTC(),
		})
	}
	return out
}
