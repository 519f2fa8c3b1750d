// Package listing reads candidate articles from a JSON endpoint. The body is
// either an array of articles or an object with an "articles" array.
package listing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"newsdesk/internal/model"
)

const maxBody = 8 << 20

type Source struct {
	name  string
	url   string
	token string
	http  *http.Client
}

func New(name, url, token string) *Source {
	return &Source{name: name, url: url, token: token, http: &http.Client{Timeout: 15 * time.Second}}
}

func (s *Source) Name() string { return s.name }

type envelope struct {
	Articles []model.Candidate `json:"articles"`
}

func (s *Source) Fetch(ctx context.Context, limit int) ([]model.Candidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("listing %s: status %d", s.name, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}
	items, err := Decode(body)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.name, err)
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Decode accepts both supported body shapes.
func Decode(body []byte) ([]model.Candidate, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("empty body")
	}
	switch body[0] {
	case '[':
		var items []model.Candidate
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("decode array: %w", err)
		}
		return items, nil
	case '{':
		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("decode object: %w", err)
		}
		if env.Articles == nil {
			return nil, fmt.Errorf(`object has no "articles" array`)
		}
		return env.Articles, nil
	default:
		return nil, fmt.Errorf("unexpected body, want JSON array or object")
	}
}
