package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFillDefaults(t *testing.T) {
	c := Config{
		Sources: DataSources{
			Feeds: []FeedConfig{
				{Name: "go", URL: "https://go.dev/blog/feed.atom"},
				{Name: "cron", URL: "https://example.com/rss", Schedule: Schedule{Schedule: "0 * * * *"}},
			},
		},
	}
	c.FillDefaults()

	assert.Equal(t, "info", c.App.LogLevel)
	assert.Equal(t, "sqlite", c.Store.Driver)
	assert.Equal(t, 16, c.Index.MaxLayers)
	assert.Equal(t, []string{"top"}, c.Sources.HN.Lists)
	assert.Equal(t, "15m", c.Sources.Feeds[0].FetchInterval)
	assert.Empty(t, c.Sources.Feeds[1].FetchInterval)
	assert.Equal(t, 10, c.Pagination.PageSize)
}

func TestIngestTimeout(t *testing.T) {
	assert.Equal(t, 5*time.Second, IngestConfig{FetchTimeout: "5s"}.Timeout())
	assert.Equal(t, 30*time.Second, IngestConfig{FetchTimeout: "bogus"}.Timeout())
}

func TestUnnamedSourcesGetUniqueNames(t *testing.T) {
	c := Config{Sources: DataSources{
		Feeds: []FeedConfig{
			{URL: "https://a.example/rss"},
			{Name: "feed-2", URL: "https://b.example/rss"},
			{URL: "https://c.example/rss"},
		},
		Scrapers: []ScrapeConfig{{URL: "https://d.example/"}},
		Listings: []ListingConfig{{URL: "https://e.example/api"}, {URL: "https://f.example/api"}},
	}}
	c.FillDefaults()

	assert.Equal(t, "feed", c.Sources.Feeds[0].Name)
	assert.Equal(t, "feed-2", c.Sources.Feeds[1].Name)
	assert.Equal(t, "feed-3", c.Sources.Feeds[2].Name)
	assert.Equal(t, "scrape", c.Sources.Scrapers[0].Name)
	assert.Equal(t, "listing", c.Sources.Listings[0].Name)
	assert.Equal(t, "listing-2", c.Sources.Listings[1].Name)
	assert.NoError(t, c.Validate())
}

func TestValidateRejectsDuplicateSourceNames(t *testing.T) {
	c := Config{Sources: DataSources{
		HN:    HNConfig{Enabled: true},
		Feeds: []FeedConfig{{Name: "tech", URL: "https://a.example/rss"}},
		Listings: []ListingConfig{
			{Name: "tech", URL: "https://b.example/api"},
		},
	}}
	c.FillDefaults()
	err := c.Validate()
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), `"tech"`)
	}

	c = Config{Sources: DataSources{
		HN:    HNConfig{Enabled: true},
		Feeds: []FeedConfig{{Name: "hackernews", URL: "https://a.example/rss"}},
	}}
	c.FillDefaults()
	assert.Error(t, c.Validate())
}
