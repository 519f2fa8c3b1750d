package config

import (
	"fmt"
	"strings"
	"time"
)

// AppConfig holds application-level settings.
type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
}

// StoreConfig selects and configures the article store backend.
type StoreConfig struct {
	Driver     string `mapstructure:"driver"` // sqlite or redis
	SQLitePath string `mapstructure:"sqlite_path"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// IndexConfig tunes the in-memory index and search cache.
type IndexConfig struct {
	MaxLayers       int    `mapstructure:"max_layers"`
	CacheSize       int    `mapstructure:"cache_size"`
	RebuildInterval string `mapstructure:"rebuild_interval"` // duration string; empty disables
}

// IngestConfig controls the ingestion pipeline.
type IngestConfig struct {
	FetchTimeout      string `mapstructure:"fetch_timeout"` // duration string, e.g., "30s"
	MaxCandidates     int    `mapstructure:"max_candidates"`
	Concurrency       int    `mapstructure:"concurrency"`
	UserAgent         string `mapstructure:"user_agent"`
	BackfillSummaries bool   `mapstructure:"backfill_summaries"`
}

// Timeout parses FetchTimeout, falling back to 30s.
func (c IngestConfig) Timeout() time.Duration {
	d, err := time.ParseDuration(c.FetchTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// Schedule is shared by every source: either a fixed interval or a cron
// spec. Schedule wins when both are set.
type Schedule struct {
	FetchInterval string `mapstructure:"fetch_interval"` // duration string, e.g., "10m"
	Schedule      string `mapstructure:"schedule"`       // cron spec, e.g., "*/15 * * * *"
}

// HNConfig controls the Hacker News source.
type HNConfig struct {
	Schedule `mapstructure:",squash"`
	Enabled  bool     `mapstructure:"enabled"`
	BaseAPI  string   `mapstructure:"base_api"`
	Lists    []string `mapstructure:"lists"` // top,new,best,ask,show,job
}

// V2EXConfig controls the V2EX data source.
type V2EXConfig struct {
	Schedule `mapstructure:",squash"`
	Enabled  bool     `mapstructure:"enabled"`
	Token    string   `mapstructure:"token"`
	BaseURL  string   `mapstructure:"base_url"`
	Nodes    []string `mapstructure:"nodes"`
}

// FeedConfig is one RSS/Atom feed.
type FeedConfig struct {
	Schedule `mapstructure:",squash"`
	Name     string `mapstructure:"name"`
	URL      string `mapstructure:"url"`
}

// ScrapeConfig is one HTML listing page scraped with CSS selectors.
type ScrapeConfig struct {
	Schedule `mapstructure:",squash"`
	Name     string `mapstructure:"name"`
	URL      string `mapstructure:"url"`
	Item     string `mapstructure:"item"`     // selector for one article block
	Headline string `mapstructure:"headline"` // selector inside the block
	Summary  string `mapstructure:"summary"`  // selector inside the block
	Link     string `mapstructure:"link"`     // selector of the <a> inside the block
}

// ListingConfig is one JSON endpoint returning candidate articles.
type ListingConfig struct {
	Schedule `mapstructure:",squash"`
	Name     string `mapstructure:"name"`
	URL      string `mapstructure:"url"`
	Token    string `mapstructure:"token"`
}

// DataSources groups available collectors.
type DataSources struct {
	HN       HNConfig        `mapstructure:"hackernews"`
	V2EX     V2EXConfig      `mapstructure:"v2ex"`
	Feeds    []FeedConfig    `mapstructure:"feeds"`
	Scrapers []ScrapeConfig  `mapstructure:"scrapers"`
	Listings []ListingConfig `mapstructure:"listings"`
}

// OpenAIConfig enables AI summaries and sentiment.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// APIConfig controls the HTTP API started by serve.
type APIConfig struct {
	Addr        string  `mapstructure:"addr"`
	IngestRPS   float64 `mapstructure:"ingest_rps"`
	IngestBurst int     `mapstructure:"ingest_burst"`
}

// PaginationConfig sets listing defaults.
type PaginationConfig struct {
	PageSize int `mapstructure:"page_size"`
}

// Config is the top-level configuration structure.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Store      StoreConfig      `mapstructure:"store"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Index      IndexConfig      `mapstructure:"index"`
	Ingest     IngestConfig     `mapstructure:"ingest"`
	Sources    DataSources      `mapstructure:"sources"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	API        APIConfig        `mapstructure:"api"`
	Pagination PaginationConfig `mapstructure:"pagination"`
}

// FillDefaults applies default values if not provided.
func (c *Config) FillDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite"
	}
	if c.Store.SQLitePath == "" {
		c.Store.SQLitePath = "./data/newsdesk.db"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Index.MaxLayers == 0 {
		c.Index.MaxLayers = 16
	}
	if c.Index.CacheSize == 0 {
		c.Index.CacheSize = 512
	}
	if c.Ingest.FetchTimeout == "" {
		c.Ingest.FetchTimeout = "30s"
	}
	if c.Ingest.MaxCandidates == 0 {
		c.Ingest.MaxCandidates = 100
	}
	if c.Ingest.Concurrency == 0 {
		c.Ingest.Concurrency = 4
	}
	if c.Ingest.UserAgent == "" {
		c.Ingest.UserAgent = "newsdesk/1.0 (+https://github.com/newsdesk)"
	}
	if c.Sources.HN.BaseAPI == "" {
		c.Sources.HN.BaseAPI = "https://hacker-news.firebaseio.com/v0"
	}
	if len(c.Sources.HN.Lists) == 0 {
		c.Sources.HN.Lists = []string{"top"}
	}
	fillSchedule(&c.Sources.HN.Schedule, "10m")
	if c.Sources.V2EX.BaseURL == "" {
		c.Sources.V2EX.BaseURL = "https://www.v2ex.com"
	}
	fillSchedule(&c.Sources.V2EX.Schedule, "10m")
	for i := range c.Sources.Feeds {
		fillSchedule(&c.Sources.Feeds[i].Schedule, "15m")
	}
	for i := range c.Sources.Scrapers {
		fillSchedule(&c.Sources.Scrapers[i].Schedule, "30m")
	}
	for i := range c.Sources.Listings {
		fillSchedule(&c.Sources.Listings[i].Schedule, "15m")
	}
	c.nameSources()
	if c.API.Addr == "" {
		c.API.Addr = ":8080"
	}
	if c.API.IngestRPS == 0 {
		c.API.IngestRPS = 0.2
	}
	if c.API.IngestBurst == 0 {
		c.API.IngestBurst = 1
	}
	if c.Pagination.PageSize == 0 {
		c.Pagination.PageSize = 10
	}
}

// nameSources gives unnamed feeds, scrapers and listings a name that no
// other source uses: "feed", then "feed-2", "feed-3" and so on.
func (c *Config) nameSources() {
	used := map[string]bool{}
	if c.Sources.HN.Enabled {
		used["hackernews"] = true
	}
	if c.Sources.V2EX.Enabled {
		used["v2ex"] = true
	}
	for i := range c.Sources.Feeds {
		used[strings.TrimSpace(c.Sources.Feeds[i].Name)] = true
	}
	for i := range c.Sources.Scrapers {
		used[strings.TrimSpace(c.Sources.Scrapers[i].Name)] = true
	}
	for i := range c.Sources.Listings {
		used[strings.TrimSpace(c.Sources.Listings[i].Name)] = true
	}
	assign := func(name *string, kind string) {
		if *name = strings.TrimSpace(*name); *name != "" {
			return
		}
		n := kind
		for i := 2; used[n]; i++ {
			n = fmt.Sprintf("%s-%d", kind, i)
		}
		used[n] = true
		*name = n
	}
	for i := range c.Sources.Feeds {
		assign(&c.Sources.Feeds[i].Name, "feed")
	}
	for i := range c.Sources.Scrapers {
		assign(&c.Sources.Scrapers[i].Name, "scrape")
	}
	for i := range c.Sources.Listings {
		assign(&c.Sources.Listings[i].Name, "listing")
	}
}

// Validate reports problems FillDefaults cannot repair. Source names must be
// unique since ingestion is triggered by name.
func (c Config) Validate() error {
	seen := map[string]string{}
	check := func(name, kind string) error {
		if name == "" {
			return fmt.Errorf("%s source without a name", kind)
		}
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("source name %q is used by a %s and a %s", name, prev, kind)
		}
		seen[name] = kind
		return nil
	}
	if c.Sources.HN.Enabled {
		if err := check("hackernews", "hackernews"); err != nil {
			return err
		}
	}
	if c.Sources.V2EX.Enabled {
		if err := check("v2ex", "v2ex"); err != nil {
			return err
		}
	}
	for _, f := range c.Sources.Feeds {
		if err := check(f.Name, "feed"); err != nil {
			return err
		}
	}
	for _, sc := range c.Sources.Scrapers {
		if err := check(sc.Name, "scraper"); err != nil {
			return err
		}
	}
	for _, l := range c.Sources.Listings {
		if err := check(l.Name, "listing"); err != nil {
			return err
		}
	}
	return nil
}

func fillSchedule(s *Schedule, interval string) {
	if s.FetchInterval == "" && s.Schedule == "" {
		s.FetchInterval = interval
	}
}
