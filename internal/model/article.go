package model

import (
	"net/url"
	"strings"
	"time"

	"newsdesk/internal/apperr"
)

// SourceManual marks articles submitted by hand rather than ingested.
const SourceManual = "manual"

// Article is a single news article in the corpus.
type Article struct {
	ID        int64     `json:"id"`
	Headline  string    `json:"headline"`
	Summary   string    `json:"summary"`
	Link      string    `json:"link"`
	Source    string    `json:"source"`
	AISummary string    `json:"ai_summary,omitempty"`
	Sentiment string    `json:"sentiment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ArticleUpdate is a partial edit. Nil fields are left untouched.
type ArticleUpdate struct {
	Headline  *string `json:"headline,omitempty"`
	Summary   *string `json:"summary,omitempty"`
	Link      *string `json:"link,omitempty"`
	AISummary *string `json:"ai_summary,omitempty"`
	Sentiment *string `json:"sentiment,omitempty"`

	// Touch bumps updated_at even when no field changes. Ingestion sets it
	// when a source lists a link the store already holds.
	Touch bool `json:"-"`
}

// Empty reports whether the update carries no field at all.
func (u ArticleUpdate) Empty() bool {
	return !u.Touch && u.Headline == nil && u.Summary == nil && u.Link == nil && u.AISummary == nil && u.Sentiment == nil
}

// Apply copies the set fields of u onto a and reports whether anything changed.
// The link is canonicalized the same way Normalize does it.
func (a *Article) Apply(u ArticleUpdate) bool {
	changed := false
	set := func(dst *string, v *string) {
		if v == nil {
			return
		}
		nv := strings.TrimSpace(*v)
		if *dst != nv {
			*dst = nv
			changed = true
		}
	}
	set(&a.Headline, u.Headline)
	set(&a.Summary, u.Summary)
	if u.Link != nil {
		link := CanonicalLink(*u.Link)
		if link != a.Link {
			a.Link = link
			changed = true
		}
	}
	set(&a.AISummary, u.AISummary)
	set(&a.Sentiment, u.Sentiment)
	return changed
}

// Normalize trims text fields, canonicalizes the link and defaults the source.
func (a *Article) Normalize() {
	a.Headline = strings.TrimSpace(a.Headline)
	a.Summary = strings.TrimSpace(a.Summary)
	a.Link = CanonicalLink(a.Link)
	a.Source = strings.TrimSpace(a.Source)
	if a.Source == "" {
		a.Source = SourceManual
	}
}

// Validate checks the invariants every stored article must hold.
func (a Article) Validate() error {
	if strings.TrimSpace(a.Headline) == "" {
		return apperr.New(apperr.Validation, "validate article", "headline is required")
	}
	return ValidateLink(a.Link)
}

// ValidateLink requires an absolute http(s) URL with a host.
func ValidateLink(link string) error {
	link = strings.TrimSpace(link)
	if link == "" {
		return apperr.New(apperr.Validation, "validate link", "link is required")
	}
	u, err := url.ParseRequestURI(link)
	if err != nil {
		return apperr.Wrap(apperr.Validation, "validate link", "link is not a valid URL", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return apperr.New(apperr.Validation, "validate link", "link must use http or https")
	}
	if u.Host == "" {
		return apperr.New(apperr.Validation, "validate link", "link must include a host")
	}
	return nil
}

// CanonicalLink lower-cases scheme and host and drops the fragment so that
// the same article reached through cosmetically different URLs dedupes.
// Unparseable input is returned trimmed and left for Validate to reject.
func CanonicalLink(link string) string {
	link = strings.TrimSpace(link)
	u, err := url.Parse(link)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return link
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

// Candidate is an article as listed by an external source, before validation.
type Candidate struct {
	Headline    string    `json:"headline"`
	Summary     string    `json:"summary"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"published_at,omitempty"`
}
