package model

import (
	"testing"

	"newsdesk/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func TestCanonicalLink(t *testing.T) {
	assert.Equal(t, "https://example.com/Path?q=1", CanonicalLink("  HTTPS://Example.COM/Path?q=1#frag "))
	assert.Equal(t, "not a url", CanonicalLink(" not a url "))
}

func TestNormalizeDefaultsSource(t *testing.T) {
	a := Article{Headline: "  Go 1.24  ", Link: "https://GO.dev/blog#top"}
	a.Normalize()
	assert.Equal(t, "Go 1.24", a.Headline)
	assert.Equal(t, "https://go.dev/blog", a.Link)
	assert.Equal(t, SourceManual, a.Source)
}

func TestValidate(t *testing.T) {
	cases := map[string]Article{
		"missing headline": {Link: "https://example.com"},
		"missing link":     {Headline: "x"},
		"relative link":    {Headline: "x", Link: "/news/1"},
		"ftp link":         {Headline: "x", Link: "ftp://example.com/file"},
	}
	for name, a := range cases {
		t.Run(name, func(t *testing.T) {
			err := a.Validate()
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.Validation))
		})
	}
	assert.NoError(t, Article{Headline: "x", Link: "http://example.com/a"}.Validate())
}

func TestApply(t *testing.T) {
	a := Article{Headline: "Old", Summary: "s", Link: "https://example.com/a"}

	assert.False(t, a.Apply(ArticleUpdate{Headline: strp(" Old ")}))
	assert.True(t, a.Apply(ArticleUpdate{Headline: strp("New"), Link: strp("https://EXAMPLE.com/b#x")}))
	assert.Equal(t, "New", a.Headline)
	assert.Equal(t, "https://example.com/b", a.Link)
	assert.Equal(t, "s", a.Summary)

	assert.True(t, ArticleUpdate{}.Empty())
	assert.False(t, ArticleUpdate{Sentiment: strp("neutral")}.Empty())
}

func TestReportApplied(t *testing.T) {
	assert.Equal(t, 5, IngestReport{Added: 2, Updated: 3, Skipped: 4}.Applied())
}
