package markdown

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"newsdesk/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestParseWithFrontmatter(t *testing.T) {
	path := writeFile(t, "post.md", ""+
		"---\n"+
		"title: \"Harbour reopens\"\n"+
		"link: https://example.com/harbour\n"+
		"summary: |-\n"+
		"  Ships return after repairs.\n"+
		"---\n\n"+
		"## Details\n\nBody paragraph here.\n")
	doc, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile error: %v", err)
	}
	for _, key := range []string{"title", "link", "summary"} {
		if _, ok := doc.Frontmatter[key]; !ok {
			t.Errorf("missing %s in frontmatter", key)
		}
	}
	if want := "\n## Details\n\nBody paragraph here.\n"; doc.Body != want {
		t.Errorf("body mismatch.\nwant: %q\n got: %q", want, doc.Body)
	}
}

func TestParseWithoutFrontmatter(t *testing.T) {
	body := "# Hello\n\nNo frontmatter here.\n"
	doc, err := ParseFile(writeFile(t, "no_fm.md", body))
	if err != nil {
		t.Fatalf("ParseFile error: %v", err)
	}
	if len(doc.Frontmatter) != 0 {
		t.Fatalf("expected empty frontmatter, got: %+v", doc.Frontmatter)
	}
	if doc.Body != body {
		t.Errorf("body mismatch.\nwant: %q\n got: %q", body, doc.Body)
	}
}

func TestParseUnterminatedFrontmatter(t *testing.T) {
	if _, err := Parse(strings.NewReader("---\ntitle: x\n")); err == nil {
		t.Fatalf("expected error for unterminated frontmatter")
	}
}

func TestArticleFromFile(t *testing.T) {
	path := writeFile(t, "submit.md", ""+
		"---\n"+
		"headline: \"  Council approves budget \"\n"+
		"url: HTTPS://News.Example.com/budget#top\n"+
		"created_at: 2024-03-01T09:00:00Z\n"+
		"---\n"+
		"The council voted 7-2 in favour.\n")
	a, err := ArticleFromFile(path)
	if err != nil {
		t.Fatalf("ArticleFromFile error: %v", err)
	}
	if a.Headline != "Council approves budget" {
		t.Errorf("headline = %q", a.Headline)
	}
	if a.Link != "https://news.example.com/budget" {
		t.Errorf("link = %q", a.Link)
	}
	if a.Summary != "The council voted 7-2 in favour." {
		t.Errorf("summary = %q", a.Summary)
	}
	if a.Source != model.SourceManual {
		t.Errorf("source = %q", a.Source)
	}
	if !a.CreatedAt.Equal(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("created_at = %v", a.CreatedAt)
	}
}
