// Package markdown reads manual article submissions written as Markdown
// files with YAML frontmatter.
package markdown

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"newsdesk/internal/model"

	"gopkg.in/yaml.v3"
)

// Document represents a Markdown file with YAML frontmatter.
type Document struct {
	Frontmatter map[string]any
	Body        string

	rawFrontmatter string
}

// Frontmatter fields understood by ArticleFromFile.
type articleMeta struct {
	Headline  string    `yaml:"headline"`
	Title     string    `yaml:"title"`
	Link      string    `yaml:"link"`
	URL       string    `yaml:"url"`
	Summary   string    `yaml:"summary"`
	Source    string    `yaml:"source"`
	CreatedAt time.Time `yaml:"created_at"`
}

// ParseFile reads a Markdown file and extracts YAML frontmatter and body.
func ParseFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse splits r into frontmatter and body. Frontmatter is expected at the
// top between two lines containing only "---"; without it the whole input
// is body.
func Parse(r io.Reader) (Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Document{}, err
	}
	text := string(raw)
	d := Document{Frontmatter: map[string]any{}, Body: text}

	lines := strings.SplitAfter(text, "\n")
	if strings.TrimSpace(lines[0]) != "---" {
		return d, nil
	}
	var fm strings.Builder
	consumed := len(lines[0])
	closed := false
	for _, line := range lines[1:] {
		consumed += len(line)
		if strings.TrimSpace(line) == "---" {
			closed = true
			break
		}
		fm.WriteString(line)
	}
	if !closed {
		return Document{}, fmt.Errorf("frontmatter is not terminated by ---")
	}
	d.rawFrontmatter = fm.String()
	if err := yaml.Unmarshal([]byte(d.rawFrontmatter), &d.Frontmatter); err != nil {
		return Document{}, fmt.Errorf("frontmatter: %w", err)
	}
	if d.Frontmatter == nil {
		d.Frontmatter = map[string]any{}
	}
	d.Body = text[consumed:]
	return d, nil
}

// ArticleFromFile builds an article from a Markdown submission. The
// headline comes from "headline" (or "title"), the link from "link" (or
// "url"), and the summary from "summary" or else the body.
func ArticleFromFile(path string) (model.Article, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Article{}, err
	}
	defer f.Close()
	doc, err := Parse(f)
	if err != nil {
		return model.Article{}, fmt.Errorf("%s: %w", path, err)
	}
	var m articleMeta
	if err := yaml.Unmarshal([]byte(doc.rawFrontmatter), &m); err != nil {
		return model.Article{}, fmt.Errorf("%s: frontmatter: %w", path, err)
	}
	a := model.Article{
		Headline:  firstNonEmpty(m.Headline, m.Title),
		Link:      firstNonEmpty(m.Link, m.URL),
		Summary:   firstNonEmpty(m.Summary, strings.TrimSpace(doc.Body)),
		Source:    m.Source,
		CreatedAt: m.CreatedAt,
	}
	a.Normalize()
	return a, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
