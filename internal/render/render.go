// Package render formats articles, result pages and reports for the terminal.
package render

import (
	"embed"
	"io"
	"strings"
	"text/template"
	"time"

	"newsdesk/internal/model"
	"newsdesk/internal/newsroom"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.UTC().Format("2006-01-02 15:04")
	},
	"truncate": func(n int, s string) string {
		r := []rune(s)
		if len(r) <= n {
			return s
		}
		return strings.TrimSpace(string(r[:n-1])) + "…"
	},
	"join": strings.Join,
}

var compiled = template.Must(template.New("render").Funcs(funcs).ParseFS(templatesFS, "templates/*.tmpl"))

// Page writes one page of browse or search results.
func Page(w io.Writer, r newsroom.Results) error {
	return compiled.ExecuteTemplate(w, "page.tmpl", r)
}

// Article writes a single article in full.
func Article(w io.Writer, a model.Article) error {
	return compiled.ExecuteTemplate(w, "article.tmpl", a)
}

// Reports writes ingestion run summaries.
func Reports(w io.Writer, rs []model.IngestReport) error {
	return compiled.ExecuteTemplate(w, "reports.tmpl", rs)
}

// Stats writes corpus statistics.
func Stats(w io.Writer, s newsroom.Stats) error {
	return compiled.ExecuteTemplate(w, "stats.tmpl", s)
}
