// Package paginate windows an already-bound result sequence into pages.
package paginate

// DefaultPageSize is used when a caller passes a non-positive page size.
const DefaultPageSize = 10

// Page is one window of a sequence.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
	Total      int `json:"total"`
}

// Paginate returns the requested page of seq. page is clamped into
// [1, TotalPages] and TotalPages is at least 1, so an empty sequence yields
// one empty page.
func Paginate[T any](seq []T, page, pageSize int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := len(seq)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * pageSize
	end := min(start+pageSize, total)
	items := make([]T, 0, end-start)
	items = append(items, seq[start:end]...)
	return Page[T]{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		Total:      total,
	}
}

// WithItems keeps p's metadata and swaps in items, typically the hydrated
// records for p's ids.
func WithItems[T, U any](p Page[T], items []U) Page[U] {
	if items == nil {
		items = []U{}
	}
	return Page[U]{
		Items:      items,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: p.TotalPages,
		Total:      p.Total,
	}
}
