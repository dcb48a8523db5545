package listing

import "cmp"

// Page is one slice of an ordered result set plus navigation metadata.
type Page[T any] struct {
	Items           []T
	PageIndex       int
	PageSize        int
	TotalCount      int
	TotalPages      int
	HasPreviousPage bool
	HasNextPage     bool
}

// Paginate slices items into the requested page. pageSize must be positive.
// Pages past the end yield no items.
func Paginate[T any](items []T, page, pageSize int) *Page[T] {
	if page < 1 {
		page = 1
	}
	total := len(items)
	totalPages := (total + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	result := &Page[T]{
		Items:           []T{},
		PageIndex:       page,
		PageSize:        pageSize,
		TotalCount:      total,
		TotalPages:      totalPages,
		HasPreviousPage: page > 1,
		HasNextPage:     page < totalPages,
	}
	if start >= total {
		return result
	}
	end := min(start+pageSize, total)
	result.Items = items[start:end]
	return result
}

// Map converts a page of one type into a page of another.
func Map[T, U any](p *Page[T], fn func(T) U) *Page[U] {
	out := &Page[U]{
		Items:           make([]U, 0, len(p.Items)),
		PageIndex:       p.PageIndex,
		PageSize:        p.PageSize,
		TotalCount:      p.TotalCount,
		TotalPages:      p.TotalPages,
		HasPreviousPage: p.HasPreviousPage,
		HasNextPage:     p.HasNextPage,
	}
	for _, item := range p.Items {
		out.Items = append(out.Items, fn(item))
	}
	return out
}

// By builds a Compare from a key extractor.
func By[T any, K cmp.Ordered](key func(T) K) Compare[T] {
	return func(a, b T) int { return cmp.Compare(key(a), key(b)) }
}
