package dto

import "github.com/postroute/postal-service/internal/listing"

// PageMeta carries pagination metadata of a list response.
type PageMeta struct {
	PageIndex       int  `json:"page_index"`
	PageSize        int  `json:"page_size"`
	TotalCount      int  `json:"total_count"`
	TotalPages      int  `json:"total_pages"`
	HasPreviousPage bool `json:"has_previous_page"`
	HasNextPage     bool `json:"has_next_page"`
}

// PageResponse is the envelope of every list endpoint.
type PageResponse[T any] struct {
	Data []T      `json:"data"`
	Meta PageMeta `json:"meta"`
}

// NewPageResponse converts a page of domain values with fn.
func NewPageResponse[S, T any](p *listing.Page[S], fn func(S) T) PageResponse[T] {
	out := listing.Map(p, fn)
	return PageResponse[T]{
		Data: out.Items,
		Meta: PageMeta{
			PageIndex:       out.PageIndex,
			PageSize:        out.PageSize,
			TotalCount:      out.TotalCount,
			TotalPages:      out.TotalPages,
			HasPreviousPage: out.HasPreviousPage,
			HasNextPage:     out.HasNextPage,
		},
	}
}
