// Package listing implements the filter, sort and paginate pipeline shared by
// every list endpoint. Sortable and filterable fields are declared per entity
// as explicit accessor tables; keys outside a table are rejected before any
// data is touched.
package listing

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	apperrors "github.com/postroute/postal-service/pkg/util/errorutil"
)

// Order selects the sort direction.
type Order int

const (
	NoSort Order = iota
	Ascending
	Descending
)

// ParseOrder maps query values ("asc", "desc") to an Order.
func ParseOrder(raw string) Order {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "asc", "ascending":
		return Ascending
	case "desc", "descending":
		return Descending
	default:
		return NoSort
	}
}

func (o Order) String() string {
	switch o {
	case Ascending:
		return "asc"
	case Descending:
		return "desc"
	default:
		return "none"
	}
}

// Options are the filter/sort/page parameters of a list request.
type Options struct {
	SortKey  string
	Order    Order
	Filters  map[string]string
	Page     int
	PageSize int
}

// Compare orders two records; negative when a sorts before b.
type Compare[T any] func(a, b T) int

// Field extracts the string a named filter matches against.
type Field[T any] func(T) string

// Schema declares the allow-listed sort keys and filter names of an entity.
type Schema[T any] struct {
	Sorts   map[string]Compare[T]
	Filters map[string]Field[T]
}

// ArgumentError reports an invalid list parameter.
type ArgumentError struct {
	Param string
	Value string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Param, e.Value)
}

// Describe maps the error to an INVALID_ARGUMENT response.
func (e *ArgumentError) Describe() *apperrors.DomainError {
	return apperrors.NewDomainError("INVALID_ARGUMENT", e.Error(), http.StatusBadRequest,
		map[string]any{e.Param: e.Value})
}

// Is lets callers match any ArgumentError with errors.Is(err, ErrInvalidSortKey) etc.
func (e *ArgumentError) Is(target error) bool {
	t, ok := target.(*ArgumentError)
	return ok && t.Param == e.Param && t.Value == ""
}

var (
	ErrInvalidSortKey  = &ArgumentError{Param: "sort key"}
	ErrInvalidFilter   = &ArgumentError{Param: "filter"}
	ErrInvalidPageSize = &ArgumentError{Param: "page size"}
)

// Validate checks the options against the schema without touching any data.
func (s Schema[T]) Validate(opts Options) error {
	if opts.SortKey != "" {
		if _, ok := s.Sorts[opts.SortKey]; !ok {
			return &ArgumentError{Param: "sort key", Value: opts.SortKey}
		}
	}
	for name := range opts.Filters {
		if _, ok := s.Filters[name]; !ok {
			return &ArgumentError{Param: "filter", Value: name}
		}
	}
	if opts.PageSize <= 0 {
		return &ArgumentError{Param: "page size", Value: fmt.Sprint(opts.PageSize)}
	}
	return nil
}

// Filter keeps the records matching every non-empty named filter.
// Matching is a case-sensitive substring test.
func (s Schema[T]) Filter(items []T, filters map[string]string) ([]T, error) {
	active := make(map[string]string, len(filters))
	for name, value := range filters {
		if _, ok := s.Filters[name]; !ok {
			return nil, &ArgumentError{Param: "filter", Value: name}
		}
		if value != "" {
			active[name] = value
		}
	}
	if len(active) == 0 {
		return items, nil
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if s.matches(item, active) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s Schema[T]) matches(item T, filters map[string]string) bool {
	for name, value := range filters {
		if !strings.Contains(s.Filters[name](item), value) {
			return false
		}
	}
	return true
}

// Order returns a stably sorted copy of items. An empty key or NoSort
// returns the items in their original order.
func (s Schema[T]) Order(items []T, key string, order Order) ([]T, error) {
	if key == "" || order == NoSort {
		return items, nil
	}
	cmp, ok := s.Sorts[key]
	if !ok {
		return nil, &ArgumentError{Param: "sort key", Value: key}
	}
	sorted := slices.Clone(items)
	if order == Descending {
		slices.SortStableFunc(sorted, func(a, b T) int { return cmp(b, a) })
	} else {
		slices.SortStableFunc(sorted, cmp)
	}
	return sorted, nil
}

// Apply runs validate, filter, sort and paginate in that order.
func (s Schema[T]) Apply(items []T, opts Options) (*Page[T], error) {
	if err := s.Validate(opts); err != nil {
		return nil, err
	}
	filtered, err := s.Filter(items, opts.Filters)
	if err != nil {
		return nil, err
	}
	ordered, err := s.Order(filtered, opts.SortKey, opts.Order)
	if err != nil {
		return nil, err
	}
	return Paginate(ordered, opts.Page, opts.PageSize), nil
}
