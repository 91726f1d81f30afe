// Package paginate sorts and slices in-memory result sets into pages.
package paginate

import (
	"slices"

	"github.com/giantswarm/llm-bench/internal/testsuite"
)

// Page is one slice of a sorted result set plus its position.
type Page[T any] struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
	Items      []T `json:"items"`
}

// Order is a comparator with a direction. A nil *Order keeps input order.
type Order[T any] struct {
	Compare    func(a, b T) int
	Descending bool
}

// Paginate sorts a copy of items by order (stable in both directions) and
// returns the requested page. page and pageSize must already be positive.
// Pages past the end are empty.
func Paginate[T any](items []T, page, pageSize int, order *Order[T]) Page[T] {
	sorted := items
	if order != nil && order.Compare != nil {
		sorted = slices.Clone(items)
		cmp := order.Compare
		if order.Descending {
			asc := cmp
			cmp = func(a, b T) int { return asc(b, a) }
		}
		slices.SortStableFunc(sorted, cmp)
	}

	n := len(sorted)
	totalPages := n / pageSize
	if n%pageSize != 0 {
		totalPages++
	}
	if totalPages < 1 {
		totalPages = 1
	}

	// Compare page numbers before multiplying so huge pages cannot overflow.
	out := []T{}
	if page <= totalPages {
		offset := (page - 1) * pageSize
		end := min(offset+pageSize, n)
		out = slices.Clone(sorted[offset:end])
	}

	return Page[T]{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: n,
		TotalPages: totalPages,
		Items:      out,
	}
}

// ValidatePage rejects non-positive page numbers and sizes.
func ValidatePage(page, pageSize int) error {
	if page < 1 {
		return testsuite.InvalidArgumentf("page must be at least 1, got %d", page)
	}
	if pageSize < 1 {
		return testsuite.InvalidArgumentf("page size must be at least 1, got %d", pageSize)
	}
	return nil
}
