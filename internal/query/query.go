// Package query provides stateless filter, sort, paginate, and aggregate
// helpers over in-memory collection snapshots. Nothing here touches a store.
package query

import (
	"math"
	"sort"
	"strings"
)

// Pagination describes one page of a result set.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// Filter returns the items matching the predicate, preserving order.
func Filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// SortBy sorts items in place with a stable sort, so records comparing equal
// under less keep their pre-sort relative order. desc reverses the key order.
func SortBy[T any](items []T, less func(a, b T) bool, desc bool) {
	if less == nil {
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

// Paginate slices out the 1-based page of the given size and reports totals.
// An out-of-range page yields an empty slice, not an error; an empty input
// yields zero pages.
func Paginate[T any](items []T, page, limit int) ([]T, Pagination) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	total := len(items)
	p := Pagination{
		Total: total,
		Page:  page,
		Limit: limit,
	}
	if total > 0 {
		p.TotalPages = int(math.Ceil(float64(total) / float64(limit)))
	}

	start := (page - 1) * limit
	if start >= total {
		return []T{}, p
	}
	end := page * limit
	if end > total {
		end = total
	}
	return items[start:end], p
}

// MatchFold reports whether any of the fields contains the search term,
// case-insensitively. An empty term matches everything.
func MatchFold(term string, fields ...string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// CountBy tallies items by the given key in a single pass.
func CountBy[T any](items []T, key func(T) string) map[string]int {
	out := make(map[string]int)
	for _, item := range items {
		out[key(item)]++
	}
	return out
}

// SumBy totals the given value over all items in a single pass.
func SumBy[T any](items []T, value func(T) float64) float64 {
	var sum float64
	for _, item := range items {
		sum += value(item)
	}
	return sum
}
