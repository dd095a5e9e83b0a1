// Package products provides catalog item management over the file-backed store.
package products

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/opsboard/opsboard/internal/query"
	"github.com/opsboard/opsboard/internal/store"
)

// Errors returned by product operations.
var (
	ErrNotFound     = errors.New("product not found")
	ErrInvalidPrice = errors.New("price must be non-negative")
	ErrInvalidStock = errors.New("stock must be non-negative")
)

// Service provides catalog item management.
type Service struct {
	col    *store.Collection[Product, *Product]
	logger *slog.Logger
}

// NewService creates a new products service over the given collection.
func NewService(log *slog.Logger, col *store.Collection[Product, *Product]) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		col:    col,
		logger: log.With(slog.String("service", "products")),
	}
}

// Ensure creates an empty collection document if none exists yet.
func (s *Service) Ensure() error {
	return s.col.Ensure(nil)
}

// Create validates ranges, derives status from stock, and persists the product.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Product, error) {
	if req.Price < 0 {
		return Product{}, ErrInvalidPrice
	}
	if req.Stock < 0 {
		return Product{}, ErrInvalidStock
	}
	return s.col.Create(Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Category:    strings.TrimSpace(req.Category),
		Stock:       req.Stock,
		Status:      statusForStock(req.Stock),
		Image:       req.Image,
		SKU:         req.SKU,
		Rating:      req.Rating,
	})
}

// Get returns the product by id.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	product, err := s.col.Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return product, nil
}

// Update merges the partial request into the product; status is recomputed
// whenever stock changes.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (Product, error) {
	if req.Price != nil && *req.Price < 0 {
		return Product{}, ErrInvalidPrice
	}
	if req.Stock != nil && *req.Stock < 0 {
		return Product{}, ErrInvalidStock
	}

	updated, err := s.col.Update(id, func(p *Product) {
		if req.Name != nil {
			p.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			p.Description = *req.Description
		}
		if req.Price != nil {
			p.Price = *req.Price
		}
		if req.Category != nil {
			p.Category = strings.TrimSpace(*req.Category)
		}
		if req.Stock != nil {
			p.Stock = *req.Stock
			p.Status = statusForStock(*req.Stock)
		}
		if req.SKU != nil {
			p.SKU = *req.SKU
		}
		if req.Rating != nil {
			p.Rating = *req.Rating
		}
		if req.Image != nil {
			p.Image = *req.Image
		}
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return updated, nil
}

// Delete removes the product and reports whether one was removed.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	return s.col.Delete(id)
}

// List applies search, category/status filters, the inclusive price range,
// sorting, and pagination.
func (s *Service) List(ctx context.Context, q ListQuery) (ListResult, query.Pagination, error) {
	items, err := s.col.All()
	if err != nil {
		return ListResult{}, query.Pagination{}, err
	}

	items = query.Filter(items, func(p Product) bool {
		if !query.MatchFold(q.Search, p.Name, p.Description, p.SKU) {
			return false
		}
		if q.Category != "" && p.Category != q.Category {
			return false
		}
		if q.Status != "" && p.Status != q.Status {
			return false
		}
		if q.MinPrice != nil && p.Price < *q.MinPrice {
			return false
		}
		if q.MaxPrice != nil && p.Price > *q.MaxPrice {
			return false
		}
		return true
	})

	query.SortBy(items, productLess(q.SortBy), strings.ToLower(q.SortOrder) != "asc")

	page, pagination := query.Paginate(items, q.Page, q.Limit)
	return ListResult{
		Items:      page,
		Categories: distinctCategories(items),
	}, pagination, nil
}

// Stats summarizes the collection: total value is Σ price × stock.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	items, err := s.col.All()
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{
		Total: len(items),
		TotalValue: query.SumBy(items, func(p Product) float64 {
			return p.Price * float64(p.Stock)
		}),
		Categories: len(distinctCategories(items)),
	}
	for _, p := range items {
		if p.Status == StatusInStock {
			stats.InStock++
		}
	}
	return stats, nil
}

// StatsByCategory aggregates count, total value, and total stock per category.
func (s *Service) StatsByCategory(ctx context.Context) (map[string]CategoryStats, error) {
	items, err := s.col.All()
	if err != nil {
		return nil, err
	}
	out := make(map[string]CategoryStats)
	for _, p := range items {
		cs := out[p.Category]
		cs.Count++
		cs.TotalValue += p.Price * float64(p.Stock)
		cs.TotalStock += p.Stock
		out[p.Category] = cs
	}
	return out, nil
}

// CategoryDistribution counts products per category for chart rendering.
func (s *Service) CategoryDistribution(ctx context.Context) (map[string]int, error) {
	items, err := s.col.All()
	if err != nil {
		return nil, err
	}
	return query.CountBy(items, func(p Product) string { return p.Category }), nil
}

// All returns the full catalog snapshot, used by dashboard aggregations.
func (s *Service) All(ctx context.Context) ([]Product, error) {
	return s.col.All()
}

func statusForStock(stock int) string {
	if stock > 0 {
		return StatusInStock
	}
	return StatusOutOfStock
}

func distinctCategories(items []Product) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, p := range items {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out
}

// productLess returns the comparator for the sort key; unknown keys compare
// equal so the stable sort preserves input order.
func productLess(sortBy string) func(a, b Product) bool {
	switch sortBy {
	case "name":
		return func(a, b Product) bool { return a.Name < b.Name }
	case "price":
		return func(a, b Product) bool { return a.Price < b.Price }
	case "stock":
		return func(a, b Product) bool { return a.Stock < b.Stock }
	case "category":
		return func(a, b Product) bool { return a.Category < b.Category }
	case "rating":
		return func(a, b Product) bool { return a.Rating < b.Rating }
	case "sku":
		return func(a, b Product) bool { return a.SKU < b.SKU }
	case "updatedAt":
		return func(a, b Product) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	case "id":
		return func(a, b Product) bool { return a.ID < b.ID }
	case "", "createdAt":
		return func(a, b Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	default:
		return nil
	}
}
