package products

import "time"

// Stock-derived product statuses.
const (
	StatusInStock    = "in_stock"
	StatusOutOfStock = "out_of_stock"
)

// Product is a catalog item record. Status is derived from stock and
// recomputed on every stock change.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	Stock       int       `json:"stock"`
	Status      string    `json:"status"`
	Image       string    `json:"image,omitempty"`
	SKU         string    `json:"sku"`
	Rating      float64   `json:"rating"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RecordID implements store.Record.
func (p *Product) RecordID() int64 { return p.ID }

// SetRecordID implements store.Record.
func (p *Product) SetRecordID(id int64) { p.ID = id }

// StampNew implements store.Record.
func (p *Product) StampNew(now time.Time) {
	p.CreatedAt = now
	p.UpdatedAt = now
}

// StampUpdated implements store.Record.
func (p *Product) StampUpdated(now time.Time) { p.UpdatedAt = now }

// CreateRequest is the input for creating a product. Form tags cover the
// multipart upload path; the image file itself arrives as a separate part.
type CreateRequest struct {
	Name        string  `json:"name" form:"name"`
	Description string  `json:"description" form:"description"`
	Price       float64 `json:"price" form:"price"`
	Category    string  `json:"category" form:"category"`
	Stock       int     `json:"stock" form:"stock"`
	SKU         string  `json:"sku" form:"sku"`
	Rating      float64 `json:"rating" form:"rating"`
	Image       string  `json:"image,omitempty" form:"-"`
}

// UpdateRequest is the input for partial product updates; nil fields are untouched.
type UpdateRequest struct {
	Name        *string  `json:"name,omitempty" form:"name"`
	Description *string  `json:"description,omitempty" form:"description"`
	Price       *float64 `json:"price,omitempty" form:"price"`
	Category    *string  `json:"category,omitempty" form:"category"`
	Stock       *int     `json:"stock,omitempty" form:"stock"`
	SKU         *string  `json:"sku,omitempty" form:"sku"`
	Rating      *float64 `json:"rating,omitempty" form:"rating"`
	Image       *string  `json:"image,omitempty" form:"-"`
}

// ListQuery holds list filtering, sorting, and pagination parameters.
type ListQuery struct {
	Page      int
	Limit     int
	Search    string
	Category  string
	Status    string
	MinPrice  *float64
	MaxPrice  *float64
	SortBy    string
	SortOrder string
}

// ListResult is one page of products plus the distinct categories of the
// filtered set, used by the dashboard for filter options.
type ListResult struct {
	Items      []Product
	Categories []string
}

// Stats summarizes the product collection.
type Stats struct {
	Total      int     `json:"total"`
	InStock    int     `json:"inStock"`
	Categories int     `json:"categories"`
	TotalValue float64 `json:"totalValue"`
}

// CategoryStats aggregates one category of the collection.
type CategoryStats struct {
	Count      int     `json:"count"`
	TotalValue float64 `json:"totalValue"`
	TotalStock int     `json:"totalStock"`
}
