package handlers

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/opsboard/opsboard/internal/auth"
	"github.com/opsboard/opsboard/internal/products"
	"github.com/opsboard/opsboard/internal/query"
)

// maxImageSize caps uploaded product images at 5 MiB.
const maxImageSize = 5 << 20

var allowedImageExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

// ProductsHandler serves /api/products.
type ProductsHandler struct {
	service   *products.Service
	uploadDir string
	logger    *slog.Logger
}

// ProductListResponse is the body for GET /api/products.
type ProductListResponse struct {
	Success    bool               `json:"success"`
	Data       []products.Product `json:"data"`
	Filters    ProductFilters     `json:"filters"`
	Pagination query.Pagination   `json:"pagination"`
}

// ProductFilters lists the filter options of the current result set.
type ProductFilters struct {
	Categories []string `json:"categories"`
	Statuses   []string `json:"statuses"`
}

// ProductResponse is the single-product envelope.
type ProductResponse struct {
	Success bool             `json:"success"`
	Data    products.Product `json:"data"`
}

// NewProductsHandler creates a products handler; uploadDir receives product images.
func NewProductsHandler(log *slog.Logger, service *products.Service, uploadDir string) *ProductsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ProductsHandler{
		service:   service,
		uploadDir: uploadDir,
		logger:    log.With(slog.String("handler", "products")),
	}
}

// Register mounts the product routes and the uploaded-image static route.
func (h *ProductsHandler) Register(e *echo.Echo) {
	g := e.Group("/api/products")
	g.GET("", h.ListProducts)
	g.GET("/categories/stats", h.CategoryStats)
	g.GET("/:id", h.GetProduct)
	g.POST("", h.CreateProduct, auth.RequireAdmin)
	g.PUT("/:id", h.UpdateProduct, auth.RequireAdmin)
	g.DELETE("/:id", h.DeleteProduct, auth.RequireAdmin)

	e.Static("/uploads/products", h.uploadDir)
}

// ListProducts godoc
// @Summary List products
// @Description List products with search, filters, price range, sorting, and pagination
// @Tags products
// @Success 200 {object} ProductListResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/products [get].
func (h *ProductsHandler) ListProducts(c echo.Context) error {
	q := products.ListQuery{
		Page:      intQuery(c, "page", 1),
		Limit:     intQuery(c, "limit", 10),
		Search:    c.QueryParam("search"),
		Category:  c.QueryParam("category"),
		Status:    c.QueryParam("status"),
		MinPrice:  floatQuery(c, "minPrice"),
		MaxPrice:  floatQuery(c, "maxPrice"),
		SortBy:    c.QueryParam("sortBy"),
		SortOrder: c.QueryParam("sortOrder"),
	}
	result, pagination, err := h.service.List(c.Request().Context(), q)
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, ProductListResponse{
		Success: true,
		Data:    result.Items,
		Filters: ProductFilters{
			Categories: result.Categories,
			Statuses:   []string{products.StatusInStock, products.StatusOutOfStock},
		},
		Pagination: pagination,
	})
}

// GetProduct godoc
// @Summary Get product by ID
// @Tags products
// @Param id path int true "Product ID"
// @Success 200 {object} ProductResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/products/{id} [get].
func (h *ProductsHandler) GetProduct(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	product, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, products.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, ProductResponse{Success: true, Data: product})
}

// CreateProduct godoc
// @Summary Create product (admin only)
// @Description Create a product; accepts JSON or multipart form with an optional image part
// @Tags products
// @Param payload body products.CreateRequest true "Product payload"
// @Success 201 {object} ProductResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/products [post].
func (h *ProductsHandler) CreateProduct(c echo.Context) error {
	var req products.CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Name) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	imagePath, err := h.saveImage(c)
	if err != nil {
		return err
	}
	if imagePath != "" {
		req.Image = imagePath
	}

	product, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, products.ErrInvalidPrice) || errors.Is(err, products.ErrInvalidStock) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return internalError(c, err)
	}
	return c.JSON(http.StatusCreated, ProductResponse{Success: true, Data: product})
}

// UpdateProduct godoc
// @Summary Update product (admin only)
// @Description Partially update a product; accepts JSON or multipart form with an optional image part
// @Tags products
// @Param id path int true "Product ID"
// @Param payload body products.UpdateRequest true "Update payload"
// @Success 200 {object} ProductResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/products/{id} [put].
func (h *ProductsHandler) UpdateProduct(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req products.UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	imagePath, err := h.saveImage(c)
	if err != nil {
		return err
	}
	if imagePath != "" {
		req.Image = &imagePath
	}

	product, err := h.service.Update(c.Request().Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, products.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		case errors.Is(err, products.ErrInvalidPrice), errors.Is(err, products.ErrInvalidStock):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return internalError(c, err)
		}
	}
	return c.JSON(http.StatusOK, ProductResponse{Success: true, Data: product})
}

// DeleteProduct godoc
// @Summary Delete product (admin only)
// @Tags products
// @Param id path int true "Product ID"
// @Success 200 {object} map[string]any
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/products/{id} [delete].
func (h *ProductsHandler) DeleteProduct(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	removed, err := h.service.Delete(c.Request().Context(), id)
	if err != nil {
		return internalError(c, err)
	}
	if !removed {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "product deleted successfully",
	})
}

// CategoryStats godoc
// @Summary Category statistics
// @Description Per-category count, total value, and total stock
// @Tags products
// @Success 200 {object} map[string]any
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/products/categories/stats [get].
func (h *ProductsHandler) CategoryStats(c echo.Context) error {
	stats, err := h.service.StatsByCategory(c.Request().Context())
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"data":    stats,
	})
}

// saveImage stores an uploaded image part under the upload dir with a random
// filename and returns its public path. No "image" part is not an error.
func (h *ProductsHandler) saveImage(c echo.Context) (string, error) {
	file, err := c.FormFile("image")
	if err != nil {
		// Missing part or non-multipart request.
		return "", nil
	}
	if file.Size > maxImageSize {
		return "", echo.NewHTTPError(http.StatusBadRequest, "image exceeds 5MB limit")
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if _, ok := allowedImageExts[ext]; !ok {
		return "", echo.NewHTTPError(http.StatusBadRequest, "unsupported image type")
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", internalError(c, err)
	}
	name := uuid.NewString() + ext
	if err := h.copyUpload(file, filepath.Join(h.uploadDir, name)); err != nil {
		return "", internalError(c, err)
	}
	return path.Join("/uploads/products", name), nil
}

func (h *ProductsHandler) copyUpload(file *multipart.FileHeader, dst string) error {
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}
