package handlers

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/opsboard/opsboard/internal/products"
	"github.com/opsboard/opsboard/internal/store"
)

func newProductEnv(t *testing.T) (*products.Service, *ProductsHandler) {
	t.Helper()
	col := store.New[products.Product, *products.Product](filepath.Join(t.TempDir(), "products.json"))
	svc := products.NewService(slog.Default(), col)
	if err := svc.Ensure(); err != nil {
		t.Fatalf("ensure products failed: %v", err)
	}
	return svc, NewProductsHandler(slog.Default(), svc, t.TempDir())
}

func multipartRequest(t *testing.T, target string, fields map[string]string, fileField, fileName string, fileBody []byte) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("write field %s failed: %v", name, err)
		}
	}
	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, fileName)
		if err != nil {
			t.Fatalf("create file part failed: %v", err)
		}
		if _, err := part.Write(fileBody); err != nil {
			t.Fatalf("write file part failed: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func TestCreateProductJSON(t *testing.T) {
	_, h := newProductEnv(t)

	c, rec := jsonRequest(t, http.MethodPost, "/api/products", `{"name":"Chair","category":"Furniture","price":299.99,"stock":25}`)
	if err := h.CreateProduct(c); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	payload := decodeBody(t, rec)
	data, _ := payload["data"].(map[string]any)
	if data["status"] != products.StatusInStock {
		t.Fatalf("expected derived in_stock status, got %#v", data["status"])
	}
}

func TestCreateProductValidation(t *testing.T) {
	_, h := newProductEnv(t)

	c, _ := jsonRequest(t, http.MethodPost, "/api/products", `{"name":"Chair","price":-1}`)
	if got := httpStatus(t, h.CreateProduct(c)); got != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative price, got %d", got)
	}

	c, _ = jsonRequest(t, http.MethodPost, "/api/products", `{"price":10}`)
	if got := httpStatus(t, h.CreateProduct(c)); got != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing name, got %d", got)
	}
}

func TestCreateProductWithImage(t *testing.T) {
	svc, h := newProductEnv(t)

	c, rec := multipartRequest(t, "/api/products", map[string]string{
		"name":     "Desk Lamp",
		"category": "Lighting",
		"price":    "49.99",
		"stock":    "10",
	}, "image", "lamp.png", []byte("not-really-a-png"))
	if err := h.CreateProduct(c); err != nil {
		t.Fatalf("create with image failed: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	payload := decodeBody(t, rec)
	data, _ := payload["data"].(map[string]any)
	image, _ := data["image"].(string)
	if !strings.HasPrefix(image, "/uploads/products/") || !strings.HasSuffix(image, ".png") {
		t.Fatalf("unexpected image path: %q", image)
	}
	// The stored filename is random, not the client's.
	if strings.Contains(image, "lamp") {
		t.Fatalf("client filename reused: %q", image)
	}
	saved := filepath.Join(h.uploadDir, filepath.Base(image))
	if _, err := os.Stat(saved); err != nil {
		t.Fatalf("uploaded file not written: %v", err)
	}

	product, err := svc.Get(context.Background(), int64(data["id"].(float64)))
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if product.Image != image {
		t.Fatalf("image path not persisted: %q != %q", product.Image, image)
	}
}

func TestCreateProductRejectsBadImageType(t *testing.T) {
	_, h := newProductEnv(t)

	c, _ := multipartRequest(t, "/api/products", map[string]string{
		"name":  "Desk Lamp",
		"price": "49.99",
	}, "image", "payload.txt", []byte("hello"))
	if got := httpStatus(t, h.CreateProduct(c)); got != http.StatusBadRequest {
		t.Fatalf("expected 400 for disallowed extension, got %d", got)
	}
}

func TestListProductsEnvelope(t *testing.T) {
	svc, h := newProductEnv(t)
	ctx := context.Background()

	seed := []products.CreateRequest{
		{Name: "Headphones", Category: "Electronics", Price: 199.99, Stock: 50},
		{Name: "Chair", Category: "Furniture", Price: 299.99, Stock: 25},
		{Name: "Coffee Maker", Category: "Home", Price: 89.99, Stock: 0},
	}
	for _, req := range seed {
		if _, err := svc.Create(ctx, req); err != nil {
			t.Fatalf("seed %s failed: %v", req.Name, err)
		}
	}

	c, rec := jsonRequest(t, http.MethodGet, "/api/products?status=in_stock", "")
	if err := h.ListProducts(c); err != nil {
		t.Fatalf("list failed: %v", err)
	}

	payload := decodeBody(t, rec)
	data, _ := payload["data"].([]any)
	if len(data) != 2 {
		t.Fatalf("expected 2 in-stock products, got %d", len(data))
	}
	filters, _ := payload["filters"].(map[string]any)
	categories, _ := filters["categories"].([]any)
	if len(categories) != 2 {
		t.Fatalf("expected categories of the filtered set, got %#v", categories)
	}
	statuses, _ := filters["statuses"].([]any)
	if len(statuses) != 2 {
		t.Fatalf("expected both statuses listed, got %#v", statuses)
	}
}

func TestListProductsHidesStoreFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt collection failed: %v", err)
	}
	col := store.New[products.Product, *products.Product](path)
	svc := products.NewService(slog.Default(), col)
	h := NewProductsHandler(slog.Default(), svc, t.TempDir())

	c, _ := jsonRequest(t, http.MethodGet, "/api/products", "")
	err := h.ListProducts(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected HTTP error, got %v", err)
	}
	if httpErr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", httpErr.Code)
	}
	msg := fmt.Sprintf("%v", httpErr.Message)
	if msg != "server error" {
		t.Fatalf("expected generic message, got %q", msg)
	}
	if strings.Contains(msg, path) {
		t.Fatalf("response leaked the collection path: %q", msg)
	}
}

func TestDeleteProductNotFound(t *testing.T) {
	_, h := newProductEnv(t)

	c, _ := jsonRequest(t, http.MethodDelete, "/api/products/42", "")
	withPathID(c, 42)
	if got := httpStatus(t, h.DeleteProduct(c)); got != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", got)
	}
}

func TestCategoryStatsEndpoint(t *testing.T) {
	svc, h := newProductEnv(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, products.CreateRequest{Name: "A", Category: "Electronics", Price: 10, Stock: 3}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	c, rec := jsonRequest(t, http.MethodGet, "/api/products/categories/stats", "")
	if err := h.CategoryStats(c); err != nil {
		t.Fatalf("category stats failed: %v", err)
	}
	payload := decodeBody(t, rec)
	data, _ := payload["data"].(map[string]any)
	electronics, _ := data["Electronics"].(map[string]any)
	if electronics["totalValue"] != float64(30) {
		t.Fatalf("unexpected category stats: %#v", electronics)
	}
}
