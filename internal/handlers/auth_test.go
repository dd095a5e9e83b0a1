package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/opsboard/opsboard/internal/auth"
	"github.com/opsboard/opsboard/internal/store"
	"github.com/opsboard/opsboard/internal/users"
)

const testSecret = "test-secret"

func newUserService(t *testing.T) *users.Service {
	t.Helper()
	col := store.New[users.User, *users.User](filepath.Join(t.TempDir(), "users.json"))
	svc := users.NewService(slog.Default(), col)
	if err := svc.EnsureSeed(users.AdminSeed{Username: "admin", Password: "admin-pass", Email: "admin@example.com"}); err != nil {
		t.Fatalf("seed users failed: %v", err)
	}
	return svc
}

func jsonRequest(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return payload
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc := newUserService(t)
	h := NewAuthHandler(slog.Default(), svc, testSecret, time.Hour)

	c, rec := jsonRequest(t, http.MethodPost, "/api/auth/login", `{"email":"admin@example.com","password":"admin-pass"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	payload := decodeBody(t, rec)
	if payload["success"] != true {
		t.Fatalf("expected success=true, got %#v", payload["success"])
	}
	token, _ := payload["token"].(string)
	claims, err := auth.ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.Role != users.RoleAdmin {
		t.Fatalf("expected admin role claim, got %s", claims.Role)
	}
	user, ok := payload["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user object, got %#v", payload["user"])
	}
	if _, leaked := user["password"]; leaked {
		t.Fatal("password leaked in login response")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newUserService(t)
	h := NewAuthHandler(slog.Default(), svc, testSecret, time.Hour)

	c, _ := jsonRequest(t, http.MethodPost, "/api/auth/login", `{"email":"admin@example.com","password":"wrong"}`)
	if got := httpStatus(t, h.Login(c)); got != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", got)
	}

	c, _ = jsonRequest(t, http.MethodPost, "/api/auth/login", `{"email":"admin@example.com"}`)
	if got := httpStatus(t, h.Login(c)); got != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", got)
	}
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	svc := newUserService(t)
	h := NewAuthHandler(slog.Default(), svc, testSecret, time.Hour)

	user, err := svc.Register(context.Background(), users.CreateRequest{Name: "Jo", Email: "jo@example.com", Password: "pw123456"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	inactive := users.StatusInactive
	if _, err := svc.Update(context.Background(), user.ID, users.UpdateRequest{Status: &inactive}); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}

	c, _ := jsonRequest(t, http.MethodPost, "/api/auth/login", `{"email":"jo@example.com","password":"pw123456"}`)
	if got := httpStatus(t, h.Login(c)); got != http.StatusUnauthorized {
		t.Fatalf("expected 401 for inactive account, got %d", got)
	}
}

func TestSignUpRejectsDuplicateEmail(t *testing.T) {
	svc := newUserService(t)
	h := NewAuthHandler(slog.Default(), svc, testSecret, time.Hour)

	c, rec := jsonRequest(t, http.MethodPost, "/api/auth/register", `{"name":"Jo","email":"jo@example.com","password":"pw123456"}`)
	if err := h.SignUp(c); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	c, _ = jsonRequest(t, http.MethodPost, "/api/auth/register", `{"name":"Jo","email":"jo@example.com","password":"pw123456"}`)
	if got := httpStatus(t, h.SignUp(c)); got != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate email, got %d", got)
	}
}

func TestRefreshAcceptsExpiredToken(t *testing.T) {
	svc := newUserService(t)
	h := NewAuthHandler(slog.Default(), svc, testSecret, time.Hour)

	admin, err := svc.GetByEmail(context.Background(), "admin@example.com")
	if err != nil {
		t.Fatalf("lookup admin failed: %v", err)
	}
	expired, _, err := auth.GenerateToken(admin.ID, admin.Role, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}

	c, rec := jsonRequest(t, http.MethodPost, "/api/auth/refresh", `{"token":"`+expired+`"}`)
	if err := h.Refresh(c); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	payload := decodeBody(t, rec)
	fresh, _ := payload["token"].(string)
	if _, err := auth.ParseToken(fresh, testSecret); err != nil {
		t.Fatalf("refreshed token does not verify: %v", err)
	}
}

func TestRefreshRejectsForgedToken(t *testing.T) {
	svc := newUserService(t)
	h := NewAuthHandler(slog.Default(), svc, testSecret, time.Hour)

	admin, err := svc.GetByEmail(context.Background(), "admin@example.com")
	if err != nil {
		t.Fatalf("lookup admin failed: %v", err)
	}
	forged, _, err := auth.GenerateToken(admin.ID, admin.Role, "other-secret", time.Hour)
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}

	c, _ := jsonRequest(t, http.MethodPost, "/api/auth/refresh", `{"token":"`+forged+`"}`)
	if got := httpStatus(t, h.Refresh(c)); got != http.StatusUnauthorized {
		t.Fatalf("expected 401 for forged token, got %d", got)
	}
}

func TestMeReturnsCurrentUser(t *testing.T) {
	svc := newUserService(t)
	h := NewAuthHandler(slog.Default(), svc, testSecret, time.Hour)

	admin, err := svc.GetByEmail(context.Background(), "admin@example.com")
	if err != nil {
		t.Fatalf("lookup admin failed: %v", err)
	}

	c, rec := jsonRequest(t, http.MethodGet, "/api/auth/me", "")
	auth.SetPrincipal(c, auth.Principal{ID: admin.ID, Role: admin.Role})
	if err := h.Me(c); err != nil {
		t.Fatalf("me failed: %v", err)
	}
	payload := decodeBody(t, rec)
	user, ok := payload["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user object, got %#v", payload["user"])
	}
	if user["email"] != "admin@example.com" {
		t.Fatalf("unexpected user: %#v", user)
	}
}
