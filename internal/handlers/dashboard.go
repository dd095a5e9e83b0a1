package handlers

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/opsboard/opsboard/internal/activity"
	"github.com/opsboard/opsboard/internal/auth"
	"github.com/opsboard/opsboard/internal/products"
	"github.com/opsboard/opsboard/internal/users"
)

// DashboardHandler serves /api/dashboard aggregations.
type DashboardHandler struct {
	users    *users.Service
	products *products.Service
	activity *activity.Service
	logger   *slog.Logger
}

// ActivityActor is the actor attached to an enriched activity entry.
type ActivityActor struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// ActivityView is an activity entry enriched with its actor.
type ActivityView struct {
	activity.Entry
	User *ActivityActor `json:"user,omitempty"`
}

// MonthlyPoint is one month of a time series chart.
type MonthlyPoint struct {
	Month string  `json:"month"`
	Value float64 `json:"value"`
}

// CategorySlice is one slice of the category distribution chart.
type CategorySlice struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// TopProduct is one row of the top products chart.
type TopProduct struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	Rating float64 `json:"rating"`
	Sales  int     `json:"sales"`
}

// NewDashboardHandler creates a dashboard handler.
func NewDashboardHandler(log *slog.Logger, userService *users.Service, productService *products.Service, activityService *activity.Service) *DashboardHandler {
	if log == nil {
		log = slog.Default()
	}
	return &DashboardHandler{
		users:    userService,
		products: productService,
		activity: activityService,
		logger:   log.With(slog.String("handler", "dashboard")),
	}
}

// Register mounts the dashboard routes on the Echo instance.
func (h *DashboardHandler) Register(e *echo.Echo) {
	g := e.Group("/api/dashboard")
	g.GET("/stats", h.Stats, auth.RequireAdmin)
	g.GET("/charts", h.Charts, auth.RequireAdmin)
	g.GET("/activities", h.Activities)
}

// Stats godoc
// @Summary Dashboard statistics (admin only)
// @Description Aggregate user and product statistics plus recent activity
// @Tags dashboard
// @Success 200 {object} map[string]any
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/dashboard/stats [get].
func (h *DashboardHandler) Stats(c echo.Context) error {
	ctx := c.Request().Context()

	userStats, err := h.users.Stats(ctx)
	if err != nil {
		return internalError(c, err)
	}
	productStats, err := h.products.Stats(ctx)
	if err != nil {
		return internalError(c, err)
	}
	entries, err := h.activity.Recent(ctx, 10)
	if err != nil {
		return internalError(c, err)
	}

	// Revenue and growth have no backing data source yet; the dashboard shows
	// simulated figures.
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"users":    userStats,
			"products": productStats,
			"revenue": map[string]any{
				"total":  float64(50000 + rand.Intn(50000)),
				"growth": round1(rand.Float64() * 20),
			},
			"recentActivities": h.enrich(ctx, entries),
		},
	})
}

// Charts godoc
// @Summary Dashboard chart data (admin only)
// @Description Monthly revenue, category distribution, registrations, and top products
// @Tags dashboard
// @Success 200 {object} map[string]any
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/dashboard/charts [get].
func (h *DashboardHandler) Charts(c echo.Context) error {
	ctx := c.Request().Context()

	distribution, err := h.products.CategoryDistribution(ctx)
	if err != nil {
		return internalError(c, err)
	}
	slices := make([]CategorySlice, 0, len(distribution))
	for category, count := range distribution {
		slices = append(slices, CategorySlice{Category: category, Count: count})
	}
	sort.Slice(slices, func(i, j int) bool { return slices[i].Category < slices[j].Category })

	catalog, err := h.products.All(ctx)
	if err != nil {
		return internalError(c, err)
	}
	sort.SliceStable(catalog, func(i, j int) bool { return catalog[i].Rating > catalog[j].Rating })
	if len(catalog) > 5 {
		catalog = catalog[:5]
	}
	top := make([]TopProduct, 0, len(catalog))
	for _, p := range catalog {
		top = append(top, TopProduct{
			ID:     p.ID,
			Name:   p.Name,
			Price:  p.Price,
			Rating: p.Rating,
			Sales:  50 + rand.Intn(450),
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"monthlyRevenue":       monthlySeries(12, 20000, 60000),
			"categoryDistribution": slices,
			"registrations":        monthlySeries(12, 10, 120),
			"topProducts":          top,
		},
	})
}

// Activities godoc
// @Summary Recent activity
// @Description Recent activity entries enriched with the acting user
// @Tags dashboard
// @Param limit query int false "Maximum entries"
// @Success 200 {object} map[string]any
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/dashboard/activities [get].
func (h *DashboardHandler) Activities(c echo.Context) error {
	ctx := c.Request().Context()
	entries, err := h.activity.Recent(ctx, intQuery(c, "limit", 10))
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"data":    h.enrich(ctx, entries),
	})
}

// enrich attaches the acting user's name and avatar to each entry. Entries of
// deleted or anonymous actors keep a nil user.
func (h *DashboardHandler) enrich(ctx context.Context, entries []activity.Entry) []ActivityView {
	cache := make(map[int64]*ActivityActor)
	views := make([]ActivityView, 0, len(entries))
	for _, entry := range entries {
		view := ActivityView{Entry: entry}
		if entry.UserID != nil {
			actor, ok := cache[*entry.UserID]
			if !ok {
				if user, err := h.users.Get(ctx, *entry.UserID); err == nil {
					actor = &ActivityActor{Name: user.Name, Avatar: user.Avatar}
				} else if !errors.Is(err, users.ErrNotFound) {
					h.logger.Warn("resolve activity actor failed", slog.Any("error", err))
				}
				cache[*entry.UserID] = actor
			}
			view.User = actor
		}
		views = append(views, view)
	}
	return views
}

// monthlySeries produces the last n months, oldest first, with random values
// in [min, max).
func monthlySeries(n int, min, max float64) []MonthlyPoint {
	points := make([]MonthlyPoint, 0, n)
	now := time.Now().UTC()
	for i := n - 1; i >= 0; i-- {
		month := now.AddDate(0, -i, 0)
		points = append(points, MonthlyPoint{
			Month: month.Format("2006-01"),
			Value: round1(min + rand.Float64()*(max-min)),
		})
	}
	return points
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
