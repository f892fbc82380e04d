// Package handlers exposes the REST surface of the meal ordering service.
//
// Handlers are transport-thin: they bind and validate input, call the
// application services through the interfaces below, and translate results
// and service error kinds into HTTP responses (including conditional
// responses and idempotent replays).
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-meal-backend/internal/dispatch"
	"github.com/tbourn/go-meal-backend/internal/domain"
	"github.com/tbourn/go-meal-backend/internal/http/middleware"
	"github.com/tbourn/go-meal-backend/internal/repo"
	"github.com/tbourn/go-meal-backend/internal/services"
	"github.com/tbourn/go-meal-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// KitchenService lists and creates the caller's kitchens.
type KitchenService interface {
	List(ctx context.Context, userID string) ([]domain.Kitchen, error)
	Create(ctx context.Context, userID, name string) (*domain.Kitchen, error)
}

// UserService reads and edits the caller's profile.
type UserService interface {
	Me(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, nickname, avatarURL *string) (*domain.User, error)
}

// DishService defines catalog operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type DishService interface {
	Create(ctx context.Context, ownerID, kitchenID, name string, description *string) (*domain.Dish, error)
	Update(ctx context.Context, ownerID, dishID, name string, description *string) (*domain.Dish, error)
	Delete(ctx context.Context, ownerID, dishID string) error
	Get(ctx context.Context, ownerID, dishID string) (*domain.Dish, error)
	List(ctx context.Context, ownerID, kitchenID, keyword string, page, pageSize int) ([]domain.Dish, int64, error)
}

// MealService defines meal lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type MealService interface {
	Create(ctx context.Context, ownerID, kitchenID, name string, dishIDs []string) (*domain.Meal, error)
	Update(ctx context.Context, mealID, actorID, name string, dishIDs []string) (*domain.Meal, error)
	Close(ctx context.Context, mealID, actorID string) (*domain.Meal, error)
	Delete(ctx context.Context, mealID, actorID string) error
	Get(ctx context.Context, mealID, viewerID string) (*services.MealDetail, error)
	List(ctx context.Context, ownerID, kitchenID string, status *domain.MealStatus, page, pageSize int) ([]repo.MealSummary, int64, error)
}

// OrderService defines order placement and reporting.
type OrderService interface {
	Place(ctx context.Context, mealID, userID string, dishIDs []string) (*services.Selection, error)
	Cancel(ctx context.Context, mealID, userID string) error
	GetMine(ctx context.Context, mealID, userID string) (*services.Selection, error)
	ListForMeal(ctx context.Context, mealID, actorID string) (*services.MealOrders, error)
	ListByUser(ctx context.Context, userID string, page, pageSize int) ([]repo.OrderHistoryRow, int64, error)
}

//
// Handler wiring
//

// Deps carries everything Handlers needs. DB is optional: when set it backs
// list ETags and idempotent replays of order placement.
type Deps struct {
	Kitchens   KitchenService
	Users      UserService
	Dishes     DishService
	Meals      MealService
	Orders     OrderService
	Dispatcher *dispatch.Dispatcher
	DB         *gorm.DB

	// PageSize is the default page size for list endpoints.
	PageSize int
	// IdempotencyTTL bounds how long an order placement can be replayed.
	IdempotencyTTL time.Duration
}

// Handlers groups HTTP endpoints for kitchens, profiles, dishes, meals,
// orders and the action dispatch endpoint.
type Handlers struct {
	kitchens KitchenService
	users    UserService
	dishes   DishService
	meals    MealService
	orders   OrderService
	disp     *dispatch.Dispatcher
	db       *gorm.DB
	pageSize int
	idemTTL  time.Duration
}

// New constructs a Handlers instance bound to the given services.
func New(d Deps) *Handlers {
	size := d.PageSize
	if size <= 0 {
		size = 20
	}
	ttl := d.IdempotencyTTL
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &Handlers{
		kitchens: d.Kitchens,
		users:    d.Users,
		dishes:   d.Dishes,
		meals:    d.Meals,
		orders:   d.Orders,
		disp:     d.Dispatcher,
		db:       d.DB,
		pageSize: size,
		idemTTL:  ttl,
	}
}

//
// Shared DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

//
// Helpers
//

// userID returns the identity resolved by the auth middleware.
func userID(c *gin.Context) string { return middleware.UserID(c) }

// clampPagination parses page and page_size query params, bounded by
// utils.Page, and returns (page, pageSize).
func (h *Handlers) clampPagination(c *gin.Context) (page, pageSize int) {
	page, pageSize, _ = utils.Page(
		utils.AtoiDefault(c.Query("page"), 1),
		utils.AtoiDefault(c.Query("page_size"), h.pageSize),
		h.pageSize,
	)
	return page, pageSize
}

func pagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// pathID returns the trimmed :id route parameter, or fails with 400.
func pathID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "id is required")
		return "", false
	}
	return id, true
}
