// Order HTTP handlers.
//
// This file exposes REST endpoints for orders:
//   - POST   /meals/{id}/orders      (place / replace own selection)
//   - DELETE /meals/{id}/orders      (cancel own selection)
//   - GET    /meals/{id}/orders/me   (own selection)
//   - GET    /meals/{id}/orders      (owner's per-dish aggregation, ETag support)
//   - GET    /orders                 (own order history, paginated)
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// placement exists for (user, meal, key), the handler answers with the
// caller's current selection and sets `Idempotency-Replayed: true` without
// placing again.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-meal-backend/internal/http/middleware"
	"github.com/tbourn/go-meal-backend/internal/repo"
)

const defaultIdempotencyTTL = 24 * time.Hour

// PlaceOrderRequest is the JSON payload for placing an order. The dish ids
// replace the caller's whole selection in the meal.
type PlaceOrderRequest struct {
	DishIDs []string `json:"dish_ids" binding:"required" example:"3f8a2b8e-2c1d-4f7a-9a55-0c4b1b1c9f11"`
}

// ListOrdersResponse wraps a page of the caller's order rows.
type ListOrdersResponse struct {
	Orders     []repo.OrderHistoryRow `json:"orders"`
	Pagination Pagination             `json:"pagination"`
}

// PlaceOrder godoc
// @ID          placeOrder
// @Summary     Place an order
// @Description Replaces the caller's selection in an Ordering meal. Previous rows are kept as canceled history.
// @Description Supports idempotency via the Idempotency-Key header (same key -> same result).
// @Tags        Orders
// @Accept      json
// @Produce     json
// @Param       X-User-ID        header  string  false "User ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"
// @Param       id               path    string  true  "Meal ID"
// @Param       body             body    handlers.PlaceOrderRequest  true  "Selected dishes"
// @Success     200  {object} services.Selection
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Meal not found"
// @Failure     409  {object} handlers.ErrorResponse "Meal closed or dish not offered"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /meals/{id}/orders [post]
func (h *Handlers) PlaceOrder(c *gin.Context) {
	ctx := c.Request.Context()
	mealID, valid := pathID(c)
	if !valid {
		return
	}
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "dish_ids required")
		return
	}
	uid := userID(c)

	// Replay path.
	key, _ := middleware.GetIdempotencyKey(c)
	if key != "" && h.db != nil {
		rec, err := repo.GetIdempotency(ctx, h.db, uid, mealID, key, time.Now().UTC())
		if err == nil && rec != nil {
			if sel, err := h.orders.GetMine(ctx, mealID, uid); err == nil {
				c.Header(middleware.HeaderIdempotencyReplayed, "true")
				ok(c, rec.Status, sel)
				return
			}
		}
	}

	sel, err := h.orders.Place(ctx, mealID, uid, req.DishIDs)
	if err != nil {
		serviceError(c, err)
		return
	}

	// Store path, best effort. A concurrent retry with the same key loses
	// the unique index race and is ignored.
	if key != "" && h.db != nil {
		if _, err := repo.CreateIdempotency(ctx, h.db, uid, mealID, key, mealID, http.StatusOK, h.idemTTL); err != nil && !errors.Is(err, repo.ErrDuplicate) {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency store failed")
		}
	}
	ok(c, http.StatusOK, sel)
}

// CancelOrder godoc
// @ID          cancelOrder
// @Summary     Cancel own order
// @Tags        Orders
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Meal ID"
// @Success     204  {string} string "No Content"
// @Failure     404  {object} handlers.ErrorResponse "Meal not found"
// @Failure     409  {object} handlers.ErrorResponse "Meal closed or nothing to cancel"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /meals/{id}/orders [delete]
func (h *Handlers) CancelOrder(c *gin.Context) {
	mealID, valid := pathID(c)
	if !valid {
		return
	}
	if err := h.orders.Cancel(c.Request.Context(), mealID, userID(c)); err != nil {
		serviceError(c, err)
		return
	}
	noContent(c)
}

// GetMyOrder godoc
// @ID          getMyOrder
// @Summary     Own selection in a meal
// @Description Returns the caller's active dishes in the meal; `ordered` is false when there are none.
// @Tags        Orders
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Meal ID"
// @Success     200  {object} services.Selection
// @Failure     404  {object} handlers.ErrorResponse "Meal not found"
// @Router      /meals/{id}/orders/me [get]
func (h *Handlers) GetMyOrder(c *gin.Context) {
	mealID, valid := pathID(c)
	if !valid {
		return
	}
	sel, err := h.orders.GetMine(c.Request.Context(), mealID, userID(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, sel)
}

// ListMealOrders godoc
// @ID          listMealOrders
// @Summary     Meal order aggregation
// @Description Owner only. One entry per offered dish with its order count and orderer names, most ordered first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Orders
// @Produce     json
// @Param       X-User-ID      header  string  false "User ID (demo header)"  example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       id             path    string  true  "Meal ID"
// @Success     200  {object} services.MealOrders
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     404  {object} handlers.ErrorResponse "Meal not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /meals/{id}/orders [get]
func (h *Handlers) ListMealOrders(c *gin.Context) {
	ctx := c.Request.Context()
	mealID, valid := pathID(c)
	if !valid {
		return
	}
	uid := userID(c)

	// ETag pre-check (best effort), only for the owner.
	if h.db != nil {
		if _, err := repo.GetOwnedMeal(ctx, h.db, mealID, uid); err == nil {
			if v, err := repo.OrdersStats(ctx, h.db, mealID); err == nil {
				etag := fmt.Sprintf(`W/"orders:%s:%d:%d:%d:%d"`,
					mealID, v.Total, v.Active, unixNano(v.MealUpdatedAt), unixNano(v.LabelsUpdatedAt))
				if notModified(c, etag) {
					return
				}
			}
		}
	}

	agg, err := h.orders.ListForMeal(ctx, mealID, uid)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, agg)
}

// ListMyOrders godoc
// @ID          listMyOrders
// @Summary     Own order history (paginated)
// @Description Returns the caller's order rows across meals, canceled rows included, newest first.
// @Tags        Orders
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       page       query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query   int     false "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object} handlers.ListOrdersResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /orders [get]
func (h *Handlers) ListMyOrders(c *gin.Context) {
	page, pageSize := h.clampPagination(c)
	items, total, err := h.orders.ListByUser(c.Request.Context(), userID(c), page, pageSize)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, ListOrdersResponse{Orders: items, Pagination: pagination(page, pageSize, total)})
}

func unixNano(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixNano()
}
