// Meal HTTP handlers.
//
// This file exposes REST endpoints for meals:
//   - POST   /meals              (create, Ordering)
//   - GET    /meals              (list, paginated, ETag support)
//   - GET    /meals/{id}         (detail with orderers and own selection)
//   - PUT    /meals/{id}         (rename and replace offered dishes)
//   - POST   /meals/{id}/close   (Ordering -> Closed)
//   - DELETE /meals/{id}         (remove)
package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-meal-backend/internal/domain"
	"github.com/tbourn/go-meal-backend/internal/repo"
)

//
// DTOs
//

// CreateMealRequest is the JSON payload for opening a meal.
type CreateMealRequest struct {
	Name    string   `json:"name" binding:"required" example:"Friday lunch"`
	DishIDs []string `json:"dish_ids" binding:"required" example:"3f8a2b8e-2c1d-4f7a-9a55-0c4b1b1c9f11"`
	// KitchenID selects the kitchen; empty means the default kitchen.
	KitchenID string `json:"kitchen_id,omitempty"`
}

// UpdateMealRequest is the JSON payload for editing an Ordering meal.
type UpdateMealRequest struct {
	Name    string   `json:"name" binding:"required" example:"Friday lunch"`
	DishIDs []string `json:"dish_ids" binding:"required"`
}

// ListMealsResponse wraps a page of meals and pagination information.
type ListMealsResponse struct {
	Meals      []repo.MealSummary `json:"meals"`
	Pagination Pagination         `json:"pagination"`
}

// parseStatus accepts "ordering"/"closed" or the numeric codes 1/2. An empty
// value means no filter.
func parseStatus(raw string) (*domain.MealStatus, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return nil, true
	}
	var st domain.MealStatus
	switch raw {
	case "ordering":
		st = domain.MealOrdering
	case "closed":
		st = domain.MealClosed
	default:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, false
		}
		st = domain.MealStatus(n)
	}
	if !st.Valid() {
		return nil, false
	}
	return &st, true
}

//
// Handlers
//

// CreateMeal godoc
// @ID          createMeal
// @Summary     Open a meal
// @Description Creates an Ordering meal offering the given dishes. Every dish must be an active dish of the caller in the kitchen.
// @Tags        Meals
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.CreateMealRequest  true  "Meal payload"
// @Success     201  {object} domain.Meal
// @Header      201  {string} Location "URL of the new meal"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Dish or kitchen not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /meals [post]
func (h *Handlers) CreateMeal(c *gin.Context) {
	var req CreateMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name and dish_ids required")
		return
	}
	m, err := h.meals.Create(c.Request.Context(), userID(c), req.KitchenID, req.Name, req.DishIDs)
	if err != nil {
		serviceError(c, err)
		return
	}
	created(c, m.ID, m)
}

// ListMeals godoc
// @ID          listMeals
// @Summary     List meals (paginated)
// @Description Returns the caller's meals in a kitchen: Ordering first, then Closed, newest first within each. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Meals
// @Produce     json
// @Param       X-User-ID      header  string  false "User ID (demo header)"       example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       kitchen_id     query   string  false "Kitchen ID (default kitchen when empty)"
// @Param       status         query   string  false "ordering|closed (or 1|2)"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object} handlers.ListMealsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Kitchen not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /meals [get]
func (h *Handlers) ListMeals(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	status, valid := parseStatus(c.Query("status"))
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid meal status")
		return
	}
	page, pageSize := h.clampPagination(c)

	if notModified(c, h.mealsETag(c, uid, c.Query("kitchen_id"), c.Query("status"), page, pageSize)) {
		return
	}

	items, total, err := h.meals.List(ctx, uid, c.Query("kitchen_id"), status, page, pageSize)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, ListMealsResponse{Meals: items, Pagination: pagination(page, pageSize, total)})
}

// mealsETag derives a weak ETag for a meal listing (best effort). It
// returns "" when no DB is wired or the scope cannot be resolved yet.
func (h *Handlers) mealsETag(c *gin.Context, uid, kitchenID, status string, page, pageSize int) string {
	if h.db == nil {
		return ""
	}
	ctx := c.Request.Context()
	if kitchenID = strings.TrimSpace(kitchenID); kitchenID == "" {
		k, err := repo.GetDefaultKitchen(ctx, h.db, uid)
		if err != nil {
			return ""
		}
		kitchenID = k.ID
	}
	count, maxTS, err := repo.MealsStats(ctx, h.db, uid, kitchenID)
	if err != nil {
		return ""
	}
	orders, active, err := repo.ScopeOrderCounts(ctx, h.db, uid, kitchenID)
	if err != nil {
		return ""
	}
	var ts int64
	if maxTS != nil {
		ts = maxTS.UnixNano()
	}
	return fmt.Sprintf(`W/"meals:%s:%s:%s:%d:%d:%d:%d:%d:%d"`,
		uid, kitchenID, strings.ToLower(status), page, pageSize, count, ts, orders, active)
}

// GetMeal godoc
// @ID          getMeal
// @Summary     Get a meal
// @Description Returns the meal with its offered dishes (including dishes later deleted from the catalog), their orderers and the caller's own selection.
// @Tags        Meals
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Meal ID"
// @Success     200  {object} services.MealDetail
// @Failure     404  {object} handlers.ErrorResponse "Meal not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /meals/{id} [get]
func (h *Handlers) GetMeal(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	m, err := h.meals.Get(c.Request.Context(), id, userID(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

// UpdateMeal godoc
// @ID          updateMeal
// @Summary     Update a meal
// @Description Renames an Ordering meal and replaces its offered dish set. Closed meals are immutable.
// @Tags        Meals
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Meal ID"
// @Param       body       body    handlers.UpdateMealRequest  true  "Meal payload"
// @Success     200  {object} domain.Meal
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Meal or dish not found"
// @Failure     409  {object} handlers.ErrorResponse "Meal closed"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /meals/{id} [put]
func (h *Handlers) UpdateMeal(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var req UpdateMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name and dish_ids required")
		return
	}
	m, err := h.meals.Update(c.Request.Context(), id, userID(c), req.Name, req.DishIDs)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

// CloseMeal godoc
// @ID          closeMeal
// @Summary     Close a meal
// @Description Moves an Ordering meal to Closed. Orders are frozen afterwards.
// @Tags        Meals
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Meal ID"
// @Success     200  {object} domain.Meal
// @Failure     404  {object} handlers.ErrorResponse "Meal not found"
// @Failure     409  {object} handlers.ErrorResponse "Meal already closed"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /meals/{id}/close [post]
func (h *Handlers) CloseMeal(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	m, err := h.meals.Close(c.Request.Context(), id, userID(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

// DeleteMeal godoc
// @ID          deleteMeal
// @Summary     Delete a meal
// @Tags        Meals
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Meal ID"
// @Success     204  {string} string "No Content"
// @Failure     404  {object} handlers.ErrorResponse "Meal not found"
// @Failure     409  {object} handlers.ErrorResponse "Closed meals cannot be deleted"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /meals/{id} [delete]
func (h *Handlers) DeleteMeal(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	if err := h.meals.Delete(c.Request.Context(), id, userID(c)); err != nil {
		serviceError(c, err)
		return
	}
	noContent(c)
}
