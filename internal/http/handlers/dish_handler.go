// Dish HTTP handlers.
//
// This file exposes REST endpoints for the caller's dish catalog:
//   - POST   /dishes        (create)
//   - GET    /dishes        (list active dishes, keyword filter, paginated)
//   - GET    /dishes/{id}   (fetch)
//   - PUT    /dishes/{id}   (rename / describe)
//   - DELETE /dishes/{id}   (soft delete)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-meal-backend/internal/domain"
)

// DishRequest is the JSON payload for creating or updating a dish.
type DishRequest struct {
	// Name must be unique among the owner's active dishes in the kitchen.
	Name        string  `json:"name" binding:"required" example:"Kung Pao Chicken"`
	Description *string `json:"description,omitempty" example:"medium spicy"`
	// KitchenID is only read on create; empty selects the default kitchen.
	KitchenID string `json:"kitchen_id,omitempty"`
}

// ListDishesResponse wraps a page of dishes and pagination information.
type ListDishesResponse struct {
	Dishes     []domain.Dish `json:"dishes"`
	Pagination Pagination    `json:"pagination"`
}

// CreateDish godoc
// @ID          createDish
// @Summary     Create a dish
// @Tags        Dishes
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.DishRequest  true  "Dish payload"
// @Success     201  {object} domain.Dish
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Kitchen not found"
// @Failure     409  {object} handlers.ErrorResponse "Duplicate name"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /dishes [post]
func (h *Handlers) CreateDish(c *gin.Context) {
	var req DishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name required")
		return
	}
	d, err := h.dishes.Create(c.Request.Context(), userID(c), req.KitchenID, req.Name, req.Description)
	if err != nil {
		serviceError(c, err)
		return
	}
	created(c, d.ID, d)
}

// ListDishes godoc
// @ID          listDishes
// @Summary     List dishes (paginated)
// @Description Returns the caller's active dishes in a kitchen, newest first.
// @Tags        Dishes
// @Produce     json
// @Param       X-User-ID   header  string  false "User ID (demo header)"  example(user123)
// @Param       kitchen_id  query   string  false "Kitchen ID (default kitchen when empty)"
// @Param       q           query   string  false "Name keyword"
// @Param       page        query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size   query   int     false "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object} handlers.ListDishesResponse
// @Failure     404  {object} handlers.ErrorResponse "Kitchen not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /dishes [get]
func (h *Handlers) ListDishes(c *gin.Context) {
	page, pageSize := h.clampPagination(c)
	items, total, err := h.dishes.List(c.Request.Context(), userID(c), c.Query("kitchen_id"), c.Query("q"), page, pageSize)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, ListDishesResponse{Dishes: items, Pagination: pagination(page, pageSize, total)})
}

// GetDish godoc
// @ID          getDish
// @Summary     Get a dish
// @Tags        Dishes
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Dish ID"
// @Success     200  {object} domain.Dish
// @Failure     404  {object} handlers.ErrorResponse "Dish not found"
// @Router      /dishes/{id} [get]
func (h *Handlers) GetDish(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	d, err := h.dishes.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, d)
}

// UpdateDish godoc
// @ID          updateDish
// @Summary     Update a dish
// @Description Renames the dish and replaces its description. Meals offering the dish show the new name.
// @Tags        Dishes
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Dish ID"
// @Param       body       body    handlers.DishRequest  true  "Dish payload"
// @Success     200  {object} domain.Dish
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Dish not found"
// @Failure     409  {object} handlers.ErrorResponse "Duplicate name"
// @Router      /dishes/{id} [put]
func (h *Handlers) UpdateDish(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var req DishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name required")
		return
	}
	d, err := h.dishes.Update(c.Request.Context(), userID(c), id, req.Name, req.Description)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, d)
}

// DeleteDish godoc
// @ID          deleteDish
// @Summary     Delete a dish
// @Description Soft-deletes the dish. Meals that offered it keep showing it.
// @Tags        Dishes
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Dish ID"
// @Success     204  {string} string "No Content"
// @Failure     404  {object} handlers.ErrorResponse "Dish not found"
// @Router      /dishes/{id} [delete]
func (h *Handlers) DeleteDish(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	if err := h.dishes.Delete(c.Request.Context(), userID(c), id); err != nil {
		serviceError(c, err)
		return
	}
	noContent(c)
}
