// Kitchen and profile HTTP handlers.
//
//   - GET  /kitchens   (list, default kitchen first)
//   - POST /kitchens   (create)
//   - GET  /me         (caller's profile)
//   - PUT  /me         (update nickname / avatar)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-meal-backend/internal/domain"
)

// CreateKitchenRequest is the JSON payload for creating a kitchen.
type CreateKitchenRequest struct {
	Name string `json:"name" binding:"required" example:"Office"`
}

// ListKitchensResponse wraps the caller's kitchens.
type ListKitchensResponse struct {
	Kitchens []domain.Kitchen `json:"kitchens"`
}

// UpdateProfileRequest is the JSON payload for PUT /me. Omitted fields are
// left unchanged.
type UpdateProfileRequest struct {
	Nickname  *string `json:"nickname,omitempty" example:"Ann"`
	AvatarURL *string `json:"avatar_url,omitempty" example:"https://example.com/a.png"`
}

// ListKitchens godoc
// @ID          listKitchens
// @Summary     List kitchens
// @Description Returns the caller's kitchens. The default kitchen is provisioned on first use.
// @Tags        Kitchens
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Success     200  {object} handlers.ListKitchensResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /kitchens [get]
func (h *Handlers) ListKitchens(c *gin.Context) {
	items, err := h.kitchens.List(c.Request.Context(), userID(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, ListKitchensResponse{Kitchens: items})
}

// CreateKitchen godoc
// @ID          createKitchen
// @Summary     Create a kitchen
// @Tags        Kitchens
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.CreateKitchenRequest  true  "Kitchen payload"
// @Success     201  {object} domain.Kitchen
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /kitchens [post]
func (h *Handlers) CreateKitchen(c *gin.Context) {
	var req CreateKitchenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name required")
		return
	}
	k, err := h.kitchens.Create(c.Request.Context(), userID(c), req.Name)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusCreated, k)
}

// GetMe godoc
// @ID          getMe
// @Summary     Current user's profile
// @Tags        Users
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Success     200  {object} domain.User
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /me [get]
func (h *Handlers) GetMe(c *gin.Context) {
	u, err := h.users.Me(c.Request.Context(), userID(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// UpdateMe godoc
// @ID          updateMe
// @Summary     Update profile
// @Description Sets the nickname shown in order aggregations and the avatar URL. A blank nickname falls back to the user id.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.UpdateProfileRequest  true  "Profile fields"
// @Success     200  {object} domain.User
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /me [put]
func (h *Handlers) UpdateMe(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	u, err := h.users.UpdateProfile(c.Request.Context(), userID(c), req.Nickname, req.AvatarURL)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}
