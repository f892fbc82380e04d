package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-meal-backend/internal/dispatch"
)

// Dispatch godoc
// @ID          dispatchFunction
// @Summary     Call a cloud-function style action
// @Description Routes `{action, data}` to the named function (dish, meal, order, user, kitchen). The HTTP status is always 200; the outcome is in the envelope: code 0 success, 400 validation, 404 not found, -1 domain conflict, 500 storage failure.
// @Tags        Functions
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       name       path    string  true  "Function name"  Enums(dish, meal, order, user, kitchen)
// @Param       body       body    dispatch.Request  true  "Action and its data"
// @Success     200  {object} dispatch.Response
// @Router      /functions/{name} [post]
func (h *Handlers) Dispatch(c *gin.Context) {
	var req dispatch.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, dispatch.BadRequest("invalid request body"))
		return
	}
	resp := h.disp.Dispatch(c.Request.Context(), c.Param("name"), userID(c), req)
	c.JSON(http.StatusOK, resp)
}
