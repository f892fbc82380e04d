package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-meal-backend/internal/http/middleware"
)

// ErrorResponse is the error envelope of every REST endpoint.
//
//	HTTP/1.1 409 Conflict
//	{"request_id": "123e...", "code": "conflict", "message": "meal closed, cannot order"}
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"meal not found"`
}

func requestID(c *gin.Context) string {
	return c.Writer.Header().Get("X-Request-ID")
}

// fail aborts with an ErrorResponse. 5xx answers are logged.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{RequestID: requestID(c), Code: code, Message: msg})
}

// failInternal logs err and answers 500 without exposing its text.
func failInternal(c *gin.Context, err error) {
	middleware.LoggerFrom(c).Error().Err(err).Str("route", c.FullPath()).Msg("operation failed")
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		RequestID: requestID(c),
		Code:      ErrCodeInternal,
		Message:   genericFailure,
	})
}

// Fail lets the router answer its fallbacks with the same envelope.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// created answers 201 with a Location header pointing at id under the
// collection route that handled the request.
func created(c *gin.Context, id string, body any) {
	if id != "" {
		c.Header("Location", strings.TrimSuffix(c.Request.URL.Path, "/")+"/"+id)
	}
	c.JSON(http.StatusCreated, body)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// notModified sets etag on the response and answers 304 when the request's
// If-None-Match carries it. It reports whether the response is finished.
func notModified(c *gin.Context, etag string) bool {
	if etag == "" {
		return false
	}
	c.Header("ETag", etag)
	for _, tag := range strings.Split(c.GetHeader("If-None-Match"), ",") {
		if t := strings.TrimSpace(tag); t == etag || t == "*" {
			c.Status(http.StatusNotModified)
			return true
		}
	}
	return false
}
