// Package dispatch exposes the services through action-based functions.
//
// A caller posts {action, data} to a named function (dish, meal, order,
// user, kitchen) and always receives the same envelope:
//
//	{ "code": 0, "message": "ok", "data": {...}, "success": true }
//
// Codes follow the service error kinds: 0 success, 400 validation,
// 404 not found (or not owned), -1 domain conflict, 500 storage failure.
package dispatch

import (
	"encoding/json"

	"github.com/tbourn/go-meal-backend/internal/services"
)

// Envelope codes.
const (
	CodeOK         = 0
	CodeConflict   = -1
	CodeBadRequest = 400
	CodeNotFound   = 404
	CodeInternal   = 500
)

// Request is one function call.
type Request struct {
	Action string          `json:"action" example:"create"`
	Data   json.RawMessage `json:"data,omitempty" swaggertype:"object"`
}

// Response is the uniform result envelope.
type Response struct {
	Code    int    `json:"code" example:"0"`
	Message string `json:"message" example:"ok"`
	Data    any    `json:"data"`
	Success bool   `json:"success" example:"true"`
}

// Page is the data shape of list actions.
type Page struct {
	List     any   `json:"list"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

// OK wraps a successful result.
func OK(data any, msg string) Response {
	if msg == "" {
		msg = "ok"
	}
	return Response{Code: CodeOK, Message: msg, Data: data, Success: true}
}

// Fail wraps err. Storage failures get a generic message; the caller is
// expected to log the original error.
func Fail(err error) Response {
	switch services.KindOf(err) {
	case services.KindValidation:
		return failure(CodeBadRequest, err.Error())
	case services.KindNotFound:
		return failure(CodeNotFound, err.Error())
	case services.KindConflict:
		return failure(CodeConflict, err.Error())
	default:
		return failure(CodeInternal, "operation failed")
	}
}

// BadRequest builds a validation failure for malformed calls.
func BadRequest(msg string) Response { return failure(CodeBadRequest, msg) }

func failure(code int, msg string) Response {
	return Response{Code: code, Message: msg, Success: false}
}
