// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import (
	"math"
	"strconv"
)

// AtoiDefault converts a string to an int using strconv.Atoi.
// If the string is empty or cannot be parsed as an integer,
// it returns the provided default value instead.
//
// Example:
//
//	n := utils.AtoiDefault("42", 0) // returns 42
//	n = utils.AtoiDefault("", 10)   // returns 10
//	n = utils.AtoiDefault("x", 5)   // returns 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// MaxPageSize caps page sizes accepted by list endpoints.
const MaxPageSize = 100

// MaxPage caps the page number so the row offset stays within an int32.
const MaxPage = math.MaxInt32 / MaxPageSize

// Page normalizes 1-based pagination input and returns the effective page,
// page size and row offset. Non-positive sizes fall back to def; sizes above
// MaxPageSize are clamped, and so are pages above MaxPage.
func Page(page, pageSize, def int) (p, size, offset int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if def <= 0 {
		def = 20
	}
	if pageSize <= 0 {
		pageSize = def
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize, (page - 1) * pageSize
}
