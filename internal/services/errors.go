// Package services defines the business logic for kitchens, dishes, meals,
// and orders. This file centralizes the service-level error values so that
// they can be consistently returned by service methods and checked by callers.
//
// Every sentinel belongs to one Kind. Transports translate a Kind into their
// own status vocabulary (HTTP status, dispatch code); errors without a Kind
// are storage or transaction failures and are surfaced generically.
package services

import "errors"

// Kind classifies a service error for transport mapping.
type Kind int

const (
	// KindInternal covers storage and transaction failures. Partial effects
	// never persist, so a caller may retry the whole operation.
	KindInternal Kind = iota
	// KindValidation marks missing or malformed input.
	KindValidation
	// KindNotFound marks an id that does not resolve in the actor's scope.
	KindNotFound
	// KindConflict marks a domain rule violation.
	KindConflict
)

// String returns a short lowercase name for logs.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Validation errors.
var (
	// ErrNameRequired is returned when a meal or dish name is blank.
	ErrNameRequired = errors.New("name is required")

	// ErrNameTooLong is returned when a name exceeds the configured rune limit.
	ErrNameTooLong = errors.New("name too long")

	// ErrDishesRequired is returned when a meal or order carries no dish ids.
	ErrDishesRequired = errors.New("at least one dish is required")

	// ErrInvalidStatus is returned for an unknown meal status filter.
	ErrInvalidStatus = errors.New("invalid meal status")

	// ErrIDRequired is returned when a required entity id is blank.
	ErrIDRequired = errors.New("id is required")
)

// Not-found errors. Entities owned by someone else are reported the same way
// as missing ones.
var (
	ErrMealNotFound    = errors.New("meal not found")
	ErrDishNotFound    = errors.New("dish not found")
	ErrKitchenNotFound = errors.New("kitchen not found")
	ErrUserNotFound    = errors.New("user not found")
)

// Conflict errors.
var (
	// ErrDuplicateDishName is returned when another active dish in the same
	// (owner, kitchen) scope already uses the name.
	ErrDuplicateDishName = errors.New("dish name already exists")

	// ErrMealClosed is returned by Update on a Closed meal.
	ErrMealClosed = errors.New("meal already closed, cannot modify")

	// ErrMealAlreadyClosed is returned by a repeated Close.
	ErrMealAlreadyClosed = errors.New("meal already closed")

	// ErrMealDeleteClosed is returned by Delete on a Closed meal when the
	// policy forbids it.
	ErrMealDeleteClosed = errors.New("meal already closed, cannot delete")

	// ErrMealClosedForOrders is returned by Place on a Closed meal.
	ErrMealClosedForOrders = errors.New("meal closed, cannot order")

	// ErrMealClosedForCancel is returned by Cancel on a Closed meal.
	ErrMealClosedForCancel = errors.New("meal closed, cannot cancel order")

	// ErrDishNotOffered is returned when an order names a dish that is not an
	// active member of the meal.
	ErrDishNotOffered = errors.New("dish not offered in this meal")

	// ErrNothingToCancel is returned by Cancel when the user holds no active
	// rows in the meal.
	ErrNothingToCancel = errors.New("nothing to cancel")
)

var kinds = map[error]Kind{
	ErrNameRequired:   KindValidation,
	ErrNameTooLong:    KindValidation,
	ErrDishesRequired: KindValidation,
	ErrInvalidStatus:  KindValidation,
	ErrIDRequired:     KindValidation,

	ErrMealNotFound:    KindNotFound,
	ErrDishNotFound:    KindNotFound,
	ErrKitchenNotFound: KindNotFound,
	ErrUserNotFound:    KindNotFound,

	ErrDuplicateDishName:   KindConflict,
	ErrMealClosed:          KindConflict,
	ErrMealAlreadyClosed:   KindConflict,
	ErrMealDeleteClosed:    KindConflict,
	ErrMealClosedForOrders: KindConflict,
	ErrMealClosedForCancel: KindConflict,
	ErrDishNotOffered:      KindConflict,
	ErrNothingToCancel:     KindConflict,
}

// KindOf returns the classification of err, unwrapping as needed. Unknown
// errors (including nil) are KindInternal.
func KindOf(err error) Kind {
	for err != nil {
		if k, ok := kinds[err]; ok {
			return k
		}
		err = errors.Unwrap(err)
	}
	return KindInternal
}
