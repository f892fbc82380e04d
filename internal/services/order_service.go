// Package services – OrderService
//
// This file implements the order ledger. A user's selection in a meal is the
// set of their active order rows. Placing an order replaces the selection in
// one transaction (cancel previous rows, insert new ones); canceled rows stay
// as an audit trail.
//
// Concurrency: Place and Cancel first write the caller's user row, which
// queues concurrent mutations by the same user behind each other, then read
// the meal's committed status under a share lock so that a racing Close is
// either fully before or fully after them.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-meal-backend/internal/domain"
	"github.com/tbourn/go-meal-backend/internal/observability"
	"github.com/tbourn/go-meal-backend/internal/repo"
	"github.com/tbourn/go-meal-backend/internal/utils"
)

// Selection is a user's current order in one meal.
type Selection struct {
	MealID  string              `json:"meal_id"`
	Ordered bool                `json:"ordered"`
	Dishes  []repo.SelectedDish `json:"dishes"`
}

// OrderService places, cancels and reports orders.
type OrderService struct {
	DB *gorm.DB
	// PageSize is the default page size for ListByUser.
	PageSize int

	now func() time.Time
}

// NewOrderService constructs an OrderService.
func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{DB: db, PageSize: 20, now: func() time.Time { return time.Now().UTC() }}
}

func (s *OrderService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now().UTC()
}

// Place replaces userID's selection in the meal with dishIDs. The meal must
// be Ordering and every dish an active member of its offered set.
func (s *OrderService) Place(ctx context.Context, mealID, userID string, dishIDs []string) (*Selection, error) {
	ctx, span := otel.Tracer("services/OrderService").Start(ctx, "Place",
		trace.WithAttributes(
			attribute.String("meal.id", mealID),
			attribute.String("user.id", userID),
			attribute.Int("dishes", len(dishIDs)),
		))
	defer span.End()

	if strings.TrimSpace(mealID) == "" {
		return nil, ErrIDRequired
	}
	ids := repo.Dedupe(dishIDs)
	if len(ids) == 0 {
		return nil, ErrDishesRequired
	}

	var sel []repo.SelectedDish
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.openMeal(ctx, tx, mealID, userID, ErrMealClosedForOrders); err != nil {
			return err
		}
		offered, err := repo.OfferedDishIDs(ctx, tx, mealID, ids)
		if err != nil {
			return err
		}
		if len(offered) != len(ids) {
			return ErrDishNotOffered
		}

		now := s.clock()
		if _, err := repo.CancelActiveOrders(ctx, tx, mealID, userID, now); err != nil {
			return err
		}
		if _, err := repo.CreateOrders(ctx, tx, mealID, userID, ids, now); err != nil {
			return err
		}
		sel, err = repo.ListSelection(ctx, tx, mealID, userID)
		return err
	})
	if err != nil {
		recordOrderOutcome(observability.OrderPlace, err, 0)
		return nil, err
	}

	recordOrderOutcome(observability.OrderPlace, nil, len(ids))
	zerolog.Ctx(ctx).Debug().Str("meal_id", mealID).Int("dishes", len(ids)).Msg("order placed")
	return &Selection{MealID: mealID, Ordered: true, Dishes: sel}, nil
}

// Cancel cancels all of userID's active rows in the meal.
func (s *OrderService) Cancel(ctx context.Context, mealID, userID string) error {
	ctx, span := otel.Tracer("services/OrderService").Start(ctx, "Cancel",
		trace.WithAttributes(
			attribute.String("meal.id", mealID),
			attribute.String("user.id", userID),
		))
	defer span.End()

	if strings.TrimSpace(mealID) == "" {
		return ErrIDRequired
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.openMeal(ctx, tx, mealID, userID, ErrMealClosedForCancel); err != nil {
			return err
		}
		n, err := repo.CancelActiveOrders(ctx, tx, mealID, userID, s.clock())
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNothingToCancel
		}
		return nil
	})
	recordOrderOutcome(observability.OrderCancel, err, 0)
	if err != nil {
		return err
	}
	zerolog.Ctx(ctx).Debug().Str("meal_id", mealID).Msg("order canceled")
	return nil
}

// GetMine returns userID's active selection in the meal; an empty selection
// is not an error.
func (s *OrderService) GetMine(ctx context.Context, mealID, userID string) (*Selection, error) {
	if strings.TrimSpace(mealID) == "" {
		return nil, ErrIDRequired
	}
	if _, err := repo.GetMeal(ctx, s.DB, mealID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrMealNotFound
		}
		return nil, err
	}
	sel, err := repo.ListSelection(ctx, s.DB, mealID, userID)
	if err != nil {
		return nil, err
	}
	if sel == nil {
		sel = []repo.SelectedDish{}
	}
	return &Selection{MealID: mealID, Ordered: len(sel) > 0, Dishes: sel}, nil
}

// ListForMeal aggregates the meal's active orders per offered dish. Only the
// meal's owner may call it.
func (s *OrderService) ListForMeal(ctx context.Context, mealID, actorID string) (*MealOrders, error) {
	ctx, span := otel.Tracer("services/OrderService").Start(ctx, "ListForMeal",
		trace.WithAttributes(
			attribute.String("meal.id", mealID),
			attribute.String("user.id", actorID),
		))
	defer span.End()

	if strings.TrimSpace(mealID) == "" {
		return nil, ErrIDRequired
	}
	if _, err := repo.GetOwnedMeal(ctx, s.DB, mealID, actorID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrMealNotFound
		}
		return nil, err
	}
	agg, err := loadAggregate(ctx, s.DB, mealID)
	if err != nil {
		return nil, err
	}
	return agg.orders(mealID), nil
}

// ListByUser returns a page of userID's order rows across meals (canceled
// rows included), newest first, and the total row count.
func (s *OrderService) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]repo.OrderHistoryRow, int64, error) {
	_, size, offset := utils.Page(page, pageSize, s.PageSize)

	total, err := repo.CountOrdersByUser(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []repo.OrderHistoryRow{}, 0, nil
	}
	items, err := repo.ListOrdersByUserPage(ctx, s.DB, userID, offset, size)
	return items, total, err
}

// openMeal serialises on the user row, then checks the meal exists and is
// still Ordering, returning closedErr otherwise.
func (s *OrderService) openMeal(ctx context.Context, tx *gorm.DB, mealID, userID string, closedErr error) error {
	if err := repo.TouchUser(ctx, tx, userID); err != nil {
		return err
	}
	m, err := repo.GetMealForShare(ctx, tx, mealID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrMealNotFound
	}
	if err != nil {
		return err
	}
	if m.Status != domain.MealOrdering {
		return closedErr
	}
	return nil
}

func recordOrderOutcome(op string, err error, dishes int) {
	switch {
	case err == nil:
		observability.RecordOrderOp(op, observability.OutcomeOK, dishes)
	case KindOf(err) == KindInternal:
		observability.RecordOrderOp(op, observability.OutcomeError, 0)
	default:
		observability.RecordOrderOp(op, observability.OutcomeRejected, 0)
	}
}
