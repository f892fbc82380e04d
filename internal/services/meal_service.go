// Package services – MealService
//
// This file implements the meal lifecycle. A meal starts Ordering with a
// non-empty set of offered dishes (MealDish links) and moves once to Closed,
// after which neither the meal nor its dish set can change. Replacing the
// offered set deactivates the old links instead of deleting them so that
// historical orders keep resolving.
//
// Every multi-statement mutation runs inside one GORM transaction.
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

// OfferedDishView is a dish offered by a meal with its current orderers.
type OfferedDishView struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  *string  `json:"description,omitempty"`
	Active       bool     `json:"active"`
	OrdererNames []string `json:"orderer_names"`
}

// MealDetail is the single-meal view returned by Get.
type MealDetail struct {
	domain.Meal
	IsOwner          bool                `json:"is_owner"`
	Dishes           []OfferedDishView   `json:"dishes"`
	ParticipantCount int                 `json:"participant_count"`
	MySelection      []repo.SelectedDish `json:"my_selection"`
}

// MealService owns meal creation, updates, closing and deletion.
type MealService struct {
	DB       *gorm.DB
	Kitchens *KitchenService

	// AllowDeleteClosed permits Delete on Closed meals.
	AllowDeleteClosed bool
	// NameMaxLen caps meal names by rune length.
	NameMaxLen int
	// PageSize is the default page size for List.
	PageSize int

	// now is overridable in tests.
	now func() time.Time
}

// NewMealService constructs a MealService with default limits. Deleting
// closed meals is allowed unless the caller turns it off.
func NewMealService(db *gorm.DB, kitchens *KitchenService) *MealService {
	if kitchens == nil {
		kitchens = NewKitchenService(db)
	}
	return &MealService{
		DB:                db,
		Kitchens:          kitchens,
		AllowDeleteClosed: true,
		NameMaxLen:        defaultNameMaxLen,
		PageSize:          20,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

func (s *MealService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now().UTC()
}

// Create opens a meal in the owner's kitchen offering dishIDs. Every id must
// be an active dish of the owner in that kitchen; otherwise nothing is
// written and ErrDishNotFound is returned.
func (s *MealService) Create(ctx context.Context, ownerID, kitchenID, name string, dishIDs []string) (*domain.Meal, error) {
	ctx, span := otel.Tracer("services/MealService").Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("user.id", ownerID),
			attribute.Int("dishes", len(dishIDs)),
		))
	defer span.End()

	name, err := checkName(name, s.NameMaxLen)
	if err != nil {
		return nil, err
	}
	ids := repo.Dedupe(dishIDs)
	if len(ids) == 0 {
		return nil, ErrDishesRequired
	}

	var meal *domain.Meal
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		k, err := resolveKitchen(ctx, tx, ownerID, kitchenID, s.Kitchens.DefaultName)
		if err != nil {
			return err
		}
		m, err := repo.CreateMeal(ctx, tx, ownerID, k.ID, name)
		if err != nil {
			return err
		}
		if err := s.checkDishes(ctx, tx, ownerID, k.ID, ids); err != nil {
			return err
		}
		if err := repo.UpsertMealDishes(ctx, tx, m.ID, ids); err != nil {
			return err
		}
		meal = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.RecordMealEvent(observability.MealCreated)
	zerolog.Ctx(ctx).Debug().Str("meal_id", meal.ID).Int("dishes", len(ids)).Msg("meal created")
	return meal, nil
}

// Update renames an Ordering meal and replaces its offered dish set.
func (s *MealService) Update(ctx context.Context, mealID, actorID, name string, dishIDs []string) (*domain.Meal, error) {
	ctx, span := otel.Tracer("services/MealService").Start(ctx, "Update",
		trace.WithAttributes(
			attribute.String("meal.id", mealID),
			attribute.String("user.id", actorID),
		))
	defer span.End()

	name, err := checkName(name, s.NameMaxLen)
	if err != nil {
		return nil, err
	}
	ids := repo.Dedupe(dishIDs)
	if len(ids) == 0 {
		return nil, ErrDishesRequired
	}

	var meal *domain.Meal
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.owned(ctx, tx, mealID, actorID)
		if err != nil {
			return err
		}
		if m.IsClosed() {
			return ErrMealClosed
		}
		if err := s.checkDishes(ctx, tx, actorID, m.KitchenID, ids); err != nil {
			return err
		}
		// Conditional on status, so a close that committed after the read
		// above still wins.
		ok, err := repo.RenameOrderingMeal(ctx, tx, m.ID, actorID, name)
		if err != nil {
			return err
		}
		if !ok {
			return ErrMealClosed
		}
		if err := repo.DeactivateMealDishes(ctx, tx, m.ID); err != nil {
			return err
		}
		if err := repo.UpsertMealDishes(ctx, tx, m.ID, ids); err != nil {
			return err
		}
		meal, err = repo.GetMeal(ctx, tx, m.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	observability.RecordMealEvent(observability.MealUpdated)
	zerolog.Ctx(ctx).Debug().Str("meal_id", meal.ID).Int("dishes", len(ids)).Msg("meal updated")
	return meal, nil
}

// Close moves an Ordering meal to Closed. A second call fails with
// ErrMealAlreadyClosed.
func (s *MealService) Close(ctx context.Context, mealID, actorID string) (*domain.Meal, error) {
	ctx, span := otel.Tracer("services/MealService").Start(ctx, "Close",
		trace.WithAttributes(
			attribute.String("meal.id", mealID),
			attribute.String("user.id", actorID),
		))
	defer span.End()

	var meal *domain.Meal
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := repo.CloseMeal(ctx, tx, mealID, actorID, s.clock())
		if err != nil {
			return err
		}
		m, err := s.owned(ctx, tx, mealID, actorID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrMealAlreadyClosed
		}
		meal = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.RecordMealEvent(observability.MealClosed)
	zerolog.Ctx(ctx).Debug().Str("meal_id", meal.ID).Msg("meal closed")
	return meal, nil
}

// Delete deactivates the meal's links and removes the meal row. Closed meals
// are deletable only when AllowDeleteClosed is set.
func (s *MealService) Delete(ctx context.Context, mealID, actorID string) error {
	ctx, span := otel.Tracer("services/MealService").Start(ctx, "Delete",
		trace.WithAttributes(
			attribute.String("meal.id", mealID),
			attribute.String("user.id", actorID),
		))
	defer span.End()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.owned(ctx, tx, mealID, actorID)
		if err != nil {
			return err
		}
		if m.IsClosed() && !s.AllowDeleteClosed {
			return ErrMealDeleteClosed
		}
		if err := repo.DeactivateMealDishes(ctx, tx, m.ID); err != nil {
			return err
		}
		if err := repo.DeleteMeal(ctx, tx, m.ID, actorID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrMealNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	observability.RecordMealEvent(observability.MealDeleted)
	zerolog.Ctx(ctx).Debug().Str("meal_id", mealID).Msg("meal deleted")
	return nil
}

// Get returns the meal with its offered dishes (including dishes deleted
// from the catalog after being offered), their orderers, and the viewer's
// own selection. Any viewer may read a meal.
func (s *MealService) Get(ctx context.Context, mealID, viewerID string) (*MealDetail, error) {
	ctx, span := otel.Tracer("services/MealService").Start(ctx, "Get",
		trace.WithAttributes(attribute.String("meal.id", mealID)))
	defer span.End()

	m, err := repo.GetMeal(ctx, s.DB, mealID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrMealNotFound
	}
	if err != nil {
		return nil, err
	}
	agg, err := loadAggregate(ctx, s.DB, m.ID)
	if err != nil {
		return nil, err
	}
	mine, err := repo.ListSelection(ctx, s.DB, m.ID, viewerID)
	if err != nil {
		return nil, err
	}
	if mine == nil {
		mine = []repo.SelectedDish{}
	}

	dishes := make([]OfferedDishView, 0, len(agg.offered))
	for _, d := range agg.offered {
		names := agg.byDish[d.DishID]
		if names == nil {
			names = []string{}
		}
		dishes = append(dishes, OfferedDishView{
			ID:           d.DishID,
			Name:         d.Name,
			Description:  d.Description,
			Active:       d.DishActive,
			OrdererNames: names,
		})
	}
	return &MealDetail{
		Meal:             *m,
		IsOwner:          m.UserID == viewerID,
		Dishes:           dishes,
		ParticipantCount: len(agg.participants),
		MySelection:      mine,
	}, nil
}

// List returns a page of the owner's meals in a kitchen: Ordering meals
// first, then Closed, each group most recent first. status optionally
// restricts the listing to one state.
func (s *MealService) List(ctx context.Context, ownerID, kitchenID string, status *domain.MealStatus, page, pageSize int) ([]repo.MealSummary, int64, error) {
	ctx, span := otel.Tracer("services/MealService").Start(ctx, "List",
		trace.WithAttributes(
			attribute.String("user.id", ownerID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		))
	defer span.End()

	if status != nil && !status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	k, err := s.Kitchens.Resolve(ctx, ownerID, kitchenID)
	if err != nil {
		return nil, 0, err
	}
	_, size, offset := utils.Page(page, pageSize, s.PageSize)

	total, err := repo.CountMeals(ctx, s.DB, ownerID, k.ID, status)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []repo.MealSummary{}, 0, nil
	}
	items, err := repo.ListMealsPage(ctx, s.DB, ownerID, k.ID, status, offset, size)
	return items, total, err
}

// owned loads a meal owned by actorID, mapping absence to ErrMealNotFound.
func (s *MealService) owned(ctx context.Context, db *gorm.DB, mealID, actorID string) (*domain.Meal, error) {
	if strings.TrimSpace(mealID) == "" {
		return nil, ErrIDRequired
	}
	m, err := repo.GetOwnedMeal(ctx, db, mealID, actorID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrMealNotFound
	}
	return m, err
}

// checkDishes verifies every id is an active dish of ownerID in kitchenID.
func (s *MealService) checkDishes(ctx context.Context, db *gorm.DB, ownerID, kitchenID string, ids []string) error {
	found, err := repo.ActiveDishIDs(ctx, db, ownerID, kitchenID, ids)
	if err != nil {
		return err
	}
	if len(found) != len(ids) {
		return ErrDishNotFound
	}
	return nil
}
