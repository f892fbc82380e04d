// Package services – DishService
//
// This file implements the catalog store. Dishes live in a (owner, kitchen)
// scope where the trimmed, NFC-normalized name is unique among active dishes.
// Deletion is a soft flag flip and is never blocked by meals that offer the
// dish; those meals keep showing it.
package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-meal-backend/internal/domain"
	"github.com/tbourn/go-meal-backend/internal/repo"
	"github.com/tbourn/go-meal-backend/internal/utils"
)

// DishService provides catalog operations for a dish owner.
type DishService struct {
	DB       *gorm.DB
	Kitchens *KitchenService

	// NameMaxLen caps dish names by rune length.
	NameMaxLen int
	// PageSize is the default page size for List.
	PageSize int
}

// NewDishService constructs a DishService with default limits.
func NewDishService(db *gorm.DB, kitchens *KitchenService) *DishService {
	if kitchens == nil {
		kitchens = NewKitchenService(db)
	}
	return &DishService{DB: db, Kitchens: kitchens, NameMaxLen: defaultNameMaxLen, PageSize: 20}
}

// Create adds an active dish in the owner's kitchen (default kitchen when
// kitchenID is empty). A name collision with another active dish in the same
// scope yields ErrDuplicateDishName.
func (s *DishService) Create(ctx context.Context, ownerID, kitchenID, name string, description *string) (*domain.Dish, error) {
	ctx, span := otel.Tracer("services/DishService").Start(ctx, "Create",
		trace.WithAttributes(attribute.String("user.id", ownerID)))
	defer span.End()

	name, err := checkName(name, s.NameMaxLen)
	if err != nil {
		return nil, err
	}
	description = normalizeOptional(description)

	var out *domain.Dish
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		k, err := resolveKitchen(ctx, tx, ownerID, kitchenID, s.Kitchens.DefaultName)
		if err != nil {
			return err
		}
		taken, err := repo.DishNameTaken(ctx, tx, ownerID, k.ID, name, "")
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateDishName
		}
		d, err := repo.CreateDish(ctx, tx, ownerID, k.ID, name, description)
		if errors.Is(err, repo.ErrDuplicate) {
			return ErrDuplicateDishName
		}
		out = d
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update renames the dish and replaces its description. The uniqueness check
// excludes the dish itself, so saving an unchanged name succeeds.
func (s *DishService) Update(ctx context.Context, ownerID, dishID, name string, description *string) (*domain.Dish, error) {
	ctx, span := otel.Tracer("services/DishService").Start(ctx, "Update",
		trace.WithAttributes(attribute.String("dish.id", dishID), attribute.String("user.id", ownerID)))
	defer span.End()

	name, err := checkName(name, s.NameMaxLen)
	if err != nil {
		return nil, err
	}
	description = normalizeOptional(description)

	var out *domain.Dish
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d, err := repo.GetActiveDish(ctx, tx, dishID, ownerID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrDishNotFound
		}
		if err != nil {
			return err
		}
		taken, err := repo.DishNameTaken(ctx, tx, ownerID, d.KitchenID, name, d.ID)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateDishName
		}
		switch err := repo.UpdateDish(ctx, tx, d.ID, ownerID, name, description); {
		case errors.Is(err, repo.ErrDuplicate):
			return ErrDuplicateDishName
		case errors.Is(err, repo.ErrNotFound):
			return ErrDishNotFound
		case err != nil:
			return err
		}
		out, err = repo.GetActiveDish(ctx, tx, d.ID, ownerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete soft-deletes the dish.
func (s *DishService) Delete(ctx context.Context, ownerID, dishID string) error {
	err := repo.DeactivateDish(ctx, s.DB, dishID, ownerID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrDishNotFound
	}
	return err
}

// Get returns an active dish of the owner.
func (s *DishService) Get(ctx context.Context, ownerID, dishID string) (*domain.Dish, error) {
	d, err := repo.GetActiveDish(ctx, s.DB, dishID, ownerID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrDishNotFound
	}
	return d, err
}

// List returns a page of the owner's active dishes in a kitchen, newest
// first, optionally filtered by a name keyword, and the total match count.
func (s *DishService) List(ctx context.Context, ownerID, kitchenID, keyword string, page, pageSize int) ([]domain.Dish, int64, error) {
	ctx, span := otel.Tracer("services/DishService").Start(ctx, "List",
		trace.WithAttributes(
			attribute.String("user.id", ownerID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		))
	defer span.End()

	k, err := s.Kitchens.Resolve(ctx, ownerID, kitchenID)
	if err != nil {
		return nil, 0, err
	}
	_, size, offset := utils.Page(page, pageSize, s.PageSize)

	total, err := repo.CountDishes(ctx, s.DB, ownerID, k.ID, keyword)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Dish{}, 0, nil
	}
	items, err := repo.ListDishesPage(ctx, s.DB, ownerID, k.ID, keyword, offset, size)
	return items, total, err
}
