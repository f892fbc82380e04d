// Package services – KitchenService
//
// Kitchens namespace one user's dish catalog and meals. Every user owns a
// default kitchen that is provisioned on first use, so callers may omit the
// kitchen id everywhere.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-meal-backend/internal/domain"
	"github.com/tbourn/go-meal-backend/internal/repo"
)

// KitchenService resolves and manages kitchens.
type KitchenService struct {
	DB *gorm.DB
	// DefaultName names auto-provisioned default kitchens.
	DefaultName string
}

// NewKitchenService constructs a KitchenService with the stock default name.
func NewKitchenService(db *gorm.DB) *KitchenService {
	return &KitchenService{DB: db, DefaultName: defaultKitchenName}
}

// Resolve returns the kitchen the caller addresses: kitchenID when given
// (it must be an active kitchen of userID), otherwise the user's default
// kitchen, created if missing.
func (s *KitchenService) Resolve(ctx context.Context, userID, kitchenID string) (*domain.Kitchen, error) {
	return resolveKitchen(ctx, s.DB, userID, kitchenID, s.DefaultName)
}

// List returns the user's active kitchens, default first. The default
// kitchen is provisioned so the list is never empty.
func (s *KitchenService) List(ctx context.Context, userID string) ([]domain.Kitchen, error) {
	if _, err := s.Resolve(ctx, userID, ""); err != nil {
		return nil, err
	}
	return repo.ListKitchens(ctx, s.DB, userID)
}

// Create adds a non-default kitchen.
func (s *KitchenService) Create(ctx context.Context, userID, name string) (*domain.Kitchen, error) {
	name, err := checkName(name, defaultNicknameMaxLen)
	if err != nil {
		return nil, err
	}
	return repo.CreateKitchen(ctx, s.DB, userID, name, false)
}

// resolveKitchen implements Resolve against db, which may be a transaction.
func resolveKitchen(ctx context.Context, db *gorm.DB, userID, kitchenID, defaultName string) (*domain.Kitchen, error) {
	if kitchenID = strings.TrimSpace(kitchenID); kitchenID != "" {
		k, err := repo.GetKitchen(ctx, db, kitchenID, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrKitchenNotFound
		}
		return k, err
	}

	k, err := repo.GetDefaultKitchen(ctx, db, userID)
	if err == nil {
		return k, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	if defaultName == "" {
		defaultName = defaultKitchenName
	}
	// Nested transaction: a savepoint when db is already a transaction, so a
	// lost provisioning race leaves the outer transaction usable.
	err = db.WithContext(ctx).Transaction(func(sp *gorm.DB) error {
		var cerr error
		k, cerr = repo.CreateKitchen(ctx, sp, userID, defaultName, true)
		return cerr
	})
	if err != nil && repo.IsDuplicate(err) {
		return repo.GetDefaultKitchen(ctx, db, userID)
	}
	if err != nil {
		return nil, err
	}
	return k, nil
}
