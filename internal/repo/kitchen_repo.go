package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-meal-backend/internal/domain"
)

// CreateKitchen inserts an active kitchen owned by userID.
func CreateKitchen(ctx context.Context, db *gorm.DB, userID, name string, isDefault bool) (*domain.Kitchen, error) {
	now := time.Now().UTC()
	k := &domain.Kitchen{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		IsDefault: isDefault,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(k).Error; err != nil {
		return nil, err
	}
	return k, nil
}

// GetKitchen fetches an active kitchen by id and owner, or ErrNotFound.
func GetKitchen(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Kitchen, error) {
	var k domain.Kitchen
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND active = ?", id, userID, true).
		First(&k).Error
	if err != nil {
		return nil, err
	}
	return &k, nil
}

// GetDefaultKitchen returns the user's active default kitchen, or ErrNotFound.
func GetDefaultKitchen(ctx context.Context, db *gorm.DB, userID string) (*domain.Kitchen, error) {
	var k domain.Kitchen
	err := db.WithContext(ctx).
		Where("user_id = ? AND is_default = ? AND active = ?", userID, true, true).
		Order("created_at ASC").
		First(&k).Error
	if err != nil {
		return nil, err
	}
	return &k, nil
}

// ListKitchens returns the user's active kitchens, default first.
func ListKitchens(ctx context.Context, db *gorm.DB, userID string) ([]domain.Kitchen, error) {
	var out []domain.Kitchen
	err := db.WithContext(ctx).
		Where("user_id = ? AND active = ?", userID, true).
		Order("is_default DESC, created_at ASC").
		Find(&out).Error
	return out, err
}
