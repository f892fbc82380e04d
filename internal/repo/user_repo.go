package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-meal-backend/internal/domain"
)

// EnsureUser inserts a bare profile for id unless one already exists, and
// returns the stored row.
func EnsureUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	now := time.Now().UTC()
	u := &domain.User{ID: id, CreatedAt: now, UpdatedAt: now}
	if err := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(u).Error; err != nil {
		return nil, err
	}
	return GetUser(ctx, db, id)
}

// GetUser fetches a profile by id, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUserProfile sets the non-nil fields on the profile.
func UpdateUserProfile(ctx context.Context, db *gorm.DB, id string, nickname, avatarURL *string) error {
	updates := map[string]any{"updated_at": time.Now().UTC()}
	if nickname != nil {
		updates["nickname"] = *nickname
	}
	if avatarURL != nil {
		updates["avatar_url"] = *avatarURL
	}
	res := db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchUser makes sure the profile row exists and writes to it. Inside a
// transaction this takes the row's write lock (the database write lock on
// SQLite), so concurrent mutations by the same user queue behind each other
// while different users proceed independently.
func TouchUser(ctx context.Context, tx *gorm.DB, id string) error {
	now := time.Now().UTC()
	if err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&domain.User{ID: id, CreatedAt: now, UpdatedAt: now}).Error; err != nil {
		return err
	}
	return tx.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Update("updated_at", now).Error
}
