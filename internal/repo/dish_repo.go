package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-meal-backend/internal/domain"
)

// CreateDish inserts an active dish in the (userID, kitchenID) scope.
// A concurrent insert of the same active name trips the partial unique index
// and is reported as ErrDuplicate.
func CreateDish(ctx context.Context, db *gorm.DB, userID, kitchenID, name string, description *string) (*domain.Dish, error) {
	now := time.Now().UTC()
	d := &domain.Dish{
		ID:          uuid.NewString(),
		UserID:      userID,
		KitchenID:   kitchenID,
		Name:        name,
		Description: description,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := db.WithContext(ctx).Create(d).Error; err != nil {
		if IsDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return d, nil
}

// GetActiveDish fetches an active dish by id and owner, or ErrNotFound.
func GetActiveDish(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Dish, error) {
	var d domain.Dish
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND active = ?", id, userID, true).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// DishNameTaken reports whether another active dish in the scope already
// uses name. excludeID skips the dish being renamed ("" to check all).
func DishNameTaken(ctx context.Context, db *gorm.DB, userID, kitchenID, name, excludeID string) (bool, error) {
	q := db.WithContext(ctx).Model(&domain.Dish{}).
		Where("user_id = ? AND kitchen_id = ? AND name = ? AND active = ?", userID, kitchenID, name, true)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateDish renames an active dish and replaces its description.
func UpdateDish(ctx context.Context, db *gorm.DB, id, userID, name string, description *string) error {
	res := db.WithContext(ctx).Model(&domain.Dish{}).
		Where("id = ? AND user_id = ? AND active = ?", id, userID, true).
		Updates(map[string]any{
			"name":        name,
			"description": description,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		if IsDuplicate(res.Error) {
			return ErrDuplicate
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateDish soft-deletes an active dish. Meal links and orders that
// reference it are left untouched.
func DeactivateDish(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).Model(&domain.Dish{}).
		Where("id = ? AND user_id = ? AND active = ?", id, userID, true).
		Updates(map[string]any{"active": false, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ActiveDishIDs returns which of ids resolve to active dishes owned by userID
// in kitchenID.
func ActiveDishIDs(ctx context.Context, db *gorm.DB, userID, kitchenID string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []string
	err := db.WithContext(ctx).Model(&domain.Dish{}).
		Where("id IN ? AND user_id = ? AND kitchen_id = ? AND active = ?", ids, userID, kitchenID, true).
		Pluck("id", &out).Error
	return out, err
}

// likeEscaper makes LIKE wildcards in user input match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func dishScope(db *gorm.DB, userID, kitchenID, keyword string) *gorm.DB {
	q := db.Model(&domain.Dish{}).
		Where("user_id = ? AND kitchen_id = ? AND active = ?", userID, kitchenID, true)
	if kw := strings.TrimSpace(keyword); kw != "" {
		q = q.Where(`name LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(kw)+"%")
	}
	return q
}

// CountDishes returns the number of active dishes in the scope matching keyword.
func CountDishes(ctx context.Context, db *gorm.DB, userID, kitchenID, keyword string) (int64, error) {
	var total int64
	err := dishScope(db.WithContext(ctx), userID, kitchenID, keyword).Count(&total).Error
	return total, err
}

// ListDishesPage returns a page of active dishes, newest first.
func ListDishesPage(ctx context.Context, db *gorm.DB, userID, kitchenID, keyword string, offset, limit int) ([]domain.Dish, error) {
	var out []domain.Dish
	err := dishScope(db.WithContext(ctx), userID, kitchenID, keyword).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
