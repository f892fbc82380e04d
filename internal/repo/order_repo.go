package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-meal-backend/internal/domain"
)

// SelectedDish is one dish of a user's active selection.
type SelectedDish struct {
	DishID    string    `json:"dish_id"`
	DishName  string    `json:"dish_name"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderHistoryRow is one order row (active or canceled) with meal and dish names.
type OrderHistoryRow struct {
	ID         string     `json:"id"`
	MealID     string     `json:"meal_id"`
	MealName   string     `json:"meal_name"`
	DishID     string     `json:"dish_id"`
	DishName   string     `json:"dish_name"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"created_at"`
	CanceledAt *time.Time `json:"canceled_at,omitempty"`
}

// CancelActiveOrders marks the user's active rows in the meal canceled and
// returns how many rows changed.
func CancelActiveOrders(ctx context.Context, db *gorm.DB, mealID, userID string, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Model(&domain.Order{}).
		Where("meal_id = ? AND user_id = ? AND active = ?", mealID, userID, true).
		Updates(map[string]any{"active": false, "canceled_at": now})
	return res.RowsAffected, res.Error
}

// CreateOrders inserts one active row per dish id, in the given order.
func CreateOrders(ctx context.Context, db *gorm.DB, mealID, userID string, dishIDs []string, now time.Time) ([]domain.Order, error) {
	rows := make([]domain.Order, 0, len(dishIDs))
	for _, id := range dishIDs {
		rows = append(rows, domain.Order{
			ID:        uuid.NewString(),
			MealID:    mealID,
			UserID:    userID,
			DishID:    id,
			Active:    true,
			CreatedAt: now,
		})
	}
	if len(rows) == 0 {
		return rows, nil
	}
	if err := db.WithContext(ctx).Create(&rows).Error; err != nil {
		if IsDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rows, nil
}

// ListSelection returns the user's active dishes in the meal, oldest first.
func ListSelection(ctx context.Context, db *gorm.DB, mealID, userID string) ([]SelectedDish, error) {
	var out []SelectedDish
	err := db.WithContext(ctx).
		Table("orders AS o").
		Select("o.dish_id AS dish_id, d.name AS dish_name, o.created_at AS created_at").
		Joins("JOIN dishes d ON d.id = o.dish_id").
		Where("o.meal_id = ? AND o.user_id = ? AND o.active = ?", mealID, userID, true).
		Order("o.created_at ASC, o.id ASC").
		Scan(&out).Error
	return out, err
}

// orderHistory scopes the user's order rows to those whose meal and dish
// still exist, so the count and the page agree after a meal is deleted.
func orderHistory(ctx context.Context, db *gorm.DB, userID string) *gorm.DB {
	return db.WithContext(ctx).
		Table("orders AS o").
		Joins("JOIN meals m ON m.id = o.meal_id").
		Joins("JOIN dishes d ON d.id = o.dish_id").
		Where("o.user_id = ?", userID)
}

// CountOrdersByUser returns the number of history rows ListOrdersByUserPage
// can return for the user.
func CountOrdersByUser(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := orderHistory(ctx, db, userID).Count(&total).Error
	return total, err
}

// ListOrdersByUserPage returns the user's order rows, newest first.
func ListOrdersByUserPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]OrderHistoryRow, error) {
	var out []OrderHistoryRow
	err := orderHistory(ctx, db, userID).
		Select(`o.id AS id, o.meal_id AS meal_id, m.name AS meal_name, o.dish_id AS dish_id,
			d.name AS dish_name, o.active AS active, o.created_at AS created_at, o.canceled_at AS canceled_at`).
		Order("o.created_at DESC, o.id DESC").
		Offset(offset).
		Limit(limit).
		Scan(&out).Error
	return out, err
}
