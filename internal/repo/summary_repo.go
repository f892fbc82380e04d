package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// OfferedDish is a dish currently linked (active) to a meal. DishActive is
// false when the dish was soft-deleted from the catalog after being offered.
type OfferedDish struct {
	DishID      string    `json:"dish_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	DishActive  bool      `json:"dish_active"`
	CreatedAt   time.Time `json:"-"`
}

// OrdererRow is one active order row with the orderer's display fields.
type OrdererRow struct {
	DishID    string
	UserID    string
	Nickname  string
	AvatarURL *string
	CreatedAt time.Time
}

// ListOfferedDishes returns the meal's active links joined to their dishes,
// newest dish first.
func ListOfferedDishes(ctx context.Context, db *gorm.DB, mealID string) ([]OfferedDish, error) {
	var out []OfferedDish
	err := db.WithContext(ctx).
		Table("meal_dishes AS md").
		Select("d.id AS dish_id, d.name AS name, d.description AS description, d.active AS dish_active, d.created_at AS created_at").
		Joins("JOIN dishes d ON d.id = md.dish_id").
		Where("md.meal_id = ? AND md.active = ?", mealID, true).
		Order("d.created_at DESC, d.id DESC").
		Scan(&out).Error
	return out, err
}

// ListActiveOrderers returns every active order row of the meal in insertion
// order (earliest first), with the orderer's profile when one exists.
func ListActiveOrderers(ctx context.Context, db *gorm.DB, mealID string) ([]OrdererRow, error) {
	var out []OrdererRow
	err := db.WithContext(ctx).
		Table("orders AS o").
		Select("o.dish_id AS dish_id, o.user_id AS user_id, COALESCE(u.nickname, '') AS nickname, u.avatar_url AS avatar_url, o.created_at AS created_at").
		Joins("LEFT JOIN users u ON u.id = o.user_id").
		Where("o.meal_id = ? AND o.active = ?", mealID, true).
		Order("o.created_at ASC, o.id ASC").
		Scan(&out).Error
	return out, err
}
