package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-meal-backend/internal/domain"
)

// MealSummary is a list row: the meal plus counts of its offered dishes and
// of the distinct users holding an active order.
type MealSummary struct {
	domain.Meal
	DishCount    int64 `json:"dish_count"`
	OrdererCount int64 `json:"orderer_count"`
}

// CreateMeal inserts a meal in the Ordering state.
func CreateMeal(ctx context.Context, db *gorm.DB, userID, kitchenID, name string) (*domain.Meal, error) {
	now := time.Now().UTC()
	m := &domain.Meal{
		ID:        uuid.NewString(),
		UserID:    userID,
		KitchenID: kitchenID,
		Name:      name,
		Status:    domain.MealOrdering,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// GetMeal fetches a meal by id regardless of owner, or ErrNotFound.
func GetMeal(ctx context.Context, db *gorm.DB, id string) (*domain.Meal, error) {
	var m domain.Meal
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// GetOwnedMeal fetches a meal by id and owner, or ErrNotFound.
func GetOwnedMeal(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Meal, error) {
	var m domain.Meal
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMealForShare reads the meal's committed row under a shared row lock, so
// a concurrent close or update must commit (or roll back) first. SQLite has
// no row locks; there the transaction's writer lock already serialises.
func GetMealForShare(ctx context.Context, tx *gorm.DB, id string) (*domain.Meal, error) {
	var m domain.Meal
	q := tx.WithContext(ctx)
	if tx.Dialector.Name() == DriverPostgres {
		q = q.Clauses(clause.Locking{Strength: "SHARE"})
	}
	err := q.Where("id = ?", id).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// RenameOrderingMeal updates the name of an owned meal that is still
// Ordering. It reports whether a row changed; false means the meal is
// missing, not owned, or closed.
func RenameOrderingMeal(ctx context.Context, db *gorm.DB, id, userID, name string) (bool, error) {
	res := db.WithContext(ctx).Model(&domain.Meal{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, domain.MealOrdering).
		Updates(map[string]any{"name": name, "updated_at": time.Now().UTC()})
	return res.RowsAffected > 0, res.Error
}

// CloseMeal moves an owned meal from Ordering to Closed and stamps
// closed_at. It reports whether the transition happened.
func CloseMeal(ctx context.Context, db *gorm.DB, id, userID string, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Model(&domain.Meal{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, domain.MealOrdering).
		Updates(map[string]any{
			"status":     domain.MealClosed,
			"closed_at":  now,
			"updated_at": now,
		})
	return res.RowsAffected > 0, res.Error
}

// DeleteMeal removes the meal row. Links should be deactivated first.
func DeleteMeal(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Meal{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateMealDishes marks every link of the meal inactive.
func DeactivateMealDishes(ctx context.Context, db *gorm.DB, mealID string) error {
	return db.WithContext(ctx).Model(&domain.MealDish{}).
		Where("meal_id = ? AND active = ?", mealID, true).
		Updates(map[string]any{"active": false, "updated_at": time.Now().UTC()}).Error
}

// UpsertMealDishes activates a link for each dish id, re-activating links
// that already exist from an earlier dish set.
func UpsertMealDishes(ctx context.Context, db *gorm.DB, mealID string, dishIDs []string) error {
	if len(dishIDs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]domain.MealDish, 0, len(dishIDs))
	for _, id := range dishIDs {
		rows = append(rows, domain.MealDish{
			ID:        uuid.NewString(),
			MealID:    mealID,
			DishID:    id,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "meal_id"}, {Name: "dish_id"}},
			DoUpdates: clause.Assignments(map[string]any{"active": true, "updated_at": now}),
		}).
		Create(&rows).Error
}

// OfferedDishIDs returns which of dishIDs are active links of the meal.
func OfferedDishIDs(ctx context.Context, db *gorm.DB, mealID string, dishIDs []string) ([]string, error) {
	if len(dishIDs) == 0 {
		return nil, nil
	}
	var out []string
	err := db.WithContext(ctx).Model(&domain.MealDish{}).
		Where("meal_id = ? AND dish_id IN ? AND active = ?", mealID, dishIDs, true).
		Pluck("dish_id", &out).Error
	return out, err
}

func mealScope(db *gorm.DB, userID, kitchenID string, status *domain.MealStatus) *gorm.DB {
	q := db.Model(&domain.Meal{}).Where("meals.user_id = ? AND meals.kitchen_id = ?", userID, kitchenID)
	if status != nil {
		q = q.Where("meals.status = ?", *status)
	}
	return q
}

// CountMeals returns the number of meals in the scope, optionally by status.
func CountMeals(ctx context.Context, db *gorm.DB, userID, kitchenID string, status *domain.MealStatus) (int64, error) {
	var total int64
	err := mealScope(db.WithContext(ctx), userID, kitchenID, status).Count(&total).Error
	return total, err
}

// ListMealsPage returns a page of meal summaries: Ordering meals before
// Closed ones, each group most recent first.
func ListMealsPage(ctx context.Context, db *gorm.DB, userID, kitchenID string, status *domain.MealStatus, offset, limit int) ([]MealSummary, error) {
	var out []MealSummary
	err := mealScope(db.WithContext(ctx), userID, kitchenID, status).
		Select(`meals.*,
			(SELECT COUNT(*) FROM meal_dishes md WHERE md.meal_id = meals.id AND md.active = ?) AS dish_count,
			(SELECT COUNT(DISTINCT o.user_id) FROM orders o WHERE o.meal_id = meals.id AND o.active = ?) AS orderer_count`,
			true, true).
		Order("meals.status ASC, meals.created_at DESC, meals.id DESC").
		Offset(offset).
		Limit(limit).
		Scan(&out).Error
	return out, err
}
