// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-meal-backend/internal/domain"
)

// MealsStats returns the number of meals in a (user, kitchen) scope and the
// greatest UpdatedAt among them. When the scope is empty, maxUpdatedAt is nil.
func MealsStats(ctx context.Context, db *gorm.DB, userID, kitchenID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Meal{}).Where("user_id = ? AND kitchen_id = ?", userID, kitchenID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// ScopeOrderCounts returns the total and active order rows across the
// meals of a (user, kitchen) scope. Meal listings show orderer counts, so
// their ETag must move when orders do.
func ScopeOrderCounts(ctx context.Context, db *gorm.DB, userID, kitchenID string) (total, active int64, err error) {
	var row struct {
		Total  int64
		Active int64
	}
	err = db.WithContext(ctx).
		Table("orders AS o").
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN o.active THEN 1 ELSE 0 END), 0) AS active").
		Joins("JOIN meals m ON m.id = o.meal_id").
		Where("m.user_id = ? AND m.kitchen_id = ?", userID, kitchenID).
		Scan(&row).Error
	return row.Total, row.Active, err
}

// OrdersVersion summarises what a meal's order aggregation depends on.
// Placing orders grows Total, cancelling shrinks Active, and renaming,
// relinking or closing the meal moves MealUpdatedAt. LabelsUpdatedAt is the
// latest edit among the offered dishes and the current orderers' profiles,
// whose names the aggregation displays.
type OrdersVersion struct {
	Total           int64
	Active          int64
	MealUpdatedAt   *time.Time
	LabelsUpdatedAt *time.Time
}

// OrdersStats returns the version of a meal's orders. A missing meal yields
// a nil MealUpdatedAt.
func OrdersStats(ctx context.Context, db *gorm.DB, mealID string) (OrdersVersion, error) {
	var v OrdersVersion
	q := db.WithContext(ctx).Model(&domain.Order{}).Where("meal_id = ?", mealID)
	if err := q.Count(&v.Total).Error; err != nil {
		return OrdersVersion{}, err
	}
	if err := db.WithContext(ctx).Model(&domain.Order{}).
		Where("meal_id = ? AND active = ?", mealID, true).
		Count(&v.Active).Error; err != nil {
		return OrdersVersion{}, err
	}

	var meals []struct{ UpdatedAt time.Time }
	if err := db.WithContext(ctx).Model(&domain.Meal{}).
		Select("updated_at").Where("id = ?", mealID).Limit(1).
		Scan(&meals).Error; err != nil {
		return OrdersVersion{}, err
	}
	if len(meals) == 1 {
		v.MealUpdatedAt = &meals[0].UpdatedAt
	}

	dish, err := latestUpdate(db.WithContext(ctx).Model(&domain.Dish{}).
		Where("id IN (?)", db.Model(&domain.MealDish{}).Select("dish_id").Where("meal_id = ?", mealID)))
	if err != nil {
		return OrdersVersion{}, err
	}
	user, err := latestUpdate(db.WithContext(ctx).Model(&domain.User{}).
		Where("id IN (?)", db.Model(&domain.Order{}).Select("user_id").Where("meal_id = ? AND active = ?", mealID, true)))
	if err != nil {
		return OrdersVersion{}, err
	}
	v.LabelsUpdatedAt = dish
	if user != nil && (dish == nil || user.After(*dish)) {
		v.LabelsUpdatedAt = user
	}
	return v, nil
}

// latestUpdate returns the greatest updated_at selected by q, or nil when q
// matches nothing.
func latestUpdate(q *gorm.DB) (*time.Time, error) {
	var rows []struct{ UpdatedAt time.Time }
	if err := q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0].UpdatedAt, nil
}
