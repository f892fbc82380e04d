// Package domain defines the persistence models for kitchens, dishes, meals,
// meal-dish links, and orders. These types are mapped with GORM and form the
// core data layer of the meal ordering service.
//
// Lifecycle flags are plain booleans (Active) rather than gorm.DeletedAt so
// that historical rows stay visible to joins without Unscoped() calls.
package domain

import (
	"time"
)

// MealStatus is the lifecycle state of a Meal.
type MealStatus int

const (
	// MealOrdering is the initial state: the meal accepts updates and orders.
	MealOrdering MealStatus = 1
	// MealClosed is terminal: the meal and its dish set are immutable.
	MealClosed MealStatus = 2
)

// String returns the lowercase status name used in logs and API payloads.
func (s MealStatus) String() string {
	switch s {
	case MealOrdering:
		return "ordering"
	case MealClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Valid reports whether s is a known status.
func (s MealStatus) Valid() bool { return s == MealOrdering || s == MealClosed }

// User is a participant profile. The ID is the identity resolved by the
// caller (the service never authenticates); Nickname is the display name
// shown in order aggregations.
type User struct {
	ID        string    `json:"id"         gorm:"type:varchar(64);primaryKey"`
	Nickname  string    `json:"nickname"   gorm:"type:varchar(64);not null;default:''"`
	AvatarURL *string   `json:"avatar_url,omitempty" gorm:"type:varchar(512)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// DisplayName returns the nickname, or the user id when no nickname is set.
func (u User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.ID
}

// Kitchen scopes one user's dish catalog and meals. A user has at most one
// active default kitchen.
type Kitchen struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"    gorm:"type:varchar(64);not null;index:idx_user_kitchens;uniqueIndex:ux_kitchens_default,where:is_default = true AND active = true"`
	Name      string    `json:"name"       gorm:"type:varchar(64);not null"`
	IsDefault bool      `json:"is_default" gorm:"not null;default:false"`
	Active    bool      `json:"-"          gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Kitchen.
func (Kitchen) TableName() string { return "kitchens" }

// Dish is a catalog entry owned by a user inside one kitchen.
//
// Name is unique among active dishes of the same (user_id, kitchen_id) scope;
// the partial unique index backs the service-level check against races.
// Dishes are never physically removed once created.
type Dish struct {
	ID          string    `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID      string    `json:"user_id"     gorm:"type:varchar(64);not null;uniqueIndex:ux_dishes_scope_name,where:active = true"`
	KitchenID   string    `json:"kitchen_id"  gorm:"type:char(36);not null;uniqueIndex:ux_dishes_scope_name;index"`
	Name        string    `json:"name"        gorm:"type:varchar(128);not null;uniqueIndex:ux_dishes_scope_name"`
	Description *string   `json:"description,omitempty" gorm:"type:text"`
	Active      bool      `json:"active"      gorm:"not null;default:true;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Dish.
func (Dish) TableName() string { return "dishes" }

// Meal is one ordering round owned by a user in a kitchen.
type Meal struct {
	ID        string     `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string     `json:"user_id"    gorm:"type:varchar(64);not null;index:idx_meals_scope,priority:1"`
	KitchenID string     `json:"kitchen_id" gorm:"type:char(36);not null;index:idx_meals_scope,priority:2"`
	Name      string     `json:"name"       gorm:"type:varchar(128);not null"`
	Status    MealStatus `json:"status"     gorm:"not null;default:1;check:status IN (1,2)"`
	CreatedAt time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt time.Time  `json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// TableName returns the database table name for Meal.
func (Meal) TableName() string { return "meals" }

// IsClosed reports whether the meal reached its terminal state.
func (m Meal) IsClosed() bool { return m.Status == MealClosed }

// MealDish links a meal to an offered dish. Links are deactivated, never
// deleted, when the offered set changes.
type MealDish struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	MealID    string    `json:"meal_id"    gorm:"type:char(36);not null;uniqueIndex:ux_meal_dish,priority:1"`
	DishID    string    `json:"dish_id"    gorm:"type:char(36);not null;uniqueIndex:ux_meal_dish,priority:2;index"`
	Active    bool      `json:"active"     gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for MealDish.
func (MealDish) TableName() string { return "meal_dishes" }

// Order is one row of a user's selection within a meal: one row per dish.
// For a given (meal_id, user_id) the active rows are the current selection;
// canceled rows are kept as an audit trail.
type Order struct {
	ID         string     `json:"id"          gorm:"type:char(36);primaryKey"`
	MealID     string     `json:"meal_id"     gorm:"type:char(36);not null;index:idx_orders_meal_user,priority:1;uniqueIndex:ux_orders_active,priority:1,where:active = true"`
	UserID     string     `json:"user_id"     gorm:"type:varchar(64);not null;index:idx_orders_meal_user,priority:2;uniqueIndex:ux_orders_active,priority:2;index"`
	DishID     string     `json:"dish_id"     gorm:"type:char(36);not null;uniqueIndex:ux_orders_active,priority:3"`
	Active     bool       `json:"active"      gorm:"not null;default:true"`
	CreatedAt  time.Time  `json:"created_at"`
	CanceledAt *time.Time `json:"canceled_at,omitempty"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string { return "orders" }
