package services

import (
	"context"
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-meal-backend/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:mealsvc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	// Keep the shared-cache database alive and single-writer for the test.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
		t.Cleanup(func() { _ = sqlDB.Close() })
	}
	return db
}

// fixture bundles the services over one database.
type fixture struct {
	db      *gorm.DB
	kitchen *KitchenService
	dishes  *DishService
	meals   *MealService
	orders  *OrderService
	users   *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	k := NewKitchenService(db)
	return &fixture{
		db:      db,
		kitchen: k,
		dishes:  NewDishService(db, k),
		meals:   NewMealService(db, k),
		orders:  NewOrderService(db),
		users:   &UserService{DB: db},
	}
}

// mustDishes creates dishes in the owner's default kitchen and returns their ids.
func (f *fixture) mustDishes(t *testing.T, owner string, names ...string) []string {
	t.Helper()
	ids := make([]string, 0, len(names))
	for _, n := range names {
		d, err := f.dishes.Create(context.Background(), owner, "", n, nil)
		if err != nil {
			t.Fatalf("create dish %q: %v", n, err)
		}
		ids = append(ids, d.ID)
	}
	return ids
}

func (f *fixture) mustMeal(t *testing.T, owner, name string, dishIDs ...string) string {
	t.Helper()
	m, err := f.meals.Create(context.Background(), owner, "", name, dishIDs)
	if err != nil {
		t.Fatalf("create meal: %v", err)
	}
	return m.ID
}

func (f *fixture) mustNickname(t *testing.T, userID, nick string) {
	t.Helper()
	if _, err := f.users.UpdateProfile(context.Background(), userID, &nick, nil); err != nil {
		t.Fatalf("set nickname: %v", err)
	}
}

// countsByName flattens a MealOrders into dish name -> order count.
func countsByName(mo *MealOrders) map[string]int {
	out := make(map[string]int, len(mo.Dishes))
	for _, d := range mo.Dishes {
		out[d.DishName] = d.OrderCount
	}
	return out
}
