package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-meal-backend/internal/domain"
)

func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	// Unique DB per test to avoid schema leaking across tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestMealsStats_CountError_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	_, _, err := MealsStats(context.Background(), db, "u1", "k1")
	if err == nil {
		t.Fatalf("expected error due to missing meals table")
	}
}

func TestMealsStats_ZeroRows(t *testing.T) {
	db := newTestDB(t, &domain.Meal{})
	count, maxAt, err := MealsStats(context.Background(), db, "u1", "k1")
	if err != nil {
		t.Fatalf("MealsStats error: %v", err)
	}
	if count != 0 || maxAt != nil {
		t.Fatalf("expected (0, nil), got (%d, %v)", count, maxAt)
	}
}

func TestMealsStats_Success_FilterAndMax(t *testing.T) {
	db := newTestDB(t, &domain.Meal{})

	t1 := time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC) // max for (u1, k1)
	t3 := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)   // other kitchen
	t4 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)   // other user

	seed := []domain.Meal{
		{ID: "m1", UserID: "u1", KitchenID: "k1", Name: "a", Status: domain.MealOrdering, CreatedAt: t1, UpdatedAt: t1},
		{ID: "m2", UserID: "u1", KitchenID: "k1", Name: "b", Status: domain.MealClosed, CreatedAt: t2, UpdatedAt: t2},
		{ID: "m3", UserID: "u1", KitchenID: "k2", Name: "c", Status: domain.MealOrdering, CreatedAt: t3, UpdatedAt: t3},
		{ID: "m4", UserID: "u2", KitchenID: "k1", Name: "d", Status: domain.MealOrdering, CreatedAt: t4, UpdatedAt: t4},
	}
	for i := range seed {
		if err := db.Create(&seed[i]).Error; err != nil {
			t.Fatalf("seed %s: %v", seed[i].ID, err)
		}
	}

	count, maxAt, err := MealsStats(context.Background(), db, "u1", "k1")
	if err != nil {
		t.Fatalf("MealsStats error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}
	if maxAt == nil || !maxAt.Equal(t2) {
		t.Fatalf("expected maxUpdatedAt %v, got %v", t2, maxAt)
	}
}

// Force the second query (SELECT updated_at ...) to fail by renaming the column.
func TestMealsStats_SelectLatest_ErrorPath(t *testing.T) {
	db := newTestDB(t, &domain.Meal{})

	now := time.Now().UTC()
	if err := db.Create(&domain.Meal{
		ID: "mx", UserID: "uerr", KitchenID: "k", Name: "x",
		Status: domain.MealOrdering, CreatedAt: now, UpdatedAt: now,
	}).Error; err != nil {
		t.Fatalf("seed meal: %v", err)
	}

	if err := db.Exec(`ALTER TABLE meals RENAME COLUMN updated_at TO updated_at_old`).Error; err != nil {
		t.Fatalf("rename column: %v", err)
	}

	_, _, err := MealsStats(context.Background(), db, "uerr", "k")
	if err == nil {
		t.Fatalf("expected error from latest-updated select after column rename")
	}
}

func TestOrdersStats_TracksPlaceCancelAndMealEdits(t *testing.T) {
	db := newTestDB(t, &domain.Order{}, &domain.Meal{}, &domain.MealDish{}, &domain.Dish{}, &domain.User{})
	ctx := context.Background()

	v, err := OrdersStats(ctx, db, "meal-1")
	if err != nil || v.Total != 0 || v.Active != 0 || v.MealUpdatedAt != nil {
		t.Fatalf("expected zero version, got %+v (%v)", v, err)
	}

	m, err := CreateMeal(ctx, db, "owner", "k1", "lunch")
	if err != nil {
		t.Fatalf("seed meal: %v", err)
	}
	t1 := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	if _, err := CreateOrders(ctx, db, m.ID, "u1", []string{"d1"}, t1); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := CreateOrders(ctx, db, m.ID, "u2", []string{"d1", "d2"}, t1); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := CreateOrders(ctx, db, "meal-2", "u1", []string{"d1"}, t1); err != nil {
		t.Fatalf("seed: %v", err)
	}

	placed, err := OrdersStats(ctx, db, m.ID)
	if err != nil {
		t.Fatalf("OrdersStats: %v", err)
	}
	if placed.Total != 3 || placed.Active != 3 || placed.MealUpdatedAt == nil {
		t.Fatalf("after place: %+v", placed)
	}

	if _, err := CancelActiveOrders(ctx, db, m.ID, "u2", t1.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	canceled, _ := OrdersStats(ctx, db, m.ID)
	if canceled.Total != 3 || canceled.Active != 1 {
		t.Fatalf("cancel must change the version: %+v", canceled)
	}

	if _, err := CloseMeal(ctx, db, m.ID, "owner", placed.MealUpdatedAt.Add(time.Second)); err != nil {
		t.Fatal(err)
	}
	closed, _ := OrdersStats(ctx, db, m.ID)
	if closed.MealUpdatedAt == nil || !closed.MealUpdatedAt.After(*placed.MealUpdatedAt) {
		t.Fatalf("close must move the meal timestamp: %+v vs %+v", closed, placed)
	}
}

func TestOrdersStats_LabelsFollowDishAndProfileEdits(t *testing.T) {
	db := newTestDB(t, &domain.Order{}, &domain.Meal{}, &domain.MealDish{}, &domain.Dish{}, &domain.User{})
	ctx := context.Background()

	m, _ := CreateMeal(ctx, db, "owner", "k1", "lunch")
	d, err := CreateDish(ctx, db, "owner", "k1", "Soup", nil)
	if err != nil {
		t.Fatalf("seed dish: %v", err)
	}
	if err := UpsertMealDishes(ctx, db, m.ID, []string{d.ID}); err != nil {
		t.Fatalf("link: %v", err)
	}
	base, err := OrdersStats(ctx, db, m.ID)
	if err != nil || base.LabelsUpdatedAt == nil {
		t.Fatalf("base: %+v %v", base, err)
	}

	time.Sleep(2 * time.Millisecond)
	if err := UpdateDish(ctx, db, d.ID, "owner", "Noodle soup", nil); err != nil {
		t.Fatalf("rename: %v", err)
	}
	renamed, _ := OrdersStats(ctx, db, m.ID)
	if !renamed.LabelsUpdatedAt.After(*base.LabelsUpdatedAt) {
		t.Fatalf("dish rename must move labels: %v vs %v", renamed.LabelsUpdatedAt, base.LabelsUpdatedAt)
	}

	if _, err := EnsureUser(ctx, db, "u1"); err != nil {
		t.Fatal(err)
	}
	if _, err := CreateOrders(ctx, db, m.ID, "u1", []string{d.ID}, time.Now().UTC()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)
	nick := "Ann"
	if err := UpdateUserProfile(ctx, db, "u1", &nick, nil); err != nil {
		t.Fatal(err)
	}
	profiled, _ := OrdersStats(ctx, db, m.ID)
	if !profiled.LabelsUpdatedAt.After(*renamed.LabelsUpdatedAt) {
		t.Fatalf("orderer profile edit must move labels")
	}
}

func TestScopeOrderCounts(t *testing.T) {
	db := newTestDB(t, &domain.Order{}, &domain.Meal{})
	ctx := context.Background()

	total, active, err := ScopeOrderCounts(ctx, db, "owner", "k1")
	if err != nil || total != 0 || active != 0 {
		t.Fatalf("empty scope: %d %d %v", total, active, err)
	}

	in, _ := CreateMeal(ctx, db, "owner", "k1", "in")
	out, _ := CreateMeal(ctx, db, "owner", "k2", "out")
	now := time.Now().UTC()
	_, _ = CreateOrders(ctx, db, in.ID, "u1", []string{"d1", "d2"}, now)
	_, _ = CreateOrders(ctx, db, out.ID, "u1", []string{"d1"}, now)
	_, _ = CancelActiveOrders(ctx, db, in.ID, "u1", now)
	_, _ = CreateOrders(ctx, db, in.ID, "u1", []string{"d3"}, now)

	total, active, err = ScopeOrderCounts(ctx, db, "owner", "k1")
	if err != nil || total != 3 || active != 1 {
		t.Fatalf("got total=%d active=%d err=%v", total, active, err)
	}
}
