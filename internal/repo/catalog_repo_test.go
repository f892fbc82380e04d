package repo

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"
)

func TestDedupe(t *testing.T) {
	got := Dedupe([]string{" a", "b", "", "a", "c", "b ", "  "})
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Dedupe: want %v, got %v", want, got)
	}
}

func TestIsDuplicate(t *testing.T) {
	cases := map[string]bool{
		"UNIQUE constraint failed: dishes.name":                        true,
		"ERROR: duplicate key value violates unique constraint":        true,
		"constraint failed: UNIQUE constraint failed: orders.x (2067)": true,
		"no such table": false,
	}
	for msg, want := range cases {
		if got := IsDuplicate(errors.New(msg)); got != want {
			t.Fatalf("IsDuplicate(%q)=%v want %v", msg, got, want)
		}
	}
	if IsDuplicate(nil) {
		t.Fatalf("nil is not a duplicate")
	}
}

func TestDish_CreateUniqueAmongActive(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()

	d, err := CreateDish(ctx, db, "u1", "k1", "Noodles", nil)
	if err != nil {
		t.Fatalf("CreateDish: %v", err)
	}
	if _, err := CreateDish(ctx, db, "u1", "k1", "Noodles", nil); err != ErrDuplicate {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	// Other scopes are independent.
	if _, err := CreateDish(ctx, db, "u1", "k2", "Noodles", nil); err != nil {
		t.Fatalf("other kitchen: %v", err)
	}

	taken, err := DishNameTaken(ctx, db, "u1", "k1", "Noodles", "")
	if err != nil || !taken {
		t.Fatalf("DishNameTaken: %v %v", taken, err)
	}
	if taken, _ := DishNameTaken(ctx, db, "u1", "k1", "Noodles", d.ID); taken {
		t.Fatalf("excludeID should skip the dish itself")
	}

	if err := DeactivateDish(ctx, db, d.ID, "u1"); err != nil {
		t.Fatalf("DeactivateDish: %v", err)
	}
	if err := DeactivateDish(ctx, db, d.ID, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second deactivate: %v", err)
	}
	if _, err := GetActiveDish(ctx, db, d.ID, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("inactive dish should not resolve: %v", err)
	}
	// The name is free again.
	if _, err := CreateDish(ctx, db, "u1", "k1", "Noodles", nil); err != nil {
		t.Fatalf("recreate after delete: %v", err)
	}
}

func TestDish_UpdateAndList(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()
	ids := seedDishes(t, db, "u1", "k1", "Apple pie", "Banana split", "Cherry tart")

	desc := "warm"
	if err := UpdateDish(ctx, db, ids[0], "u1", "Apple crumble", &desc); err != nil {
		t.Fatalf("UpdateDish: %v", err)
	}
	if err := UpdateDish(ctx, db, ids[0], "u1", "Banana split", nil); err != ErrDuplicate {
		t.Fatalf("expected ErrDuplicate on rename collision, got %v", err)
	}
	if err := UpdateDish(ctx, db, ids[0], "u2", "x", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-owner, got %v", err)
	}

	got, _ := GetActiveDish(ctx, db, ids[0], "u1")
	if got.Name != "Apple crumble" || got.Description == nil || *got.Description != "warm" {
		t.Fatalf("unexpected dish: %+v", got)
	}

	total, err := CountDishes(ctx, db, "u1", "k1", "an")
	if err != nil || total != 1 {
		t.Fatalf("CountDishes keyword: %d %v", total, err)
	}
	page, err := ListDishesPage(ctx, db, "u1", "k1", "", 0, 2)
	if err != nil || len(page) != 2 {
		t.Fatalf("ListDishesPage: %v %+v", err, page)
	}

	active, err := ActiveDishIDs(ctx, db, "u1", "k1", append(ids, "missing"))
	if err != nil || len(active) != 3 {
		t.Fatalf("ActiveDishIDs: %v %v", err, active)
	}
}

func TestDishKeyword_WildcardsMatchLiterally(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()
	seedDishes(t, db, "u1", "k1", "50% off", "500 club", "a_b", "axb", `c\d`)

	cases := []struct {
		keyword string
		want    []string
	}{
		{"50%", []string{"50% off"}},
		{"a_b", []string{"a_b"}},
		{"%", []string{"50% off"}},
		{"_", []string{"a_b"}},
		{`\`, []string{`c\d`}},
		{"50", []string{"50% off", "500 club"}},
	}
	for _, tc := range cases {
		total, err := CountDishes(ctx, db, "u1", "k1", tc.keyword)
		if err != nil {
			t.Fatalf("CountDishes(%q): %v", tc.keyword, err)
		}
		page, err := ListDishesPage(ctx, db, "u1", "k1", tc.keyword, 0, 10)
		if err != nil {
			t.Fatalf("ListDishesPage(%q): %v", tc.keyword, err)
		}
		got := make([]string, 0, len(page))
		for _, d := range page {
			got = append(got, d.Name)
		}
		sort.Strings(got)
		if total != int64(len(tc.want)) || !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("keyword %q: total %d names %v; want %v", tc.keyword, total, got, tc.want)
		}
	}
}

func TestKitchens_DefaultAndList(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()

	if _, err := GetDefaultKitchen(ctx, db, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected no default kitchen yet, got %v", err)
	}
	other, err := CreateKitchen(ctx, db, "u1", "Office", false)
	if err != nil {
		t.Fatal(err)
	}
	def, err := CreateKitchen(ctx, db, "u1", "Home", true)
	if err != nil {
		t.Fatal(err)
	}

	got, err := GetDefaultKitchen(ctx, db, "u1")
	if err != nil || got.ID != def.ID {
		t.Fatalf("GetDefaultKitchen: %v %+v", err, got)
	}
	if _, err := GetKitchen(ctx, db, other.ID, "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign kitchen, got %v", err)
	}
	list, err := ListKitchens(ctx, db, "u1")
	if err != nil || len(list) != 2 || list[0].ID != def.ID {
		t.Fatalf("ListKitchens: %v %+v", err, list)
	}
}

func TestUsers_EnsureTouchUpdate(t *testing.T) {
	db := newMigratedDB(t)
	ctx := context.Background()

	u, err := EnsureUser(ctx, db, "alice")
	if err != nil || u.ID != "alice" || u.DisplayName() != "alice" {
		t.Fatalf("EnsureUser: %v %+v", err, u)
	}
	nick := "Al"
	if err := UpdateUserProfile(ctx, db, "alice", &nick, nil); err != nil {
		t.Fatalf("UpdateUserProfile: %v", err)
	}
	// Ensure does not overwrite an existing profile.
	u, _ = EnsureUser(ctx, db, "alice")
	if u.Nickname != "Al" {
		t.Fatalf("expected nickname kept, got %+v", u)
	}
	if err := UpdateUserProfile(ctx, db, "ghost", &nick, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}

	if err := TouchUser(ctx, db, "carol"); err != nil {
		t.Fatalf("TouchUser new: %v", err)
	}
	if err := TouchUser(ctx, db, "carol"); err != nil {
		t.Fatalf("TouchUser existing: %v", err)
	}
	if _, err := GetUser(ctx, db, "carol"); err != nil {
		t.Fatalf("GetUser: %v", err)
	}
}
