package services

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/tbourn/go-meal-backend/internal/repo"
)

// Participant is a user holding at least one active order row in a meal.
type Participant struct {
	ID          string  `json:"id"`
	Nickname    string  `json:"nickname"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	DisplayName string  `json:"display_name"`
}

// DishOrders is the per-dish tally of a meal's active orders.
type DishOrders struct {
	DishID       string   `json:"dish_id"`
	DishName     string   `json:"dish_name"`
	DishActive   bool     `json:"dish_active"`
	OrderCount   int      `json:"order_count"`
	OrdererNames []string `json:"orderer_names"`
}

// MealOrders aggregates a meal's current orders. Dishes with no orders are
// present with OrderCount 0.
type MealOrders struct {
	MealID           string        `json:"meal_id"`
	ParticipantCount int           `json:"participant_count"`
	Participants     []Participant `json:"participants"`
	Dishes           []DishOrders  `json:"dishes"`
}

// mealAggregate is the raw material shared by MealService.Get and
// OrderService.ListForMeal.
type mealAggregate struct {
	offered      []repo.OfferedDish
	byDish       map[string][]string // dish id -> orderer display names, insertion order
	participants []Participant       // first-order order
}

func loadAggregate(ctx context.Context, db *gorm.DB, mealID string) (*mealAggregate, error) {
	offered, err := repo.ListOfferedDishes(ctx, db, mealID)
	if err != nil {
		return nil, err
	}
	rows, err := repo.ListActiveOrderers(ctx, db, mealID)
	if err != nil {
		return nil, err
	}

	agg := &mealAggregate{
		offered:      offered,
		byDish:       make(map[string][]string, len(offered)),
		participants: []Participant{},
	}
	seen := make(map[string]struct{})
	for _, r := range rows {
		name := r.Nickname
		if name == "" {
			name = r.UserID
		}
		agg.byDish[r.DishID] = append(agg.byDish[r.DishID], name)
		if _, ok := seen[r.UserID]; ok {
			continue
		}
		seen[r.UserID] = struct{}{}
		agg.participants = append(agg.participants, Participant{
			ID:          r.UserID,
			Nickname:    r.Nickname,
			AvatarURL:   r.AvatarURL,
			DisplayName: name,
		})
	}
	return agg, nil
}

// orders returns one entry per offered dish, most ordered first, ties by
// dish name. Orderer names keep insertion order.
func (a *mealAggregate) orders(mealID string) *MealOrders {
	dishes := make([]DishOrders, 0, len(a.offered))
	for _, d := range a.offered {
		names := a.byDish[d.DishID]
		if names == nil {
			names = []string{}
		}
		dishes = append(dishes, DishOrders{
			DishID:       d.DishID,
			DishName:     d.Name,
			DishActive:   d.DishActive,
			OrderCount:   len(names),
			OrdererNames: names,
		})
	}
	sort.SliceStable(dishes, func(i, j int) bool {
		if dishes[i].OrderCount != dishes[j].OrderCount {
			return dishes[i].OrderCount > dishes[j].OrderCount
		}
		if dishes[i].DishName != dishes[j].DishName {
			return dishes[i].DishName < dishes[j].DishName
		}
		return dishes[i].DishID < dishes[j].DishID
	})
	return &MealOrders{
		MealID:           mealID,
		ParticipantCount: len(a.participants),
		Participants:     a.participants,
		Dishes:           dishes,
	}
}
