package dispatch

import (
	"context"
	"encoding/json"

	"github.com/tbourn/go-meal-backend/internal/domain"
	"github.com/tbourn/go-meal-backend/internal/utils"
)

type idData struct {
	ID string `json:"id"`
}

type pageData struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

func (p pageData) page(def int, items any, total int64) Page {
	page, size, _ := utils.Page(p.Page, p.PageSize, def)
	return Page{List: items, Total: total, Page: page, PageSize: size}
}

//
// dish
//

type dishData struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	KitchenID   string  `json:"kitchen_id"`
}

type dishListData struct {
	pageData
	Keyword   string `json:"keyword"`
	KitchenID string `json:"kitchen_id"`
}

func (d *Dispatcher) dishActions() map[string]action {
	s := d.svc.Dishes
	return map[string]action{
		"create": func(ctx context.Context, uid string, raw json.RawMessage) (any, string, error) {
			var in dishData
			if err := decode(raw, &in); err != nil {
				return nil, "", err
			}
			dish, err := s.Create(ctx, uid, in.KitchenID, in.Name, in.Description)
			return dish, "dish created", err
		},
		"update": func(ctx context.Context, uid string, raw json.RawMessage) (any, string, error) {
			var in dishData
			if err := decode(raw, &in); err != nil {
				return nil, "", err
			}
			dish, err := s.Update(ctx, uid, in.ID, in.Name, in.Description)
			return dish, "dish updated", err
		},
		"delete": func(ctx context.Context, uid string, raw json.RawMessage) (any, string, error) {
			var in idData
			if err := decode(raw, &in); err != nil {
				return nil, "", err
			}
			return nil, "dish deleted", s.Delete(ctx, uid, in.ID)
		},
		"get": func(ctx context.Context, uid string, raw json.RawMessage) (any, string, error) {
			var in idData
			if err := decode(raw, &in); err != nil {
				return nil, "", err
			}
			dish, err := s.Get(ctx, uid, in.ID)
			return dish, "", err
		},
		"list": func(ctx context.Context, uid string, raw json.RawMessage) (any, string, error) {
			var in dishListData
			if err := decode(raw, &in); err != nil {
				return nil, "", err
			}
			items, total, err := s.List(ctx, uid, in.KitchenID, in.Keyword, in.Page, in.PageSize)
			if err != nil {
				return nil, "", err
			}
			return in.page(s.PageSize, items, total), "", nil
		},
	}
}

//
// meal
//

type mealData struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	DishIDs   []string `json:"dish_ids"`
	KitchenID string   `json:"kitchen_id"`
}

type mealListData struct {
	pageData
	Status    *int   `json:"status"`
	KitchenID string `json:"kitchen_id"`
}

func (d *Dispatcher) mealActions() map[string]action {
	s := d.svc.Meals
	return map[string]action{
		"create": func(ctx context.Context, uid string, raw json.RawMessage) (any, string, error) {
			var in mealData
			if err := decode(raw, &in); err != nil {
				return nil, "", err
			}
			meal, err := s.Create(ctx, uid, in.KitchenID, in.Name, in.DishIDs)
			return meal, "meal created", err
		},
		"update": func(ctx context.Context, uid string, raw json.RawMessage) (any, string, error) {
			var in mealData
			if err := decode(raw, &in); err != nil {
				return nil, "", err
			}
			meal, err := s.Update(ctx, in.ID, uid, in.Name, in.DishIDs)
			return meal, "meal updated", err
		},
		"close": func(ctx context.Context, uid string, raw json.RawMessage) (any, string, error) {
			var in idData
			if err := decode(raw, &in); err != nil {
				return nil, "", err
			}
			meal, err := s.Close(ctx, in.ID, uid)
			return meal, "meal closed", err
		},
		"delete": func(ctx context.Context, uid string, raw json.RawMessage) (any, string, error) {
			var in idData
			if err := decode(raw, &in); err != nil {
				return nil, "", err
			}
			return nil, "meal deleted", s.Delete(ctx, in.ID, uid)
		},
		"get": func(ctx context.Context, uid string, raw json.RawMessage) (any, string, error) {
			var in idData
			if err := decode(raw, &in); err != nil {
				return nil, "", err
			}
			meal, err := s.Get(ctx, in.ID, uid)
			return meal, "", err
		},
		"list": func(ctx context.Context, uid string, raw json.RawMessage) (any, string, error) {
			var in mealListData
			if err := decode(raw, &in); err != nil {
				return nil, "", err
			}
			var status *domain.MealStatus
			if in.Status != nil {
				st := domain.MealStatus(*in.Status)
				status = &st
			}
			items, total, err := s.List(ctx, uid, in.KitchenID, status, in.Page, in.PageSize)
			if err != nil {
				return nil, "", err
			}
			return in.page(s.PageSize, items, total), "", nil
		},
	}
}

//
// order
//

type orderData struct {
	MealID  string   `json:"meal_id"`
	DishIDs []string `json:"dish_ids"`
}

func (d *Dispatcher) orderActions() map[string]action {
	s := d.svc.Orders
	return map[string]action{
		"create": func(ctx context.Context, uid string, raw json.RawMessage) (any, string, error) {
			var in orderData
			if err := decode(raw, &in); err != nil {
				return nil, "", err
			}
			sel, err := s.Place(ctx, in.MealID, uid, in.DishIDs)
			return sel, "order placed", err
		},
		"cancel": func(ctx context.Context, uid string, raw json.RawMessage) (any, string, error) {
			var in orderData
			if err := decode(raw, &in); err != nil {
				return nil, "", err
			}
			return nil, "order canceled", s.Cancel(ctx, in.MealID, uid)
		},
		"getMyOrder": func(ctx context.Context, uid string, raw json.RawMessage) (any, string, error) {
			var in orderData
			if err := decode(raw, &in); err != nil {
				return nil, "", err
			}
			sel, err := s.GetMine(ctx, in.MealID, uid)
			return sel, "", err
		},
		"listByMeal": func(ctx context.Context, uid string, raw json.RawMessage) (any, string, error) {
			var in orderData
			if err := decode(raw, &in); err != nil {
				return nil, "", err
			}
			agg, err := s.ListForMeal(ctx, in.MealID, uid)
			return agg, "", err
		},
		"listByUser": func(ctx context.Context, uid string, raw json.RawMessage) (any, string, error) {
			var in pageData
			if err := decode(raw, &in); err != nil {
				return nil, "", err
			}
			items, total, err := s.ListByUser(ctx, uid, in.Page, in.PageSize)
			if err != nil {
				return nil, "", err
			}
			return in.page(s.PageSize, items, total), "", nil
		},
	}
}

//
// user
//

type profileData struct {
	Nickname  *string `json:"nickname"`
	AvatarURL *string `json:"avatar_url"`
}

type loginData struct {
	UserInfo *struct {
		NickName  string `json:"nickname"`
		AvatarURL string `json:"avatar_url"`
	} `json:"user_info"`
}

func (d *Dispatcher) userActions() map[string]action {
	s := d.svc.Users
	return map[string]action{
		// login provisions the caller's profile. Identity itself comes from
		// the transport; user_info only fills in display fields.
		"login": func(ctx context.Context, uid string, raw json.RawMessage) (any, string, error) {
			var in loginData
			if err := decode(raw, &in); err != nil {
				return nil, "", err
			}
			if in.UserInfo == nil || (in.UserInfo.NickName == "" && in.UserInfo.AvatarURL == "") {
				u, err := s.Ensure(ctx, uid)
				return u, "logged in", err
			}
			var nick, avatar *string
			if in.UserInfo.NickName != "" {
				nick = &in.UserInfo.NickName
			}
			if in.UserInfo.AvatarURL != "" {
				avatar = &in.UserInfo.AvatarURL
			}
			u, err := s.UpdateProfile(ctx, uid, nick, avatar)
			return u, "logged in", err
		},
		"update": func(ctx context.Context, uid string, raw json.RawMessage) (any, string, error) {
			var in profileData
			if err := decode(raw, &in); err != nil {
				return nil, "", err
			}
			u, err := s.UpdateProfile(ctx, uid, in.Nickname, in.AvatarURL)
			return u, "profile updated", err
		},
		"get": func(ctx context.Context, uid string, _ json.RawMessage) (any, string, error) {
			u, err := s.Me(ctx, uid)
			return u, "", err
		},
	}
}

//
// kitchen
//

func (d *Dispatcher) kitchenActions() map[string]action {
	s := d.svc.Kitchens
	return map[string]action{
		"list": func(ctx context.Context, uid string, _ json.RawMessage) (any, string, error) {
			ks, err := s.List(ctx, uid)
			return ks, "", err
		},
		"create": func(ctx context.Context, uid string, raw json.RawMessage) (any, string, error) {
			var in struct {
				Name string `json:"name"`
			}
			if err := decode(raw, &in); err != nil {
				return nil, "", err
			}
			k, err := s.Create(ctx, uid, in.Name)
			return k, "kitchen created", err
		},
	}
}
