package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-meal-backend/internal/services"
)

// Services bundles the application services the functions call into.
type Services struct {
	Kitchens *services.KitchenService
	Dishes   *services.DishService
	Meals    *services.MealService
	Orders   *services.OrderService
	Users    *services.UserService
}

// action runs one named action for userID. The returned message overrides
// the default success message when non-empty.
type action func(ctx context.Context, userID string, data json.RawMessage) (any, string, error)

// Dispatcher routes {function, action} pairs to service calls.
type Dispatcher struct {
	svc       Services
	functions map[string]map[string]action
}

// New builds a Dispatcher with every function registered.
func New(svc Services) *Dispatcher {
	d := &Dispatcher{svc: svc}
	d.functions = map[string]map[string]action{
		"dish":    d.dishActions(),
		"meal":    d.mealActions(),
		"order":   d.orderActions(),
		"user":    d.userActions(),
		"kitchen": d.kitchenActions(),
	}
	return d
}

// Functions lists the registered function names, sorted.
func (d *Dispatcher) Functions() []string {
	out := make([]string, 0, len(d.functions))
	for name := range d.functions {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Dispatch executes req against function on behalf of userID. It never
// returns a Go error; failures are encoded in the envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, function, userID string, req Request) Response {
	ctx, span := otel.Tracer("dispatch").Start(ctx, "Dispatch",
		trace.WithAttributes(
			attribute.String("function", function),
			attribute.String("action", req.Action),
		))
	defer span.End()

	actions, ok := d.functions[strings.ToLower(function)]
	if !ok {
		return BadRequest("unknown function, expected one of: " + strings.Join(d.Functions(), ", "))
	}
	run, ok := actions[req.Action]
	if !ok {
		return BadRequest("unknown action")
	}

	data, msg, err := run(ctx, userID, req.Data)
	if err != nil {
		var bad badDataError
		if errors.As(err, &bad) {
			return BadRequest(bad.Error())
		}
		if services.KindOf(err) == services.KindInternal {
			zerolog.Ctx(ctx).Error().Err(err).
				Str("function", function).
				Str("action", req.Action).
				Msg("dispatch failed")
		}
		return Fail(err)
	}
	return OK(data, msg)
}

// badDataError reports an undecodable data payload.
type badDataError struct{ cause error }

func (e badDataError) Error() string { return "invalid data: " + e.cause.Error() }

// decode unmarshals raw into dst. An absent payload leaves dst zeroed.
func decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return badDataError{cause: err}
	}
	return nil
}
