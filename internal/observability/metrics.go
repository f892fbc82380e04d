package observability

import "github.com/prometheus/client_golang/prometheus"

// Domain counters. Labels are fixed enums so cardinality stays bounded.
var (
	// mealEvents counts meal lifecycle transitions by event.
	mealEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meal_events_total",
			Help: "Meal lifecycle events (created, updated, closed, deleted).",
		},
		[]string{"event"},
	)

	// orderOps counts order ledger operations by op and outcome.
	orderOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_operations_total",
			Help: "Order placements and cancellations by outcome.",
		},
		[]string{"op", "outcome"},
	)

	// orderedDishes observes how many dishes a placement selects.
	orderedDishes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "order_dishes_per_placement",
			Help:    "Number of dishes selected per successful placement.",
			Buckets: []float64{1, 2, 3, 5, 8, 13},
		},
	)
)

func init() {
	prometheus.MustRegister(mealEvents, orderOps, orderedDishes)
}

// Meal event labels.
const (
	MealCreated = "created"
	MealUpdated = "updated"
	MealClosed  = "closed"
	MealDeleted = "deleted"
)

// Order operation labels.
const (
	OrderPlace  = "place"
	OrderCancel = "cancel"

	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// RecordMealEvent increments the meal lifecycle counter.
func RecordMealEvent(event string) {
	mealEvents.WithLabelValues(event).Inc()
}

// RecordOrderOp increments the order counter; dishes is observed only for
// successful placements.
func RecordOrderOp(op, outcome string, dishes int) {
	orderOps.WithLabelValues(op, outcome).Inc()
	if op == OrderPlace && outcome == OutcomeOK {
		orderedDishes.Observe(float64(dishes))
	}
}
