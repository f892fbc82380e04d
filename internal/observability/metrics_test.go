package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordMealEvent(t *testing.T) {
	before := testutil.ToFloat64(mealEvents.WithLabelValues(MealClosed))
	RecordMealEvent(MealClosed)
	RecordMealEvent(MealClosed)
	if got := testutil.ToFloat64(mealEvents.WithLabelValues(MealClosed)); got != before+2 {
		t.Fatalf("meal_events_total{closed} = %v; want %v", got, before+2)
	}
}

func TestRecordOrderOp_ObservesOnlySuccessfulPlacements(t *testing.T) {
	okBefore := testutil.ToFloat64(orderOps.WithLabelValues(OrderPlace, OutcomeOK))
	rejBefore := testutil.ToFloat64(orderOps.WithLabelValues(OrderCancel, OutcomeRejected))
	samplesBefore := testutil.CollectAndCount(orderedDishes)

	RecordOrderOp(OrderPlace, OutcomeOK, 3)
	RecordOrderOp(OrderCancel, OutcomeRejected, 5)

	if got := testutil.ToFloat64(orderOps.WithLabelValues(OrderPlace, OutcomeOK)); got != okBefore+1 {
		t.Fatalf("place/ok = %v; want %v", got, okBefore+1)
	}
	if got := testutil.ToFloat64(orderOps.WithLabelValues(OrderCancel, OutcomeRejected)); got != rejBefore+1 {
		t.Fatalf("cancel/rejected = %v; want %v", got, rejBefore+1)
	}
	// A histogram is a single collected metric regardless of observations.
	if got := testutil.CollectAndCount(orderedDishes); got != samplesBefore {
		t.Fatalf("histogram metric count changed: %d -> %d", samplesBefore, got)
	}
}
