package services

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{nil, KindInternal},
		{errors.New("disk I/O error"), KindInternal},
		{ErrNameRequired, KindValidation},
		{ErrDishesRequired, KindValidation},
		{ErrMealNotFound, KindNotFound},
		{ErrKitchenNotFound, KindNotFound},
		{ErrDuplicateDishName, KindConflict},
		{ErrMealAlreadyClosed, KindConflict},
		{ErrNothingToCancel, KindConflict},
		{fmt.Errorf("place: %w", ErrDishNotOffered), KindConflict},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Errorf("KindOf(%v) = %v; want %v", tc.err, got, tc.want)
		}
	}
}

func TestKindString(t *testing.T) {
	want := map[Kind]string{
		KindInternal:   "internal",
		KindValidation: "validation",
		KindNotFound:   "not_found",
		KindConflict:   "conflict",
	}
	for k, s := range want {
		if k.String() != s {
			t.Errorf("%d.String() = %q; want %q", k, k.String(), s)
		}
	}
}

func TestCheckName(t *testing.T) {
	// "e" + combining acute accent normalizes to the precomposed form.
	got, err := checkName("  Cafe\u0301  ", 10)
	if err != nil || got != "Caf\u00e9" {
		t.Fatalf("checkName NFC: got %q, %v", got, err)
	}
	if _, err := checkName(" \t ", 10); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("blank: %v", err)
	}
	if _, err := checkName("\u00e9\u00e9\u00e9\u00e9\u00e9", 4); !errors.Is(err, ErrNameTooLong) {
		t.Fatalf("too long: %v", err)
	}
	if got, _ := checkName("Soup", 0); got != "Soup" {
		t.Fatalf("no limit: %q", got)
	}
	if normalizeOptional(nil) != nil {
		t.Fatalf("nil stays nil")
	}
	blank := "   "
	if normalizeOptional(&blank) != nil {
		t.Fatalf("blank becomes nil")
	}
}
