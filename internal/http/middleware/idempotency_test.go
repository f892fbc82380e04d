package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestIdempotencyHelpers_Defaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	if k, ok := GetIdempotencyKey(c); k != "" || ok {
		t.Fatalf("expected empty key when not set")
	}
	if IsReplay(c) || IdempotencyScope(c) != "" {
		t.Fatalf("expected no replay and empty scope by default")
	}

	c.Set(ctxKeyIdemKey, 123)
	if _, ok := GetIdempotencyKey(c); ok {
		t.Fatalf("non-string key must read as absent")
	}
	c.Set(ctxKeyIdemReplay, "yes")
	if IsReplay(c) {
		t.Fatalf("non-bool replay flag must read as false")
	}
}

func TestIdempotencyValidator_SkipsWithoutHeaderOrOnSafeMethods(t *testing.T) {
	gin.SetMode(gin.TestMode)
	calls := 0
	lookup := func(context.Context, string, string, string, time.Time) (bool, error) {
		calls++
		return false, nil
	}
	r := gin.New()
	r.Use(IdempotencyValidator(IdempotencyOptions{}, lookup))
	handler := func(c *gin.Context) {
		if _, ok := GetIdempotencyKey(c); ok {
			t.Fatalf("key should not be stashed")
		}
		c.Status(http.StatusNoContent)
	}
	r.GET("/meals/:id", handler)
	r.POST("/meals/:id/orders", handler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/meals/m1/orders", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("no header: expected 204, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/meals/m1", nil)
	req.Header.Set(HeaderIdempotencyKey, "k1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("GET: expected 204, got %d", w.Code)
	}
	if calls != 0 {
		t.Fatalf("lookup should not run, ran %d times", calls)
	}
}

func TestIdempotencyValidator_RejectsInvalidKeys(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name string
		opts IdempotencyOptions
		key  string
	}{
		{"too long", IdempotencyOptions{MaxLen: 5}, "abcdef"},
		{"custom pattern", IdempotencyOptions{Pattern: regexp.MustCompile(`^[0-9]+$`)}, "abc123"},
		{"default pattern", IdempotencyOptions{}, "has space"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(IdempotencyValidator(tc.opts, nil))
			r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodPost, "/x", nil)
			req.Header.Set(HeaderIdempotencyKey, tc.key)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["code"] != "bad_idempotency_key" {
				t.Fatalf("unexpected body: %s", w.Body.String())
			}
		})
	}
}

func TestIdempotencyValidator_LookupScopesByMeal(t *testing.T) {
	gin.SetMode(gin.TestMode)

	type seen struct{ user, scope, key string }
	var got seen
	stored := map[seen]bool{{"u9", "meal-1", "k-9"}: true}
	lookup := func(_ context.Context, userID, scopeID, key string, now time.Time) (bool, error) {
		if now.IsZero() {
			t.Fatalf("now not populated")
		}
		got = seen{userID, scopeID, key}
		return stored[got], nil
	}

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(userIDKey, "u9"); c.Next() })
	r.Use(IdempotencyValidator(IdempotencyOptions{}, lookup))
	r.POST("/meals/:id/orders", func(c *gin.Context) {
		if IsReplay(c) != IsRateBypass(c) {
			t.Fatalf("replay and rate bypass must agree")
		}
		if IdempotencyScope(c) != c.Param("id") {
			t.Fatalf("scope %q != route id %q", IdempotencyScope(c), c.Param("id"))
		}
		if IsReplay(c) {
			c.Status(http.StatusOK)
			return
		}
		c.Status(http.StatusCreated)
	})

	post := func(meal string) int {
		req := httptest.NewRequest(http.MethodPost, "/meals/"+meal+"/orders", nil)
		req.Header.Set(HeaderIdempotencyKey, "k-9")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := post("meal-1"); code != http.StatusOK {
		t.Fatalf("stored key should replay, got %d", code)
	}
	if code := post("meal-2"); code != http.StatusCreated {
		t.Fatalf("same key in another meal must not replay, got %d", code)
	}
	if got.scope != "meal-2" || got.user != "u9" {
		t.Fatalf("lookup args: %+v", got)
	}
}

func TestIdempotencyValidator_CustomScopeParamAndLookupError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(IdempotencyValidator(IdempotencyOptions{ScopeParam: "mealId"},
		func(_ context.Context, _, scopeID, _ string, _ time.Time) (bool, error) {
			if scopeID != "m7" {
				t.Fatalf("scope = %q", scopeID)
			}
			return true, errors.New("db down")
		}))
	r.POST("/orders/:mealId", func(c *gin.Context) {
		if IsReplay(c) {
			t.Fatalf("a failed lookup must not mark a replay")
		}
		if k, _ := GetIdempotencyKey(c); k != "abc-123" {
			t.Fatalf("key = %q", k)
		}
		c.Status(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/orders/m7", nil)
	req.Header.Set(HeaderIdempotencyKey, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
}
