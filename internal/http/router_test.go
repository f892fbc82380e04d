package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-meal-backend/internal/config"
	"github.com/tbourn/go-meal-backend/internal/domain"
	"github.com/tbourn/go-meal-backend/internal/http/middleware"
	"github.com/tbourn/go-meal-backend/internal/repo"
)

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:routerdb_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	return db
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath: "/api/v1",
		RateRPS:     100,
		RateBurst:   10,
		CORS:        config.CORSConfig{AllowedOrigins: nil}, // triggers AllowAllOrigins branch
		Security:    config.SecurityConfig{EnableHSTS: false, HSTSMaxAge: 0},
		OTEL:        config.OTELConfig{ServiceName: "test-svc"},
		Auth:        config.AuthConfig{AllowHeader: true},
		LogRedact:   true,
		Meals:       config.MealsConfig{AllowDeleteClosed: true, PageSize: 20},
	}
}

func newRouter(t *testing.T, cfg config.Config) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	db := newTestDB(t)
	RegisterRoutes(r, db, cfg)
	return r, db
}

func serve(r http.Handler, method, path, user string, body any, headers ...string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	r, _ := newRouter(t, testConfig())

	// /health works without any identity
	w := serve(r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	// CORS (AllowAllOrigins) → header "*"
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}

	// /metrics is wired
	w = serve(r, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || len(w.Body.Bytes()) == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	// NoRoute → 404
	if w = serve(r, http.MethodGet, "/nope", "u1", nil); w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}

	// NoMethod → 405 (POST /health)
	if w = serve(r, http.MethodPost, "/health", "u1", nil); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := testConfig()
	cfg.APIBasePath = "/api/v2"
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	r, _ := newRouter(t, cfg)

	w := serve(r, http.MethodGet, "/health", "", nil, "Origin", "http://example.com")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}

	w = serve(r, http.MethodGet, "/health", "", nil, "Origin", "http://evil.test")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got == "http://evil.test" {
		t.Fatalf("unlisted origin must not be echoed")
	}
}

func TestRegisterRoutes_StrictIdentity(t *testing.T) {
	// Only the secret is configured; the loader must not leave the
	// header identity or the fallback user switched on.
	t.Setenv("JWT_SECRET", "s3cret")
	loaded, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := testConfig()
	cfg.Auth = loaded.Auth
	r, _ := newRouter(t, cfg)

	if w := serve(r, http.MethodGet, "/api/v1/meals", "victim", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("header identity disabled, expected 401, got %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/api/v1/me", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous caller, expected 401, got %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Fatalf("health must stay public, got %d", w.Code)
	}

	tok, err := middleware.SignToken([]byte("s3cret"), "alice", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	w := serve(r, http.MethodGet, "/api/v1/me", "", nil, "Authorization", "Bearer "+tok)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "alice") {
		t.Fatalf("bearer identity: %d %s", w.Code, w.Body.String())
	}
}

// End-to-end: the owner opens a meal, two users order through the REST
// routes and the dispatch endpoint, and the owner sees the aggregation.
func TestRegisterRoutes_MealFlow(t *testing.T) {
	r, _ := newRouter(t, testConfig())
	base := "/api/v1"

	w := serve(r, http.MethodPost, base+"/dishes", "owner", gin.H{"name": "Pizza"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create dish: %d %s", w.Code, w.Body.String())
	}
	var dish domain.Dish
	_ = json.Unmarshal(w.Body.Bytes(), &dish)

	w = serve(r, http.MethodPost, base+"/meals", "owner", gin.H{"name": "Lunch", "dish_ids": []string{dish.ID}})
	if w.Code != http.StatusCreated {
		t.Fatalf("create meal: %d %s", w.Code, w.Body.String())
	}
	var meal domain.Meal
	_ = json.Unmarshal(w.Body.Bytes(), &meal)

	w = serve(r, http.MethodPost, base+"/meals/"+meal.ID+"/orders", "bob", gin.H{"dish_ids": []string{dish.ID}},
		middleware.HeaderIdempotencyKey, "order-1")
	if w.Code != http.StatusOK {
		t.Fatalf("place order: %d %s", w.Code, w.Body.String())
	}

	// Retrying with the same key replays instead of placing again.
	w = serve(r, http.MethodPost, base+"/meals/"+meal.ID+"/orders", "bob", gin.H{"dish_ids": []string{dish.ID}},
		middleware.HeaderIdempotencyKey, "order-1")
	if w.Code != http.StatusOK || w.Header().Get(middleware.HeaderIdempotencyReplayed) != "true" {
		t.Fatalf("replay: %d replayed=%q", w.Code, w.Header().Get(middleware.HeaderIdempotencyReplayed))
	}

	data, _ := json.Marshal(gin.H{"action": "create", "data": gin.H{"meal_id": meal.ID, "dish_ids": []string{dish.ID}}})
	w = serve(r, http.MethodPost, base+"/functions/order", "carol", json.RawMessage(data))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"code":0`) {
		t.Fatalf("dispatch place: %d %s", w.Code, w.Body.String())
	}

	w = serve(r, http.MethodGet, base+"/meals/"+meal.ID+"/orders", "owner", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("aggregate: %d %s", w.Code, w.Body.String())
	}
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected ETag on aggregation")
	}
	var agg struct {
		Dishes []struct {
			OrderCount int `json:"order_count"`
		} `json:"dishes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &agg); err != nil || len(agg.Dishes) != 1 || agg.Dishes[0].OrderCount != 2 {
		t.Fatalf("unexpected aggregation: %s", w.Body.String())
	}

	if w = serve(r, http.MethodGet, base+"/meals/"+meal.ID+"/orders", "owner", nil, "If-None-Match", etag); w.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", w.Code)
	}

	if w = serve(r, http.MethodPost, base+"/meals/"+meal.ID+"/close", "owner", nil); w.Code != http.StatusOK {
		t.Fatalf("close: %d %s", w.Code, w.Body.String())
	}
	if w = serve(r, http.MethodDelete, base+"/meals/"+meal.ID+"/orders", "bob", nil); w.Code != http.StatusConflict {
		t.Fatalf("cancel on closed meal: expected 409, got %d", w.Code)
	}
}

func TestRegisterRoutes_InvalidIdempotencyKey(t *testing.T) {
	r, _ := newRouter(t, testConfig())
	w := serve(r, http.MethodPost, "/api/v1/meals/m1/orders", "bob", gin.H{"dish_ids": []string{"d"}},
		middleware.HeaderIdempotencyKey, "bad key with spaces")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestRegisterRoutes_IdempotencyLookupError(t *testing.T) {
	r, db := newRouter(t, testConfig())

	// Force queries to fail by closing the underlying connection.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	_ = sqlDB.Close()

	// The lookup error is logged and the request continues to the handler.
	w := serve(r, http.MethodPost, "/health", "u1", nil, middleware.HeaderIdempotencyKey, "force-error")
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}

	// Health reports the database as down.
	if w = serve(r, http.MethodGet, "/health", "", nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestRegisterRoutes_Swagger(t *testing.T) {
	cfg := testConfig()
	r, _ := newRouter(t, cfg)
	if w := serve(r, http.MethodGet, "/swagger/index.html", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("swagger disabled, expected 404, got %d", w.Code)
	}

	cfg.SwaggerEnabled = true
	r, _ = newRouter(t, cfg)
	if w := serve(r, http.MethodGet, "/swagger/index.html", "", nil); w.Code != http.StatusOK {
		t.Fatalf("swagger enabled, expected 200, got %d", w.Code)
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// tiny cap to trigger MaxBytesReader
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")) // 12 bytes
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	// "/" and "" should mount at root
	groupWithPrefix(r, "/").GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	groupWithPrefix(r, "").GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })
	groupWithPrefix(r, "/api").GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, rec.Code, rec.Body.String())
		}
	}
}

// Smoke test that a request traverses the full pipeline with HSTS on.
func TestPipeline_Smoke(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{EnableHSTS: true, HSTSMaxAge: time.Hour}
	cfg.LogRedact = false
	r, _ := newRouter(t, cfg)

	w := serve(r, http.MethodGet, "/api/v1/kitchens", "u1", nil, "Accept-Encoding", "gzip")
	if w.Code != http.StatusOK {
		t.Fatalf("pipeline GET /kitchens = %d", w.Code)
	}
	if rid := w.Header().Get("X-Request-ID"); rid == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}
	if ce := w.Header().Get("Content-Encoding"); ce != "gzip" {
		t.Fatalf("expected gzip response, got %q", ce)
	}
}
