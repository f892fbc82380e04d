// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, identity, logging/redaction, panic recovery,
// metrics, idempotency, rate limiting, compression, CORS, and security headers.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → identity → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-meal-backend/docs"
	"github.com/tbourn/go-meal-backend/internal/config"
	"github.com/tbourn/go-meal-backend/internal/dispatch"
	"github.com/tbourn/go-meal-backend/internal/http/handlers"
	"github.com/tbourn/go-meal-backend/internal/http/middleware"
	"github.com/tbourn/go-meal-backend/internal/repo"
	"github.com/tbourn/go-meal-backend/internal/services"
)

// maxBodyBytes caps request bodies for every endpoint.
const maxBodyBytes = 1 << 20

var (
	corsMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", "If-None-Match", middleware.HeaderIdempotencyKey}
	corsExpose  = []string{"X-Request-ID", "Content-Length", "ETag", middleware.HeaderIdempotencyReplayed}
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), identity,
// idempotency and rate limiting, compression, CORS and security headers,
// health and metrics endpoints, and then mounts the versioned public API
// under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Identity: resolve the caller (bearer token, X-User-ID, fallback)
//  4. Logging: redacted access log + request-scoped logger (or plain Logger)
//  5. Recovery: capture panics after logger
//  6. Body size limiter
//  7. Metrics
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter on writes (per user/IP, bypass on replay)
//  10. Gzip, CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Identity
	r.Use(middleware.Identity(middleware.AuthOptions{
		JWTSecret:   cfg.Auth.JWTSecret,
		AllowHeader: cfg.Auth.AllowHeader,
		Fallback:    cfg.Auth.DefaultUserID,
		PublicPaths: []string{"/health", middleware.MetricsPath, "/swagger/"},
	}))

	// 4) Structured logging, with redaction unless disabled
	if cfg.LogRedact {
		r.Use(middleware.RedactingLogger(middleware.RedactOptions{
			MaskHeaders: []string{"X-API-Key"},
		}))
		r.Use(middleware.ScopedLogger())
	} else {
		r.Use(middleware.Logger())
	}

	// 5) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 6) Global body size limit
	r.Use(limitBody(maxBodyBytes))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET(middleware.MetricsPath, middleware.MetricsHandler())

	// 8) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200, ScopeParam: "id"},
		func(ctx context.Context, userID, mealID, key string, now time.Time) (bool, error) {
			_, err := repo.GetIdempotency(ctx, db, userID, mealID, key, now)
			if errors.Is(err, repo.ErrNotFound) {
				return false, nil
			}
			return err == nil, err
		},
	))

	// 9) Token-bucket rate limiter per user/IP on writes
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP()).WritesOnly()
	r.Use(rl.Handler())

	// 10) Compression, CORS posture, security headers
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{middleware.MetricsPath})))
	useCORS(r, cfg.CORS.AllowedOrigins)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
		Revalidate:   true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", health(db))

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(newDeps(db, cfg))

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath) // e.g. "/api/v1"
	{
		// Kitchens and profile
		api.GET("/kitchens", h.ListKitchens)
		api.POST("/kitchens", h.CreateKitchen)
		api.GET("/me", h.GetMe)
		api.PUT("/me", h.UpdateMe)

		// Dishes
		api.POST("/dishes", h.CreateDish)
		api.GET("/dishes", h.ListDishes)
		api.GET("/dishes/:id", h.GetDish)
		api.PUT("/dishes/:id", h.UpdateDish)
		api.DELETE("/dishes/:id", h.DeleteDish)

		// Meals
		api.POST("/meals", h.CreateMeal)
		api.GET("/meals", h.ListMeals)
		api.GET("/meals/:id", h.GetMeal)
		api.PUT("/meals/:id", h.UpdateMeal)
		api.POST("/meals/:id/close", h.CloseMeal)
		api.DELETE("/meals/:id", h.DeleteMeal)

		// Orders
		api.POST("/meals/:id/orders", h.PlaceOrder)
		api.DELETE("/meals/:id/orders", h.CancelOrder)
		api.GET("/meals/:id/orders", h.ListMealOrders)
		api.GET("/meals/:id/orders/me", h.GetMyOrder)
		api.GET("/orders", h.ListMyOrders)

		// Cloud-function style dispatch
		api.POST("/functions/:name", h.Dispatch)
	}
}

// newDeps builds the services over db and applies the configured policy.
func newDeps(db *gorm.DB, cfg config.Config) handlers.Deps {
	kitchens := services.NewKitchenService(db)
	dishes := services.NewDishService(db, kitchens)
	dishes.PageSize = cfg.Meals.PageSize
	meals := services.NewMealService(db, kitchens)
	meals.AllowDeleteClosed = cfg.Meals.AllowDeleteClosed
	meals.PageSize = cfg.Meals.PageSize
	orders := services.NewOrderService(db)
	orders.PageSize = cfg.Meals.PageSize
	users := &services.UserService{DB: db}

	return handlers.Deps{
		Kitchens: kitchens,
		Users:    users,
		Dishes:   dishes,
		Meals:    meals,
		Orders:   orders,
		Dispatcher: dispatch.New(dispatch.Services{
			Kitchens: kitchens,
			Dishes:   dishes,
			Meals:    meals,
			Orders:   orders,
			Users:    users,
		}),
		DB:             db,
		PageSize:       cfg.Meals.PageSize,
		IdempotencyTTL: cfg.Idempotency.TTL,
	}
}

// useCORS installs the CORS posture: allow all origins when none are
// configured, otherwise echo allowed origins.
func useCORS(r *gin.Engine, origins []string) {
	if len(origins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     corsMethods,
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    corsExpose,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
		return
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	r.Use(func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			if _, ok := allowed[origin]; ok {
				h := c.Writer.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
		}
		c.Next()
	})
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     corsMethods,
		AllowHeaders:     corsHeaders,
		ExposeHeaders:    corsExpose,
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
}

// health reports liveness and whether the database answers a ping.
func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("health: database unreachable")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
