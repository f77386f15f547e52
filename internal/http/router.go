// Package httpapi wires the HTTP transport (Gin) to the gateway services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, idempotent replays, and rate
// limiting.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-telegram-gateway/docs"
	"github.com/tbourn/go-telegram-gateway/internal/config"
	"github.com/tbourn/go-telegram-gateway/internal/http/handlers"
	"github.com/tbourn/go-telegram-gateway/internal/http/middleware"
)

// apiCSP locks the JSON API down; the Swagger UI needs scripts and styles so
// it is only applied when the UI is not mounted.
const apiCSP = "default-src 'none'; frame-ancestors 'none'"

var corsHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the dashboard API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with token scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Gzip
//  8. CORS and Security headers
//  9. Idempotency (replays answer here, before the rate limiter)
//  10. Rate limiter (per client IP; /health and /metrics exempt)
func RegisterRoutes(r *gin.Engine, svcs handlers.Services, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-Telegram-Bot-Api-Secret-Token"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Response compression
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 8) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
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
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	sec := middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true, // token responses carry full_token
		EnablePolicy: true,
	}
	if !cfg.SwaggerEnabled {
		sec.ContentSecurityPolicy = apiCSP
	}
	r.Use(middleware.SecurityHeaders(sec))

	// 9) Idempotent replays of keyed POSTs
	if svcs.Replays != nil {
		r.Use(middleware.IdempotencyValidator(
			middleware.IdempotencyOptions{Routes: []string{
				joinPath(cfg.APIBasePath, "/tokens"),
				joinPath(cfg.APIBasePath, "/tokens/:id/send"),
			}},
			replayLookup(svcs.Replays),
			replayRecorder(svcs.Replays),
		))
	}

	// 10) Token-bucket rate limiter per IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP()).
		Exempt("/health", "/metrics")
	r.Use(rl.Handler())

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(svcs)

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Bot tokens
		api.GET("/tokens", h.ListTokens)
		api.POST("/tokens", h.CreateToken)
		api.GET("/tokens/:id", h.GetToken)
		api.PUT("/tokens/:id", h.UpdateToken)
		api.DELETE("/tokens/:id", h.DeleteToken)

		// Per-token activity
		api.GET("/tokens/:id/logs", h.ListTokenLogs)
		api.GET("/tokens/:id/info", h.BotInfo)
		api.GET("/tokens/:id/chats", h.ListChats)
		api.POST("/tokens/:id/chats/refresh", h.RefreshChats)
		api.POST("/tokens/:id/send", h.SendMessage)

		// Settings
		api.GET("/settings", h.ListSettings)
		api.POST("/settings", h.CreateSetting)
		api.GET("/settings/:key", h.GetSetting)
		api.PUT("/settings/:key", h.UpdateSetting)
		api.DELETE("/settings/:key", h.DeleteSetting)

		// Logs
		api.GET("/logs", h.ListLogs)
		api.GET("/stats", h.Stats)
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

// joinPath prefixes route with the API base path the way groupWithPrefix
// mounts it.
func joinPath(prefix, route string) string {
	if prefix == "" || prefix == "/" {
		return route
	}
	return prefix + route
}

func replayLookup(rs handlers.ReplayService) middleware.IdempotencyLookup {
	return func(ctx context.Context, scope, key string, now time.Time) (*middleware.StoredResponse, error) {
		rec, err := rs.Lookup(ctx, scope, key, now)
		if err != nil || rec == nil {
			return nil, err
		}
		return &middleware.StoredResponse{Status: rec.Status, ContentType: rec.ContentType, Body: rec.Body}, nil
	}
}

func replayRecorder(rs handlers.ReplayService) middleware.IdempotencyRecorder {
	return func(ctx context.Context, scope, key string, resp middleware.StoredResponse) error {
		return rs.Record(ctx, scope, key, resp.Status, resp.ContentType, resp.Body)
	}
}
