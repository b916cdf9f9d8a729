package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jirafa27/DocumentSearcher/internal/documents"
	"github.com/jirafa27/DocumentSearcher/internal/search"
	"github.com/jirafa27/DocumentSearcher/internal/services/health"
	"github.com/jirafa27/DocumentSearcher/internal/shared/config"
	"github.com/jirafa27/DocumentSearcher/internal/shared/metrics"
	"github.com/jirafa27/DocumentSearcher/internal/shared/server/middleware"
	"github.com/jirafa27/DocumentSearcher/internal/shared/server/respond"
)

const (
	rateGroupUpload  = "UPLOAD"
	rateGroupSearch  = "SEARCH"
	rateGroupDefault = "DEFAULT"
)

// RouterDeps carries the handlers mounted by NewRouter.
type RouterDeps struct {
	Config          config.Config
	DocumentHandler *documents.Handler
	SearchHandler   *search.Handler
	Health          *health.Service
	RateLimiter     *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Metrics(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/healthz", healthHandler(deps.Health))
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.Use(
		middleware.Owner(),
		middleware.RateLimit(rateLimitConfig(deps.Config, deps.RateLimiter)),
	)
	api.GET("/health", healthHandler(deps.Health))
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(api)
	}
	if deps.SearchHandler != nil {
		deps.SearchHandler.RegisterRoutes(api)
	}

	return r
}

func healthHandler(svc *health.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if svc == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
			return
		}
		report := svc.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	}
}

func rateLimitConfig(cfg config.Config, limiter *middleware.RateLimiter) middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		DefaultGroup: rateGroupDefault,
		GroupFor:     rateGroupFor,
		Limiter:      limiter,
		Rules: map[string]middleware.RateLimitRule{
			rateGroupUpload:  {Rate: cfg.RateLimitUpload.Rate, Burst: cfg.RateLimitUpload.Burst},
			rateGroupSearch:  {Rate: cfg.RateLimitSearch.Rate, Burst: cfg.RateLimitSearch.Burst},
			rateGroupDefault: {Rate: cfg.RateLimitOther.Rate, Burst: cfg.RateLimitOther.Burst},
		},
	}
}

func rateGroupFor(c *gin.Context) string {
	path := c.FullPath()
	switch {
	case strings.HasSuffix(path, "/search"):
		return rateGroupSearch
	case c.Request.Method == http.MethodPost && strings.HasSuffix(path, "/documents/upload"):
		return rateGroupUpload
	case c.Request.Method == http.MethodPut && strings.HasSuffix(path, "/documents/:id"):
		return rateGroupUpload
	default:
		return rateGroupDefault
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
