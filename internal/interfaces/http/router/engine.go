package router

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/qm/backend/internal/infrastructure/auth"
	"github.com/qm/backend/internal/infrastructure/config"
	"github.com/qm/backend/internal/infrastructure/logger"
	"github.com/qm/backend/internal/interfaces/http/handler"
	"github.com/qm/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// probePaths are served before authentication and left out of traces
var probePaths = []string{"/health", "/ready"}

// EngineOptions wires the global middleware and the API handlers
type EngineOptions struct {
	Logger      *zap.Logger
	ServiceName string
	HTTP        config.HTTPConfig

	Tracing   bool
	Profiling bool
	Metrics   *middleware.HTTPMetrics

	JWT       *auth.JWTService
	Blacklist auth.TokenBlacklist
	Limiter   middleware.Limiter

	Health   *handler.HealthHandler
	Handlers Handlers
}

// NewEngine builds the gin engine. Probes sit outside /api/v1 and need no
// token; every API route is authenticated and rate limited.
func NewEngine(opts EngineOptions) (*gin.Engine, error) {
	if opts.JWT == nil {
		return nil, errors.New("router: JWT service is required")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(logger.Recovery(log), logger.GinMiddleware(log))
	if opts.Tracing {
		engine.Use(middleware.Tracing(opts.ServiceName, probePaths...))
	}
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = opts.HTTP.CORSAllowOrigins
	engine.Use(middleware.Secure(), middleware.CORS(cors))
	if limit := max(opts.HTTP.MaxBodySize, opts.HTTP.MaxUploadSize); limit > 0 {
		engine.Use(middleware.BodyLimit(limit))
	}
	if opts.Metrics != nil {
		engine.Use(opts.Metrics.Middleware())
	}

	if opts.Health != nil {
		engine.GET("/health", opts.Health.Live)
		engine.GET("/ready", opts.Health.Ready)
	}

	api := []gin.HandlerFunc{middleware.JWTAuth(opts.JWT, opts.Blacklist, log)}
	if opts.Tracing {
		api = append(api, middleware.TraceEnrich())
	}
	if opts.Limiter != nil {
		api = append(api, middleware.RateLimit(opts.Limiter, log))
	}
	api = append(api, middleware.Profiling(opts.Profiling))

	r := NewRouter(engine, WithMiddleware(api...))
	r.Register(DomainGroups(opts.Handlers)...)
	r.Setup()
	return engine, nil
}
