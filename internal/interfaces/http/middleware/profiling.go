package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/qm/backend/internal/infrastructure/telemetry"
)

// Profiling runs each request under pyroscope labels for method, route,
// controller and tenant so CPU samples can be split per endpoint
func Profiling(enabled bool, skipPaths ...string) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}
		telemetry.WithProfilingLabels(c.Request.Context(), profilingLabels(c), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

func profilingLabels(c *gin.Context) map[string]string {
	route := c.FullPath()
	labels := map[string]string{
		telemetry.ProfilingLabelMethod:     c.Request.Method,
		telemetry.ProfilingLabelRoute:      route,
		telemetry.ProfilingLabelController: controllerOf(route),
	}
	if tenant := TenantID(c); tenant != uuid.Nil {
		labels[telemetry.ProfilingLabelTenantID] = tenant.String()
	}
	return labels
}

// controllerOf returns the first path segment after /api/v1
func controllerOf(route string) string {
	rest := strings.TrimPrefix(route, "/api/v1/")
	if rest == route {
		return ""
	}
	controller, _, _ := strings.Cut(rest, "/")
	return controller
}
