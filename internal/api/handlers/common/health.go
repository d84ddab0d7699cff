package common

import (
	"context"
	"net/http"
	"time"

	"github.com/kashguard/go-tee-verifier/internal/api"
	"github.com/kashguard/go-tee-verifier/internal/util"
	"github.com/labstack/echo/v4"
)

// GetHealthyRoute 存活检查
func GetHealthyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/healthy", getHealthyHandler(s))
}

// GetReadyRoute 就绪检查
func GetReadyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/ready", getReadyHandler(s))
}

// GetHealthDetailedRoute 详细健康检查
func GetHealthDetailedRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/health", getHealthDetailedHandler(s))
}

func getHealthyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), s.Config.Management.LivenessTimeout)
		defer cancel()

		status := http.StatusOK
		body := map[string]interface{}{
			"status":    "alive",
			"timestamp": s.Clock.Now().UTC().Format(time.RFC3339),
			"uptime":    s.Uptime().String(),
		}

		if s.Redis != nil {
			if err := s.Redis.Ping(ctx).Err(); err != nil {
				util.LogFromContext(ctx).Error().Err(err).Msg("Liveness check failed to reach redis")
				status = http.StatusServiceUnavailable
				body["status"] = "unhealthy"
			}
		}

		return c.JSON(status, body)
	}
}

func getReadyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), s.Config.Management.ReadinessTimeout)
		defer cancel()

		if !s.Ready() {
			return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{"status": "not_ready"})
		}

		if s.Redis != nil {
			if err := s.Redis.Ping(ctx).Err(); err != nil {
				util.LogFromContext(ctx).Warn().Err(err).Msg("Readiness check failed to reach redis")
				return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{"status": "not_ready"})
			}
		}

		return c.JSON(http.StatusOK, map[string]interface{}{"status": "ready"})
	}
}

func getHealthDetailedHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), s.Config.Management.ReadinessTimeout)
		defer cancel()

		health := map[string]interface{}{
			"status":    "ok",
			"timestamp": s.Clock.Now().UTC().Format(time.RFC3339),
			"uptime":    s.Uptime().String(),
		}

		components := map[string]interface{}{}

		if s.Redis != nil {
			if err := s.Redis.Ping(ctx).Err(); err != nil {
				components["sessions"] = map[string]interface{}{"backend": "redis", "status": "unhealthy", "error": err.Error()}
				health["status"] = "degraded"
			} else {
				components["sessions"] = map[string]interface{}{"backend": "redis", "status": "healthy"}
			}
		} else {
			components["sessions"] = map[string]interface{}{"backend": "memory", "status": "healthy"}
		}

		v := s.Config.Verification
		components["attestation_report"] = map[string]interface{}{
			"configured": len(v.CloudAPIKey) > 0,
			"base_url":   v.CloudAPIBaseURL,
		}
		if len(v.CloudAPIKey) == 0 {
			health["status"] = "degraded"
		}

		components["cpu_attestation"] = map[string]interface{}{
			"required":   v.CPUAttestationRequired,
			"configured": v.CPUAttestationConfigured(),
		}

		health["components"] = components

		return c.JSON(http.StatusOK, health)
	}
}
