package common

import (
	"github.com/kashguard/go-tee-verifier/internal/api"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// GetMetricsRoute exposes the pipeline collectors in the Prometheus text format.
func GetMetricsRoute(s *api.Server) *echo.Route {
	handler := promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{})
	return s.Router.Management.GET("/metrics", echo.WrapHandler(handler))
}
