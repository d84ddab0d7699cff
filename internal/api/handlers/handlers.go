package handlers

import (
	"github.com/kashguard/go-tee-verifier/internal/api"
	"github.com/kashguard/go-tee-verifier/internal/api/handlers/common"
	"github.com/kashguard/go-tee-verifier/internal/api/handlers/verification"
	"github.com/labstack/echo/v4"
)

// AttachAllRoutes 注册所有路由
func AttachAllRoutes(s *api.Server) {
	// attach our routes
	s.Router.Routes = []*echo.Route{
		common.GetHealthyRoute(s),
		common.GetReadyRoute(s),
		common.GetHealthDetailedRoute(s),
		common.GetMetricsRoute(s),
		verification.GetSessionRoute(s),
		verification.PostRecordInferenceRoute(s),
		verification.PatchSessionRoute(s),
		verification.PostMetadataRoute(s),
		verification.PostStateRoute(s),
		verification.PostPrefetchRoute(s),
	}
}
