package router

import (
	"github.com/kashguard/go-tee-verifier/internal/api"
	"github.com/kashguard/go-tee-verifier/internal/api/handlers"
	"github.com/kashguard/go-tee-verifier/internal/api/httperrors"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init sets up the echo instance, its middleware chain and route groups, then attaches all handlers.
func Init(s *api.Server) {
	s.Echo = echo.New()

	s.Echo.Debug = s.Config.Echo.Debug
	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.Echo.HTTPErrorHandler = httperrors.HTTPErrorHandler

	s.Echo.Pre(middleware.RemoveTrailingSlash())

	s.Echo.Use(middleware.Recover())
	s.Echo.Use(middleware.RequestID())
	s.Echo.Use(requestLogger(s))

	if s.Config.Echo.RequestTimeout > 0 {
		s.Echo.Use(middleware.ContextTimeout(s.Config.Echo.RequestTimeout))
	}

	s.Router = &api.Router{
		Routes:            nil,
		Root:              s.Echo.Group(""),
		Management:        s.Echo.Group("/-"),
		APIV1Verification: s.Echo.Group("/api/v1/verification"),
	}

	handlers.AttachAllRoutes(s)

	log.Debug().Int("routes", len(s.Router.Routes)).Msg("Initialized router")
}

// requestLogger attaches a request scoped logger to the context and logs every request.
func requestLogger(s *api.Server) echo.MiddlewareFunc {
	level := s.Config.Logger.RequestLevel

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := c.Response().Header().Get(echo.HeaderXRequestID)

			l := log.With().Str("request_id", id).Logger()
			c.SetRequest(req.WithContext(l.WithContext(req.Context())))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			if level != zerolog.Disabled {
				l.WithLevel(level).
					Str("method", req.Method).
					Str("path", req.URL.Path).
					Int("status", c.Response().Status).
					Int64("bytes_out", c.Response().Size).
					Msg("Handled request")
			}

			return nil
		}
	}
}
