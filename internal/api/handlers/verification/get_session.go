package verification

import (
	"net/http"

	"github.com/kashguard/go-tee-verifier/internal/api"
	"github.com/kashguard/go-tee-verifier/internal/api/httperrors"
	infraverification "github.com/kashguard/go-tee-verifier/internal/infra/verification"
	"github.com/kashguard/go-tee-verifier/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// GetSessionRoute 查询验证会话
func GetSessionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Verification.GET("/sessions/:id", getSessionHandler(s))
}

func getSessionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		id := c.Param("id")

		sess, err := s.Verification.Session(ctx, id)
		if err != nil {
			if errors.Is(err, infraverification.ErrSessionNotFound) {
				return httperrors.ErrNotFoundSession
			}
			log.Error().Err(err).Str("verification_id", id).Msg("Failed to load verification session")
			return httperrors.ErrInternal.WithInternal(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, sessionResponse(sess))
	}
}
