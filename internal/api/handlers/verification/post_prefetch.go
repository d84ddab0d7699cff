package verification

import (
	"net/http"

	"github.com/kashguard/go-tee-verifier/internal/api"
	"github.com/kashguard/go-tee-verifier/internal/api/httperrors"
	"github.com/kashguard/go-tee-verifier/internal/infra/expectations"
	infraverification "github.com/kashguard/go-tee-verifier/internal/infra/verification"
	"github.com/kashguard/go-tee-verifier/internal/types/verification"
	"github.com/kashguard/go-tee-verifier/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// PostPrefetchRoute 预取证明并计算验证结论
func PostPrefetchRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Verification.POST("/prefetch", postPrefetchHandler(s))
}

func postPrefetchHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body verification.PostPrefetchPayload
		if err := bindBody(c, &body); err != nil {
			return err
		}

		state, resp, err := s.Verification.Verify(ctx, body.OriginHint, body.VerificationID, body.Model, body.AttestedAddress)
		if err != nil {
			var cfgErr *expectations.ConfigurationError
			var evidenceErr *expectations.IncompleteEvidenceError

			switch {
			case errors.Is(err, infraverification.ErrSessionNotFound):
				return httperrors.ErrNotFoundSession
			case errors.Is(err, infraverification.ErrHashesMissing):
				return httperrors.ErrConflictSessionIncomplete
			case errors.As(err, &cfgErr):
				return httperrors.ErrServiceUnavailableNoCredential.WithInternal(err)
			case errors.As(err, &evidenceErr):
				e := httperrors.ErrBadGatewayIncompleteEvidence.WithInternal(err)
				e.Detail = evidenceErr.Error()
				return e
			}

			log.Error().Err(err).Str("verification_id", body.VerificationID).Msg("Failed to prefetch verification proof")
			return httperrors.ErrInternal.WithInternal(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, &verification.StateResponse{
			VerificationID: body.VerificationID,
			State:          state,
			Proof:          resp,
		})
	}
}
