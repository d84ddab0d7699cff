package verification

import (
	"net/http"

	"github.com/kashguard/go-tee-verifier/internal/api"
	"github.com/kashguard/go-tee-verifier/internal/types/verification"
	"github.com/kashguard/go-tee-verifier/internal/util"
	"github.com/labstack/echo/v4"
)

// PostStateRoute 根据证明计算验证结论
func PostStateRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Verification.POST("/state", postStateHandler(s))
}

func postStateHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		var body verification.PostStatePayload
		if err := bindBody(c, &body); err != nil {
			return err
		}

		state := s.Verification.Evaluate(ctx, body.VerificationID, body.Proof, body.AttestedAddress)

		return util.ValidateAndReturn(c, http.StatusOK, &verification.StateResponse{
			VerificationID: body.VerificationID,
			State:          state,
		})
	}
}
