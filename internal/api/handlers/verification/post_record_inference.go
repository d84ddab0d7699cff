package verification

import (
	"net/http"

	"github.com/kashguard/go-tee-verifier/internal/api"
	"github.com/kashguard/go-tee-verifier/internal/api/httperrors"
	"github.com/kashguard/go-tee-verifier/internal/infra/session"
	infraverification "github.com/kashguard/go-tee-verifier/internal/infra/verification"
	"github.com/kashguard/go-tee-verifier/internal/types/verification"
	"github.com/kashguard/go-tee-verifier/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// PostRecordInferenceRoute 记录推理调用并注册验证会话
func PostRecordInferenceRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Verification.POST("/sessions", postRecordInferenceHandler(s))
}

func postRecordInferenceHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		var body verification.PostRecordInferencePayload
		if err := bindBody(c, &body); err != nil {
			return err
		}

		reqHash, respHash := digests(body.RequestBody, body.RequestHash, body.ResponseBody, body.ResponseHash)

		// a response without its request belongs to a session registered earlier
		if !body.HasRequest() {
			if len(body.VerificationID) == 0 {
				return httperrors.NewHTTPErrorWithDetail(http.StatusBadRequest, httperrors.ErrBadRequestInvalidBody.Type,
					httperrors.ErrBadRequestInvalidBody.Title, "verificationId is required when only the response is recorded")
			}
			return updateSessionHashes(c, s, body.VerificationID, reqHash, respHash)
		}

		sess := s.Verification.RecordHashes(ctx, body.VerificationID, reqHash, respHash)
		if sess == nil {
			return httperrors.ErrInternal
		}

		return util.ValidateAndReturn(c, http.StatusOK, sessionResponse(sess))
	}
}

// digests prefers serialized bodies over caller supplied hashes.
func digests(reqBody *string, reqHash string, respBody *string, respHash string) (string, string) {
	if reqBody != nil {
		reqHash = infraverification.HashBody([]byte(*reqBody))
	}
	if respBody != nil {
		respHash = infraverification.HashBody([]byte(*respBody))
	}
	return reqHash, respHash
}

func updateSessionHashes(c echo.Context, s *api.Server, id string, reqHash, respHash string) error {
	ctx := c.Request().Context()

	sess, err := s.Verification.UpdateHashes(ctx, id, reqHash, respHash)
	if err != nil {
		if errors.Is(err, infraverification.ErrSessionNotFound) {
			return httperrors.ErrNotFoundSession
		}
		util.LogFromContext(ctx).Error().Err(err).Str("verification_id", id).Msg("Failed to update verification session")
		return httperrors.ErrInternal.WithInternal(err)
	}

	return util.ValidateAndReturn(c, http.StatusOK, sessionResponse(sess))
}

func sessionResponse(sess *session.Session) *verification.SessionResponse {
	return &verification.SessionResponse{
		VerificationID: sess.ID,
		Nonce:          sess.Nonce,
		RequestHash:    sess.RequestHash,
		ResponseHash:   sess.ResponseHash,
		CreatedAt:      sess.CreatedAt,
	}
}
