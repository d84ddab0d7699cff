package verification

import (
	"net/http"

	"github.com/kashguard/go-tee-verifier/internal/api"
	"github.com/kashguard/go-tee-verifier/internal/types/verification"
	"github.com/kashguard/go-tee-verifier/internal/util"
	"github.com/labstack/echo/v4"
)

// PostMetadataRoute 规范化推理响应中的验证元数据
func PostMetadataRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Verification.POST("/metadata", postMetadataHandler(s))
}

func postMetadataHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		var body verification.PostMetadataPayload
		if err := bindBody(c, &body); err != nil {
			return err
		}

		m := s.Verification.AttachMetadata(ctx, body.Payload, body.Envelope, body.FallbackID)

		return util.ValidateAndReturn(c, http.StatusOK, &verification.MetadataResponse{
			Found:    m != nil,
			Metadata: m,
		})
	}
}
