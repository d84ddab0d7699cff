package verification

import (
	"github.com/kashguard/go-tee-verifier/internal/api"
	"github.com/kashguard/go-tee-verifier/internal/types/verification"
	"github.com/labstack/echo/v4"
)

// PatchSessionRoute 补充已登记会话的哈希, unknown ids yield 404 and create nothing.
func PatchSessionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Verification.PATCH("/sessions/:id", patchSessionHandler(s))
}

func patchSessionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		var body verification.PatchSessionHashesPayload
		if err := bindBody(c, &body); err != nil {
			return err
		}

		reqHash, respHash := digests(body.RequestBody, body.RequestHash, body.ResponseBody, body.ResponseHash)

		return updateSessionHashes(c, s, c.Param("id"), reqHash, respHash)
	}
}
