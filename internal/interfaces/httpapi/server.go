package httpapi

import (
	"net/http"

	"github.com/riskibarqy/zeal-league/internal/domain/user"
	"github.com/riskibarqy/zeal-league/internal/platform/logging"
)

func NewRouter(
	handler *Handler,
	verifier user.IdentityVerifier,
	logger *logging.Logger,
	swaggerEnabled bool,
	corsAllowedOrigins []string,
	internalJobToken string,
) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler, swaggerEnabled)
	registerPublicGameRoutes(mux, handler)
	registerAuthorizedRoutes(mux, handler, verifier)
	registerInternalJobRoutes(mux, handler, internalJobToken)

	var h http.Handler = mux
	h = recoverPanic(logger, h)
	h = CORS(corsAllowedOrigins, h)
	h = RequestLogging(logger, h)
	return RequestTracing(h)
}
