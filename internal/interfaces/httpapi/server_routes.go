package httpapi

import (
	"net/http"

	"github.com/riskibarqy/zeal-league/internal/domain/user"
)

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerPublicGameRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/games", handler.ListGames)
	mux.HandleFunc("GET /v1/games/upcoming", handler.ListUpcomingGames)
	mux.HandleFunc("GET /v1/games/{gameID}", handler.GetGame)
	mux.HandleFunc("GET /v1/leaderboard", handler.Leaderboard)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier user.IdentityVerifier) {
	registerAuthorizedGameRoutes(mux, handler, verifier)
	registerAuthorizedSignupRoutes(mux, handler, verifier)
	mux.Handle("GET /v1/me", RequireAuth(verifier, http.HandlerFunc(handler.GetMyProfile)))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/credits/grants", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.GrantCredits)))
	mux.Handle("POST /v1/internal/jobs/notifications", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.DeliverNotification)))
}

func registerAuthorizedGameRoutes(mux *http.ServeMux, handler *Handler, verifier user.IdentityVerifier) {
	mux.Handle("POST /v1/games", RequireAuth(verifier, http.HandlerFunc(handler.CreateGame)))
	mux.Handle("PUT /v1/games/{gameID}/status", RequireAuth(verifier, http.HandlerFunc(handler.UpdateGameStatus)))
}

func registerAuthorizedSignupRoutes(mux *http.ServeMux, handler *Handler, verifier user.IdentityVerifier) {
	mux.Handle("POST /v1/games/{gameID}/signup", RequireAuth(verifier, http.HandlerFunc(handler.SignupForGame)))
	mux.Handle("DELETE /v1/games/{gameID}/signup", RequireAuth(verifier, http.HandlerFunc(handler.CancelSignup)))
	mux.Handle("POST /v1/games/{gameID}/waitlist", RequireAuth(verifier, http.HandlerFunc(handler.JoinWaitlist)))
	mux.Handle("DELETE /v1/games/{gameID}/waitlist", RequireAuth(verifier, http.HandlerFunc(handler.LeaveWaitlist)))
}
