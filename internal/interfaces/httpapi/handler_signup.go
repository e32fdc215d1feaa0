package httpapi

import "net/http"

func (h *Handler) SignupForGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SignupForGame")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	gameID := r.PathValue("gameID")
	result, err := h.signupService.Signup(ctx, gameID, principal.UserID)
	if err != nil {
		h.logFailure(ctx, "signup failed", err, "game_id", gameID, "user_id", principal.UserID)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, signupResultToDTO(result))
}

func (h *Handler) CancelSignup(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CancelSignup")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	gameID := r.PathValue("gameID")
	result, err := h.signupService.Cancel(ctx, gameID, principal.UserID)
	if err != nil {
		h.logFailure(ctx, "cancel signup failed", err, "game_id", gameID, "user_id", principal.UserID)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, cancelResultToDTO(result))
}

func (h *Handler) JoinWaitlist(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.JoinWaitlist")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	gameID := r.PathValue("gameID")
	g, err := h.signupService.JoinWaitlist(ctx, gameID, principal.UserID)
	if err != nil {
		h.logFailure(ctx, "join waitlist failed", err, "game_id", gameID, "user_id", principal.UserID)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, gameToDTO(g))
}

func (h *Handler) LeaveWaitlist(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.LeaveWaitlist")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	gameID := r.PathValue("gameID")
	g, err := h.signupService.LeaveWaitlist(ctx, gameID, principal.UserID)
	if err != nil {
		h.logFailure(ctx, "leave waitlist failed", err, "game_id", gameID, "user_id", principal.UserID)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, gameToDTO(g))
}
