package httpapi

import (
	"net/http"

	"github.com/riskibarqy/zeal-league/internal/usecase"
)

func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListGames")
	defer span.End()

	games, err := h.gameService.ListGames(ctx)
	if err != nil {
		h.logFailure(ctx, "list games failed", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, gamesToDTO(games))
}

func (h *Handler) ListUpcomingGames(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListUpcomingGames")
	defer span.End()

	games, err := h.gameService.ListUpcomingGames(ctx)
	if err != nil {
		h.logFailure(ctx, "list upcoming games failed", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, gamesToDTO(games))
}

func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetGame")
	defer span.End()

	gameID := r.PathValue("gameID")
	g, err := h.gameService.GetGame(ctx, gameID)
	if err != nil {
		h.logFailure(ctx, "get game failed", err, "game_id", gameID)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, gameToDTO(g))
}

func (h *Handler) CreateGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateGame")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req createGameRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	g, err := h.gameService.CreateGame(ctx, usecase.CreateGameInput{
		CallerID:        principal.UserID,
		HostID:          req.HostID,
		StadiumName:     req.Stadium.Name,
		StadiumAddress:  req.Stadium.Address,
		StadiumImage:    req.Stadium.Image,
		Capacity:        req.Stadium.Capacity,
		Date:            req.Date,
		Time:            req.Time,
		DurationMinutes: req.DurationMinutes,
		Type:            req.Type,
	})
	if err != nil {
		h.logFailure(ctx, "create game failed", err, "caller_id", principal.UserID)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, gameToDTO(g))
}

func (h *Handler) UpdateGameStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateGameStatus")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req updateGameStatusRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	gameID := r.PathValue("gameID")
	result, err := h.gameStatusService.UpdateStatus(ctx, usecase.UpdateGameStatusInput{
		GameID:   gameID,
		CallerID: principal.UserID,
		Status:   req.Status,
		Stats:    req.statDeltas(),
	})
	if err != nil {
		h.logFailure(ctx, "update game status failed", err, "game_id", gameID, "caller_id", principal.UserID)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, gameStatusResultToDTO(result))
}
