package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/zeal-league/internal/domain/user"
	"github.com/riskibarqy/zeal-league/internal/platform/logging"
	"github.com/riskibarqy/zeal-league/internal/usecase"
)

const maxRequestBodyBytes = 1 << 20

type Handler struct {
	gameService          *usecase.GameService
	signupService        *usecase.SignupService
	gameStatusService    *usecase.GameStatusService
	creditService        *usecase.CreditService
	leaderboardService   *usecase.LeaderboardService
	notificationDelivery *usecase.NotificationDelivery
	logger               *logging.Logger
	validator            *validator.Validate
}

func NewHandler(
	gameService *usecase.GameService,
	signupService *usecase.SignupService,
	gameStatusService *usecase.GameStatusService,
	creditService *usecase.CreditService,
	leaderboardService *usecase.LeaderboardService,
	notificationDelivery *usecase.NotificationDelivery,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		gameService:          gameService,
		signupService:        signupService,
		gameStatusService:    gameStatusService,
		creditService:        creditService,
		leaderboardService:   leaderboardService,
		notificationDelivery: notificationDelivery,
		logger:               logger,
		validator:            validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
func (h *Handler) decodeAndValidate(ctx context.Context, r *http.Request, dst any) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read request body: %v", usecase.ErrInvalidInput, err)
	}
	if len(raw) == 0 {
		return fmt.Errorf("%w: request body is required", usecase.ErrInvalidInput)
	}
	if err := sonic.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return h.validateRequest(ctx, dst)
}

func requirePrincipal(ctx context.Context) (user.Principal, error) {
	principal, ok := principalFromContext(ctx)
	if !ok {
		return user.Principal{}, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized)
	}
	return principal, nil
}

// logFailure logs client errors at warn and everything else at error.
func (h *Handler) logFailure(ctx context.Context, msg string, err error, args ...any) {
	args = append(args, "error", err)
	if mapError(ctx, err).HTTPStatus < http.StatusInternalServerError {
		h.logger.WarnContext(ctx, msg, args...)
		return
	}
	if errors.Is(err, usecase.ErrDependencyUnavailable) {
		h.logger.WarnContext(ctx, msg, args...)
		return
	}
	h.logger.ErrorContext(ctx, msg, args...)
}
