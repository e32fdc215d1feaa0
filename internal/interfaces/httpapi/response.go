package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/zeal-league/internal/domain/credit"
	"github.com/riskibarqy/zeal-league/internal/domain/game"
	"github.com/riskibarqy/zeal-league/internal/domain/user"
	"github.com/riskibarqy/zeal-league/internal/platform/lock"
	"github.com/riskibarqy/zeal-league/internal/platform/tracing"
	"github.com/riskibarqy/zeal-league/internal/usecase"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	googleAPIVersion = "2.0"
	errorDomain      = "zeal-league"
)

type googleResponseEnvelope struct {
	APIVersion string           `json:"apiVersion"`
	Data       any              `json:"data,omitempty"`
	Error      *googleErrorBody `json:"error,omitempty"`
}

type googleErrorBody struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Status  string            `json:"status"`
	Errors  []googleErrorItem `json:"errors,omitempty"`
}

type googleErrorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type mappedError struct {
	HTTPStatus int
	Reason     string
	Status     string
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(ctx, w, status, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Data:       data,
	})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	mapped := mapError(ctx, err)
	if mapped.HTTPStatus >= http.StatusInternalServerError {
		tracing.Fail(trace.SpanFromContext(ctx), err)
	}
	writeJSON(ctx, w, mapped.HTTPStatus, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Error: &googleErrorBody{
			Code:    mapped.HTTPStatus,
			Message: err.Error(),
			Status:  mapped.Status,
			Errors: []googleErrorItem{
				{
					Domain:  errorDomain,
					Reason:  mapped.Reason,
					Message: err.Error(),
				},
			},
		},
	})
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	const msg = "internal server error"
	trace.SpanFromContext(ctx).SetStatus(codes.Error, msg)

	writeJSON(ctx, w, http.StatusInternalServerError, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Error: &googleErrorBody{
			Code:    http.StatusInternalServerError,
			Message: msg,
			Status:  "INTERNAL",
			Errors: []googleErrorItem{
				{
					Domain:  errorDomain,
					Reason:  "internalError",
					Message: msg,
				},
			},
		},
	})
}

func mapError(ctx context.Context, err error) mappedError {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return mappedError{
			HTTPStatus: http.StatusBadRequest,
			Reason:     invalidInputReason(err),
			Status:     "INVALID_ARGUMENT",
		}
	case errors.Is(err, usecase.ErrUnauthorized):
		return mappedError{
			HTTPStatus: http.StatusUnauthorized,
			Reason:     unauthorizedReason(err),
			Status:     "UNAUTHENTICATED",
		}
	case errors.Is(err, usecase.ErrForbidden):
		return mappedError{
			HTTPStatus: http.StatusForbidden,
			Reason:     "forbidden",
			Status:     "PERMISSION_DENIED",
		}
	case errors.Is(err, usecase.ErrNotFound):
		return mappedError{
			HTTPStatus: http.StatusNotFound,
			Reason:     notFoundReason(err),
			Status:     "NOT_FOUND",
		}
	case errors.Is(err, usecase.ErrInsufficientCredits), errors.Is(err, credit.ErrInsufficientCredits):
		return mappedError{
			HTTPStatus: http.StatusPaymentRequired,
			Reason:     "insufficientCredits",
			Status:     "FAILED_PRECONDITION",
		}
	case errors.Is(err, usecase.ErrConflict):
		return conflictError(err)
	case errors.Is(err, lock.ErrLockTimeout):
		return mappedError{
			HTTPStatus: http.StatusServiceUnavailable,
			Reason:     "lockTimeout",
			Status:     "UNAVAILABLE",
		}
	case errors.Is(err, usecase.ErrDependencyUnavailable):
		return mappedError{
			HTTPStatus: http.StatusServiceUnavailable,
			Reason:     "dependencyUnavailable",
			Status:     "UNAVAILABLE",
		}
	default:
		return mappedError{
			HTTPStatus: http.StatusInternalServerError,
			Reason:     "internalError",
			Status:     "INTERNAL",
		}
	}
}

func conflictError(err error) mappedError {
	switch {
	case errors.Is(err, game.ErrGameFull):
		return mappedError{HTTPStatus: http.StatusConflict, Reason: "gameFull", Status: "FAILED_PRECONDITION"}
	case errors.Is(err, game.ErrAlreadyOnRoster):
		return mappedError{HTTPStatus: http.StatusConflict, Reason: "alreadySignedUp", Status: "ALREADY_EXISTS"}
	case errors.Is(err, game.ErrAlreadyOnWaitlist):
		return mappedError{HTTPStatus: http.StatusConflict, Reason: "alreadyOnWaitlist", Status: "ALREADY_EXISTS"}
	case errors.Is(err, game.ErrVersionConflict), errors.Is(err, user.ErrVersionConflict):
		return mappedError{HTTPStatus: http.StatusConflict, Reason: "concurrentModification", Status: "ABORTED"}
	default:
		return mappedError{HTTPStatus: http.StatusConflict, Reason: "conflict", Status: "ABORTED"}
	}
}

func notFoundReason(err error) string {
	switch {
	case errors.Is(err, game.ErrNotOnRoster):
		return "notOnRoster"
	case errors.Is(err, game.ErrNotOnWaitlist):
		return "notOnWaitlist"
	default:
		return "notFound"
	}
}

func invalidInputReason(err error) string {
	switch {
	case errors.Is(err, game.ErrInvalidStatus):
		return "invalidStatus"
	case errors.Is(err, game.ErrInvalidAttendance), errors.Is(err, game.ErrInvalidStatDelta):
		return "invalidStats"
	default:
		return "invalidInput"
	}
}

func unauthorizedReason(err error) string {
	switch {
	case errors.Is(err, user.ErrTokenExpired):
		return "tokenExpired"
	case errors.Is(err, user.ErrTokenInactive):
		return "tokenInactive"
	case errors.Is(err, user.ErrTokenMissing):
		return "tokenMissing"
	default:
		return "unauthorized"
	}
}
