package httpapi

import (
	"net/http"

	"github.com/riskibarqy/zeal-league/internal/domain/credit"
	"github.com/riskibarqy/zeal-league/internal/domain/notification"
	"github.com/riskibarqy/zeal-league/internal/domain/user"
	"github.com/riskibarqy/zeal-league/internal/usecase"
)

// GrantCredits applies a billing outcome. Called by the billing webhook
// relay with the internal job token.
func (h *Handler) GrantCredits(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GrantCredits")
	defer span.End()

	var req grantCreditsRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.creditService.Grant(ctx, usecase.GrantCreditsInput{
		GrantID:        req.GrantID,
		UserID:         req.UserID,
		Type:           credit.LotType(req.Type),
		Amount:         req.Amount,
		SubscriptionID: req.SubscriptionID,
		Plan:           user.Plan(req.Plan),
		PeriodEnd:      req.PeriodEnd,
	})
	if err != nil {
		h.logFailure(ctx, "grant credits failed", err, "grant_id", req.GrantID, "user_id", req.UserID)
		writeError(ctx, w, err)
		return
	}

	status := http.StatusCreated
	if !result.Applied {
		status = http.StatusOK
	}
	writeSuccess(ctx, w, status, grantResultDTO{
		GrantID:          req.GrantID,
		UserID:           result.User.ID,
		Applied:          result.Applied,
		CreditsAvailable: result.CreditsAvailable,
	})
}

// DeliverNotification is the QStash callback for queued emails. A non-2xx
// response makes QStash retry.
func (h *Handler) DeliverNotification(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeliverNotification")
	defer span.End()

	var req notificationJobRequest
	if err := h.decodeAndValidate(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	err := h.notificationDelivery.Deliver(ctx, notification.Message{
		To:      notification.Recipient{Email: req.ToEmail, Name: req.ToName},
		Subject: req.Subject,
		HTML:    req.HTML,
		Text:    req.Text,
	})
	if err != nil {
		h.logFailure(ctx, "deliver notification failed", err, "subject", req.Subject)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "delivered"})
}
