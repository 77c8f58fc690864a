package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"swiftdrop/internal/gateway/payments"
	"swiftdrop/internal/logx"
	"swiftdrop/internal/service/payment"
)

// WebhookHandler receives payment provider callbacks.
type WebhookHandler struct {
	usecase paymentUsecase
	secret  string
	logger  logx.Logger
}

// WebhookSecret is the shared secret callbacks are signed with.
type WebhookSecret string

// NewWebhookHandler creates a new WebhookHandler. An empty secret disables
// signature checking; callbacks are still processed, with a warning.
func NewWebhookHandler(logger logx.Logger, uc paymentUsecase, secret WebhookSecret) *WebhookHandler {
	return &WebhookHandler{usecase: uc, secret: string(secret), logger: logger}
}

type webhookBody struct {
	Event         string    `json:"event"`
	TransactionID string    `json:"transaction_id"`
	GatewayRef    string    `json:"gateway_ref"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Payments handles POST /webhook/payments. After the signature check the
// endpoint always answers 200: processing is idempotent and the provider
// retrying a replayed event changes nothing.
func (h *WebhookHandler) Payments(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, bodyLimit))
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "unreadable body")
		return
	}

	if h.secret == "" {
		h.logger.Warn("webhook: no signing secret configured, accepting unsigned callback")
	} else if !payments.VerifySignature(h.secret, raw, r.Header.Get("X-Signature")) {
		writeError(h.logger, w, r, http.StatusUnauthorized, "invalid signature")
		return
	}

	var body webhookBody
	if err := json.Unmarshal(raw, &body); err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid json")
		return
	}
	if body.TransactionID == "" {
		writeError(h.logger, w, r, http.StatusBadRequest, "missing transaction_id")
		return
	}

	ev := payment.Event{
		Type:          body.Event,
		TransactionID: body.TransactionID,
		GatewayRef:    body.GatewayRef,
		OccurredAt:    body.OccurredAt,
	}
	if err := h.usecase.Handle(r.Context(), ev); err != nil {
		// the kafka mirror of this stream redelivers; answer 200 so the
		// provider does not hammer a failing endpoint
		h.logger.Error("webhook: handle event",
			logx.String("req_id", reqID(r.Context())),
			logx.String("transaction_id", body.TransactionID),
			logx.Err(err),
		)
	}

	writeJSON(h.logger, w, r, http.StatusOK, map[string]string{"status": "ok"})
}
