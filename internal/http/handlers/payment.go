package handlers

import (
	"net/http"

	"swiftdrop/internal/http/middleware"
	"swiftdrop/internal/logx"
)

// PaymentHandler serves the customer-facing payment endpoints.
type PaymentHandler struct {
	usecase paymentUsecase
	logger  logx.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(logger logx.Logger, uc paymentUsecase) *PaymentHandler {
	return &PaymentHandler{usecase: uc, logger: logger}
}

type paymentBody struct {
	DeliveryID int64 `json:"delivery_id"`
}

func (h *PaymentHandler) decode(w http.ResponseWriter, r *http.Request) (int64, bool) {
	var body paymentBody
	if ok := decodeJSON(h.logger, w, r, &body); !ok {
		return 0, false
	}
	if body.DeliveryID <= 0 {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid delivery_id")
		return 0, false
	}
	return body.DeliveryID, true
}

// Initiate handles POST /payments/initiate.
func (h *PaymentHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		writeError(h.logger, w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	deliveryID, ok := h.decode(w, r)
	if !ok {
		return
	}

	p, err := h.usecase.Initiate(r.Context(), deliveryID, actor)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, toPaymentResponse(p))
}

// Verify handles POST /payments/verify.
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		writeError(h.logger, w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	deliveryID, ok := h.decode(w, r)
	if !ok {
		return
	}

	p, err := h.usecase.Verify(r.Context(), deliveryID, actor)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, toPaymentResponse(p))
}

// Get handles GET /payments/{deliveryID}.
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		writeError(h.logger, w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	deliveryID, err := idFromURL(r, "deliveryID")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}

	p, err := h.usecase.GetForDelivery(r.Context(), deliveryID, actor)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, toPaymentResponse(p))
}
