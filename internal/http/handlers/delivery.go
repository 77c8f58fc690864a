package handlers

import (
	"net/http"
	"time"

	"swiftdrop/internal/domain"
	"swiftdrop/internal/http/middleware"
	"swiftdrop/internal/logx"
)

// DeliveryHandler serves HTTP endpoints for the delivery lifecycle.
type DeliveryHandler struct {
	usecase deliveryUsecase
	logger  logx.Logger
}

// NewDeliveryHandler creates a new DeliveryHandler.
func NewDeliveryHandler(logger logx.Logger, uc deliveryUsecase) *DeliveryHandler {
	return &DeliveryHandler{usecase: uc, logger: logger}
}

func (h *DeliveryHandler) actor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	a, ok := middleware.ActorFrom(r.Context())
	if !ok {
		writeError(h.logger, w, r, http.StatusUnauthorized, "unauthorized")
	}
	return a, ok
}

// Request handles POST /deliveries.
func (h *DeliveryHandler) Request(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if actor.Role != domain.RoleCustomer {
		writeError(h.logger, w, r, http.StatusForbidden, "only customers may request deliveries")
		return
	}

	var body requestDeliveryBody
	if ok := decodeJSON(h.logger, w, r, &body); !ok {
		return
	}

	req := domain.DeliveryRequest{
		CustomerID:  actor.UserID,
		Pickup:      toLocation(body.Pickup),
		Dropoff:     toLocation(body.Dropoff),
		VehicleType: domain.VehicleType(body.VehicleType),
		Weight:      body.Weight,
	}
	if body.ScheduledAt != nil {
		req.ScheduledAt = *body.ScheduledAt
	} else {
		req.ScheduledAt = time.Now()
	}

	d, err := h.usecase.Request(r.Context(), req)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusCreated, toDeliveryResponse(d))
}

// Accept handles POST /deliveries/{id}/accept.
func (h *DeliveryHandler) Accept(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}

	d, err := h.usecase.Accept(r.Context(), id, actor)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, toDeliveryResponse(d))
}

type updateStatusBody struct {
	Action string `json:"action"`
}

// UpdateStatus handles PUT /deliveries/{id}/status. Only the driver-driven
// forward actions come through here; accept, cancel and complete have their
// own endpoints.
func (h *DeliveryHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}

	var body updateStatusBody
	if ok := decodeJSON(h.logger, w, r, &body); !ok {
		return
	}

	d, err := h.usecase.Advance(r.Context(), id, actor, domain.Action(body.Action))
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, toDeliveryResponse(d))
}

// Cancel handles POST /deliveries/{id}/cancel.
func (h *DeliveryHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}

	d, err := h.usecase.Cancel(r.Context(), id, actor)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, toDeliveryResponse(d))
}

// Complete handles POST /deliveries/{id}/complete. The normal path is the
// payment settle flow; this endpoint exists for admins recovering a ride
// whose payment settled but whose final transition failed mid-flight.
func (h *DeliveryHandler) Complete(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}

	d, err := h.usecase.Complete(r.Context(), id, actor)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, toDeliveryResponse(d))
}

// Get handles GET /deliveries/{id}.
func (h *DeliveryHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}

	d, err := h.usecase.Get(r.Context(), id, actor)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, toDeliveryResponse(d))
}

// List handles GET /deliveries.
func (h *DeliveryHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	list, err := h.usecase.ListForActor(r.Context(), actor)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, toDeliveryResponses(list))
}

// Pending handles GET /deliveries/pending.
func (h *DeliveryHandler) Pending(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	list, err := h.usecase.PendingRides(r.Context(), actor)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, toDeliveryResponses(list))
}

// Track handles GET /deliveries/{id}/track.
func (h *DeliveryHandler) Track(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}

	p, err := h.usecase.Track(r.Context(), id, actor)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	if p == nil {
		writeError(h.logger, w, r, http.StatusNotFound, "no tracking data yet")
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, toTrackResponse(p))
}

type driverStatusBody struct {
	Status string `json:"status"`
}

// DriverStatus handles PUT /deliveries/driver/status.
func (h *DeliveryHandler) DriverStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if actor.Role != domain.RoleDriver {
		writeError(h.logger, w, r, http.StatusForbidden, "only drivers may change availability")
		return
	}

	var body driverStatusBody
	if ok := decodeJSON(h.logger, w, r, &body); !ok {
		return
	}

	if err := h.usecase.SetDriverAvailability(r.Context(), actor.UserID, domain.DriverStatus(body.Status)); err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, map[string]string{"status": body.Status})
}

// DriverStatistics handles GET /deliveries/driver/statistics.
func (h *DeliveryHandler) DriverStatistics(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	stats, err := h.usecase.DriverStatistics(r.Context(), actor)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, statisticsResponse{
		CompletedRides: stats.CompletedRides,
		TotalEarnings:  stats.TotalEarnings,
	})
}
