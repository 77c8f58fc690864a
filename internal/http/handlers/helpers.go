package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"swiftdrop/internal/apperr"
	"swiftdrop/internal/logx"
)

func reqID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return "-"
}

func writeJSON(logger logx.Logger, w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		logger.Error("json encode",
			logx.String("req_id", reqID(r.Context())),
			logx.Err(err),
		)
	}
}

// ErrorResponse is the uniform error body. CurrentStatus and AllowedActions
// are present only for rejected lifecycle transitions.
type ErrorResponse struct {
	Error          string   `json:"error"`
	CurrentStatus  string   `json:"current_status,omitempty"`
	AllowedActions []string `json:"allowed_actions,omitempty"`
}

func writeError(logger logx.Logger, w http.ResponseWriter, r *http.Request, status int, msg string) {
	logger.Warn("http error",
		logx.String("req_id", reqID(r.Context())),
		logx.Int("status", status),
		logx.String("msg", msg),
	)
	writeJSON(logger, w, r, status, ErrorResponse{Error: msg})
}

// writeDomainError maps service errors onto HTTP statuses.
func writeDomainError(logger logx.Logger, w http.ResponseWriter, r *http.Request, err error) {
	var te *apperr.TransitionError
	switch {
	case errors.As(err, &te):
		resp := ErrorResponse{
			Error:          te.Error(),
			CurrentStatus:  te.Current,
			AllowedActions: te.Allowed,
		}
		logger.Warn("http error",
			logx.String("req_id", reqID(r.Context())),
			logx.Int("status", http.StatusConflict),
			logx.String("msg", te.Error()),
		)
		writeJSON(logger, w, r, http.StatusConflict, resp)
	case errors.Is(err, apperr.ErrAlreadyAccepted):
		writeError(logger, w, r, http.StatusConflict, "ride already accepted")
	case errors.Is(err, apperr.ErrExpired):
		writeError(logger, w, r, http.StatusConflict, "ride expired")
	case errors.Is(err, apperr.ErrCancelled):
		writeError(logger, w, r, http.StatusConflict, "ride cancelled")
	case errors.Is(err, apperr.ErrNoApprovedVehicle):
		writeError(logger, w, r, http.StatusUnprocessableEntity, "no approved vehicle of the requested type")
	case errors.Is(err, apperr.ErrConflict):
		writeError(logger, w, r, http.StatusConflict, "conflict")
	case errors.Is(err, apperr.ErrInvalid):
		writeError(logger, w, r, http.StatusBadRequest, "invalid input")
	case errors.Is(err, apperr.ErrUnauthorized):
		writeError(logger, w, r, http.StatusForbidden, "forbidden")
	case errors.Is(err, apperr.ErrNotFound):
		writeError(logger, w, r, http.StatusNotFound, "not found")
	case errors.Is(err, apperr.ErrGateway):
		writeError(logger, w, r, http.StatusBadGateway, "payment gateway unavailable")
	default:
		logger.Error("internal error",
			logx.String("req_id", reqID(r.Context())),
			logx.Err(err),
		)
		writeError(logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

const bodyLimit = 1 << 20

func decodeJSON[T any](logger logx.Logger, w http.ResponseWriter, r *http.Request, dst *T) bool {
	r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeError(logger, w, r, http.StatusBadRequest, "invalid json")
		return false
	}
	if err := dec.Decode(new(struct{})); err != io.EOF {
		writeError(logger, w, r, http.StatusBadRequest, "invalid json: trailing data")
		return false
	}
	return true
}

func idFromURL(r *http.Request, name string) (int64, error) {
	idStr := chi.URLParam(r, name)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
