package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hashicorp/go-hclog"

	"demo-labeler/models"
	"demo-labeler/services"
)

// writeJSON encodes v as the response body
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError answers with {"detail": msg}
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Detail: msg})
}

// writeServiceError maps a service error to its HTTP status
func writeServiceError(w http.ResponseWriter, logger hclog.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrDemoNotFound),
		errors.Is(err, services.ErrCameraNotFound),
		errors.Is(err, services.ErrFrameOutOfRange):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidLabel),
		errors.Is(err, services.ErrInvalidTimestep):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
