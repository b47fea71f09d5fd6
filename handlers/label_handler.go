package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"

	"demo-labeler/models"
	"demo-labeler/services"
)

// LabelHandler handles per-frame label requests
type LabelHandler struct {
	labels *services.LabelService
	logger hclog.Logger
}

// NewLabelHandler creates a new label handler
func NewLabelHandler(labels *services.LabelService, logger hclog.Logger) *LabelHandler {
	return &LabelHandler{
		labels: labels,
		logger: logger.Named("labels"),
	}
}

// GetLabels handles GET /demo/{demo}/labels
func (h *LabelHandler) GetLabels(w http.ResponseWriter, r *http.Request) {
	demo := mux.Vars(r)["demo"]
	labels, err := h.labels.GetLabels(r.Context(), demo)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, models.LabelsResponse{Labels: labels})
}

// UpdateLabel handles POST /update_label?demo=&t=&label=
func (h *LabelHandler) UpdateLabel(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	demo := q.Get("demo")
	if demo == "" {
		writeError(w, http.StatusBadRequest, "demo is required")
		return
	}
	t, err := strconv.Atoi(q.Get("t"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "t must be an integer")
		return
	}
	value, err := strconv.Atoi(q.Get("label"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "label must be an integer")
		return
	}
	label := models.Label(value)
	if value < -1 || value > 1 {
		writeError(w, http.StatusBadRequest, services.ErrInvalidLabel.Error())
		return
	}

	if err := h.labels.UpdateLabel(r.Context(), demo, t, label); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Debug("label updated", "demo", demo, "t", t, "label", label)
	writeJSON(w, http.StatusOK, models.UpdateLabelResponse{
		Status: "ok",
		Demo:   demo,
		T:      t,
		Label:  label,
	})
}

// ClearLabels handles POST /clear_labels?demo=
func (h *LabelHandler) ClearLabels(w http.ResponseWriter, r *http.Request) {
	demo := r.URL.Query().Get("demo")
	if demo == "" {
		writeError(w, http.StatusBadRequest, "demo is required")
		return
	}
	if err := h.labels.ClearLabels(r.Context(), demo); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, models.StatusResponse{Status: "ok"})
}
