package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"

	"demo-labeler/models"
	"demo-labeler/services"
)

// DemoHandler serves the dataset: demos, their metadata and frame images
type DemoHandler struct {
	datasets *services.DatasetService
	logger   hclog.Logger
}

// NewDemoHandler creates a new demo handler
func NewDemoHandler(datasets *services.DatasetService, logger hclog.Logger) *DemoHandler {
	return &DemoHandler{
		datasets: datasets,
		logger:   logger.Named("demos"),
	}
}

// ListDemos handles GET /demos
func (h *DemoHandler) ListDemos(w http.ResponseWriter, r *http.Request) {
	demos, err := h.datasets.ListDemos()
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, models.DemosResponse{Demos: demos})
}

// GetLength handles GET /demo/{demo}/length
func (h *DemoHandler) GetLength(w http.ResponseWriter, r *http.Request) {
	demo := mux.Vars(r)["demo"]
	length, err := h.datasets.Length(demo)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, models.LengthResponse{Length: length})
}

// GetCameras handles GET /demo/{demo}/cameras
func (h *DemoHandler) GetCameras(w http.ResponseWriter, r *http.Request) {
	demo := mux.Vars(r)["demo"]
	cameras, err := h.datasets.Cameras(demo)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, models.CamerasResponse{Cameras: cameras})
}

// ServeFrame handles GET /frame?demo=&t=&camera=
func (h *DemoHandler) ServeFrame(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	demo, camera := q.Get("demo"), q.Get("camera")
	if demo == "" || camera == "" {
		writeError(w, http.StatusBadRequest, "demo and camera are required")
		return
	}
	t, err := strconv.Atoi(q.Get("t"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "t must be an integer")
		return
	}

	path, err := h.datasets.FramePath(demo, t, camera)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Trace("serving frame", "demo", demo, "t", t, "camera", camera, "path", path)
	// frames of a recorded demo never change in place
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeFile(w, r, path)
}
