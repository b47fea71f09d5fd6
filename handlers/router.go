package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"
	"github.com/rs/cors"

	"demo-labeler/config"
	"demo-labeler/services"
)

// NewRouter wires the labeling service routes
func NewRouter(cfg *config.ServerConfig, datasets *services.DatasetService, labels *services.LabelService, logger hclog.Logger) http.Handler {
	httpLogger := logger.Named("http")
	demoHandler := NewDemoHandler(datasets, logger)
	labelHandler := NewLabelHandler(labels, logger)

	r := mux.NewRouter()
	r.Use(loggingMiddleware(httpLogger))
	if cfg.APIKey != "" {
		r.Use(apiKeyMiddleware(cfg.APIKey))
	}

	// Dataset routes
	r.HandleFunc("/demos", demoHandler.ListDemos).Methods(http.MethodGet)
	r.HandleFunc("/demo/{demo}/length", demoHandler.GetLength).Methods(http.MethodGet)
	r.HandleFunc("/demo/{demo}/cameras", demoHandler.GetCameras).Methods(http.MethodGet)
	r.HandleFunc("/frame", demoHandler.ServeFrame).Methods(http.MethodGet)

	// Label routes
	r.HandleFunc("/demo/{demo}/labels", labelHandler.GetLabels).Methods(http.MethodGet)
	r.HandleFunc("/update_label", labelHandler.UpdateLabel).Methods(http.MethodPost)
	r.HandleFunc("/clear_labels", labelHandler.ClearLabels).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return corsHandler.Handler(r)
}
