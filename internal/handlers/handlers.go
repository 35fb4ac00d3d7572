package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"hotghost/internal/assets"
	"hotghost/internal/database"
	"hotghost/internal/generator"
	"hotghost/internal/streaming"
)

// HistoryReader is the read side of the generation history.
// *database.Database implements it.
type HistoryReader interface {
	Stats(ctx context.Context) (database.Stats, error)
	RecentGenerations(ctx context.Context, limit int) ([]database.Generation, error)
}

// Handlers serves the API.
type Handlers struct {
	gen     *generator.Generator
	history HistoryReader
	assets  *assets.Store
	stream  streaming.TimeoutWriterConfig
	started time.Time
}

// New creates the API handlers. history may be nil.
func New(gen *generator.Generator, history HistoryReader, store *assets.Store) *Handlers {
	return &Handlers{
		gen:     gen,
		history: history,
		assets:  store,
		stream:  streaming.DefaultTimeoutWriterConfig(),
		started: time.Now(),
	}
}

// Register adds every API route to r.
func (h *Handlers) Register(r *mux.Router) {
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet, http.MethodHead).Name("health")
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet).Name("version")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/text/transform", h.TransformText).Methods(http.MethodPost)
	api.HandleFunc("/image/generate", h.GenerateImage).Methods(http.MethodPost)
	api.HandleFunc("/video/generate", h.GenerateVideo).Methods(http.MethodPost)
	api.HandleFunc("/results/{id}", h.GetResult).Methods(http.MethodGet, http.MethodHead)
	api.HandleFunc("/results/{id}", h.ReleaseResult).Methods(http.MethodDelete)
	api.HandleFunc("/templates", h.GetTemplates).Methods(http.MethodGet)
	api.HandleFunc("/engine", h.GetEngine).Methods(http.MethodGet)
	api.HandleFunc("/stats", h.GetStats).Methods(http.MethodGet)
}
