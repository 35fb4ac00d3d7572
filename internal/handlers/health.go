package handlers

import (
	"net/http"
	"runtime"
	"time"

	"hotghost/internal/startup"
	"hotghost/internal/transcoder"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Uptime      string `json:"uptime"`
	EngineState string `json:"engineState"`
	Busy        bool   `json:"busy"`

	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck reports liveness. An engine that failed to initialize makes
// the service degraded but it still answers 200: still images and text
// work without ffmpeg.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	state := h.gen.Engine().State()
	resp := HealthResponse{
		Status:       statusHealthy,
		Version:      startup.Version,
		Uptime:       time.Since(h.started).Round(time.Second).String(),
		EngineState:  state.String(),
		Busy:         h.gen.Busy(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}
	if state == transcoder.Failed {
		resp.Status = statusDegraded
	}

	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
