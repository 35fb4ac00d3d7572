package handlers

import (
	"net/http"
	"strconv"

	"hotghost/internal/database"
	"hotghost/internal/logging"
)

type statsResponse struct {
	database.Stats
	Recent []database.Generation `json:"recent"`
}

// GetStats returns generation history totals and the most recent runs
// (?limit=N, default 20, max 200).
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSONError(w, "history disabled", http.StatusNotFound)
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSONError(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, 200)
	}

	stats, err := h.history.Stats(r.Context())
	if err != nil {
		logging.Error("history stats: %v", err)
		writeJSONError(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	recent, err := h.history.RecentGenerations(r.Context(), limit)
	if err != nil {
		logging.Error("recent generations: %v", err)
		writeJSONError(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	if recent == nil {
		recent = []database.Generation{}
	}
	writeJSON(w, http.StatusOK, statsResponse{Stats: stats, Recent: recent})
}
