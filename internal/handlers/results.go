package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"hotghost/internal/generator"
	"hotghost/internal/logging"
	"hotghost/internal/streaming"
)

func serveResult(w http.ResponseWriter, r *http.Request, res *generator.Result, h *Handlers) error {
	err := streaming.ServeBytes(w, r, res.ContentType, res.Data, h.stream)
	if errors.Is(err, streaming.ErrClientGone) {
		return nil
	}
	return err
}

// GetResult streams a held video result.
func (h *Handlers) GetResult(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	res, ok := h.gen.Handles().Get(id)
	if !ok {
		writeJSONError(w, "result not found", http.StatusNotFound)
		return
	}
	setResultHeaders(w, res)
	w.Header().Set("Cache-Control", "no-store")
	if err := serveResult(w, r, res, h); err != nil {
		logging.Warn("result %s download: %v", id, err)
	}
}

// ReleaseResult frees a held video result.
func (h *Handlers) ReleaseResult(w http.ResponseWriter, r *http.Request) {
	if !h.gen.Handles().Release(mux.Vars(r)["id"]) {
		writeJSONError(w, "result not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
