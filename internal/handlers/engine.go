package handlers

import (
	"net/http"

	"hotghost/internal/assets"
)

type engineResponse struct {
	State        string          `json:"state"`
	Version      string          `json:"version,omitempty"`
	Busy         bool            `json:"busy"`
	HeldResults  int             `json:"heldResults"`
	Workspace    *workspaceInfo  `json:"workspace,omitempty"`
	Assets       []assets.Status `json:"assets"`
	VideoReady   bool            `json:"videoReady"`
	VideoProblem string          `json:"videoProblem,omitempty"`
}

type workspaceInfo struct {
	Files int   `json:"files"`
	Bytes int64 `json:"bytes"`
}

// GetEngine reports the transcoder lifecycle state and asset resolution.
// It never initializes the engine.
func (h *Handlers) GetEngine(w http.ResponseWriter, _ *http.Request) {
	eng := h.gen.Engine()
	resp := engineResponse{
		State:       eng.State().String(),
		Version:     eng.Version(),
		Busy:        h.gen.Busy(),
		HeldResults: h.gen.Handles().Len(),
		Assets:      h.assets.Check(),
		VideoReady:  true,
	}
	if err := h.assets.VideoReady(); err != nil {
		resp.VideoReady = false
		resp.VideoProblem = err.Error()
	}
	if eng.Workspace() != nil {
		st := h.gen.GetStats()
		resp.Workspace = &workspaceInfo{Files: st.WorkspaceFiles, Bytes: st.WorkspaceBytes}
	}
	writeJSON(w, http.StatusOK, resp)
}
