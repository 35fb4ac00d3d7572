package handlers

import (
	"net/http"

	"hotghost/internal/startup"
)

type versionResponse struct {
	startup.BuildInfo
	// FFmpeg is the transcoder's version line, known once the engine has
	// been initialized by a video request.
	FFmpeg string `json:"ffmpeg,omitempty"`
}

// GetVersion reports build information and, when known, the ffmpeg version.
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, http.StatusOK, versionResponse{
		BuildInfo: startup.GetBuildInfo(),
		FFmpeg:    h.gen.Engine().Version(),
	})
}
