package handlers

import (
	"encoding/json"
	"net/http"
)

type textPayload struct {
	Text string `json:"text"`
}

// TransformText replaces every mapped character with a confusable.
func (h *Handlers) TransformText(w http.ResponseWriter, r *http.Request) {
	var in textPayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSONError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, textPayload{Text: h.gen.TransformText(in.Text)})
}
