package handlers

import (
	"net/http"

	"hotghost/internal/effects"
	"hotghost/internal/templates"
)

type catalogResponse struct {
	Family    templates.Family       `json:"family"`
	Templates []templates.Descriptor `json:"templates"`
	Effects   []effects.Param        `json:"effects"`
}

// GetTemplates lists the templates and effect parameters of a family
// (?family=image|video, default image).
func (h *Handlers) GetTemplates(w http.ResponseWriter, r *http.Request) {
	family := templates.Image
	if raw := r.URL.Query().Get("family"); raw != "" {
		f, err := templates.ParseFamily(raw)
		if err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		family = f
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	writeJSON(w, http.StatusOK, catalogResponse{
		Family:    family,
		Templates: templates.Catalog(family),
		Effects:   effects.Limits(family),
	})
}
