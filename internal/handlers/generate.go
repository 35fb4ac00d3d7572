package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"hotghost/internal/effects"
	"hotghost/internal/generator"
	"hotghost/internal/logging"
	"hotghost/internal/middleware"
	"hotghost/internal/templates"
)

// multipartMemory is how much of a form is held in memory before parts
// spill to temporary files.
const multipartMemory = 32 << 20

// GenerateImage composites a still and returns the image bytes directly.
func (h *Handlers) GenerateImage(w http.ResponseWriter, r *http.Request) {
	res, ok := h.generate(w, r, templates.Image)
	if !ok {
		return
	}
	setResultHeaders(w, res)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "hotghost-"+res.Template.String()+res.Extension))
	if err := serveResult(w, r, res, h); err != nil {
		logging.Warn("image response: %v", err)
	}
}

// GenerateVideo renders a video and holds it under a handle; the body
// describes where to fetch it.
func (h *Handlers) GenerateVideo(w http.ResponseWriter, r *http.Request) {
	res, ok := h.generate(w, r, templates.Video)
	if !ok {
		return
	}
	setResultHeaders(w, res)
	writeJSON(w, http.StatusCreated, videoResponse{
		Result:     res,
		Size:       len(res.Data),
		DurationMS: res.Duration.Milliseconds(),
		URL:        "/api/results/" + res.Handle,
	})
}

type videoResponse struct {
	*generator.Result
	Size       int    `json:"size"`
	DurationMS int64  `json:"durationMs"`
	URL        string `json:"url"`
}

func setResultHeaders(w http.ResponseWriter, res *generator.Result) {
	w.Header().Set("X-Source-Digest", res.SourceDigest)
	w.Header().Set("X-Output-Digest", res.OutputDigest)
}

func (h *Handlers) generate(w http.ResponseWriter, r *http.Request, family templates.Family) (*generator.Result, bool) {
	req, err := parseRequest(r, family)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeJSONError(w, "upload too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	res, err := h.gen.TryGenerate(r.Context(), req, nil)
	if err != nil {
		logging.Info("[%s] %s %s generation failed: %v", middleware.GetRequestID(r.Context()), family, req.Template, err)
		writeGenerateError(w, err)
		return nil, false
	}
	return res, true
}

// parseRequest reads the multipart form. Slot files are "left" and
// "right"; "effects" is a JSON object keyed by slot.
func parseRequest(r *http.Request, family templates.Family) (generator.Request, error) {
	req := generator.Request{Family: family, Slots: map[string]generator.MediaSlot{}}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return req, fmt.Errorf("invalid multipart form: %w", err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	id, err := templates.ParseID(r.FormValue("template"))
	if err != nil {
		return req, err
	}
	req.Template = id
	req.Texts = generator.TextSet{
		Title:    r.FormValue("title"),
		Subtitle: r.FormValue("subtitle"),
		Footer:   r.FormValue("footer"),
	}
	req.Replace = r.FormValue("replace")

	for _, name := range []string{generator.SlotLeft, generator.SlotRight} {
		file, header, err := r.FormFile(name)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return req, fmt.Errorf("read %s: %w", name, err)
		}
		data, err := io.ReadAll(file)
		_ = file.Close()
		if err != nil {
			return req, fmt.Errorf("read %s: %w", name, err)
		}
		req.Slots[name] = generator.MediaSlot{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		}
	}

	if raw := r.FormValue("effects"); raw != "" {
		var perSlot map[string]json.RawMessage
		if err := json.Unmarshal([]byte(raw), &perSlot); err != nil {
			return req, fmt.Errorf("invalid effects: %w", err)
		}
		req.Effects = make(map[string]effects.Settings, len(perSlot))
		for slot, msg := range perSlot {
			// Fields the client omits keep their defaults.
			s := effects.Defaults()
			if err := json.Unmarshal(msg, &s); err != nil {
				return req, fmt.Errorf("invalid effects for %s: %w", slot, err)
			}
			req.Effects[slot] = s
		}
	}
	return req, nil
}

// writeGenerateError maps generator errors to HTTP statuses. Stage and
// decode details stay in the server log.
func writeGenerateError(w http.ResponseWriter, err error) {
	var ie *generator.InputError
	switch {
	case errors.As(err, &ie):
		writeJSONError(w, ie.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, generator.ErrBusy):
		w.Header().Set("Retry-After", strconv.Itoa(5))
		writeJSONError(w, "a generation is already running", http.StatusServiceUnavailable)
	case errors.Is(err, generator.ErrMediaDecode):
		writeJSONError(w, "could not decode the uploaded media", http.StatusUnprocessableEntity)
	case errors.Is(err, generator.ErrEngineInit):
		writeJSONError(w, "video engine unavailable", http.StatusServiceUnavailable)
	case errors.Is(err, context.DeadlineExceeded):
		writeJSONError(w, "generation timed out", http.StatusGatewayTimeout)
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads the response.
		w.WriteHeader(499)
	default:
		writeJSONError(w, "generation failed", http.StatusInternalServerError)
	}
}
