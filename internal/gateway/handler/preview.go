package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ucraft/internal/gateway/session"
	"ucraft/internal/metrics"
	"ucraft/internal/preview"
)

// PreviewHandler drives the generation workflow of one app session.
type PreviewHandler struct {
	reg     *session.Registry
	timeout time.Duration
}

func NewPreviewHandler(reg *session.Registry, timeout time.Duration) *PreviewHandler {
	return &PreviewHandler{reg: reg, timeout: timeout}
}

func (h *PreviewHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"styles":     preview.Styles,
		"colorTones": preview.ColorTones,
		"viewAngles": preview.ViewAngles,
		"rooms":      preview.RoomTemplates,
		"quality":    preview.QualityOptions,
	})
}

type previewStateDTO struct {
	State        preview.State  `json:"state"`
	Refining     bool           `json:"refining"`
	Facets       preview.Facets `json:"facets"`
	Prompt       string         `json:"prompt"`
	RefinePrompt string         `json:"refinePrompt,omitempty"`
	ReferenceURL string         `json:"referenceUrl,omitempty"`
	ErrorKind    string         `json:"errorKind,omitempty"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
	ImageURL     string         `json:"imageUrl,omitempty"`
	HistoryLen   int            `json:"historyLen"`
}

func previewState(s *preview.Session) previewStateDTO {
	snap := s.Snapshot()
	dto := previewStateDTO{
		State:        snap.State,
		Refining:     snap.Refining,
		Facets:       snap.Facets,
		Prompt:       snap.Prompt,
		RefinePrompt: snap.RefinePrompt,
		ReferenceURL: snap.ReferenceURL,
		ErrorMessage: snap.ErrorMessage,
		HistoryLen:   snap.HistoryLen,
	}
	if snap.ErrorMessage != "" {
		dto.ErrorKind = snap.ErrorKind.String()
	}
	if snap.Current != nil {
		dto.ImageURL = snap.Current.DataURI()
	}
	return dto
}

type generateRequest struct {
	Facets       *preview.Facets `json:"facets,omitempty"`
	Prompt       *string         `json:"prompt,omitempty"`
	RefinePrompt *string         `json:"refinePrompt,omitempty"`
	ReferenceURL *string         `json:"referenceUrl,omitempty"`
}

// Generate applies the submitted selections and runs one generation cycle.
// Provider failures come back as a 200 with the session's Error state; only
// guard violations and bad input are HTTP errors.
func (h *PreviewHandler) Generate(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}
	var req generateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s := app.Preview
	if req.Facets != nil {
		if err := s.Configure(*req.Facets); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Prompt != nil {
		s.SetPrompt(*req.Prompt)
	}
	if req.RefinePrompt != nil {
		s.SetRefinePrompt(*req.RefinePrompt)
	}
	if req.ReferenceURL != nil {
		s.SetReferenceURL(*req.ReferenceURL)
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	tier := string(s.Snapshot().Facets.Tier)
	err := s.Generate(ctx)
	switch {
	case errors.Is(err, preview.ErrBusy):
		writeError(w, http.StatusConflict, "a generation is already in flight")
		return
	case errors.Is(err, preview.ErrNothingToGenerate):
		writeError(w, http.StatusBadRequest, "prompt or reference image required")
		return
	case err != nil:
		metrics.Generation(tier, "error")
	default:
		metrics.Generation(tier, "success")
	}
	writeJSON(w, http.StatusOK, previewState(s))
}

type refineRequest struct {
	On bool `json:"on"`
}

func (h *PreviewHandler) ToggleRefine(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}
	var req refineRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := app.Preview.ToggleRefine(req.On); err != nil {
		writeError(w, http.StatusConflict, "no result to refine yet")
		return
	}
	writeJSON(w, http.StatusOK, previewState(app.Preview))
}

type restoreRequest struct {
	ItemID string `json:"itemId"`
}

func (h *PreviewHandler) Restore(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}
	var req restoreRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := app.Preview.Restore(req.ItemID); err != nil {
		writeError(w, http.StatusNotFound, "history item not found")
		return
	}
	writeJSON(w, http.StatusOK, previewState(app.Preview))
}

type historyItemDTO struct {
	ID        string         `json:"id"`
	Seq       int            `json:"seq"`
	ImageURL  string         `json:"imageUrl"`
	Prompt    string         `json:"prompt"`
	Facets    preview.Facets `json:"facets"`
	CreatedAt time.Time      `json:"createdAt"`
}

func (h *PreviewHandler) History(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}
	items := app.Preview.History()
	out := make([]historyItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, historyItemDTO{
			ID:        item.ID,
			Seq:       item.Seq,
			ImageURL:  item.Image.DataURI(),
			Prompt:    item.Prompt,
			Facets:    item.Facets,
			CreatedAt: item.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// Image serves the raw bytes of one gallery entry, the server-side
// counterpart of the download button.
func (h *PreviewHandler) Image(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}
	item, found := app.Preview.Item(chi.URLParam(r, "itemID"))
	if !found {
		writeError(w, http.StatusNotFound, "history item not found")
		return
	}
	w.Header().Set("Content-Type", item.Image.MIMEType)
	w.Header().Set("Content-Disposition", `attachment; filename="ucraft-preview.png"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(item.Image.Data)
}

func (h *PreviewHandler) app(w http.ResponseWriter, r *http.Request) (*session.App, bool) {
	app, ok := h.reg.Get(chi.URLParam(r, "sessionID"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return app, true
}
