package handler

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ucraft/internal/leads"
)

// LeadsHandler serves consultation intake and the project portfolio.
// List, read-marking and portfolio mutation require the admin secret.
type LeadsHandler struct {
	svc         *leads.Service
	adminSecret string
}

func NewLeadsHandler(svc *leads.Service, adminSecret string) *LeadsHandler {
	return &LeadsHandler{svc: svc, adminSecret: adminSecret}
}

// Admin wraps a handler with a shared secret check on X-Admin-Secret.
func (h *LeadsHandler) Admin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.adminSecret == "" {
			writeError(w, http.StatusForbidden, "admin access is not configured")
			return
		}
		got := r.Header.Get("X-Admin-Secret")
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.adminSecret)) != 1 {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next(w, r)
	}
}

type consultationRequest struct {
	Name      string   `json:"name"`
	Contact   string   `json:"contact"`
	SpaceType string   `json:"spaceType"`
	Scopes    []string `json:"scopes"`
	Region    string   `json:"region"`
	Size      string   `json:"size"`
	Schedule  string   `json:"schedule"`
	FileName  string   `json:"fileName"`
	Details   string   `json:"details"`
}

func (h *LeadsHandler) SubmitConsultation(w http.ResponseWriter, r *http.Request) {
	var req consultationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.svc.SubmitConsultation(r.Context(), leads.Consultation{
		Name:      req.Name,
		Contact:   req.Contact,
		SpaceType: req.SpaceType,
		Scopes:    req.Scopes,
		Region:    req.Region,
		Size:      req.Size,
		Schedule:  req.Schedule,
		FileName:  req.FileName,
		Details:   req.Details,
	})
	if errors.Is(err, leads.ErrMissingFields) {
		writeError(w, http.StatusBadRequest, "name and contact are required")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save consultation")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *LeadsHandler) ListConsultations(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Consultations(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load consultations")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *LeadsHandler) MarkConsultationRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "consultationID")
	err := h.svc.MarkConsultationRead(r.Context(), id)
	if errors.Is(err, leads.ErrNotFound) {
		writeError(w, http.StatusNotFound, "consultation not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update consultation")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "read"})
}

type projectRequest struct {
	Title       string   `json:"title"`
	Type        string   `json:"type"`
	Image       string   `json:"image"`
	Scope       string   `json:"scope"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	IconType    string   `json:"iconType"`
}

func (h *LeadsHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Projects(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load projects")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *LeadsHandler) AddProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.AddProject(r.Context(), leads.Project{
		Title:       req.Title,
		Type:        req.Type,
		Image:       req.Image,
		Scope:       req.Scope,
		Description: req.Description,
		Tags:        req.Tags,
		IconType:    req.IconType,
	})
	if errors.Is(err, leads.ErrMissingFields) {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save project")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *LeadsHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")
	var req projectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p := leads.Project{
		ID:          id,
		Title:       req.Title,
		Type:        req.Type,
		Image:       req.Image,
		Scope:       req.Scope,
		Description: req.Description,
		Tags:        req.Tags,
		IconType:    req.IconType,
	}
	err := h.svc.UpdateProject(r.Context(), p)
	if errors.Is(err, leads.ErrNotFound) {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update project")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *LeadsHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")
	err := h.svc.DeleteProject(r.Context(), id)
	if errors.Is(err, leads.ErrNotFound) {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete project")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
