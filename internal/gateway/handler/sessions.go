package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ucraft/internal/gateway/session"
	"ucraft/internal/view"
)

// SessionHandler exposes the app-session lifecycle and the navigation stack.
type SessionHandler struct {
	reg *session.Registry
}

func NewSessionHandler(reg *session.Registry) *SessionHandler {
	return &SessionHandler{reg: reg}
}

type sessionStateDTO struct {
	ID          string      `json:"id"`
	CurrentView view.View   `json:"currentView"`
	History     []view.View `json:"history"`
}

func sessionState(app *session.App) sessionStateDTO {
	return sessionStateDTO{
		ID:          app.ID,
		CurrentView: app.Router.Current(),
		History:     app.Router.History(),
	}
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	app := h.reg.Create()
	writeJSON(w, http.StatusCreated, sessionState(app))
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, struct {
		sessionStateDTO
		Preview previewStateDTO `json:"preview"`
	}{sessionState(app), previewState(app.Preview)})
}

type navigateRequest struct {
	View view.View `json:"view"`
}

func (h *SessionHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}
	var req navigateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.View.Valid() {
		writeError(w, http.StatusBadRequest, "unknown view")
		return
	}
	app.Router.Navigate(req.View)
	writeJSON(w, http.StatusOK, sessionState(app))
}

func (h *SessionHandler) Back(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}
	app.Router.GoBack()
	writeJSON(w, http.StatusOK, sessionState(app))
}

func (h *SessionHandler) app(w http.ResponseWriter, r *http.Request) (*session.App, bool) {
	id := chi.URLParam(r, "sessionID")
	app, ok := h.reg.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return app, true
}
