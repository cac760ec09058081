package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ucraft/internal/gateway/handler"
	"ucraft/internal/gateway/middleware"
	"ucraft/internal/metrics"
)

// Handlers carries everything the route table mounts.
type Handlers struct {
	Sessions *handler.SessionHandler
	Preview  *handler.PreviewHandler
	Chat     *handler.ChatHandler
	Proxy    *handler.ProxyHandler
	Leads    *handler.LeadsHandler
}

func NewRouter(h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Throttle(256))
	r.Use(middleware.CORS)
	r.Use(metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/sessions", h.Sessions.Create)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", h.Sessions.Get)
			r.Post("/navigate", h.Sessions.Navigate)
			r.Post("/back", h.Sessions.Back)

			r.Route("/preview", func(r chi.Router) {
				r.Post("/generate", h.Preview.Generate)
				r.Post("/refine", h.Preview.ToggleRefine)
				r.Post("/restore", h.Preview.Restore)
				r.Get("/history", h.Preview.History)
				r.Get("/history/{itemID}/image", h.Preview.Image)
			})
		})

		r.Get("/preview/catalog", h.Preview.Catalog)

		r.HandleFunc("/gemini", h.Proxy.Handle)

		r.Post("/consultations", h.Leads.SubmitConsultation)
		r.Get("/consultations", h.Leads.Admin(h.Leads.ListConsultations))
		r.Post("/consultations/{consultationID}/read", h.Leads.Admin(h.Leads.MarkConsultationRead))

		r.Get("/projects", h.Leads.ListProjects)
		r.Post("/projects", h.Leads.Admin(h.Leads.AddProject))
		r.Put("/projects/{projectID}", h.Leads.Admin(h.Leads.UpdateProject))
		r.Delete("/projects/{projectID}", h.Leads.Admin(h.Leads.DeleteProject))
	})

	r.Get("/ws/chat", h.Chat.Handle)

	return r
}
