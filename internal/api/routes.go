package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ignite/settlement-desk/internal/pkg/httputil"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if h.health != nil {
		r.Get("/health", h.health.HandleHealth)
		r.Get("/health/live", h.health.HandleLiveness)
		r.Get("/health/ready", h.health.HandleReadiness)
	} else {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			httputil.OK(w, map[string]string{"status": "alive"})
		})
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/reports", func(r chi.Router) {
			r.Get("/presets", h.ListPresets)
			r.Get("/{kind}", h.GetReport)
			r.Get("/{kind}/xlsx", h.DownloadReport)
			r.Post("/{kind}/export", h.ExportReport)
		})

		r.Get("/productivity", h.GetProductivity)

		r.Route("/payments", func(r chi.Router) {
			r.Get("/", h.ListPayments)
			r.Post("/", h.CreatePayment)
			r.Get("/{id}", h.GetPayment)
			r.Put("/{id}", h.EditPayment)
			r.Delete("/{id}", h.DeletePayment)
			r.Post("/{id}/approve", h.ApprovePayment)
		})

		r.Route("/targets", func(r chi.Router) {
			r.Get("/{month}", h.ListTargets)
			r.Get("/{month}/{salesPerson}", h.GetTarget)
			r.Put("/{month}/{salesPerson}", h.SetTargets)
		})
	})

	return r
}
