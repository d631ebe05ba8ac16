package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
// An empty allowedOrigins list disables CORS handling.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)

	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Get("/health", h.Health)

		// Protected routes (auth required)
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.apiKey))

			r.Post("/clients", h.CreateClient)
			r.Get("/clients", h.ListClients)
			r.With(h.ClientScope).Get("/clients/{clientID}", h.GetClient)
			r.With(h.ClientScope).Delete("/clients/{clientID}", h.DeleteClient)

			r.Route("/uploads/{clientID}", func(r chi.Router) {
				r.Use(h.ClientScope)
				r.Post("/", h.Upload)
				r.Get("/history", h.UploadHistory)
				r.Get("/mappings", h.ListMappings)
				r.Post("/mappings", h.SaveMapping)
				r.Get("/{uploadID}/logs", h.UploadLogs)
			})

			r.Route("/stats/{clientID}", func(r chi.Router) {
				r.Use(h.ClientScope)
				r.Get("/", h.Statistics)
				r.Get("/top-posts", h.TopPosts)
				r.Get("/comparison", h.Comparison)
				r.Get("/weekly-trend", h.WeeklyTrend)
				r.Get("/daily-trend", h.DailyTrend)
			})

			r.Route("/kpi/{clientID}", func(r chi.Router) {
				r.Use(h.ClientScope)
				r.Get("/", h.ListKPIs)
				r.Post("/", h.UpsertKPI)
				r.Post("/batch", h.UpsertKPIBatch)
				r.Get("/progress", h.KPIProgress)
				r.Delete("/{kpiID}", h.DeleteKPI)
			})

			r.Route("/reports/{clientID}", func(r chi.Router) {
				r.Use(h.ClientScope)
				r.Get("/", h.ListReports)
				r.Post("/generate", h.GenerateReport)
				r.Get("/{reportID}", h.GetReport)
				r.Delete("/{reportID}", h.DeleteReport)
				r.Get("/{reportID}/download", h.DownloadReport)
			})
		})
	})

	return r
}
