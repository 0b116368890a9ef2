package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	logger "github.com/sirupsen/logrus"
)

// NewRouter wires the artifact API. token guards /api/v1; the purge and
// server-logs routes refuse every request while it is empty.
func NewRouter(token string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestLogger(&chimw.DefaultLogFormatter{Logger: logger.StandardLogger(), NoColor: true}))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.Get("/health", HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RequireToken(token))

		r.Get("/artifacts", ListArtifacts)
		r.Get("/artifacts/download", DownloadArtifacts)
		r.Get("/audit", GetAuditLog)

		r.Group(func(r chi.Router) {
			r.Use(RequireAdminToken(token))
			r.Post("/audit/purge", PurgeAuditLog)
			r.Get("/server-logs", GetServerLogs)
		})
	})

	return r
}
