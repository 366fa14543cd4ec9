// Package app assembles the HTTP router and dependency checks.
package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpserver "github.com/fairyhunter13/skillproof/internal/adapter/httpserver"
	"github.com/fairyhunter13/skillproof/internal/adapter/observability"
	"github.com/fairyhunter13/skillproof/internal/config"
)

// ParseOrigins splits a comma-separated origin list into a slice, trimming spaces.
// If the input is empty, returns ["*"].
func ParseOrigins(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// BuildRouter constructs the HTTP handler with all middlewares and routes.
func BuildRouter(cfg config.Config, srv *httpserver.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(httpserver.Recoverer())
	r.Use(httpserver.RequestID())
	r.Use(httpserver.TraceMiddleware)
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ParseOrigins(cfg.CORSAllowOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", srv.HealthzHandler())
	r.Get("/readyz", srv.ReadyzHandler())
	r.Handle("/metrics", promhttp.Handler())

	limit := rateLimit(cfg)
	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(httpserver.TimeoutMiddleware(requestTimeout(cfg)))

		v1.Group(func(pub chi.Router) {
			pub.Use(httprate.LimitByIP(limit, time.Minute))
			pub.Post("/auth/register", srv.RegisterHRHandler())
			pub.Post("/auth/login", srv.LoginHandler())
		})

		v1.Group(func(hr chi.Router) {
			hr.Use(httpserver.RequireHR(srv.Tokens))
			hr.Get("/jobs", srv.ListJobsHandler())
			hr.Post("/jobs", srv.CreateJobHandler())
			hr.Get("/jobs/{id}", srv.GetJobHandler())
			hr.Put("/jobs/{id}", srv.UpdateJobHandler())
			hr.Delete("/jobs/{id}", srv.DeleteJobHandler())
			hr.Post("/jobs/{id}/links", srv.IssueLinkHandler())
			hr.Get("/jobs/{id}/links", srv.ListLinksHandler())
			hr.Delete("/links/{id}", srv.RevokeLinkHandler())
			hr.Get("/dashboard/reports", srv.ListReportsHandler())
			hr.Get("/dashboard/reports/export", srv.ExportReportsHandler())
			hr.Get("/dashboard/reports/{id}", srv.ReportDetailHandler())
			hr.Get("/dashboard/jobs/{id}/submissions", srv.ListSubmissionsHandler())
		})

		v1.Route("/tests/{token}", func(t chi.Router) {
			t.Get("/", srv.TestInfoHandler())
			t.Get("/sessions/{id}", srv.GetSessionHandler())
			// Integrity telemetry is high-volume and stays outside the per-IP limit.
			t.Post("/sessions/{id}/events", srv.RecordEventHandler())
			t.Group(func(mut chi.Router) {
				mut.Use(httprate.LimitByIP(limit, time.Minute))
				mut.Post("/candidates", srv.RegisterCandidateHandler())
				mut.Post("/candidates/{sessionId}/resume", srv.SubmitResumeHandler())
				mut.Post("/candidates/{sessionId}/manual", srv.SubmitManualHandler())
				mut.Post("/task", srv.RequestTaskHandler())
				mut.Post("/sessions/{id}/answer", srv.SubmitAnswerHandler())
			})
		})
	})

	return httpserver.SecurityHeaders(r)
}

func rateLimit(cfg config.Config) int {
	if cfg.RateLimitPerMin > 0 {
		return cfg.RateLimitPerMin
	}
	return 30
}

func requestTimeout(cfg config.Config) time.Duration {
	if cfg.RequestTimeout > 0 {
		return cfg.RequestTimeout
	}
	return 30 * time.Second
}
