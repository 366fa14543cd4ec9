package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/fairyhunter13/skillproof/internal/config"
	"github.com/fairyhunter13/skillproof/internal/usecase"
)

// ReadinessCheck probes one dependency; nil means ready.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Server aggregates handler dependencies.
type Server struct {
	Cfg        config.Config
	Auth       usecase.AuthService
	Jobs       usecase.JobService
	Links      usecase.LinkService
	Candidates usecase.CandidateService
	Sessions   usecase.SessionService
	Integrity  usecase.IntegrityService
	Dashboard  usecase.DashboardService
	Tokens     TokenParser
	Checks     []ReadinessCheck
}

// HealthzHandler reports liveness.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyzHandler runs every readiness check with a short deadline.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		status := http.StatusOK
		results := make(map[string]string, len(s.Checks))
		for _, c := range s.Checks {
			if err := c.Check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[c.Name] = err.Error()
				continue
			}
			results[c.Name] = "ok"
		}
		writeJSON(w, status, map[string]any{"ready": status == http.StatusOK, "checks": results})
	}
}
