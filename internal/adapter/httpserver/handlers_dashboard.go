package httpserver

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fairyhunter13/skillproof/internal/domain"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// reportFilter reads dashboard filters from the query string.
func reportFilter(r *http.Request) (domain.ReportFilter, error) {
	q := r.URL.Query()
	f := domain.ReportFilter{
		HRUserID:             HRUserID(r.Context()),
		JobPositionID:        q.Get("jobPositionId"),
		SkillLevel:           domain.SkillLevel(q.Get("skillLevel")),
		IntegrityStatus:      domain.IntegrityStatus(q.Get("integrityStatus")),
		ConfidenceAssessment: domain.ConfidenceInsight(q.Get("confidenceAssessment")),
	}
	if f.SkillLevel != "" && !f.SkillLevel.Valid() {
		return f, fmt.Errorf("%w: unknown skillLevel %q", domain.ErrInvalidArgument, f.SkillLevel)
	}
	for _, p := range []struct {
		name string
		dst  *int
		max  int
	}{{"page", &f.Page, 0}, {"limit", &f.Limit, 100}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || (p.max > 0 && n > p.max) {
			return f, fmt.Errorf("%w: invalid %s %q", domain.ErrInvalidArgument, p.name, raw)
		}
		*p.dst = n
	}
	return f, nil
}

func (s *Server) ListReportsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := reportFilter(r)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		page, err := s.Dashboard.ListReports(r.Context(), f)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		if page.Items == nil {
			page.Items = []domain.SkillProofReport{}
		}
		writeJSON(w, http.StatusOK, page)
	}
}

// ExportReportsHandler streams the filtered reports as an .xlsx attachment.
func (s *Server) ExportReportsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := reportFilter(r)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		data, err := s.Dashboard.ExportReports(r.Context(), f)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="skillproof-reports.xlsx"`)
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

func (s *Server) ReportDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.Dashboard.ReportDetail(r.Context(), HRUserID(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, reportDetailView{
			Report:     d.Report,
			Evaluation: d.Evaluation.Evaluation,
			Metrics:    d.Evaluation.BehaviorMetrics,
			Session:    toSessionView(d.Session),
			Answer:     d.Session.CandidateAnswer,
			PseudoCode: d.Session.PseudoCode,
		})
	}
}

func (s *Server) ListSubmissionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subs, err := s.Dashboard.ListSubmissions(r.Context(), HRUserID(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		out := make([]submissionView, 0, len(subs))
		for _, sub := range subs {
			out = append(out, submissionView{
				Candidate:      toCandidateView(sub.Candidate),
				SkillSessionID: sub.Session.ID,
				TaskName:       sub.Session.TaskGiven,
				IsSubmitted:    sub.Session.IsSubmitted,
				AttemptCount:   sub.Session.TestAttemptCount,
				SubmittedAt:    sub.Session.SubmittedAt,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": out})
	}
}
