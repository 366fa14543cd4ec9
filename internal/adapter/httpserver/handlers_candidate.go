package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fairyhunter13/skillproof/internal/domain"
	"github.com/fairyhunter13/skillproof/internal/usecase"
)

// multipartSlack covers form boundaries and headers around the resume part.
const multipartSlack = 64 << 10

// TestInfoHandler validates a link and returns the job summary shown to candidates.
func (s *Server) TestInfoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l, j, err := s.Links.Describe(r.Context(), chi.URLParam(r, "token"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		jv := toJobView(j)
		jv.CreatedAt, jv.UpdatedAt = nil, nil
		writeJSON(w, http.StatusOK, testInfoView{Valid: true, ExpiryDate: l.ExpiryDate, Job: jv})
	}
}

func (s *Server) RegisterCandidateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerCandidateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		c, err := s.Candidates.Register(r.Context(), chi.URLParam(r, "token"), req.Name, req.Email, req.Phone)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, toCandidateView(c))
	}
}

// SubmitResumeHandler accepts a multipart upload in the "resume" field.
func (s *Server) SubmitResumeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		maxBytes := s.Cfg.MaxUploadBytes()
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartSlack)
		if err := r.ParseMultipartForm(maxBytes + multipartSlack); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{
					Code: "PAYLOAD_TOO_LARGE", Message: "payload too large",
					Details: map[string]any{"max_mb": s.Cfg.MaxUploadMB},
				}})
				return
			}
			writeError(w, r, fmt.Errorf("%w: multipart form required: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()
		file, header, err := r.FormFile("resume")
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: resume file required", domain.ErrInvalidArgument), map[string]string{"field": "resume"})
			return
		}
		defer func() { _ = file.Close() }()
		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: read resume: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		a, err := s.Candidates.SubmitResume(r.Context(), chi.URLParam(r, "token"), chi.URLParam(r, "sessionId"), header.Filename, data)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func (s *Server) SubmitManualHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req manualSkillsRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		a, err := s.Candidates.SubmitManual(r.Context(), chi.URLParam(r, "token"), chi.URLParam(r, "sessionId"), req.Skills, req.Experience, req.Projects)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// RequestTaskHandler issues the candidate's task, or returns the one already issued.
func (s *Server) RequestTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req requestTaskRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		sess, err := s.Sessions.RequestTask(r.Context(), chi.URLParam(r, "token"), req.SessionID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, toSessionView(sess))
	}
}

func (s *Server) GetSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.Sessions.GetTask(r.Context(), chi.URLParam(r, "token"), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, toSessionView(sess))
	}
}

func (s *Server) RecordEventHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req integrityEventRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		lg, err := s.Integrity.RecordEvent(r.Context(), chi.URLParam(r, "token"), chi.URLParam(r, "id"),
			domain.IntegrityEventType(req.Type), req.Timestamp)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, integrityView{Status: lg.Status, ViolationCount: lg.ViolationCount, EventCount: len(lg.Events)})
	}
}

// SubmitAnswerHandler records the single submission and runs scoring inline.
func (s *Server) SubmitAnswerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req answerRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		out, err := s.Sessions.SubmitAnswer(r.Context(), chi.URLParam(r, "token"), chi.URLParam(r, "id"), usecase.AnswerInput{
			Explanation: req.Explanation,
			PseudoCode:  req.PseudoCode,
			Snapshots:   req.Snapshots,
			Metrics:     req.Metrics,
		})
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}
