package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterHRHandler creates an HR account.
func (s *Server) RegisterHRHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerHRRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		u, err := s.Auth.Register(r.Context(), req.Name, req.Email, req.Password, req.Company)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, toHRUserView(u))
	}
}

// LoginHandler exchanges credentials for a bearer token.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		sess, err := s.Auth.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, sessionTokenView{Token: sess.Token, ExpiresAt: sess.ExpiresAt, User: toHRUserView(sess.User)})
	}
}

func (s *Server) CreateJobHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req jobRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		j, err := s.Jobs.Create(r.Context(), HRUserID(r.Context()), req.toDomain())
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, toJobView(j))
	}
}

func (s *Server) ListJobsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := s.Jobs.List(r.Context(), HRUserID(r.Context()))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		out := make([]jobView, 0, len(jobs))
		for _, j := range jobs {
			out = append(out, toJobView(j))
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": out})
	}
}

func (s *Server) GetJobHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		j, err := s.Jobs.Get(r.Context(), HRUserID(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, toJobView(j))
	}
}

func (s *Server) UpdateJobHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req jobRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		j := req.toDomain()
		j.ID = chi.URLParam(r, "id")
		out, err := s.Jobs.Update(r.Context(), HRUserID(r.Context()), j)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, toJobView(out))
	}
}

func (s *Server) DeleteJobHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Jobs.Delete(r.Context(), HRUserID(r.Context()), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, err, nil)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// IssueLinkHandler creates a test link for a job. An empty body uses the default expiry.
func (s *Server) IssueLinkHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req issueLinkRequest
		if r.ContentLength != 0 {
			if err := decodeJSON(w, r, &req); err != nil {
				writeError(w, r, err, nil)
				return
			}
		}
		l, err := s.Links.Issue(r.Context(), HRUserID(r.Context()), chi.URLParam(r, "id"), req.ExpiryDays)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, toLinkView(l))
	}
}

func (s *Server) ListLinksHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		links, err := s.Links.ListByJob(r.Context(), HRUserID(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		out := make([]linkView, 0, len(links))
		for _, l := range links {
			out = append(out, toLinkView(l))
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": out})
	}
}

func (s *Server) RevokeLinkHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Links.Revoke(r.Context(), HRUserID(r.Context()), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, err, nil)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
