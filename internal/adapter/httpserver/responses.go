// Package httpserver contains HTTP handlers and middleware for the HR
// dashboard API and the candidate assessment flow.
package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/fairyhunter13/skillproof/internal/domain"
	"github.com/fairyhunter13/skillproof/internal/usecase"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors onto HTTP status and envelope codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE"
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, "INVALID_ARGUMENT"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED"
	case errors.Is(err, domain.ErrSchemaInvalid):
		return http.StatusInternalServerError, "SCHEMA_INVALID"
	case errors.Is(err, domain.ErrExtractionFailed):
		return http.StatusInternalServerError, "EXTRACTION_FAILED"
	}
	return http.StatusInternalServerError, "INTERNAL"
}

func writeError(w http.ResponseWriter, r *http.Request, err error, details any) {
	status, code := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		LoggerFrom(r).Error("request failed", slog.String("code", code), slog.Any("error", err))
		if code == "INTERNAL" {
			msg = http.StatusText(status)
		}
	}
	writeJSON(w, status, errorEnvelope{Error: apiError{Code: code, Message: msg, Details: details}})
}

// JSON views. Domain entities carry no wire tags so the API shape is owned here.

type hrUserView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company,omitempty"`
}

func toHRUserView(u domain.HRUser) hrUserView {
	return hrUserView{ID: u.ID, Name: u.Name, Email: u.Email, Company: u.Company}
}

type sessionTokenView struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      hrUserView `json:"user"`
}

type jobView struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	RequiredSkills  []string          `json:"requiredSkills"`
	ExperienceLevel domain.SkillLevel `json:"experienceLevel"`
	Description     string            `json:"description,omitempty"`
	CreatedAt       *time.Time        `json:"createdAt,omitempty"`
	UpdatedAt       *time.Time        `json:"updatedAt,omitempty"`
}

func toJobView(j domain.JobPosition) jobView {
	v := jobView{
		ID: j.ID, Title: j.Title, RequiredSkills: j.RequiredSkills,
		ExperienceLevel: j.ExperienceLevel, Description: j.Description,
	}
	if v.RequiredSkills == nil {
		v.RequiredSkills = []string{}
	}
	if !j.CreatedAt.IsZero() {
		v.CreatedAt = &j.CreatedAt
	}
	if !j.UpdatedAt.IsZero() {
		v.UpdatedAt = &j.UpdatedAt
	}
	return v
}

type linkView struct {
	ID            string    `json:"id"`
	Token         string    `json:"token"`
	JobPositionID string    `json:"jobPositionId"`
	TestURL       string    `json:"testUrl"`
	ExpiryDate    time.Time `json:"expiryDate"`
	IsExpired     bool      `json:"isExpired"`
}

func toLinkView(l usecase.IssuedLink) linkView {
	return linkView{
		ID: l.ID, Token: l.Token, JobPositionID: l.JobPositionID, TestURL: l.TestURL,
		ExpiryDate: l.ExpiryDate, IsExpired: l.IsExpired,
	}
}

// testInfoView is what a candidate sees when opening a link.
type testInfoView struct {
	Valid      bool      `json:"valid"`
	ExpiryDate time.Time `json:"expiryDate"`
	Job        jobView   `json:"job"`
}

type candidateView struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Email         string             `json:"email"`
	SessionID     string             `json:"sessionId"`
	LevelSource   domain.LevelSource `json:"levelSource,omitempty"`
	InferredLevel domain.SkillLevel  `json:"inferredLevel,omitempty"`
}

func toCandidateView(c domain.Candidate) candidateView {
	v := candidateView{ID: c.ID, Name: c.Name, Email: c.Email, SessionID: c.SessionID}
	if c.LevelAssessedAt != nil {
		v.LevelSource = c.LevelSource
		v.InferredLevel = c.InferredLevel
	}
	return v
}

type sessionView struct {
	ID              string              `json:"id"`
	SessionID       string              `json:"sessionId"`
	State           domain.SessionState `json:"state"`
	TaskName        string              `json:"taskName"`
	TaskDescription string              `json:"taskDescription"`
	Level           domain.SkillLevel   `json:"level"`
	IsSubmitted     bool                `json:"isSubmitted"`
	SubmittedAt     *time.Time          `json:"submittedAt,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
}

func toSessionView(s domain.SkillSession) sessionView {
	return sessionView{
		ID: s.ID, SessionID: s.SessionID, State: s.State(), TaskName: s.TaskGiven,
		TaskDescription: s.TaskDescription, Level: s.InferredLevel, IsSubmitted: s.IsSubmitted,
		SubmittedAt: s.SubmittedAt, CreatedAt: s.CreatedAt,
	}
}

type integrityView struct {
	Status         domain.IntegrityStatus `json:"status"`
	ViolationCount int                    `json:"violationCount"`
	EventCount     int                    `json:"eventCount"`
}

type submissionView struct {
	Candidate      candidateView `json:"candidate"`
	SkillSessionID string        `json:"skillSessionId"`
	TaskName       string        `json:"taskName"`
	IsSubmitted    bool          `json:"isSubmitted"`
	AttemptCount   int           `json:"attemptCount"`
	SubmittedAt    *time.Time    `json:"submittedAt,omitempty"`
}

type reportDetailView struct {
	Report     domain.SkillProofReport `json:"report"`
	Evaluation domain.Evaluation       `json:"evaluation"`
	Metrics    domain.BehaviorMetrics  `json:"behaviorMetrics"`
	Session    sessionView             `json:"session"`
	Answer     string                  `json:"answer"`
	PseudoCode string                  `json:"pseudoCode,omitempty"`
}
