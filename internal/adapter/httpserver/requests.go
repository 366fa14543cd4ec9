package httpserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/skillproof/internal/domain"
)

const maxJSONBody = 1 << 20

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New(validator.WithRequiredStructEnabled()) })
	return vld
}

type registerHRRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Company  string `json:"company" validate:"max=200"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type jobRequest struct {
	Title           string   `json:"title" validate:"required,max=200"`
	RequiredSkills  []string `json:"requiredSkills" validate:"required,min=1,max=50,dive,required,max=100"`
	ExperienceLevel string   `json:"experienceLevel" validate:"omitempty,oneof=Beginner Intermediate Experienced"`
	Description     string   `json:"description" validate:"max=10000"`
}

func (j jobRequest) toDomain() domain.JobPosition {
	return domain.JobPosition{
		Title: strings.TrimSpace(j.Title), RequiredSkills: j.RequiredSkills,
		ExperienceLevel: domain.SkillLevel(j.ExperienceLevel), Description: j.Description,
	}
}

type issueLinkRequest struct {
	ExpiryDays int `json:"expiryDays" validate:"gte=0,lte=365"`
}

type registerCandidateRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"max=50"`
}

type manualSkillsRequest struct {
	Skills     []string `json:"skills" validate:"required,min=1,max=50,dive,required,max=100"`
	Experience string   `json:"experience" validate:"max=10000"`
	Projects   string   `json:"projects" validate:"max=10000"`
}

type requestTaskRequest struct {
	SessionID string `json:"sessionId" validate:"required"`
}

type integrityEventRequest struct {
	Type      string    `json:"type" validate:"required"`
	Timestamp time.Time `json:"timestamp"`
}

type answerRequest struct {
	Explanation string                 `json:"explanation" validate:"required,max=50000"`
	PseudoCode  string                 `json:"pseudoCode" validate:"max=50000"`
	Snapshots   []string               `json:"snapshots" validate:"max=100"`
	Metrics     domain.BehaviorMetrics `json:"behaviorMetrics"`
}

// decodeJSON reads a bounded JSON body into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return fmt.Errorf("%w: content-type must be application/json", domain.ErrInvalidArgument)
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return fmt.Errorf("%w: empty body", domain.ErrInvalidArgument)
		}
		return fmt.Errorf("%w: invalid json: %v", domain.ErrInvalidArgument, err)
	}
	if err := getValidator().Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	return nil
}
