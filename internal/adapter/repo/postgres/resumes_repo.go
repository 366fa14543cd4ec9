package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/skillproof/internal/domain"
)

// ResumeAnalysisRepo stores the extracted resume and its assessment.
type ResumeAnalysisRepo struct{ Pool PgxPool }

func NewResumeAnalysisRepo(p PgxPool) *ResumeAnalysisRepo { return &ResumeAnalysisRepo{Pool: p} }

func (r *ResumeAnalysisRepo) Create(ctx domain.Context, a domain.ResumeAnalysis) (domain.ResumeAnalysis, error) {
	ctx, span := otel.Tracer("repo.resume_analyses").Start(ctx, "resume_analyses.Create")
	defer span.End()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = time.Now().UTC()
	analysis, err := json.Marshal(a.Analysis)
	if err != nil {
		return domain.ResumeAnalysis{}, fmt.Errorf("op=resume_analysis.create: %w", err)
	}
	q := `INSERT INTO resume_analyses (id, candidate_id, file_name, file_type, raw_text, analysis, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`
	if _, err := r.Pool.Exec(ctx, q, a.ID, a.CandidateID, a.FileName, a.FileType, a.RawText, analysis, a.CreatedAt); err != nil {
		return domain.ResumeAnalysis{}, mapErr("resume_analysis.create", err)
	}
	return a, nil
}

func (r *ResumeAnalysisRepo) GetByCandidate(ctx domain.Context, candidateID string) (domain.ResumeAnalysis, error) {
	ctx, span := otel.Tracer("repo.resume_analyses").Start(ctx, "resume_analyses.GetByCandidate")
	defer span.End()
	q := `SELECT id, candidate_id, file_name, file_type, raw_text, analysis, created_at FROM resume_analyses WHERE candidate_id=$1`
	var a domain.ResumeAnalysis
	var analysis []byte
	if err := r.Pool.QueryRow(ctx, q, candidateID).Scan(&a.ID, &a.CandidateID, &a.FileName, &a.FileType, &a.RawText, &analysis, &a.CreatedAt); err != nil {
		return domain.ResumeAnalysis{}, mapErr("resume_analysis.get", err)
	}
	if err := json.Unmarshal(analysis, &a.Analysis); err != nil {
		return domain.ResumeAnalysis{}, fmt.Errorf("op=resume_analysis.get: decode analysis: %w", err)
	}
	return a, nil
}
