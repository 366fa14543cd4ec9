package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/skillproof/internal/domain"
)

type EvaluationResultRepo struct{ Pool PgxPool }

func NewEvaluationResultRepo(p PgxPool) *EvaluationResultRepo { return &EvaluationResultRepo{Pool: p} }

func (r *EvaluationResultRepo) Create(ctx domain.Context, e domain.EvaluationResult) (domain.EvaluationResult, error) {
	ctx, span := otel.Tracer("repo.evaluation_results").Start(ctx, "evaluation_results.Create")
	defer span.End()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	evaluation, err := json.Marshal(e.Evaluation)
	if err != nil {
		return domain.EvaluationResult{}, fmt.Errorf("op=evaluation_result.create: %w", err)
	}
	metrics, err := json.Marshal(e.BehaviorMetrics)
	if err != nil {
		return domain.EvaluationResult{}, fmt.Errorf("op=evaluation_result.create: %w", err)
	}
	q := `INSERT INTO evaluation_results (id, skill_session_id, candidate_id, test_link_id, evaluation, behavior_metrics,
		resume_level_inferred, resume_confidence_level, confidence_insight, evaluated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err = r.Pool.Exec(ctx, q, e.ID, e.SkillSessionID, e.CandidateID, e.TestLinkID, evaluation, metrics,
		e.ResumeLevelInferred, e.ResumeConfidenceLevel, e.ConfidenceInsight, e.EvaluatedAt)
	if err != nil {
		return domain.EvaluationResult{}, mapErr("evaluation_result.create", err)
	}
	return e, nil
}

func (r *EvaluationResultRepo) GetBySession(ctx domain.Context, skillSessionID string) (domain.EvaluationResult, error) {
	ctx, span := otel.Tracer("repo.evaluation_results").Start(ctx, "evaluation_results.GetBySession")
	defer span.End()
	q := `SELECT id, skill_session_id, candidate_id, test_link_id, evaluation, behavior_metrics,
		resume_level_inferred, resume_confidence_level, confidence_insight, evaluated_at
		FROM evaluation_results WHERE skill_session_id=$1`
	var e domain.EvaluationResult
	var evaluation, metrics []byte
	err := r.Pool.QueryRow(ctx, q, skillSessionID).Scan(&e.ID, &e.SkillSessionID, &e.CandidateID, &e.TestLinkID, &evaluation, &metrics,
		&e.ResumeLevelInferred, &e.ResumeConfidenceLevel, &e.ConfidenceInsight, &e.EvaluatedAt)
	if err != nil {
		return domain.EvaluationResult{}, mapErr("evaluation_result.get", err)
	}
	if err := json.Unmarshal(evaluation, &e.Evaluation); err != nil {
		return domain.EvaluationResult{}, fmt.Errorf("op=evaluation_result.get: decode evaluation: %w", err)
	}
	if err := json.Unmarshal(metrics, &e.BehaviorMetrics); err != nil {
		return domain.EvaluationResult{}, fmt.Errorf("op=evaluation_result.get: decode metrics: %w", err)
	}
	return e, nil
}
