package postgres

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/skillproof/internal/domain"
)

// ReportRepo stores the denormalized report rows read by the HR dashboard.
type ReportRepo struct{ Pool PgxPool }

func NewReportRepo(p PgxPool) *ReportRepo { return &ReportRepo{Pool: p} }

const reportColumns = `r.id, r.candidate_id, r.skill_session_id, r.test_link_id, r.job_position_id, r.candidate_name,
	r.candidate_email, r.job_title, r.inferred_skill_level, r.task_given, r.answer_summary,
	r.evaluation_verdict_plain_english, r.strengths, r.weaknesses, r.thinking_insight, r.time_and_behavior_insight,
	r.integrity_status, r.confidence_assessment, r.snapshots, r.report_generated_at`

func scanReport(row pgx.Row) (domain.SkillProofReport, error) {
	var r domain.SkillProofReport
	err := row.Scan(&r.ID, &r.CandidateID, &r.SkillSessionID, &r.TestLinkID, &r.JobPositionID, &r.CandidateName,
		&r.CandidateEmail, &r.JobTitle, &r.InferredSkillLevel, &r.TaskGiven, &r.AnswerSummary,
		&r.EvaluationVerdictPlainEnglish, &r.Strengths, &r.Weaknesses, &r.ThinkingInsight, &r.TimeAndBehaviorInsight,
		&r.IntegrityStatus, &r.ConfidenceAssessment, &r.Snapshots, &r.ReportGeneratedAt)
	return r, err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (r *ReportRepo) Create(ctx domain.Context, rep domain.SkillProofReport) (domain.SkillProofReport, error) {
	ctx, span := otel.Tracer("repo.reports").Start(ctx, "reports.Create")
	defer span.End()
	if rep.ID == "" {
		rep.ID = uuid.NewString()
	}
	rep.Strengths, rep.Weaknesses, rep.Snapshots = nonNil(rep.Strengths), nonNil(rep.Weaknesses), nonNil(rep.Snapshots)
	q := `INSERT INTO skillproof_reports (` + strings.ReplaceAll(reportColumns, "r.", "") + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`
	_, err := r.Pool.Exec(ctx, q, rep.ID, rep.CandidateID, rep.SkillSessionID, rep.TestLinkID, rep.JobPositionID, rep.CandidateName,
		rep.CandidateEmail, rep.JobTitle, rep.InferredSkillLevel, rep.TaskGiven, rep.AnswerSummary,
		rep.EvaluationVerdictPlainEnglish, rep.Strengths, rep.Weaknesses, rep.ThinkingInsight, rep.TimeAndBehaviorInsight,
		rep.IntegrityStatus, rep.ConfidenceAssessment, rep.Snapshots, rep.ReportGeneratedAt)
	if err != nil {
		return domain.SkillProofReport{}, mapErr("report.create", err)
	}
	return rep, nil
}

func (r *ReportRepo) Get(ctx domain.Context, id string) (domain.SkillProofReport, error) {
	ctx, span := otel.Tracer("repo.reports").Start(ctx, "reports.Get")
	defer span.End()
	rep, err := scanReport(r.Pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM skillproof_reports r WHERE r.id=$1`, id))
	if err != nil {
		return domain.SkillProofReport{}, mapErr("report.get", err)
	}
	return rep, nil
}

// List pages through reports belonging to jobs owned by f.HRUserID,
// newest first. Page and Limit are expected to be normalized by the caller.
func (r *ReportRepo) List(ctx domain.Context, f domain.ReportFilter) (domain.ReportPage, error) {
	ctx, span := otel.Tracer("repo.reports").Start(ctx, "reports.List")
	defer span.End()

	where := []string{"j.hr_user_id = $1"}
	args := []any{f.HRUserID}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, cond+" = $"+strconv.Itoa(len(args)))
	}
	if f.JobPositionID != "" {
		add("r.job_position_id", f.JobPositionID)
	}
	if f.SkillLevel != "" {
		add("r.inferred_skill_level", f.SkillLevel)
	}
	if f.IntegrityStatus != "" {
		add("r.integrity_status", f.IntegrityStatus)
	}
	if f.ConfidenceAssessment != "" {
		add("r.confidence_assessment", f.ConfidenceAssessment)
	}
	from := ` FROM skillproof_reports r JOIN job_positions j ON j.id = r.job_position_id WHERE ` + strings.Join(where, " AND ")

	var total int
	if err := r.Pool.QueryRow(ctx, `SELECT count(*)`+from, args...).Scan(&total); err != nil {
		return domain.ReportPage{}, mapErr("report.count", err)
	}

	limit, page := f.Limit, f.Page
	if limit <= 0 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)
	q := `SELECT ` + reportColumns + from + ` ORDER BY r.report_generated_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	rows, err := r.Pool.Query(ctx, q, args...)
	if err != nil {
		return domain.ReportPage{}, mapErr("report.list", err)
	}
	defer rows.Close()
	items := []domain.SkillProofReport{}
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return domain.ReportPage{}, mapErr("report.list", err)
		}
		items = append(items, rep)
	}
	if err := rows.Err(); err != nil {
		return domain.ReportPage{}, mapErr("report.list", err)
	}
	return domain.ReportPage{Items: items, Total: total, Page: page, Limit: limit}, nil
}
