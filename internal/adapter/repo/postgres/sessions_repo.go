package postgres

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/skillproof/internal/domain"
)

// SkillSessionRepo persists candidate sessions. The unique session_id and
// the conditional submit update are what serialize concurrent requests.
type SkillSessionRepo struct{ Pool PgxPool }

func NewSkillSessionRepo(p PgxPool) *SkillSessionRepo { return &SkillSessionRepo{Pool: p} }

const sessionColumns = `id, test_link_id, candidate_id, session_id, task_given, task_description, inferred_level,
	candidate_answer, pseudo_code, snapshots, is_submitted, test_attempt_count, submitted_at, created_at`

func scanSession(row pgx.Row) (domain.SkillSession, error) {
	var s domain.SkillSession
	err := row.Scan(&s.ID, &s.TestLinkID, &s.CandidateID, &s.SessionID, &s.TaskGiven, &s.TaskDescription, &s.InferredLevel,
		&s.CandidateAnswer, &s.PseudoCode, &s.Snapshots, &s.IsSubmitted, &s.TestAttemptCount, &s.SubmittedAt, &s.CreatedAt)
	return s, err
}

func (r *SkillSessionRepo) Create(ctx domain.Context, s domain.SkillSession) (domain.SkillSession, error) {
	ctx, span := otel.Tracer("repo.skill_sessions").Start(ctx, "skill_sessions.Create")
	defer span.End()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.CreatedAt = time.Now().UTC()
	if s.Snapshots == nil {
		s.Snapshots = []string{}
	}
	q := `INSERT INTO skill_sessions (` + sessionColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`
	_, err := r.Pool.Exec(ctx, q, s.ID, s.TestLinkID, s.CandidateID, s.SessionID, s.TaskGiven, s.TaskDescription, s.InferredLevel,
		s.CandidateAnswer, s.PseudoCode, s.Snapshots, s.IsSubmitted, s.TestAttemptCount, s.SubmittedAt, s.CreatedAt)
	if err != nil {
		return domain.SkillSession{}, mapErr("skill_session.create", err)
	}
	return s, nil
}

func (r *SkillSessionRepo) Get(ctx domain.Context, id string) (domain.SkillSession, error) {
	ctx, span := otel.Tracer("repo.skill_sessions").Start(ctx, "skill_sessions.Get")
	defer span.End()
	s, err := scanSession(r.Pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM skill_sessions WHERE id=$1`, id))
	if err != nil {
		return domain.SkillSession{}, mapErr("skill_session.get", err)
	}
	return s, nil
}

func (r *SkillSessionRepo) GetBySessionID(ctx domain.Context, sessionID string) (domain.SkillSession, error) {
	ctx, span := otel.Tracer("repo.skill_sessions").Start(ctx, "skill_sessions.GetBySessionID")
	defer span.End()
	s, err := scanSession(r.Pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM skill_sessions WHERE session_id=$1`, sessionID))
	if err != nil {
		return domain.SkillSession{}, mapErr("skill_session.get_by_session", err)
	}
	return s, nil
}

func (r *SkillSessionRepo) GetByCandidateAndLink(ctx domain.Context, candidateID, testLinkID string) (domain.SkillSession, error) {
	ctx, span := otel.Tracer("repo.skill_sessions").Start(ctx, "skill_sessions.GetByCandidateAndLink")
	defer span.End()
	q := `SELECT ` + sessionColumns + ` FROM skill_sessions WHERE candidate_id=$1 AND test_link_id=$2`
	s, err := scanSession(r.Pool.QueryRow(ctx, q, candidateID, testLinkID))
	if err != nil {
		return domain.SkillSession{}, mapErr("skill_session.get_by_candidate", err)
	}
	return s, nil
}

func (r *SkillSessionRepo) IncrementAttempt(ctx domain.Context, id string) error {
	ctx, span := otel.Tracer("repo.skill_sessions").Start(ctx, "skill_sessions.IncrementAttempt")
	defer span.End()
	tag, err := r.Pool.Exec(ctx, `UPDATE skill_sessions SET test_attempt_count = test_attempt_count + 1 WHERE id=$1`, id)
	if err != nil {
		return mapErr("skill_session.increment_attempt", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=skill_session.increment_attempt: %w", domain.ErrNotFound)
	}
	return nil
}

// MarkSubmitted flips is_submitted exactly once; the losing writer of a
// race sees zero affected rows.
func (r *SkillSessionRepo) MarkSubmitted(ctx domain.Context, id string, a domain.Answer, at time.Time) error {
	ctx, span := otel.Tracer("repo.skill_sessions").Start(ctx, "skill_sessions.MarkSubmitted")
	defer span.End()
	snaps := a.Snapshots
	if snaps == nil {
		snaps = []string{}
	}
	q := `UPDATE skill_sessions SET is_submitted=true, candidate_answer=$2, pseudo_code=$3, snapshots=$4, submitted_at=$5
		WHERE id=$1 AND is_submitted=false`
	tag, err := r.Pool.Exec(ctx, q, id, a.Explanation, a.PseudoCode, snaps, at)
	if err != nil {
		return mapErr("skill_session.mark_submitted", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=skill_session.mark_submitted: %w", domain.ErrAlreadySubmitted)
	}
	return nil
}

func (r *SkillSessionRepo) ListSubmissionsByJob(ctx domain.Context, jobPositionID string) ([]domain.Submission, error) {
	ctx, span := otel.Tracer("repo.skill_sessions").Start(ctx, "skill_sessions.ListSubmissionsByJob")
	defer span.End()
	q := `SELECT s.id, s.test_link_id, s.candidate_id, s.session_id, s.task_given, s.task_description, s.inferred_level,
			s.candidate_answer, s.pseudo_code, s.snapshots, s.is_submitted, s.test_attempt_count, s.submitted_at, s.created_at,
			c.id, c.test_link_id, c.name, c.email, c.phone, c.level_source, c.inferred_level,
			c.inferred_level_confidence, c.level_assessed_at, c.session_id, c.created_at
		FROM skill_sessions s
		JOIN candidates c ON c.id = s.candidate_id
		JOIN test_links l ON l.id = s.test_link_id
		WHERE l.job_position_id=$1
		ORDER BY s.created_at DESC`
	rows, err := r.Pool.Query(ctx, q, jobPositionID)
	if err != nil {
		return nil, mapErr("skill_session.list_submissions", err)
	}
	defer rows.Close()
	out := []domain.Submission{}
	for rows.Next() {
		var sub domain.Submission
		s, c := &sub.Session, &sub.Candidate
		if err := rows.Scan(&s.ID, &s.TestLinkID, &s.CandidateID, &s.SessionID, &s.TaskGiven, &s.TaskDescription, &s.InferredLevel,
			&s.CandidateAnswer, &s.PseudoCode, &s.Snapshots, &s.IsSubmitted, &s.TestAttemptCount, &s.SubmittedAt, &s.CreatedAt,
			&c.ID, &c.TestLinkID, &c.Name, &c.Email, &c.Phone, &c.LevelSource, &c.InferredLevel,
			&c.InferredLevelConfidence, &c.LevelAssessedAt, &c.SessionID, &c.CreatedAt); err != nil {
			return nil, mapErr("skill_session.list_submissions", err)
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("skill_session.list_submissions", err)
	}
	return out, nil
}
