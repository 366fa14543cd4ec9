package postgres

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/skillproof/internal/domain"
)

// CandidateRepo persists candidates registered on a test link.
type CandidateRepo struct{ Pool PgxPool }

func NewCandidateRepo(p PgxPool) *CandidateRepo { return &CandidateRepo{Pool: p} }

const candidateColumns = `id, test_link_id, name, email, phone, level_source, inferred_level,
	inferred_level_confidence, level_assessed_at, session_id, created_at`

func scanCandidate(row pgx.Row) (domain.Candidate, error) {
	var c domain.Candidate
	err := row.Scan(&c.ID, &c.TestLinkID, &c.Name, &c.Email, &c.Phone, &c.LevelSource, &c.InferredLevel,
		&c.InferredLevelConfidence, &c.LevelAssessedAt, &c.SessionID, &c.CreatedAt)
	return c, err
}

func (r *CandidateRepo) Create(ctx domain.Context, c domain.Candidate) (domain.Candidate, error) {
	ctx, span := otel.Tracer("repo.candidates").Start(ctx, "candidates.Create")
	defer span.End()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now().UTC()
	q := `INSERT INTO candidates (` + candidateColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_, err := r.Pool.Exec(ctx, q, c.ID, c.TestLinkID, c.Name, c.Email, c.Phone, c.LevelSource, c.InferredLevel,
		c.InferredLevelConfidence, c.LevelAssessedAt, c.SessionID, c.CreatedAt)
	if err != nil {
		return domain.Candidate{}, mapErr("candidate.create", err)
	}
	return c, nil
}

func (r *CandidateRepo) Get(ctx domain.Context, id string) (domain.Candidate, error) {
	ctx, span := otel.Tracer("repo.candidates").Start(ctx, "candidates.Get")
	defer span.End()
	c, err := scanCandidate(r.Pool.QueryRow(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE id=$1`, id))
	if err != nil {
		return domain.Candidate{}, mapErr("candidate.get", err)
	}
	return c, nil
}

func (r *CandidateRepo) GetBySessionID(ctx domain.Context, sessionID string) (domain.Candidate, error) {
	ctx, span := otel.Tracer("repo.candidates").Start(ctx, "candidates.GetBySessionID")
	defer span.End()
	c, err := scanCandidate(r.Pool.QueryRow(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE session_id=$1`, sessionID))
	if err != nil {
		return domain.Candidate{}, mapErr("candidate.get_by_session", err)
	}
	return c, nil
}

// SetInferredLevel records the level once. The level_assessed_at guard makes
// a second write a conflict even under concurrent requests.
func (r *CandidateRepo) SetInferredLevel(ctx domain.Context, id string, source domain.LevelSource, level domain.SkillLevel, confidence domain.ConfidenceLevel, at time.Time) error {
	ctx, span := otel.Tracer("repo.candidates").Start(ctx, "candidates.SetInferredLevel")
	defer span.End()
	q := `UPDATE candidates SET level_source=$2, inferred_level=$3, inferred_level_confidence=$4, level_assessed_at=$5
		WHERE id=$1 AND level_assessed_at IS NULL`
	tag, err := r.Pool.Exec(ctx, q, id, source, level, confidence, at)
	if err != nil {
		return mapErr("candidate.set_level", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=candidate.set_level: %w: skill level already assessed", domain.ErrConflict)
	}
	return nil
}
