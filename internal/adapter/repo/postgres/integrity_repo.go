package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/skillproof/internal/domain"
)

// IntegrityLogRepo keeps one append-only event log per session.
type IntegrityLogRepo struct{ Pool PgxPool }

func NewIntegrityLogRepo(p PgxPool) *IntegrityLogRepo { return &IntegrityLogRepo{Pool: p} }

const integrityColumns = `id, skill_session_id, candidate_id, test_link_id, events, status, violation_count, created_at`

func scanIntegrity(row pgx.Row) (domain.IntegrityLog, error) {
	var l domain.IntegrityLog
	var events []byte
	if err := row.Scan(&l.ID, &l.SkillSessionID, &l.CandidateID, &l.TestLinkID, &events, &l.Status, &l.ViolationCount, &l.CreatedAt); err != nil {
		return domain.IntegrityLog{}, err
	}
	if err := json.Unmarshal(events, &l.Events); err != nil {
		return domain.IntegrityLog{}, fmt.Errorf("decode events: %w", err)
	}
	return l, nil
}

func (r *IntegrityLogRepo) Create(ctx domain.Context, l domain.IntegrityLog) (domain.IntegrityLog, error) {
	ctx, span := otel.Tracer("repo.integrity_logs").Start(ctx, "integrity_logs.Create")
	defer span.End()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Events == nil {
		l.Events = []domain.IntegrityEvent{}
	}
	if l.Status == "" {
		l.Status = domain.IntegrityClean
	}
	l.CreatedAt = time.Now().UTC()
	events, err := json.Marshal(l.Events)
	if err != nil {
		return domain.IntegrityLog{}, fmt.Errorf("op=integrity_log.create: %w", err)
	}
	q := `INSERT INTO integrity_logs (` + integrityColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	if _, err := r.Pool.Exec(ctx, q, l.ID, l.SkillSessionID, l.CandidateID, l.TestLinkID, events, l.Status, l.ViolationCount, l.CreatedAt); err != nil {
		return domain.IntegrityLog{}, mapErr("integrity_log.create", err)
	}
	return l, nil
}

func (r *IntegrityLogRepo) GetBySession(ctx domain.Context, skillSessionID string) (domain.IntegrityLog, error) {
	ctx, span := otel.Tracer("repo.integrity_logs").Start(ctx, "integrity_logs.GetBySession")
	defer span.End()
	l, err := scanIntegrity(r.Pool.QueryRow(ctx, `SELECT `+integrityColumns+` FROM integrity_logs WHERE skill_session_id=$1`, skillSessionID))
	if err != nil {
		return domain.IntegrityLog{}, mapErr("integrity_log.get", err)
	}
	return l, nil
}

// AppendEvent concatenates in a single statement so concurrent appends
// never drop events.
func (r *IntegrityLogRepo) AppendEvent(ctx domain.Context, skillSessionID string, ev domain.IntegrityEvent) (domain.IntegrityLog, error) {
	ctx, span := otel.Tracer("repo.integrity_logs").Start(ctx, "integrity_logs.AppendEvent")
	defer span.End()
	payload, err := json.Marshal([]domain.IntegrityEvent{ev})
	if err != nil {
		return domain.IntegrityLog{}, fmt.Errorf("op=integrity_log.append: %w", err)
	}
	q := `UPDATE integrity_logs SET events = events || $2::jsonb WHERE skill_session_id=$1 RETURNING ` + integrityColumns
	l, err := scanIntegrity(r.Pool.QueryRow(ctx, q, skillSessionID, payload))
	if err != nil {
		return domain.IntegrityLog{}, mapErr("integrity_log.append", err)
	}
	return l, nil
}

func (r *IntegrityLogRepo) SetStatus(ctx domain.Context, skillSessionID string, status domain.IntegrityStatus, violations int) error {
	ctx, span := otel.Tracer("repo.integrity_logs").Start(ctx, "integrity_logs.SetStatus")
	defer span.End()
	tag, err := r.Pool.Exec(ctx, `UPDATE integrity_logs SET status=$2, violation_count=$3 WHERE skill_session_id=$1`, skillSessionID, status, violations)
	if err != nil {
		return mapErr("integrity_log.set_status", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=integrity_log.set_status: %w", domain.ErrNotFound)
	}
	return nil
}
