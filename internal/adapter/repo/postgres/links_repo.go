package postgres

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/skillproof/internal/domain"
)

// TestLinkRepo persists test links. Expiry is one-way: no statement here
// ever sets is_expired back to false.
type TestLinkRepo struct{ Pool PgxPool }

func NewTestLinkRepo(p PgxPool) *TestLinkRepo { return &TestLinkRepo{Pool: p} }

const linkColumns = `id, token, job_position_id, issuer_id, expiry_date, is_expired, created_at`

func scanLink(row pgx.Row) (domain.TestLink, error) {
	var l domain.TestLink
	err := row.Scan(&l.ID, &l.Token, &l.JobPositionID, &l.IssuerID, &l.ExpiryDate, &l.IsExpired, &l.CreatedAt)
	return l, err
}

func (r *TestLinkRepo) Create(ctx domain.Context, l domain.TestLink) (domain.TestLink, error) {
	ctx, span := otel.Tracer("repo.test_links").Start(ctx, "test_links.Create")
	defer span.End()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.CreatedAt = time.Now().UTC()
	q := `INSERT INTO test_links (` + linkColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7)`
	if _, err := r.Pool.Exec(ctx, q, l.ID, l.Token, l.JobPositionID, l.IssuerID, l.ExpiryDate, l.IsExpired, l.CreatedAt); err != nil {
		return domain.TestLink{}, mapErr("test_link.create", err)
	}
	return l, nil
}

func (r *TestLinkRepo) Get(ctx domain.Context, id string) (domain.TestLink, error) {
	ctx, span := otel.Tracer("repo.test_links").Start(ctx, "test_links.Get")
	defer span.End()
	l, err := scanLink(r.Pool.QueryRow(ctx, `SELECT `+linkColumns+` FROM test_links WHERE id=$1`, id))
	if err != nil {
		return domain.TestLink{}, mapErr("test_link.get", err)
	}
	return l, nil
}

func (r *TestLinkRepo) FindActiveByToken(ctx domain.Context, token string) (domain.TestLink, error) {
	ctx, span := otel.Tracer("repo.test_links").Start(ctx, "test_links.FindActiveByToken")
	defer span.End()
	l, err := scanLink(r.Pool.QueryRow(ctx, `SELECT `+linkColumns+` FROM test_links WHERE token=$1 AND is_expired=false`, token))
	if err != nil {
		return domain.TestLink{}, mapErr("test_link.find_active", err)
	}
	return l, nil
}

func (r *TestLinkRepo) MarkExpired(ctx domain.Context, id string) error {
	ctx, span := otel.Tracer("repo.test_links").Start(ctx, "test_links.MarkExpired")
	defer span.End()
	if _, err := r.Pool.Exec(ctx, `UPDATE test_links SET is_expired=true WHERE id=$1`, id); err != nil {
		return mapErr("test_link.mark_expired", err)
	}
	return nil
}

func (r *TestLinkRepo) Revoke(ctx domain.Context, issuerID, id string) error {
	ctx, span := otel.Tracer("repo.test_links").Start(ctx, "test_links.Revoke")
	defer span.End()
	tag, err := r.Pool.Exec(ctx, `UPDATE test_links SET is_expired=true WHERE id=$1 AND issuer_id=$2`, id, issuerID)
	if err != nil {
		return mapErr("test_link.revoke", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=test_link.revoke: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *TestLinkRepo) ListByJob(ctx domain.Context, jobPositionID string) ([]domain.TestLink, error) {
	ctx, span := otel.Tracer("repo.test_links").Start(ctx, "test_links.ListByJob")
	defer span.End()
	rows, err := r.Pool.Query(ctx, `SELECT `+linkColumns+` FROM test_links WHERE job_position_id=$1 ORDER BY created_at DESC`, jobPositionID)
	if err != nil {
		return nil, mapErr("test_link.list", err)
	}
	defer rows.Close()
	out := []domain.TestLink{}
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, mapErr("test_link.list", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("test_link.list", err)
	}
	return out, nil
}
