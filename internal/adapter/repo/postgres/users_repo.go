package postgres

import (
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/skillproof/internal/domain"
	"github.com/fairyhunter13/skillproof/pkg/textx"
)

// HRUserRepo persists HR accounts.
type HRUserRepo struct{ Pool PgxPool }

func NewHRUserRepo(p PgxPool) *HRUserRepo { return &HRUserRepo{Pool: p} }

func (r *HRUserRepo) Create(ctx domain.Context, u domain.HRUser) (domain.HRUser, error) {
	ctx, span := otel.Tracer("repo.hr_users").Start(ctx, "hr_users.Create")
	defer span.End()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = textx.NormalizeEmail(u.Email)
	u.CreatedAt = time.Now().UTC()
	q := `INSERT INTO hr_users (id, name, email, password_hash, company, created_at) VALUES ($1,$2,$3,$4,$5,$6)`
	if _, err := r.Pool.Exec(ctx, q, u.ID, u.Name, u.Email, u.PasswordHash, u.Company, u.CreatedAt); err != nil {
		return domain.HRUser{}, mapErr("hr_user.create", err)
	}
	return u, nil
}

func (r *HRUserRepo) GetByEmail(ctx domain.Context, email string) (domain.HRUser, error) {
	ctx, span := otel.Tracer("repo.hr_users").Start(ctx, "hr_users.GetByEmail")
	defer span.End()
	q := `SELECT id, name, email, password_hash, company, created_at FROM hr_users WHERE lower(email)=lower($1)`
	var u domain.HRUser
	if err := r.Pool.QueryRow(ctx, q, textx.NormalizeEmail(email)).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Company, &u.CreatedAt); err != nil {
		return domain.HRUser{}, mapErr("hr_user.get_by_email", err)
	}
	return u, nil
}
