package postgres

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/skillproof/internal/domain"
)

// JobPositionRepo persists job positions owned by HR users.
type JobPositionRepo struct{ Pool PgxPool }

func NewJobPositionRepo(p PgxPool) *JobPositionRepo { return &JobPositionRepo{Pool: p} }

const jobColumns = `id, hr_user_id, title, required_skills, experience_level, description, created_at, updated_at`

func scanJob(row pgx.Row) (domain.JobPosition, error) {
	var j domain.JobPosition
	err := row.Scan(&j.ID, &j.HRUserID, &j.Title, &j.RequiredSkills, &j.ExperienceLevel, &j.Description, &j.CreatedAt, &j.UpdatedAt)
	return j, err
}

func (r *JobPositionRepo) Create(ctx domain.Context, j domain.JobPosition) (domain.JobPosition, error) {
	ctx, span := otel.Tracer("repo.job_positions").Start(ctx, "job_positions.Create")
	defer span.End()
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	j.CreatedAt, j.UpdatedAt = now, now
	if j.RequiredSkills == nil {
		j.RequiredSkills = []string{}
	}
	q := `INSERT INTO job_positions (` + jobColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	if _, err := r.Pool.Exec(ctx, q, j.ID, j.HRUserID, j.Title, j.RequiredSkills, j.ExperienceLevel, j.Description, j.CreatedAt, j.UpdatedAt); err != nil {
		return domain.JobPosition{}, mapErr("job_position.create", err)
	}
	return j, nil
}

func (r *JobPositionRepo) Get(ctx domain.Context, id string) (domain.JobPosition, error) {
	ctx, span := otel.Tracer("repo.job_positions").Start(ctx, "job_positions.Get")
	defer span.End()
	j, err := scanJob(r.Pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM job_positions WHERE id=$1`, id))
	if err != nil {
		return domain.JobPosition{}, mapErr("job_position.get", err)
	}
	return j, nil
}

func (r *JobPositionRepo) ListByHRUser(ctx domain.Context, hrUserID string) ([]domain.JobPosition, error) {
	ctx, span := otel.Tracer("repo.job_positions").Start(ctx, "job_positions.ListByHRUser")
	defer span.End()
	rows, err := r.Pool.Query(ctx, `SELECT `+jobColumns+` FROM job_positions WHERE hr_user_id=$1 ORDER BY created_at DESC`, hrUserID)
	if err != nil {
		return nil, mapErr("job_position.list", err)
	}
	defer rows.Close()
	out := []domain.JobPosition{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, mapErr("job_position.list", err)
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("job_position.list", err)
	}
	return out, nil
}

// Update rewrites the mutable fields of a job owned by j.HRUserID.
func (r *JobPositionRepo) Update(ctx domain.Context, j domain.JobPosition) (domain.JobPosition, error) {
	ctx, span := otel.Tracer("repo.job_positions").Start(ctx, "job_positions.Update")
	defer span.End()
	q := `UPDATE job_positions SET title=$3, required_skills=$4, experience_level=$5, description=$6, updated_at=$7
		WHERE id=$1 AND hr_user_id=$2 RETURNING ` + jobColumns
	out, err := scanJob(r.Pool.QueryRow(ctx, q, j.ID, j.HRUserID, j.Title, j.RequiredSkills, j.ExperienceLevel, j.Description, time.Now().UTC()))
	if err != nil {
		return domain.JobPosition{}, mapErr("job_position.update", err)
	}
	return out, nil
}

func (r *JobPositionRepo) Delete(ctx domain.Context, hrUserID, id string) error {
	ctx, span := otel.Tracer("repo.job_positions").Start(ctx, "job_positions.Delete")
	defer span.End()
	tag, err := r.Pool.Exec(ctx, `DELETE FROM job_positions WHERE id=$1 AND hr_user_id=$2`, id, hrUserID)
	if err != nil {
		return mapErr("job_position.delete", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=job_position.delete: %w", domain.ErrNotFound)
	}
	return nil
}
