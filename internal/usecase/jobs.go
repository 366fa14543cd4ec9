package usecase

import (
	"fmt"

	"github.com/fairyhunter13/skillproof/internal/domain"
)

// JobService manages the job positions of HR users.
type JobService struct {
	Jobs domain.JobPositionRepository
}

func NewJobService(j domain.JobPositionRepository) JobService { return JobService{Jobs: j} }

// Create stores a new job for hrUserID. An empty level defaults to Intermediate.
func (s JobService) Create(ctx domain.Context, hrUserID string, j domain.JobPosition) (domain.JobPosition, error) {
	if j.ExperienceLevel == "" {
		j.ExperienceLevel = domain.LevelIntermediate
	}
	if !j.ExperienceLevel.Valid() {
		return domain.JobPosition{}, fmt.Errorf("op=job.create: %w: experience level", domain.ErrInvalidArgument)
	}
	j.ID = ""
	j.HRUserID = hrUserID
	out, err := s.Jobs.Create(ctx, j)
	if err != nil {
		return domain.JobPosition{}, fmt.Errorf("op=job.create: %w", err)
	}
	return out, nil
}

func (s JobService) Get(ctx domain.Context, hrUserID, id string) (domain.JobPosition, error) {
	j, err := ownedJob(ctx, s.Jobs, hrUserID, id)
	if err != nil {
		return domain.JobPosition{}, fmt.Errorf("op=job.get: %w", err)
	}
	return j, nil
}

func (s JobService) List(ctx domain.Context, hrUserID string) ([]domain.JobPosition, error) {
	jobs, err := s.Jobs.ListByHRUser(ctx, hrUserID)
	if err != nil {
		return nil, fmt.Errorf("op=job.list: %w", err)
	}
	return jobs, nil
}

// Update replaces the editable fields of one of hrUserID's jobs.
func (s JobService) Update(ctx domain.Context, hrUserID string, j domain.JobPosition) (domain.JobPosition, error) {
	if j.ExperienceLevel != "" && !j.ExperienceLevel.Valid() {
		return domain.JobPosition{}, fmt.Errorf("op=job.update: %w: experience level", domain.ErrInvalidArgument)
	}
	cur, err := ownedJob(ctx, s.Jobs, hrUserID, j.ID)
	if err != nil {
		return domain.JobPosition{}, fmt.Errorf("op=job.update: %w", err)
	}
	if j.ExperienceLevel == "" {
		j.ExperienceLevel = cur.ExperienceLevel
	}
	j.HRUserID = hrUserID
	out, err := s.Jobs.Update(ctx, j)
	if err != nil {
		return domain.JobPosition{}, fmt.Errorf("op=job.update: %w", err)
	}
	return out, nil
}

func (s JobService) Delete(ctx domain.Context, hrUserID, id string) error {
	if err := s.Jobs.Delete(ctx, hrUserID, id); err != nil {
		return fmt.Errorf("op=job.delete: %w", err)
	}
	return nil
}
