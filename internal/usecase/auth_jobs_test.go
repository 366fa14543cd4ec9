package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/skillproof/internal/domain"
	"github.com/fairyhunter13/skillproof/internal/usecase"
)

func TestAuth_RegisterAndLogin(t *testing.T) {
	st := newMemStore()
	svc := usecase.NewAuthService(memUsers{st}, fakeHasher{}, fakeTokens{})
	ctx := context.Background()

	u, err := svc.Register(ctx, " Ann ", "Ann@Example.com", "s3cret-pass", "Acme")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.Equal(t, "hashed:s3cret-pass", u.PasswordHash)

	_, err = svc.Register(ctx, "Ann", "ANN@example.com", "other-pass", "Acme")
	assert.ErrorIs(t, err, domain.ErrConflict)

	sess, err := svc.Login(ctx, "ann@EXAMPLE.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "tok-"+u.ID, sess.Token)

	_, err = svc.Login(ctx, "ann@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = svc.Login(ctx, "ghost@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestJobs_OwnerScoping(t *testing.T) {
	st := newMemStore()
	svc := usecase.NewJobService(memJobs{st})
	ctx := context.Background()

	j, err := svc.Create(ctx, "hr-1", domain.JobPosition{Title: "SRE", RequiredSkills: []string{"Linux"}})
	require.NoError(t, err)
	assert.Equal(t, domain.LevelIntermediate, j.ExperienceLevel)
	assert.Equal(t, "hr-1", j.HRUserID)

	_, err = svc.Create(ctx, "hr-1", domain.JobPosition{Title: "SRE", ExperienceLevel: "Guru"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = svc.Get(ctx, "hr-2", j.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	j.Title = "Senior SRE"
	j.ExperienceLevel = ""
	up, err := svc.Update(ctx, "hr-1", j)
	require.NoError(t, err)
	assert.Equal(t, "Senior SRE", up.Title)
	assert.Equal(t, domain.LevelIntermediate, up.ExperienceLevel)

	_, err = svc.Update(ctx, "hr-2", j)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := svc.List(ctx, "hr-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, svc.Delete(ctx, "hr-2", j.ID), domain.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, "hr-1", j.ID))
}
