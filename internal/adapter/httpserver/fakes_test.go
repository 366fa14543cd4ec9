package httpserver

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/skillproof/internal/adapter/auth"
	"github.com/fairyhunter13/skillproof/internal/adapter/textextractor"
	"github.com/fairyhunter13/skillproof/internal/config"
	"github.com/fairyhunter13/skillproof/internal/domain"
	"github.com/fairyhunter13/skillproof/internal/usecase"
)

var testNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

// store is a minimal in-memory backing for the repositories the handlers touch.
type store struct {
	mu         sync.Mutex
	seq        int
	users      map[string]domain.HRUser
	jobs       map[string]domain.JobPosition
	links      map[string]domain.TestLink
	candidates map[string]domain.Candidate
}

func newStore() *store {
	return &store{
		users:      map[string]domain.HRUser{},
		jobs:       map[string]domain.JobPosition{},
		links:      map[string]domain.TestLink{},
		candidates: map[string]domain.Candidate{},
	}
}

func (s *store) id(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

type users struct{ *store }

func (m users) Create(_ context.Context, u domain.HRUser) (domain.HRUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.users {
		if x.Email == u.Email {
			return domain.HRUser{}, domain.ErrDuplicateKey
		}
	}
	u.ID = m.id("hr")
	m.users[u.ID] = u
	return u, nil
}

func (m users) GetByEmail(_ context.Context, email string) (domain.HRUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.users {
		if x.Email == email {
			return x, nil
		}
	}
	return domain.HRUser{}, domain.ErrNotFound
}

type jobs struct{ *store }

func (m jobs) Create(_ context.Context, j domain.JobPosition) (domain.JobPosition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j.ID = m.id("job")
	j.CreatedAt, j.UpdatedAt = testNow, testNow
	m.jobs[j.ID] = j
	return j, nil
}

func (m jobs) Get(_ context.Context, id string) (domain.JobPosition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return domain.JobPosition{}, domain.ErrNotFound
	}
	return j, nil
}

func (m jobs) ListByHRUser(_ context.Context, hrUserID string) ([]domain.JobPosition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.JobPosition
	for _, j := range m.jobs {
		if j.HRUserID == hrUserID {
			out = append(out, j)
		}
	}
	return out, nil
}

func (m jobs) Update(_ context.Context, j domain.JobPosition) (domain.JobPosition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[j.ID]; !ok {
		return domain.JobPosition{}, domain.ErrNotFound
	}
	m.jobs[j.ID] = j
	return j, nil
}

func (m jobs) Delete(_ context.Context, hrUserID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; !ok || j.HRUserID != hrUserID {
		return domain.ErrNotFound
	}
	delete(m.jobs, id)
	return nil
}

type links struct{ *store }

func (m links) Create(_ context.Context, l domain.TestLink) (domain.TestLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = m.id("link")
	m.links[l.ID] = l
	return l, nil
}

func (m links) Get(_ context.Context, id string) (domain.TestLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.links[id]
	if !ok {
		return domain.TestLink{}, domain.ErrNotFound
	}
	return l, nil
}

func (m links) FindActiveByToken(_ context.Context, token string) (domain.TestLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.links {
		if l.Token == token && !l.IsExpired {
			return l, nil
		}
	}
	return domain.TestLink{}, domain.ErrNotFound
}

func (m links) MarkExpired(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.links[id]
	l.IsExpired = true
	m.links[id] = l
	return nil
}

func (m links) Revoke(ctx context.Context, issuerID, id string) error {
	l, err := m.Get(ctx, id)
	if err != nil || l.IssuerID != issuerID {
		return domain.ErrNotFound
	}
	return m.MarkExpired(ctx, id)
}

func (m links) ListByJob(_ context.Context, jobPositionID string) ([]domain.TestLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.TestLink
	for _, l := range m.links {
		if l.JobPositionID == jobPositionID {
			out = append(out, l)
		}
	}
	return out, nil
}

type candidates struct{ *store }

func (m candidates) Create(_ context.Context, c domain.Candidate) (domain.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.candidates {
		if x.TestLinkID == c.TestLinkID && strings.EqualFold(x.Email, c.Email) {
			return domain.Candidate{}, domain.ErrDuplicateKey
		}
	}
	c.ID = m.id("cand")
	m.candidates[c.ID] = c
	return c, nil
}

func (m candidates) Get(_ context.Context, id string) (domain.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.candidates[id]
	if !ok {
		return domain.Candidate{}, domain.ErrNotFound
	}
	return c, nil
}

func (m candidates) GetBySessionID(_ context.Context, sessionID string) (domain.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.candidates {
		if c.SessionID == sessionID {
			return c, nil
		}
	}
	return domain.Candidate{}, domain.ErrNotFound
}

func (m candidates) SetInferredLevel(_ context.Context, id string, source domain.LevelSource, level domain.SkillLevel, confidence domain.ConfidenceLevel, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.candidates[id]
	if c.LevelAssessedAt != nil {
		return domain.ErrConflict
	}
	c.LevelSource, c.InferredLevel, c.InferredLevelConfidence, c.LevelAssessedAt = source, level, confidence, &at
	m.candidates[id] = c
	return nil
}

// fixture wires real usecase services over the in-memory store.
type fixture struct {
	store  *store
	srv    *Server
	tokens *auth.JWTIssuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := newStore()
	tokens, err := auth.NewJWTIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	cfg := config.Config{AppEnv: "test", MaxUploadMB: 1, FrontendURL: "https://skillproof.test"}
	linkSvc := usecase.NewLinkService(links{st}, jobs{st}, cfg.FrontendURL, 7)
	linkSvc.Now = func() time.Time { return testNow }
	srv := &Server{
		Cfg:   cfg,
		Auth:  usecase.NewAuthService(users{st}, plainHasher{}, tokens),
		Jobs:  usecase.NewJobService(jobs{st}),
		Links: linkSvc,
		Candidates: usecase.CandidateService{
			Links: linkSvc, Jobs: jobs{st}, Candidates: candidates{st},
			Detector: textextractor.Detector{}, MaxUploadBytes: cfg.MaxUploadBytes(),
			Now: func() time.Time { return testNow },
		},
		Tokens: tokens,
	}
	return &fixture{store: st, srv: srv, tokens: tokens}
}

// seedLink stores a job owned by hrUserID and an active link for it.
func (f *fixture) seedLink(t *testing.T, hrUserID, token string) (domain.JobPosition, domain.TestLink) {
	t.Helper()
	j, err := jobs{f.store}.Create(context.Background(), domain.JobPosition{
		HRUserID: hrUserID, Title: "Backend Engineer", RequiredSkills: []string{"Go", "SQL"},
		ExperienceLevel: domain.LevelIntermediate,
	})
	require.NoError(t, err)
	l, err := links{f.store}.Create(context.Background(), domain.TestLink{
		Token: token, JobPositionID: j.ID, IssuerID: hrUserID, ExpiryDate: testNow.Add(48 * time.Hour),
	})
	require.NoError(t, err)
	return j, l
}

func (f *fixture) bearer(t *testing.T, hrUserID string) string {
	t.Helper()
	tok, _, err := f.tokens.Issue(hrUserID, hrUserID+"@example.com")
	require.NoError(t, err)
	return "Bearer " + tok
}

type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error)   { return "h:" + p, nil }
func (plainHasher) Verify(p, encoded string) bool { return encoded == "h:"+p }
