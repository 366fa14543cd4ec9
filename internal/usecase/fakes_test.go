package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/fairyhunter13/skillproof/internal/assessment"
	"github.com/fairyhunter13/skillproof/internal/domain"
	"github.com/fairyhunter13/skillproof/internal/usecase"
)

func TestMain(m *testing.M) { goleak.VerifyTestMain(m) }

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func nowFn() time.Time { return fixedNow }

var idSeq atomic.Int64

func nextID(prefix string) string { return fmt.Sprintf("%s-%d", prefix, idSeq.Add(1)) }

func notFound(what string) error { return fmt.Errorf("%w: %s", domain.ErrNotFound, what) }

func duplicate(what string) error { return fmt.Errorf("%w: %s", domain.ErrDuplicateKey, what) }

// memStore is an in-memory rendition of the Postgres schema, including the
// unique constraints the state machine depends on.
type memStore struct {
	mu          sync.Mutex
	users       map[string]domain.HRUser
	jobs        map[string]domain.JobPosition
	links       map[string]domain.TestLink
	candidates  map[string]domain.Candidate
	resumes     map[string]domain.ResumeAnalysis
	sessions    map[string]domain.SkillSession
	logs        map[string]domain.IntegrityLog
	evaluations map[string]domain.EvaluationResult
	reports     map[string]domain.SkillProofReport
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[string]domain.HRUser{},
		jobs:        map[string]domain.JobPosition{},
		links:       map[string]domain.TestLink{},
		candidates:  map[string]domain.Candidate{},
		resumes:     map[string]domain.ResumeAnalysis{},
		sessions:    map[string]domain.SkillSession{},
		logs:        map[string]domain.IntegrityLog{},
		evaluations: map[string]domain.EvaluationResult{},
		reports:     map[string]domain.SkillProofReport{},
	}
}

// users

type memUsers struct{ *memStore }

func (m memUsers) Create(_ context.Context, u domain.HRUser) (domain.HRUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.users {
		if strings.EqualFold(x.Email, u.Email) {
			return domain.HRUser{}, duplicate("hr_users_email_uq")
		}
	}
	u.ID = nextID("hr")
	m.users[u.ID] = u
	return u, nil
}

func (m memUsers) GetByEmail(_ context.Context, email string) (domain.HRUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.users {
		if strings.EqualFold(x.Email, email) {
			return x, nil
		}
	}
	return domain.HRUser{}, notFound("hr user")
}

// jobs

type memJobs struct{ *memStore }

func (m memJobs) Create(_ context.Context, j domain.JobPosition) (domain.JobPosition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j.ID == "" {
		j.ID = nextID("job")
	}
	m.jobs[j.ID] = j
	return j, nil
}

func (m memJobs) Get(_ context.Context, id string) (domain.JobPosition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return domain.JobPosition{}, notFound("job")
	}
	return j, nil
}

func (m memJobs) ListByHRUser(_ context.Context, hrUserID string) ([]domain.JobPosition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.JobPosition{}
	for _, j := range m.jobs {
		if j.HRUserID == hrUserID {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (m memJobs) Update(_ context.Context, j domain.JobPosition) (domain.JobPosition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.jobs[j.ID]
	if !ok || cur.HRUserID != j.HRUserID {
		return domain.JobPosition{}, notFound("job")
	}
	j.CreatedAt = cur.CreatedAt
	m.jobs[j.ID] = j
	return j, nil
}

func (m memJobs) Delete(_ context.Context, hrUserID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.jobs[id]
	if !ok || cur.HRUserID != hrUserID {
		return notFound("job")
	}
	delete(m.jobs, id)
	return nil
}

// links

type memLinks struct{ *memStore }

func (m memLinks) Create(_ context.Context, l domain.TestLink) (domain.TestLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.ID == "" {
		l.ID = nextID("link")
	}
	m.links[l.ID] = l
	return l, nil
}

func (m memLinks) Get(_ context.Context, id string) (domain.TestLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.links[id]
	if !ok {
		return domain.TestLink{}, notFound("link")
	}
	return l, nil
}

func (m memLinks) FindActiveByToken(_ context.Context, token string) (domain.TestLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.links {
		if l.Token == token && !l.IsExpired {
			return l, nil
		}
	}
	return domain.TestLink{}, notFound("link")
}

func (m memLinks) MarkExpired(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.links[id]
	l.IsExpired = true
	m.links[id] = l
	return nil
}

func (m memLinks) Revoke(_ context.Context, issuerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.links[id]
	if !ok || l.IssuerID != issuerID {
		return notFound("link")
	}
	l.IsExpired = true
	m.links[id] = l
	return nil
}

func (m memLinks) ListByJob(_ context.Context, jobPositionID string) ([]domain.TestLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.TestLink{}
	for _, l := range m.links {
		if l.JobPositionID == jobPositionID {
			out = append(out, l)
		}
	}
	return out, nil
}

// candidates

type memCandidates struct{ *memStore }

func (m memCandidates) Create(_ context.Context, c domain.Candidate) (domain.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.candidates {
		if x.TestLinkID == c.TestLinkID && strings.EqualFold(x.Email, c.Email) {
			return domain.Candidate{}, duplicate("candidates_link_email_uq")
		}
		if x.SessionID == c.SessionID {
			return domain.Candidate{}, duplicate("candidates_session_id_key")
		}
	}
	c.ID = nextID("cand")
	m.candidates[c.ID] = c
	return c, nil
}

func (m memCandidates) Get(_ context.Context, id string) (domain.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.candidates[id]
	if !ok {
		return domain.Candidate{}, notFound("candidate")
	}
	return c, nil
}

func (m memCandidates) GetBySessionID(_ context.Context, sessionID string) (domain.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.candidates {
		if c.SessionID == sessionID {
			return c, nil
		}
	}
	return domain.Candidate{}, notFound("candidate")
}

func (m memCandidates) SetInferredLevel(_ context.Context, id string, source domain.LevelSource, level domain.SkillLevel, confidence domain.ConfidenceLevel, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.candidates[id]
	if !ok {
		return notFound("candidate")
	}
	if c.LevelAssessedAt != nil {
		return fmt.Errorf("%w: already assessed", domain.ErrConflict)
	}
	c.LevelSource, c.InferredLevel, c.InferredLevelConfidence, c.LevelAssessedAt = source, level, confidence, &at
	m.candidates[id] = c
	return nil
}

// resumes

type memResumes struct{ *memStore }

func (m memResumes) Create(_ context.Context, a domain.ResumeAnalysis) (domain.ResumeAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.resumes[a.CandidateID]; ok {
		return domain.ResumeAnalysis{}, duplicate("resume_analyses_candidate_id_key")
	}
	a.ID = nextID("resume")
	m.resumes[a.CandidateID] = a
	return a, nil
}

func (m memResumes) GetByCandidate(_ context.Context, candidateID string) (domain.ResumeAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.resumes[candidateID]
	if !ok {
		return domain.ResumeAnalysis{}, notFound("resume analysis")
	}
	return a, nil
}

// sessions

type memSessions struct {
	*memStore
	incrementErr error
}

func (m memSessions) Create(_ context.Context, s domain.SkillSession) (domain.SkillSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.sessions {
		if x.SessionID == s.SessionID || (x.CandidateID == s.CandidateID && x.TestLinkID == s.TestLinkID) {
			return domain.SkillSession{}, duplicate("skill_sessions_session_id_key")
		}
	}
	s.ID = nextID("sess")
	if s.Snapshots == nil {
		s.Snapshots = []string{}
	}
	m.sessions[s.ID] = s
	return s, nil
}

func (m memSessions) Get(_ context.Context, id string) (domain.SkillSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return domain.SkillSession{}, notFound("session")
	}
	return s, nil
}

func (m memSessions) GetBySessionID(_ context.Context, sessionID string) (domain.SkillSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.SessionID == sessionID {
			return s, nil
		}
	}
	return domain.SkillSession{}, notFound("session")
}

func (m memSessions) GetByCandidateAndLink(_ context.Context, candidateID, testLinkID string) (domain.SkillSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.CandidateID == candidateID && s.TestLinkID == testLinkID {
			return s, nil
		}
	}
	return domain.SkillSession{}, notFound("session")
}

func (m memSessions) IncrementAttempt(_ context.Context, id string) error {
	if m.incrementErr != nil {
		return m.incrementErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return notFound("session")
	}
	s.TestAttemptCount++
	m.sessions[id] = s
	return nil
}

func (m memSessions) MarkSubmitted(_ context.Context, id string, a domain.Answer, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.IsSubmitted {
		return domain.ErrAlreadySubmitted
	}
	s.IsSubmitted = true
	s.CandidateAnswer, s.PseudoCode, s.Snapshots, s.SubmittedAt = a.Explanation, a.PseudoCode, a.Snapshots, &at
	m.sessions[id] = s
	return nil
}

func (m memSessions) ListSubmissionsByJob(_ context.Context, jobPositionID string) ([]domain.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Submission{}
	for _, s := range m.sessions {
		if m.links[s.TestLinkID].JobPositionID == jobPositionID {
			out = append(out, domain.Submission{Session: s, Candidate: m.candidates[s.CandidateID]})
		}
	}
	return out, nil
}

// integrity logs

type memLogs struct{ *memStore }

func (m memLogs) Create(_ context.Context, l domain.IntegrityLog) (domain.IntegrityLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.logs[l.SkillSessionID]; ok {
		return domain.IntegrityLog{}, duplicate("integrity_logs_skill_session_id_key")
	}
	l.ID = nextID("log")
	if l.Status == "" {
		l.Status = domain.IntegrityClean
	}
	m.logs[l.SkillSessionID] = l
	return l, nil
}

func (m memLogs) GetBySession(_ context.Context, id string) (domain.IntegrityLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.logs[id]
	if !ok {
		return domain.IntegrityLog{}, notFound("integrity log")
	}
	return l, nil
}

func (m memLogs) AppendEvent(_ context.Context, id string, ev domain.IntegrityEvent) (domain.IntegrityLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.logs[id]
	if !ok {
		return domain.IntegrityLog{}, notFound("integrity log")
	}
	l.Events = append(append([]domain.IntegrityEvent{}, l.Events...), ev)
	m.logs[id] = l
	return l, nil
}

func (m memLogs) SetStatus(_ context.Context, id string, status domain.IntegrityStatus, violations int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.logs[id]
	if !ok {
		return notFound("integrity log")
	}
	l.Status, l.ViolationCount = status, violations
	m.logs[id] = l
	return nil
}

// evaluations

type memEvaluations struct{ *memStore }

func (m memEvaluations) Create(_ context.Context, e domain.EvaluationResult) (domain.EvaluationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.evaluations[e.SkillSessionID]; ok {
		return domain.EvaluationResult{}, duplicate("evaluation_results_skill_session_id_key")
	}
	e.ID = nextID("eval")
	m.evaluations[e.SkillSessionID] = e
	return e, nil
}

func (m memEvaluations) GetBySession(_ context.Context, id string) (domain.EvaluationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.evaluations[id]
	if !ok {
		return domain.EvaluationResult{}, notFound("evaluation")
	}
	return e, nil
}

// reports

type memReports struct{ *memStore }

func (m memReports) Create(_ context.Context, r domain.SkillProofReport) (domain.SkillProofReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.reports {
		if x.SkillSessionID == r.SkillSessionID {
			return domain.SkillProofReport{}, duplicate("skillproof_reports_skill_session_id_key")
		}
	}
	r.ID = nextID("report")
	m.reports[r.ID] = r
	return r, nil
}

func (m memReports) Get(_ context.Context, id string) (domain.SkillProofReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return domain.SkillProofReport{}, notFound("report")
	}
	return r, nil
}

func (m memReports) List(_ context.Context, f domain.ReportFilter) (domain.ReportPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []domain.SkillProofReport
	for _, r := range m.reports {
		if m.jobs[r.JobPositionID].HRUserID != f.HRUserID {
			continue
		}
		if f.JobPositionID != "" && r.JobPositionID != f.JobPositionID {
			continue
		}
		if f.IntegrityStatus != "" && r.IntegrityStatus != f.IntegrityStatus {
			continue
		}
		all = append(all, r)
	}
	sort.Slice(all, func(a, b int) bool { return all[a].ID < all[b].ID })
	start := min((f.Page-1)*f.Limit, len(all))
	end := min(start+f.Limit, len(all))
	return domain.ReportPage{Items: append([]domain.SkillProofReport{}, all[start:end]...), Total: len(all), Page: f.Page, Limit: f.Limit}, nil
}

// collaborators

// countingAssessor wraps the offline engine and counts task generations.
type countingAssessor struct {
	assessment.Engine
	tasks      atomic.Int32
	evaluation *domain.Evaluation
	evalErr    error
}

func (a *countingAssessor) GenerateTask(ctx context.Context, req domain.TaskRequest) (domain.Task, error) {
	a.tasks.Add(1)
	time.Sleep(time.Millisecond)
	return a.Engine.GenerateTask(ctx, req)
}

func (a *countingAssessor) EvaluateAnswer(ctx context.Context, req domain.EvaluationRequest) (domain.Evaluation, error) {
	if a.evalErr != nil {
		return domain.Evaluation{}, a.evalErr
	}
	if a.evaluation != nil {
		return *a.evaluation, nil
	}
	return a.Engine.EvaluateAnswer(ctx, req)
}

type fakeDetector struct{ ft domain.FileType }

func (d fakeDetector) Detect(_ []byte) (domain.FileType, error) {
	if d.ft == "" {
		return "", fmt.Errorf("%w: text/plain", domain.ErrUnsupportedFileType)
	}
	return d.ft, nil
}

type fakeExtractor struct {
	text  string
	calls int
}

func (e *fakeExtractor) Extract(_ context.Context, _ string, _ domain.FileType, _ []byte) (string, error) {
	e.calls++
	return e.text, nil
}

type fakePublisher struct {
	mu   sync.Mutex
	got  []domain.SkillProofReport
	fail bool
}

func (p *fakePublisher) PublishReportGenerated(_ context.Context, r domain.SkillProofReport) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker down")
	}
	p.got = append(p.got, r)
	return nil
}

type fakeExporter struct{ n int }

func (e *fakeExporter) Export(_ context.Context, reports []domain.SkillProofReport) ([]byte, error) {
	e.n = len(reports)
	return []byte("xlsx"), nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(p string) (string, error)   { return "hashed:" + p, nil }
func (fakeHasher) Verify(p, encoded string) bool { return encoded == "hashed:"+p }

type fakeTokens struct{}

func (fakeTokens) Issue(userID, _ string) (string, time.Time, error) {
	return "tok-" + userID, fixedNow.Add(time.Hour), nil
}

// fixture wires every service over one memStore with a live link.
type fixture struct {
	store      *memStore
	assessor   *countingAssessor
	publisher  *fakePublisher
	extractor  *fakeExtractor
	links      usecase.LinkService
	candidates usecase.CandidateService
	sessions   usecase.SessionService
	integrity  usecase.IntegrityService
	scoring    usecase.ScoringService
	dashboard  usecase.DashboardService
	hrUser     string
	job        domain.JobPosition
	link       domain.TestLink
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := newMemStore()
	f := &fixture{store: st, assessor: &countingAssessor{}, publisher: &fakePublisher{}, extractor: &fakeExtractor{text: "Built Go services on PostgreSQL with Docker."}}
	f.hrUser = "hr-owner"
	f.job = domain.JobPosition{ID: "job-1", HRUserID: f.hrUser, Title: "Backend Engineer", RequiredSkills: []string{"Go", "PostgreSQL", "Kubernetes"}, ExperienceLevel: domain.LevelIntermediate}
	st.jobs[f.job.ID] = f.job
	f.link = domain.TestLink{ID: "link-1", Token: "tok-live", JobPositionID: f.job.ID, IssuerID: f.hrUser, ExpiryDate: fixedNow.Add(48 * time.Hour)}
	st.links[f.link.ID] = f.link

	f.links = usecase.LinkService{Links: memLinks{st}, Jobs: memJobs{st}, FrontendURL: "https://app.example.com/", DefaultExpiryDays: 30, Now: nowFn}
	f.candidates = usecase.CandidateService{
		Links: f.links, Jobs: memJobs{st}, Candidates: memCandidates{st}, Resumes: memResumes{st}, Sessions: memSessions{memStore: st},
		Assessor: f.assessor, Detector: fakeDetector{ft: domain.FilePDF}, Extractor: f.extractor, MaxUploadBytes: 1 << 20, Now: nowFn,
	}
	f.integrity = usecase.IntegrityService{Links: f.links, Sessions: memSessions{memStore: st}, Logs: memLogs{st}, Now: nowFn}
	f.scoring = usecase.ScoringService{
		Links: memLinks{st}, Jobs: memJobs{st}, Candidates: memCandidates{st}, Resumes: memResumes{st},
		Evaluations: memEvaluations{st}, Reports: memReports{st}, Integrity: f.integrity, Assessor: f.assessor,
		Publisher: f.publisher, Now: nowFn,
	}
	f.sessions = usecase.SessionService{
		Links: f.links, Jobs: memJobs{st}, Candidates: memCandidates{st}, Sessions: memSessions{memStore: st},
		Logs: memLogs{st}, Assessor: f.assessor, Scorer: f.scoring, Now: nowFn,
	}
	f.dashboard = usecase.DashboardService{Jobs: memJobs{st}, Sessions: memSessions{memStore: st}, Evaluations: memEvaluations{st}, Reports: memReports{st}, Exporter: &fakeExporter{}}
	return f
}

func (f *fixture) register(t *testing.T, email string) domain.Candidate {
	t.Helper()
	c, err := f.candidates.Register(context.Background(), f.link.Token, "Dana Candidate", email, "+62 812 3456 7890")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return c
}
