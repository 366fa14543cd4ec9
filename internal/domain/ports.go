package domain

import "time"

// Repositories (ports). Create methods return ErrDuplicateKey when a unique
// constraint rejects the row; lookups return ErrNotFound.

type HRUserRepository interface {
	Create(ctx Context, u HRUser) (HRUser, error)
	GetByEmail(ctx Context, email string) (HRUser, error)
}

type JobPositionRepository interface {
	Create(ctx Context, j JobPosition) (JobPosition, error)
	Get(ctx Context, id string) (JobPosition, error)
	ListByHRUser(ctx Context, hrUserID string) ([]JobPosition, error)
	Update(ctx Context, j JobPosition) (JobPosition, error)
	Delete(ctx Context, hrUserID, id string) error
}

type TestLinkRepository interface {
	Create(ctx Context, l TestLink) (TestLink, error)
	Get(ctx Context, id string) (TestLink, error)
	// FindActiveByToken returns the link only while IsExpired is false.
	FindActiveByToken(ctx Context, token string) (TestLink, error)
	MarkExpired(ctx Context, id string) error
	// Revoke expires a link of the given issuer; ErrNotFound when none matches.
	Revoke(ctx Context, issuerID, id string) error
	ListByJob(ctx Context, jobPositionID string) ([]TestLink, error)
}

type CandidateRepository interface {
	Create(ctx Context, c Candidate) (Candidate, error)
	Get(ctx Context, id string) (Candidate, error)
	GetBySessionID(ctx Context, sessionID string) (Candidate, error)
	// SetInferredLevel writes the level once; ErrConflict if already assessed.
	SetInferredLevel(ctx Context, id string, source LevelSource, level SkillLevel, confidence ConfidenceLevel, at time.Time) error
}

type ResumeAnalysisRepository interface {
	Create(ctx Context, a ResumeAnalysis) (ResumeAnalysis, error)
	GetByCandidate(ctx Context, candidateID string) (ResumeAnalysis, error)
}

type SkillSessionRepository interface {
	Create(ctx Context, s SkillSession) (SkillSession, error)
	Get(ctx Context, id string) (SkillSession, error)
	GetBySessionID(ctx Context, sessionID string) (SkillSession, error)
	GetByCandidateAndLink(ctx Context, candidateID, testLinkID string) (SkillSession, error)
	IncrementAttempt(ctx Context, id string) error
	// MarkSubmitted is a conditional update on is_submitted=false;
	// ErrAlreadySubmitted when it affects no row.
	MarkSubmitted(ctx Context, id string, a Answer, at time.Time) error
	ListSubmissionsByJob(ctx Context, jobPositionID string) ([]Submission, error)
}

type IntegrityLogRepository interface {
	Create(ctx Context, l IntegrityLog) (IntegrityLog, error)
	GetBySession(ctx Context, skillSessionID string) (IntegrityLog, error)
	// AppendEvent appends atomically and returns the updated log.
	AppendEvent(ctx Context, skillSessionID string, ev IntegrityEvent) (IntegrityLog, error)
	SetStatus(ctx Context, skillSessionID string, status IntegrityStatus, violations int) error
}

type EvaluationResultRepository interface {
	Create(ctx Context, r EvaluationResult) (EvaluationResult, error)
	GetBySession(ctx Context, skillSessionID string) (EvaluationResult, error)
}

type ReportRepository interface {
	Create(ctx Context, r SkillProofReport) (SkillProofReport, error)
	Get(ctx Context, id string) (SkillProofReport, error)
	List(ctx Context, f ReportFilter) (ReportPage, error)
}

// Oracle is the generative text service. Implementations return
// ErrUpstreamRateLimit, ErrModelNotFound or ErrServiceUnavailable.
type Oracle interface {
	Generate(ctx Context, prompt string) (string, error)
}

type TaskRequest struct {
	JobTitle       string
	RequiredSkills []string
	Level          SkillLevel
	Description    string
}

type EvaluationRequest struct {
	Task           string
	Answer         string
	Metrics        BehaviorMetrics
	RequiredSkills []string
	Level          SkillLevel
}

type ReportTextRequest struct {
	CandidateName        string
	JobTitle             string
	Level                SkillLevel
	TaskGiven            string
	AnswerSummary        string
	Evaluation           Evaluation
	Metrics              BehaviorMetrics
	IntegrityStatus      IntegrityStatus
	ConfidenceAssessment ConfidenceInsight
}

// Assessor is the oracle-backed capability used by the session pipeline.
// Every method has an offline fallback; only ValidationError escapes.
type Assessor interface {
	InferSkills(ctx Context, text string, requiredSkills []string) (SkillAssessment, error)
	GenerateTask(ctx Context, req TaskRequest) (Task, error)
	EvaluateAnswer(ctx Context, req EvaluationRequest) (Evaluation, error)
	GenerateReportText(ctx Context, req ReportTextRequest) (string, error)
}

// TextExtractor converts an uploaded document into plain text.
type TextExtractor interface {
	Extract(ctx Context, fileName string, fileType FileType, data []byte) (string, error)
}

// EventPublisher announces finished reports to downstream consumers.
type EventPublisher interface {
	PublishReportGenerated(ctx Context, r SkillProofReport) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) bool
}

type TokenIssuer interface {
	Issue(userID, email string) (token string, expiresAt time.Time, err error)
}

// ReportExporter renders reports into a downloadable document.
type ReportExporter interface {
	Export(ctx Context, reports []SkillProofReport) ([]byte, error)
}
