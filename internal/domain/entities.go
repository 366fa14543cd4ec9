// Package domain holds the assessment entities, the error taxonomy and the
// ports implemented by adapters.
package domain

import (
	"context"
	"time"
)

// Context is an alias so ports do not need to import context directly.
type Context = context.Context

// SkillLevel is the inferred or declared seniority of a candidate.
type SkillLevel string

const (
	LevelBeginner     SkillLevel = "Beginner"
	LevelIntermediate SkillLevel = "Intermediate"
	LevelExperienced  SkillLevel = "Experienced"
)

// Valid reports whether l is one of the known levels.
func (l SkillLevel) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelExperienced:
		return true
	}
	return false
}

// ConfidenceLevel qualifies how sure the skill inference is.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "High"
	ConfidenceMedium ConfidenceLevel = "Medium"
	ConfidenceLow    ConfidenceLevel = "Low"
)

// SkillDepth is used for both skills depth and project complexity.
type SkillDepth string

const (
	DepthLow    SkillDepth = "Low"
	DepthMedium SkillDepth = "Medium"
	DepthHigh   SkillDepth = "High"
)

// LevelSource records which input path produced the candidate level.
type LevelSource string

const (
	SourceResume LevelSource = "resume"
	SourceManual LevelSource = "manual"
)

// FileType enumerates resume formats accepted for extraction.
type FileType string

const (
	FilePDF  FileType = "pdf"
	FileDOCX FileType = "docx"
)

type IntegrityEventType string

const (
	EventTabSwitch   IntegrityEventType = "TAB_SWITCH"
	EventWindowBlur  IntegrityEventType = "WINDOW_BLUR"
	EventCopyAttempt IntegrityEventType = "COPY_ATTEMPT"
	EventFocusLoss   IntegrityEventType = "FOCUS_LOSS"
	EventIdleTimeout IntegrityEventType = "IDLE_TIMEOUT"
)

// Valid reports whether t is a known integrity event type.
func (t IntegrityEventType) Valid() bool {
	switch t {
	case EventTabSwitch, EventWindowBlur, EventCopyAttempt, EventFocusLoss, EventIdleTimeout:
		return true
	}
	return false
}

type IntegrityStatus string

const (
	IntegrityClean   IntegrityStatus = "Clean"
	IntegrityFlagged IntegrityStatus = "Flagged"
)

type ApproachQuality string

const (
	ApproachStructured     ApproachQuality = "Structured"
	ApproachSemiStructured ApproachQuality = "Semi-structured"
	ApproachRandom         ApproachQuality = "Random"
)

type TimeEfficiency string

const (
	TimeFast     TimeEfficiency = "Fast"
	TimeBalanced TimeEfficiency = "Balanced"
	TimeSlow     TimeEfficiency = "Slow"
)

type Verdict string

const (
	VerdictUnderstandsWell  Verdict = "Understands well"
	VerdictSurfaceLevel     Verdict = "Surface-level"
	VerdictNeedsImprovement Verdict = "Needs improvement"
)

// ConfidenceInsight is the calibration outcome comparing claimed and shown skill.
type ConfidenceInsight string

const (
	Overconfidence     ConfidenceInsight = "Overconfidence"
	Underconfidence    ConfidenceInsight = "Underconfidence"
	AccurateConfidence ConfidenceInsight = "Accurate confidence"
)

// SessionState is derived from a SkillSession, never stored.
type SessionState string

const (
	StateNone       SessionState = "NONE"
	StateTaskIssued SessionState = "TASK_ISSUED"
	StateSubmitted  SessionState = "SUBMITTED"
)

// HRUser owns job positions and issues test links.
type HRUser struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Company      string
	CreatedAt    time.Time
}

// JobPosition describes the role a test link assesses.
type JobPosition struct {
	ID              string
	HRUserID        string
	Title           string
	RequiredSkills  []string
	ExperienceLevel SkillLevel
	Description     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TestLink grants access to one job position's assessment until it expires.
// Once IsExpired is set it is never cleared.
type TestLink struct {
	ID            string
	Token         string
	JobPositionID string
	IssuerID      string
	ExpiryDate    time.Time
	IsExpired     bool
	CreatedAt     time.Time
}

// PastExpiry reports whether the expiry date lies before now.
func (l TestLink) PastExpiry(now time.Time) bool { return now.After(l.ExpiryDate) }

// Candidate is unique per (TestLinkID, lower(Email)). The level fields are
// written once by skill inference; LevelAssessedAt guards that.
type Candidate struct {
	ID                      string
	TestLinkID              string
	Name                    string
	Email                   string
	Phone                   string
	LevelSource             LevelSource
	InferredLevel           SkillLevel
	InferredLevelConfidence ConfidenceLevel
	LevelAssessedAt         *time.Time
	SessionID               string
	CreatedAt               time.Time
}

// SkillAssessment is the output of skill inference.
type SkillAssessment struct {
	DetectedSkills    []string        `json:"detectedSkills"`
	SkillsDepth       SkillDepth      `json:"skillsDepth"`
	ExperienceSummary string          `json:"experienceSummary"`
	ProjectComplexity SkillDepth      `json:"projectComplexity"`
	SuggestedLevel    SkillLevel      `json:"suggestedLevel"`
	Confidence        ConfidenceLevel `json:"confidence"`
	Reasoning         string          `json:"reasoning"`
}

// ResumeAnalysis stores the extracted resume text and its assessment.
type ResumeAnalysis struct {
	ID          string
	CandidateID string
	FileName    string
	FileType    FileType
	RawText     string
	Analysis    SkillAssessment
	CreatedAt   time.Time
}

// Task is the three-part assessment handed to a candidate.
type Task struct {
	Name        string `json:"taskName"`
	Description string `json:"taskDescription"`
}

// SkillSession is one candidate's single attempt. IsSubmitted flips once;
// TestAttemptCount grows on every submission attempt.
type SkillSession struct {
	ID               string
	TestLinkID       string
	CandidateID      string
	SessionID        string
	TaskGiven        string
	TaskDescription  string
	InferredLevel    SkillLevel
	CandidateAnswer  string
	PseudoCode       string
	Snapshots        []string
	IsSubmitted      bool
	TestAttemptCount int
	SubmittedAt      *time.Time
	CreatedAt        time.Time
}

// State derives the lifecycle state of the session.
func (s SkillSession) State() SessionState {
	switch {
	case s.ID == "":
		return StateNone
	case s.IsSubmitted:
		return StateSubmitted
	default:
		return StateTaskIssued
	}
}

// Answer is the payload persisted when a session is submitted.
type Answer struct {
	Explanation string
	PseudoCode  string
	Snapshots   []string
}

type IntegrityEvent struct {
	Type      IntegrityEventType `json:"type"`
	Timestamp time.Time          `json:"timestamp"`
}

// IntegrityLog is append-only on Events. Status and ViolationCount are
// recomputed on append and finalized at submission.
type IntegrityLog struct {
	ID             string
	SkillSessionID string
	CandidateID    string
	TestLinkID     string
	Events         []IntegrityEvent
	Status         IntegrityStatus
	ViolationCount int
	CreatedAt      time.Time
}

// BehaviorMetrics is client-reported telemetry captured with an answer.
type BehaviorMetrics struct {
	TotalTimeSeconds         float64 `json:"totalTimeSeconds" validate:"gte=0"`
	DelayBeforeTypingSeconds float64 `json:"delayBeforeTypingSeconds" validate:"gte=0"`
	TypingDurationSeconds    float64 `json:"typingDurationSeconds" validate:"gte=0"`
	IdleTimeSeconds          float64 `json:"idleTimeSeconds" validate:"gte=0"`
	AnswerLength             int     `json:"answerLength" validate:"gte=0"`
	TabSwitchCount           int     `json:"tabSwitchCount" validate:"gte=0"`
	WindowBlurCount          int     `json:"windowBlurCount" validate:"gte=0"`
	CopyAttemptCount         int     `json:"copyAttemptCount" validate:"gte=0"`
	FocusLossCount           int     `json:"focusLossCount" validate:"gte=0"`
}

// Evaluation is the scored judgement of an answer.
type Evaluation struct {
	Score             float64         `json:"explanationScore"`
	ApproachQuality   ApproachQuality `json:"approachQuality"`
	ThinkingStyle     string          `json:"thinkingStyle"`
	TimeEfficiency    TimeEfficiency  `json:"timeEfficiency"`
	Strengths         []string        `json:"strengths"`
	Weaknesses        []string        `json:"weaknesses"`
	Verdict           Verdict         `json:"verdict"`
	ConfidenceInsight string          `json:"confidenceInsight"`
}

// EvaluationResult is written once per SkillSession.
type EvaluationResult struct {
	ID                    string
	SkillSessionID        string
	CandidateID           string
	TestLinkID            string
	Evaluation            Evaluation
	BehaviorMetrics       BehaviorMetrics
	ResumeLevelInferred   SkillLevel
	ResumeConfidenceLevel ConfidenceLevel
	ConfidenceInsight     ConfidenceInsight
	EvaluatedAt           time.Time
}

// SkillProofReport is the denormalized HR read model, written once per session.
type SkillProofReport struct {
	ID                            string            `json:"id"`
	CandidateID                   string            `json:"candidateId"`
	SkillSessionID                string            `json:"skillSessionId"`
	TestLinkID                    string            `json:"testLinkId"`
	JobPositionID                 string            `json:"jobPositionId"`
	CandidateName                 string            `json:"candidateName"`
	CandidateEmail                string            `json:"candidateEmail"`
	JobTitle                      string            `json:"jobTitle"`
	InferredSkillLevel            SkillLevel        `json:"inferredSkillLevel"`
	TaskGiven                     string            `json:"taskGiven"`
	AnswerSummary                 string            `json:"answerSummary"`
	EvaluationVerdictPlainEnglish string            `json:"evaluationVerdictPlainEnglish"`
	Strengths                     []string          `json:"strengths"`
	Weaknesses                    []string          `json:"weaknesses"`
	ThinkingInsight               string            `json:"thinkingInsight"`
	TimeAndBehaviorInsight        string            `json:"timeAndBehaviorInsight"`
	IntegrityStatus               IntegrityStatus   `json:"integrityStatus"`
	ConfidenceAssessment          ConfidenceInsight `json:"confidenceAssessment"`
	Snapshots                     []string          `json:"snapshots"`
	ReportGeneratedAt             time.Time         `json:"reportGeneratedAt"`
}

// ReportFilter narrows dashboard report listings to one HR user's jobs.
type ReportFilter struct {
	HRUserID             string
	JobPositionID        string
	SkillLevel           SkillLevel
	IntegrityStatus      IntegrityStatus
	ConfidenceAssessment ConfidenceInsight
	Page                 int
	Limit                int
}

type ReportPage struct {
	Items []SkillProofReport `json:"items"`
	Total int                `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

// Submission pairs a session with the candidate that owns it.
type Submission struct {
	Session   SkillSession
	Candidate Candidate
}
