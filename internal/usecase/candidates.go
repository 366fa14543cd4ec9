package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/fairyhunter13/skillproof/internal/adapter/observability"
	"github.com/fairyhunter13/skillproof/internal/assessment"
	"github.com/fairyhunter13/skillproof/internal/domain"
)

// FileTypeDetector sniffs the format of an uploaded resume from its bytes.
type FileTypeDetector interface {
	Detect(data []byte) (domain.FileType, error)
}

// CandidateService registers candidates on a link and infers their level
// from a resume or from manually entered skills. Either path runs once.
type CandidateService struct {
	Links          LinkService
	Jobs           domain.JobPositionRepository
	Candidates     domain.CandidateRepository
	Resumes        domain.ResumeAnalysisRepository
	Sessions       domain.SkillSessionRepository
	Assessor       domain.Assessor
	Detector       FileTypeDetector
	Extractor      domain.TextExtractor
	MaxUploadBytes int64
	Now            func() time.Time
}

// Register adds a candidate to the link behind token. Each email may
// register once per link.
func (s CandidateService) Register(ctx domain.Context, token, name, email, phone string) (domain.Candidate, error) {
	l, err := s.Links.Validate(ctx, token)
	if err != nil {
		return domain.Candidate{}, err
	}
	now := clock(s.Now)
	c, err := s.Candidates.Create(ctx, domain.Candidate{
		TestLinkID:              l.ID,
		Name:                    strings.TrimSpace(name),
		Email:                   strings.TrimSpace(email),
		Phone:                   strings.TrimSpace(phone),
		LevelSource:             domain.SourceManual,
		InferredLevel:           domain.LevelBeginner,
		InferredLevelConfidence: domain.ConfidenceLow,
		SessionID:               newSessionID(now),
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return domain.Candidate{}, fmt.Errorf("op=candidate.register: %w: candidate already registered for this test", domain.ErrConflict)
		}
		return domain.Candidate{}, fmt.Errorf("op=candidate.register: %w", err)
	}
	return c, nil
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// newSessionID renders session_<unix ms>_<9 base36 chars>.
func newSessionID(now time.Time) string {
	var b strings.Builder
	b.WriteString("session_")
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 10))
	b.WriteByte('_')
	for range 9 {
		b.WriteByte(base36[rand.IntN(len(base36))])
	}
	return b.String()
}

// candidateOnLink loads the candidate for sessionID and checks it registered
// on link l and has not yet had its level assessed.
func (s CandidateService) candidateOnLink(ctx domain.Context, op string, l domain.TestLink, sessionID string) (domain.Candidate, domain.JobPosition, error) {
	c, err := s.Candidates.GetBySessionID(ctx, sessionID)
	if err != nil {
		return domain.Candidate{}, domain.JobPosition{}, fmt.Errorf("op=%s: %w", op, err)
	}
	if c.TestLinkID != l.ID {
		return domain.Candidate{}, domain.JobPosition{}, fmt.Errorf("op=%s: %w: candidate", op, domain.ErrNotFound)
	}
	if c.LevelAssessedAt != nil {
		return domain.Candidate{}, domain.JobPosition{}, fmt.Errorf("op=%s: %w: skill level already assessed", op, domain.ErrConflict)
	}
	if _, err := s.Sessions.GetByCandidateAndLink(ctx, c.ID, l.ID); err == nil {
		return domain.Candidate{}, domain.JobPosition{}, fmt.Errorf("op=%s: %w: task already issued", op, domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Candidate{}, domain.JobPosition{}, fmt.Errorf("op=%s: %w", op, err)
	}
	j, err := s.Jobs.Get(ctx, l.JobPositionID)
	if err != nil {
		return domain.Candidate{}, domain.JobPosition{}, fmt.Errorf("op=%s: %w", op, err)
	}
	return c, j, nil
}

// SubmitResume extracts the uploaded resume, infers the candidate's level
// from it and stores the analysis.
func (s CandidateService) SubmitResume(ctx domain.Context, token, sessionID, fileName string, data []byte) (domain.SkillAssessment, error) {
	const op = "candidate.resume"
	l, err := s.Links.Validate(ctx, token)
	if err != nil {
		return domain.SkillAssessment{}, err
	}
	if len(data) == 0 {
		return domain.SkillAssessment{}, fmt.Errorf("op=%s: %w: empty file", op, domain.ErrInvalidArgument)
	}
	if s.MaxUploadBytes > 0 && int64(len(data)) > s.MaxUploadBytes {
		return domain.SkillAssessment{}, fmt.Errorf("op=%s: %w: file exceeds %d bytes", op, domain.ErrInvalidArgument, s.MaxUploadBytes)
	}
	ft, err := s.Detector.Detect(data)
	if err != nil {
		return domain.SkillAssessment{}, fmt.Errorf("op=%s: %w", op, err)
	}
	c, j, err := s.candidateOnLink(ctx, op, l, sessionID)
	if err != nil {
		return domain.SkillAssessment{}, err
	}
	text, err := s.Extractor.Extract(ctx, fileName, ft, data)
	if err != nil {
		return domain.SkillAssessment{}, fmt.Errorf("op=%s: %w", op, err)
	}
	a, err := s.Assessor.InferSkills(ctx, text, j.RequiredSkills)
	if err != nil {
		return domain.SkillAssessment{}, fmt.Errorf("op=%s: %w", op, err)
	}
	// The analysis is stored before the level is stamped, so a failed write
	// leaves the candidate unassessed and the upload can be retried.
	ra, err := s.Resumes.Create(ctx, domain.ResumeAnalysis{
		CandidateID: c.ID,
		FileName:    fileName,
		FileType:    ft,
		RawText:     text,
		Analysis:    a,
	})
	switch {
	case errors.Is(err, domain.ErrDuplicateKey):
		// left behind by an attempt whose level update failed
		if ra, err = s.Resumes.GetByCandidate(ctx, c.ID); err != nil {
			return domain.SkillAssessment{}, fmt.Errorf("op=%s: %w", op, err)
		}
		a = ra.Analysis
	case err != nil:
		return domain.SkillAssessment{}, fmt.Errorf("op=%s: %w", op, err)
	}
	if err := s.Candidates.SetInferredLevel(ctx, c.ID, domain.SourceResume, a.SuggestedLevel, a.Confidence, clock(s.Now)); err != nil {
		return domain.SkillAssessment{}, fmt.Errorf("op=%s: %w", op, err)
	}
	observability.LoggerFromContext(ctx).Info("resume assessed",
		slog.String("candidate_id", c.ID),
		slog.String("level", string(a.SuggestedLevel)),
		slog.String("confidence", string(a.Confidence)))
	return a, nil
}

// SubmitManual infers the candidate's level from self-described skills,
// experience and projects. No resume analysis is stored on this path.
func (s CandidateService) SubmitManual(ctx domain.Context, token, sessionID string, skills []string, experience, projects string) (domain.SkillAssessment, error) {
	const op = "candidate.manual"
	l, err := s.Links.Validate(ctx, token)
	if err != nil {
		return domain.SkillAssessment{}, err
	}
	c, j, err := s.candidateOnLink(ctx, op, l, sessionID)
	if err != nil {
		return domain.SkillAssessment{}, err
	}
	a, err := s.Assessor.InferSkills(ctx, assessment.ManualText(skills, experience, projects), j.RequiredSkills)
	if err != nil {
		return domain.SkillAssessment{}, fmt.Errorf("op=%s: %w", op, err)
	}
	if err := s.Candidates.SetInferredLevel(ctx, c.ID, domain.SourceManual, a.SuggestedLevel, a.Confidence, clock(s.Now)); err != nil {
		return domain.SkillAssessment{}, fmt.Errorf("op=%s: %w", op, err)
	}
	return a, nil
}
