package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/fairyhunter13/skillproof/internal/adapter/observability"
	"github.com/fairyhunter13/skillproof/internal/assessment"
	"github.com/fairyhunter13/skillproof/internal/domain"
	"github.com/fairyhunter13/skillproof/pkg/textx"
)

const answerSummaryRunes = 400

// ScoreOutcome is returned to the candidate after submission.
type ScoreOutcome struct {
	Evaluation        domain.Evaluation        `json:"evaluation"`
	IntegrityStatus   domain.IntegrityStatus   `json:"integrityStatus"`
	ConfidenceInsight domain.ConfidenceInsight `json:"confidenceInsight"`
	ReportID          string                   `json:"reportId"`
}

// ScoringService evaluates a submitted answer, calibrates it against the
// resume, finalizes integrity and writes the HR report.
type ScoringService struct {
	Links       domain.TestLinkRepository
	Jobs        domain.JobPositionRepository
	Candidates  domain.CandidateRepository
	Resumes     domain.ResumeAnalysisRepository
	Evaluations domain.EvaluationResultRepository
	Reports     domain.ReportRepository
	Integrity   IntegrityService
	Assessor    domain.Assessor
	// Publisher is optional.
	Publisher domain.EventPublisher
	Now       func() time.Time
}

var _ Scorer = ScoringService{}

// Score runs evaluation, calibration, integrity finalization and report
// synthesis, in that order, for a session whose submission has committed.
func (s ScoringService) Score(ctx domain.Context, sess domain.SkillSession, metrics domain.BehaviorMetrics) (ScoreOutcome, error) {
	const op = "scoring.score"
	// The submission is already committed, so storage outlives the request
	// deadline. Only the oracle calls honour ctx, and they fall back when it
	// expires.
	store := context.WithoutCancel(ctx)
	c, err := s.Candidates.Get(store, sess.CandidateID)
	if err != nil {
		return ScoreOutcome{}, fmt.Errorf("op=%s: candidate: %w", op, err)
	}
	l, err := s.Links.Get(store, sess.TestLinkID)
	if err != nil {
		return ScoreOutcome{}, fmt.Errorf("op=%s: test link: %w", op, err)
	}
	j, err := s.Jobs.Get(store, l.JobPositionID)
	if err != nil {
		return ScoreOutcome{}, fmt.Errorf("op=%s: job: %w", op, err)
	}
	var resumeLevel domain.SkillLevel
	var resumeConfidence domain.ConfidenceLevel
	if ra, err := s.Resumes.GetByCandidate(store, c.ID); err == nil {
		resumeLevel, resumeConfidence = ra.Analysis.SuggestedLevel, ra.Analysis.Confidence
	} else if !errors.Is(err, domain.ErrNotFound) {
		return ScoreOutcome{}, fmt.Errorf("op=%s: resume: %w", op, err)
	}

	ev, err := s.Assessor.EvaluateAnswer(ctx, domain.EvaluationRequest{
		Task:           sess.TaskGiven + "\n" + sess.TaskDescription,
		Answer:         sess.CandidateAnswer,
		Metrics:        metrics,
		RequiredSkills: j.RequiredSkills,
		Level:          c.InferredLevel,
	})
	if err != nil {
		return ScoreOutcome{}, fmt.Errorf("op=%s: %w", op, err)
	}
	observability.ObserveEvaluation(ev.Score)
	insight := assessment.Calibrate(ev.Score, resumeLevel)

	now := clock(s.Now)
	if _, err := s.Evaluations.Create(store, domain.EvaluationResult{
		SkillSessionID:        sess.ID,
		CandidateID:           c.ID,
		TestLinkID:            l.ID,
		Evaluation:            ev,
		BehaviorMetrics:       metrics,
		ResumeLevelInferred:   resumeLevel,
		ResumeConfidenceLevel: resumeConfidence,
		ConfidenceInsight:     insight,
		EvaluatedAt:           now,
	}); err != nil {
		return ScoreOutcome{}, fmt.Errorf("op=%s: %w", op, err)
	}

	integrity, err := s.Integrity.Finalize(store, sess.ID)
	if err != nil {
		return ScoreOutcome{}, fmt.Errorf("op=%s: %w", op, err)
	}

	level := c.InferredLevel
	if level == "" {
		level = domain.LevelBeginner
	}
	taskGiven := sess.TaskGiven + ": " + sess.TaskDescription
	summary := textx.Truncate(sess.CandidateAnswer, answerSummaryRunes)
	text, err := s.Assessor.GenerateReportText(ctx, domain.ReportTextRequest{
		CandidateName:        c.Name,
		JobTitle:             j.Title,
		Level:                level,
		TaskGiven:            taskGiven,
		AnswerSummary:        summary,
		Evaluation:           ev,
		Metrics:              metrics,
		IntegrityStatus:      integrity,
		ConfidenceAssessment: insight,
	})
	if err != nil {
		return ScoreOutcome{}, fmt.Errorf("op=%s: %w", op, err)
	}

	rep, err := s.Reports.Create(store, domain.SkillProofReport{
		CandidateID:                   c.ID,
		SkillSessionID:                sess.ID,
		TestLinkID:                    l.ID,
		JobPositionID:                 j.ID,
		CandidateName:                 c.Name,
		CandidateEmail:                c.Email,
		JobTitle:                      j.Title,
		InferredSkillLevel:            level,
		TaskGiven:                     taskGiven,
		AnswerSummary:                 summary,
		EvaluationVerdictPlainEnglish: text,
		Strengths:                     ev.Strengths,
		Weaknesses:                    ev.Weaknesses,
		ThinkingInsight:               fmt.Sprintf("Approach: %s. Thinking style: %s.", ev.ApproachQuality, ev.ThinkingStyle),
		TimeAndBehaviorInsight: fmt.Sprintf("Time efficiency: %s. Total time %ss. Tab switches: %d.",
			ev.TimeEfficiency, strconv.FormatFloat(metrics.TotalTimeSeconds, 'f', -1, 64), metrics.TabSwitchCount),
		IntegrityStatus:      integrity,
		ConfidenceAssessment: insight,
		Snapshots:            sess.Snapshots,
		ReportGeneratedAt:    now,
	})
	if err != nil {
		return ScoreOutcome{}, fmt.Errorf("op=%s: %w", op, err)
	}
	s.publish(store, rep)

	return ScoreOutcome{Evaluation: ev, IntegrityStatus: integrity, ConfidenceInsight: insight, ReportID: rep.ID}, nil
}

// publish announces the report. The report is already stored, so a broker
// failure is logged and counted but not returned.
func (s ScoringService) publish(ctx domain.Context, rep domain.SkillProofReport) {
	if s.Publisher == nil {
		return
	}
	err := s.Publisher.PublishReportGenerated(ctx, rep)
	observability.RecordReportPublished(err == nil)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("report event not published",
			slog.String("report_id", rep.ID), slog.Any("error", err))
	}
}

