package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fairyhunter13/skillproof/internal/adapter/observability"
	"github.com/fairyhunter13/skillproof/internal/domain"
)

// AnswerInput is what a candidate submits for their task.
type AnswerInput struct {
	Explanation string
	PseudoCode  string
	Snapshots   []string
	Metrics     domain.BehaviorMetrics
}

// Scorer runs the post-submission pipeline.
type Scorer interface {
	Score(ctx domain.Context, sess domain.SkillSession, metrics domain.BehaviorMetrics) (ScoreOutcome, error)
}

// SessionService is the per-candidate state machine NONE → TASK_ISSUED →
// SUBMITTED. Storage constraints, not in-process locks, serialize racing
// requests for the same candidate.
type SessionService struct {
	Links      LinkService
	Jobs       domain.JobPositionRepository
	Candidates domain.CandidateRepository
	Sessions   domain.SkillSessionRepository
	Logs       domain.IntegrityLogRepository
	Assessor   domain.Assessor
	Scorer     Scorer
	Now        func() time.Time
}

// RequestTask issues the candidate's single task. Repeated calls before
// submission return the same session; once an attempt has been consumed
// the request is refused.
func (s SessionService) RequestTask(ctx domain.Context, token, candidateSessionID string) (domain.SkillSession, error) {
	const op = "session.request_task"
	l, err := s.Links.Validate(ctx, token)
	if err != nil {
		return domain.SkillSession{}, err
	}
	c, err := s.Candidates.GetBySessionID(ctx, candidateSessionID)
	if err != nil {
		return domain.SkillSession{}, fmt.Errorf("op=%s: %w", op, err)
	}
	if c.TestLinkID != l.ID {
		return domain.SkillSession{}, fmt.Errorf("op=%s: %w: candidate", op, domain.ErrNotFound)
	}

	sess, err := s.Sessions.GetByCandidateAndLink(ctx, c.ID, l.ID)
	switch {
	case err == nil:
		if sess.IsSubmitted || sess.TestAttemptCount >= 1 {
			return domain.SkillSession{}, fmt.Errorf("op=%s: %w", op, domain.ErrAttemptExhausted)
		}
	case errors.Is(err, domain.ErrNotFound):
		sess, err = s.issue(ctx, l, c)
		if err != nil {
			return domain.SkillSession{}, fmt.Errorf("op=%s: %w", op, err)
		}
	default:
		return domain.SkillSession{}, fmt.Errorf("op=%s: %w", op, err)
	}

	if _, err := s.Logs.Create(ctx, domain.IntegrityLog{
		SkillSessionID: sess.ID,
		CandidateID:    c.ID,
		TestLinkID:     l.ID,
	}); err != nil && !errors.Is(err, domain.ErrDuplicateKey) {
		return domain.SkillSession{}, fmt.Errorf("op=%s: %w", op, err)
	}
	return sess, nil
}

// issue generates a task and inserts the session. A concurrent request that
// inserted first wins; its session is returned instead.
func (s SessionService) issue(ctx domain.Context, l domain.TestLink, c domain.Candidate) (domain.SkillSession, error) {
	j, err := s.Jobs.Get(ctx, l.JobPositionID)
	if err != nil {
		return domain.SkillSession{}, err
	}
	level := c.InferredLevel
	if level == "" {
		level = domain.LevelBeginner
	}
	task, err := s.Assessor.GenerateTask(ctx, domain.TaskRequest{
		JobTitle:       j.Title,
		RequiredSkills: j.RequiredSkills,
		Level:          level,
		Description:    j.Description,
	})
	if err != nil {
		return domain.SkillSession{}, err
	}
	sess, err := s.Sessions.Create(ctx, domain.SkillSession{
		TestLinkID:      l.ID,
		CandidateID:     c.ID,
		SessionID:       c.SessionID,
		TaskGiven:       task.Name,
		TaskDescription: task.Description,
		InferredLevel:   level,
	})
	if errors.Is(err, domain.ErrDuplicateKey) {
		observability.LoggerFromContext(ctx).Info("task already issued by a concurrent request",
			slog.String("session_id", c.SessionID))
		return s.Sessions.GetBySessionID(ctx, c.SessionID)
	}
	return sess, err
}

// GetTask returns the task of a session issued on the link behind token.
func (s SessionService) GetTask(ctx domain.Context, token, skillSessionID string) (domain.SkillSession, error) {
	l, err := s.Links.Validate(ctx, token)
	if err != nil {
		return domain.SkillSession{}, err
	}
	sess, err := sessionOnLink(ctx, s.Sessions, l, skillSessionID)
	if err != nil {
		return domain.SkillSession{}, fmt.Errorf("op=session.get_task: %w", err)
	}
	return sess, nil
}

// SubmitAnswer consumes the single attempt and, once the submission has
// committed, scores it. The attempt counter moves before anything else so
// a failure further down still uses up the attempt.
func (s SessionService) SubmitAnswer(ctx domain.Context, token, skillSessionID string, in AnswerInput) (ScoreOutcome, error) {
	const op = "session.submit"
	l, err := s.Links.Validate(ctx, token)
	if err != nil {
		return ScoreOutcome{}, err
	}
	sess, err := sessionOnLink(ctx, s.Sessions, l, skillSessionID)
	if err != nil {
		return ScoreOutcome{}, fmt.Errorf("op=%s: %w", op, err)
	}
	if sess.IsSubmitted {
		return ScoreOutcome{}, fmt.Errorf("op=%s: %w", op, domain.ErrAlreadySubmitted)
	}
	if err := s.Sessions.IncrementAttempt(ctx, sess.ID); err != nil {
		return ScoreOutcome{}, fmt.Errorf("op=%s: %w", op, err)
	}
	now := clock(s.Now)
	answer := domain.Answer{Explanation: in.Explanation, PseudoCode: in.PseudoCode, Snapshots: in.Snapshots}
	if err := s.Sessions.MarkSubmitted(ctx, sess.ID, answer, now); err != nil {
		return ScoreOutcome{}, fmt.Errorf("op=%s: %w", op, err)
	}
	observability.RecordSubmission()

	sess.IsSubmitted = true
	sess.TestAttemptCount++
	sess.CandidateAnswer, sess.PseudoCode, sess.Snapshots = in.Explanation, in.PseudoCode, in.Snapshots
	sess.SubmittedAt = &now

	out, err := s.Scorer.Score(ctx, sess, in.Metrics)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("scoring failed after submission",
			slog.String("skill_session_id", sess.ID), slog.Any("error", err))
		return ScoreOutcome{}, fmt.Errorf("op=%s: %w", op, err)
	}
	return out, nil
}
