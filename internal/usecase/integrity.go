package usecase

import (
	"errors"
	"fmt"
	"time"

	"github.com/fairyhunter13/skillproof/internal/adapter/observability"
	"github.com/fairyhunter13/skillproof/internal/assessment"
	"github.com/fairyhunter13/skillproof/internal/domain"
)

// IntegrityService accumulates client-reported anti-cheat events and turns
// them into a Clean or Flagged verdict.
type IntegrityService struct {
	Links    LinkService
	Sessions domain.SkillSessionRepository
	Logs     domain.IntegrityLogRepository
	Now      func() time.Time
}

// RecordEvent appends an event to a running session's log. Once the log
// holds more than five events it is flagged straight away.
func (s IntegrityService) RecordEvent(ctx domain.Context, token, skillSessionID string, typ domain.IntegrityEventType, at time.Time) (domain.IntegrityLog, error) {
	if !typ.Valid() {
		return domain.IntegrityLog{}, fmt.Errorf("op=integrity.record: %w: unknown event type %q", domain.ErrInvalidArgument, typ)
	}
	l, err := s.Links.Validate(ctx, token)
	if err != nil {
		return domain.IntegrityLog{}, err
	}
	sess, err := sessionOnLink(ctx, s.Sessions, l, skillSessionID)
	if err != nil {
		return domain.IntegrityLog{}, fmt.Errorf("op=integrity.record: %w", err)
	}
	if sess.IsSubmitted {
		return domain.IntegrityLog{}, fmt.Errorf("op=integrity.record: %w: session already submitted", domain.ErrConflict)
	}
	if at.IsZero() {
		at = clock(s.Now)
	}
	log, err := s.Logs.AppendEvent(ctx, sess.ID, domain.IntegrityEvent{Type: typ, Timestamp: at.UTC()})
	if err != nil {
		return domain.IntegrityLog{}, fmt.Errorf("op=integrity.record: %w", err)
	}
	if n := len(log.Events); assessment.EagerFlag(n) {
		if err := s.Logs.SetStatus(ctx, sess.ID, domain.IntegrityFlagged, n); err != nil {
			return domain.IntegrityLog{}, fmt.Errorf("op=integrity.record: %w", err)
		}
		log.Status, log.ViolationCount = domain.IntegrityFlagged, n
	}
	return log, nil
}

// Finalize computes the verdict stored with the report, overwriting any
// eager flag. A session without a log is Clean.
func (s IntegrityService) Finalize(ctx domain.Context, skillSessionID string) (domain.IntegrityStatus, error) {
	log, err := s.Logs.GetBySession(ctx, skillSessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			observability.RecordIntegrityVerdict(string(domain.IntegrityClean))
			return domain.IntegrityClean, nil
		}
		return "", fmt.Errorf("op=integrity.finalize: %w", err)
	}
	n := len(log.Events)
	status := assessment.FinalIntegrity(n)
	if err := s.Logs.SetStatus(ctx, skillSessionID, status, n); err != nil {
		return "", fmt.Errorf("op=integrity.finalize: %w", err)
	}
	observability.RecordIntegrityVerdict(string(status))
	return status, nil
}

// sessionOnLink loads a session by id and hides it unless it belongs to l.
func sessionOnLink(ctx domain.Context, sessions domain.SkillSessionRepository, l domain.TestLink, id string) (domain.SkillSession, error) {
	sess, err := sessions.Get(ctx, id)
	if err != nil {
		return domain.SkillSession{}, err
	}
	if sess.TestLinkID != l.ID {
		return domain.SkillSession{}, fmt.Errorf("%w: skill session", domain.ErrNotFound)
	}
	return sess, nil
}
