package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fairyhunter13/skillproof/internal/adapter/observability"
	"github.com/fairyhunter13/skillproof/internal/domain"
)

const maxLinkExpiryDays = 365

// IssuedLink is a freshly created link together with the URL handed to candidates.
type IssuedLink struct {
	domain.TestLink
	TestURL string `json:"testUrl"`
}

// LinkService gates every candidate-facing operation on a live test link
// and lets HR users issue and revoke links.
type LinkService struct {
	Links             domain.TestLinkRepository
	Jobs              domain.JobPositionRepository
	FrontendURL       string
	DefaultExpiryDays int
	Now               func() time.Time
}

// NewLinkService constructs a LinkService.
func NewLinkService(l domain.TestLinkRepository, j domain.JobPositionRepository, frontendURL string, defaultExpiryDays int) LinkService {
	return LinkService{Links: l, Jobs: j, FrontendURL: frontendURL, DefaultExpiryDays: defaultExpiryDays}
}

// Validate returns the active link for token. A link found past its expiry
// date is expired on the spot and reported as not found.
func (s LinkService) Validate(ctx domain.Context, token string) (domain.TestLink, error) {
	if strings.TrimSpace(token) == "" {
		return domain.TestLink{}, fmt.Errorf("op=link.validate: %w: test link", domain.ErrNotFound)
	}
	l, err := s.Links.FindActiveByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.TestLink{}, fmt.Errorf("op=link.validate: %w: test link", domain.ErrNotFound)
		}
		return domain.TestLink{}, fmt.Errorf("op=link.validate: %w", err)
	}
	if l.PastExpiry(clock(s.Now)) {
		if err := s.Links.MarkExpired(ctx, l.ID); err != nil {
			observability.LoggerFromContext(ctx).Error("failed to expire test link",
				slog.String("link_id", l.ID), slog.Any("error", err))
		}
		return domain.TestLink{}, fmt.Errorf("op=link.validate: %w: test link expired", domain.ErrNotFound)
	}
	return l, nil
}

// Describe validates token and returns the job it assesses.
func (s LinkService) Describe(ctx domain.Context, token string) (domain.TestLink, domain.JobPosition, error) {
	l, err := s.Validate(ctx, token)
	if err != nil {
		return domain.TestLink{}, domain.JobPosition{}, err
	}
	j, err := s.Jobs.Get(ctx, l.JobPositionID)
	if err != nil {
		return domain.TestLink{}, domain.JobPosition{}, fmt.Errorf("op=link.describe: %w", err)
	}
	return l, j, nil
}

// Issue creates a link for a job owned by hrUserID. expiryDays of zero uses
// the configured default.
func (s LinkService) Issue(ctx domain.Context, hrUserID, jobPositionID string, expiryDays int) (IssuedLink, error) {
	if expiryDays == 0 {
		expiryDays = s.DefaultExpiryDays
	}
	if expiryDays < 1 || expiryDays > maxLinkExpiryDays {
		return IssuedLink{}, fmt.Errorf("op=link.issue: %w: expiryDays must be between 1 and %d", domain.ErrInvalidArgument, maxLinkExpiryDays)
	}
	if _, err := ownedJob(ctx, s.Jobs, hrUserID, jobPositionID); err != nil {
		return IssuedLink{}, fmt.Errorf("op=link.issue: %w", err)
	}
	now := clock(s.Now)
	l, err := s.Links.Create(ctx, domain.TestLink{
		Token:         uuid.NewString(),
		JobPositionID: jobPositionID,
		IssuerID:      hrUserID,
		ExpiryDate:    now.AddDate(0, 0, expiryDays),
	})
	if err != nil {
		return IssuedLink{}, fmt.Errorf("op=link.issue: %w", err)
	}
	return IssuedLink{TestLink: l, TestURL: s.testURL(l.Token)}, nil
}

func (s LinkService) testURL(token string) string {
	return strings.TrimRight(s.FrontendURL, "/") + "/test/" + token
}

// Revoke expires one of hrUserID's links.
func (s LinkService) Revoke(ctx domain.Context, hrUserID, linkID string) error {
	if err := s.Links.Revoke(ctx, hrUserID, linkID); err != nil {
		return fmt.Errorf("op=link.revoke: %w", err)
	}
	return nil
}

// ListByJob lists the links of a job owned by hrUserID.
func (s LinkService) ListByJob(ctx domain.Context, hrUserID, jobPositionID string) ([]IssuedLink, error) {
	if _, err := ownedJob(ctx, s.Jobs, hrUserID, jobPositionID); err != nil {
		return nil, fmt.Errorf("op=link.list: %w", err)
	}
	links, err := s.Links.ListByJob(ctx, jobPositionID)
	if err != nil {
		return nil, fmt.Errorf("op=link.list: %w", err)
	}
	out := make([]IssuedLink, 0, len(links))
	for _, l := range links {
		out = append(out, IssuedLink{TestLink: l, TestURL: s.testURL(l.Token)})
	}
	return out, nil
}

// ownedJob loads a job and hides it from anyone but its owner.
func ownedJob(ctx domain.Context, jobs domain.JobPositionRepository, hrUserID, id string) (domain.JobPosition, error) {
	j, err := jobs.Get(ctx, id)
	if err != nil {
		return domain.JobPosition{}, err
	}
	if j.HRUserID != hrUserID {
		return domain.JobPosition{}, fmt.Errorf("%w: job position", domain.ErrNotFound)
	}
	return j, nil
}
