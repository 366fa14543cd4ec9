package usecase

import (
	"fmt"

	"github.com/fairyhunter13/skillproof/internal/domain"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	// exportCap bounds how many reports a single export may contain.
	exportCap = 5000
)

// ReportDetail is a report with the evaluation and session it came from.
type ReportDetail struct {
	Report     domain.SkillProofReport `json:"report"`
	Evaluation domain.EvaluationResult `json:"evaluation"`
	Session    domain.SkillSession     `json:"session"`
}

// DashboardService serves HR read models. Every query is scoped to jobs
// owned by the calling HR user.
type DashboardService struct {
	Jobs        domain.JobPositionRepository
	Sessions    domain.SkillSessionRepository
	Evaluations domain.EvaluationResultRepository
	Reports     domain.ReportRepository
	Exporter    domain.ReportExporter
}

// NormalizePage clamps page and limit to the accepted ranges.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case limit <= 0:
		limit = defaultPageLimit
	case limit > maxPageLimit:
		limit = maxPageLimit
	}
	return page, limit
}

func (s DashboardService) ListReports(ctx domain.Context, f domain.ReportFilter) (domain.ReportPage, error) {
	if f.HRUserID == "" {
		return domain.ReportPage{}, fmt.Errorf("op=dashboard.list: %w", domain.ErrUnauthorized)
	}
	f.Page, f.Limit = NormalizePage(f.Page, f.Limit)
	page, err := s.Reports.List(ctx, f)
	if err != nil {
		return domain.ReportPage{}, fmt.Errorf("op=dashboard.list: %w", err)
	}
	return page, nil
}

// ListSubmissions returns every session issued for one of the caller's jobs.
func (s DashboardService) ListSubmissions(ctx domain.Context, hrUserID, jobPositionID string) ([]domain.Submission, error) {
	if _, err := ownedJob(ctx, s.Jobs, hrUserID, jobPositionID); err != nil {
		return nil, fmt.Errorf("op=dashboard.submissions: %w", err)
	}
	subs, err := s.Sessions.ListSubmissionsByJob(ctx, jobPositionID)
	if err != nil {
		return nil, fmt.Errorf("op=dashboard.submissions: %w", err)
	}
	return subs, nil
}

func (s DashboardService) ReportDetail(ctx domain.Context, hrUserID, reportID string) (ReportDetail, error) {
	rep, err := s.Reports.Get(ctx, reportID)
	if err != nil {
		return ReportDetail{}, fmt.Errorf("op=dashboard.detail: %w", err)
	}
	if _, err := ownedJob(ctx, s.Jobs, hrUserID, rep.JobPositionID); err != nil {
		return ReportDetail{}, fmt.Errorf("op=dashboard.detail: %w", err)
	}
	ev, err := s.Evaluations.GetBySession(ctx, rep.SkillSessionID)
	if err != nil {
		return ReportDetail{}, fmt.Errorf("op=dashboard.detail: %w", err)
	}
	sess, err := s.Sessions.Get(ctx, rep.SkillSessionID)
	if err != nil {
		return ReportDetail{}, fmt.Errorf("op=dashboard.detail: %w", err)
	}
	return ReportDetail{Report: rep, Evaluation: ev, Session: sess}, nil
}

// ExportReports renders every report matching f into a spreadsheet.
func (s DashboardService) ExportReports(ctx domain.Context, f domain.ReportFilter) ([]byte, error) {
	if f.HRUserID == "" {
		return nil, fmt.Errorf("op=dashboard.export: %w", domain.ErrUnauthorized)
	}
	f.Limit = maxPageLimit
	var all []domain.SkillProofReport
	for f.Page = 1; len(all) < exportCap; f.Page++ {
		page, err := s.Reports.List(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("op=dashboard.export: %w", err)
		}
		all = append(all, page.Items...)
		if len(page.Items) < f.Limit || len(all) >= page.Total {
			break
		}
	}
	out, err := s.Exporter.Export(ctx, all)
	if err != nil {
		return nil, fmt.Errorf("op=dashboard.export: %w", err)
	}
	return out, nil
}
