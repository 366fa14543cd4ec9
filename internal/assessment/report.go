package assessment

import (
	"context"
	"fmt"
	"strings"

	"github.com/fairyhunter13/skillproof/internal/domain"
)

// GenerateReportText returns the plain-English report paragraph, falling
// back to a template when the oracle returns nothing usable.
func (e Engine) GenerateReportText(ctx context.Context, req domain.ReportTextRequest) (string, error) {
	out, err := e.generate(ctx, opReport, reportPrompt(req))
	if err == nil && strings.TrimSpace(out) != "" {
		return strings.TrimSpace(out), nil
	}
	if err == nil {
		err = fmt.Errorf("op=%s: empty oracle output", opReport)
	}
	fallbackUsed(ctx, opReport, err)
	return FallbackReportText(req), nil
}

// FallbackReportText summarizes the evaluation without the oracle.
func FallbackReportText(req domain.ReportTextRequest) string {
	ev := req.Evaluation
	orNone := func(items []string) string {
		if len(items) == 0 {
			return "None identified"
		}
		return strings.Join(items, ", ")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Skill Proof Report for %s, %s\n\n", req.CandidateName, req.JobTitle)
	fmt.Fprintf(&b, "The candidate was assessed at the %s level. Their evaluation score was %g/10 with a verdict of %q. ", req.Level, ev.Score, ev.Verdict)
	fmt.Fprintf(&b, "Approach quality: %s. Time efficiency: %s.\n\n", ev.ApproachQuality, ev.TimeEfficiency)
	fmt.Fprintf(&b, "Strengths: %s. Weaknesses: %s.\n\n", orNone(ev.Strengths), orNone(ev.Weaknesses))
	fmt.Fprintf(&b, "Integrity status: %s. Confidence assessment: %s.\n\n", req.IntegrityStatus, req.ConfidenceAssessment)
	b.WriteString("Note: this report was produced by the offline fallback because the AI service was temporarily unavailable. A full AI evaluation can be requested once the service is restored.")
	return b.String()
}
