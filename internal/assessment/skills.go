package assessment

import (
	"context"
	"strings"

	"github.com/fairyhunter13/skillproof/internal/domain"
)

// InferSkills assesses free text (resume or assembled manual input)
// against the required skills. Schema violations are returned as-is.
func (e Engine) InferSkills(ctx context.Context, text string, required []string) (domain.SkillAssessment, error) {
	var out domain.SkillAssessment
	err := e.askJSON(ctx, opSkills, skillsPrompt(e.truncate(text), required), skillAssessmentSchema, &out)
	if err == nil {
		if out.DetectedSkills == nil {
			out.DetectedSkills = []string{}
		}
		return out, nil
	}
	if domain.IsValidation(err) {
		return domain.SkillAssessment{}, err
	}
	fallbackUsed(ctx, opSkills, err)
	return FallbackSkills(text, required), nil
}

// FallbackSkills is the keyword-matching assessment used when the oracle
// cannot answer. It is deterministic and never returns an empty skill list
// for a non-empty required list.
func FallbackSkills(text string, required []string) domain.SkillAssessment {
	lower := strings.ToLower(text)
	matched := make([]string, 0, len(required))
	for _, s := range required {
		if strings.Contains(lower, strings.ToLower(s)) {
			matched = append(matched, s)
		}
	}
	ratio := float64(len(matched)) / float64(max(len(required), 1))

	level := domain.LevelBeginner
	switch {
	case ratio > 0.6:
		level = domain.LevelExperienced
	case ratio > 0.3:
		level = domain.LevelIntermediate
	}
	depth := domain.DepthLow
	if ratio > 0.5 {
		depth = domain.DepthMedium
	}

	detected := matched
	if len(detected) == 0 {
		detected = append([]string{}, required[:min(2, len(required))]...)
	}

	return domain.SkillAssessment{
		DetectedSkills:    detected,
		SkillsDepth:       depth,
		ExperienceSummary: "Offline analysis: the AI service was unavailable, so basic keyword matching was used.",
		ProjectComplexity: domain.DepthMedium,
		SuggestedLevel:    level,
		Confidence:        domain.ConfidenceLow,
		Reasoning:         "Automated fallback: skills were matched against the required list by keyword only.",
	}
}

// ManualText assembles manual skill input into the text handed to InferSkills.
func ManualText(skills []string, experience, projects string) string {
	return "Skills: " + strings.Join(skills, ", ") + "\nExperience: " + experience + "\nProjects: " + projects
}
