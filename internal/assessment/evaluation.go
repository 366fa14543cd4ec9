package assessment

import (
	"context"
	"unicode/utf8"

	"github.com/fairyhunter13/skillproof/internal/domain"
)

// EvaluateAnswer scores an answer. Oracle unavailability and unparseable
// output fall back to a length heuristic; schema violations do not.
func (e Engine) EvaluateAnswer(ctx context.Context, req domain.EvaluationRequest) (domain.Evaluation, error) {
	var out domain.Evaluation
	err := e.askJSON(ctx, opEvaluate, evaluationPrompt(req, e.truncate(req.Answer)), evaluationSchema, &out)
	if err == nil {
		if out.Strengths == nil {
			out.Strengths = []string{}
		}
		if out.Weaknesses == nil {
			out.Weaknesses = []string{}
		}
		return out, nil
	}
	if domain.IsValidation(err) {
		return domain.Evaluation{}, err
	}
	fallbackUsed(ctx, opEvaluate, err)
	return FallbackEvaluation(req.Answer), nil
}

// FallbackEvaluation grades an answer on its length in characters.
func FallbackEvaluation(answer string) domain.Evaluation {
	n := utf8.RuneCountInString(answer)
	var score float64
	switch {
	case n > 1000:
		score = 7
	case n > 500:
		score = 5
	case n > 200:
		score = 4
	default:
		score = 2
	}
	approach := domain.ApproachRandom
	if n > 500 {
		approach = domain.ApproachSemiStructured
	}
	verdict := domain.VerdictNeedsImprovement
	if score >= 5 {
		verdict = domain.VerdictSurfaceLevel
	}
	return domain.Evaluation{
		Score:             score,
		ApproachQuality:   approach,
		ThinkingStyle:     "Evaluated offline while the AI service was unavailable",
		TimeEfficiency:    domain.TimeBalanced,
		Strengths:         []string{"Candidate submitted an answer"},
		Weaknesses:        []string{"AI evaluation could not run; the offline fallback was used"},
		Verdict:           verdict,
		ConfidenceInsight: "Offline evaluation; re-evaluate when the AI service is available",
	}
}
