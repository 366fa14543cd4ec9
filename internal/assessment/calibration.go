package assessment

import "github.com/fairyhunter13/skillproof/internal/domain"

// calibrationMargin is how far a score must sit from the level's reference
// before the candidate is considered mis-calibrated.
const calibrationMargin = 2

var referenceScores = map[domain.SkillLevel]float64{
	domain.LevelBeginner:     4,
	domain.LevelIntermediate: 7,
	domain.LevelExperienced:  9,
}

// Calibrate compares a demonstrated score with the level inferred from the
// resume. A candidate scoring well above the reference undersold themselves;
// one scoring well below oversold. No level means nothing to compare.
func Calibrate(score float64, level domain.SkillLevel) domain.ConfidenceInsight {
	if level == "" {
		return domain.AccurateConfidence
	}
	ref, ok := referenceScores[level]
	if !ok {
		ref = referenceScores[domain.LevelIntermediate]
	}
	switch {
	case score >= ref+calibrationMargin:
		return domain.Underconfidence
	case score <= ref-calibrationMargin:
		return domain.Overconfidence
	default:
		return domain.AccurateConfidence
	}
}
