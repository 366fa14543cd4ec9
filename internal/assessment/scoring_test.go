package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fairyhunter13/skillproof/internal/domain"
)

func TestCalibrate(t *testing.T) {
	cases := []struct {
		name  string
		score float64
		level domain.SkillLevel
		want  domain.ConfidenceInsight
	}{
		{"no level", 0, "", domain.AccurateConfidence},
		{"beginner scores high", 6, domain.LevelBeginner, domain.Underconfidence},
		{"beginner on target", 5, domain.LevelBeginner, domain.AccurateConfidence},
		{"beginner scores low", 2, domain.LevelBeginner, domain.Overconfidence},
		{"intermediate on target", 8, domain.LevelIntermediate, domain.AccurateConfidence},
		{"intermediate high", 9, domain.LevelIntermediate, domain.Underconfidence},
		{"experienced low", 7, domain.LevelExperienced, domain.Overconfidence},
		{"experienced on target", 8, domain.LevelExperienced, domain.AccurateConfidence},
		{"unknown level uses seven", 5, domain.SkillLevel("Guru"), domain.Overconfidence},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Calibrate(tc.score, tc.level))
		})
	}
}

func TestIntegrityThresholds(t *testing.T) {
	assert.False(t, EagerFlag(5))
	assert.True(t, EagerFlag(6))

	assert.Equal(t, domain.IntegrityClean, FinalIntegrity(0))
	assert.Equal(t, domain.IntegrityClean, FinalIntegrity(3))
	assert.Equal(t, domain.IntegrityFlagged, FinalIntegrity(4))
}
