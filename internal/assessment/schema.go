package assessment

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/qri-io/jsonschema"

	"github.com/fairyhunter13/skillproof/internal/domain"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	skillAssessmentSchema = mustLoadSchema("schemas/skill_assessment.json")
	evaluationSchema      = mustLoadSchema("schemas/evaluation.json")
)

func mustLoadSchema(name string) *jsonschema.Schema {
	b, err := schemaFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("assessment: read %s: %v", name, err))
	}
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal(b, rs); err != nil {
		panic(fmt.Sprintf("assessment: compile %s: %v", name, err))
	}
	return rs
}

// validateAgainst checks data against s. A document that fails to parse is
// reported as a plain error; schema violations become a ValidationError.
func validateAgainst(ctx context.Context, op string, s *jsonschema.Schema, data []byte) error {
	keyErrs, err := s.ValidateBytes(ctx, data)
	if err != nil {
		return fmt.Errorf("op=%s: parse: %w", op, err)
	}
	if len(keyErrs) == 0 {
		return nil
	}
	problems := make([]string, 0, len(keyErrs))
	for _, ke := range keyErrs {
		problems = append(problems, fmt.Sprintf("%s: %s", ke.PropertyPath, ke.Message))
	}
	sort.Strings(problems)
	return &domain.ValidationError{Op: op, Problems: problems}
}
