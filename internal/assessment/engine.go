// Package assessment turns oracle output into skill assessments, tasks,
// evaluations and report text, with deterministic offline fallbacks when
// the oracle is unavailable or answers with something unusable.
package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/qri-io/jsonschema"

	"github.com/fairyhunter13/skillproof/internal/adapter/observability"
	"github.com/fairyhunter13/skillproof/internal/domain"
	"github.com/fairyhunter13/skillproof/pkg/textx"
)

const (
	opSkills   = "assess.skills"
	opTask     = "assess.task"
	opEvaluate = "assess.evaluate"
	opReport   = "assess.report"
)

var errNoJSON = errors.New("no json object in oracle output")

// Truncator caps free text at a token budget before it is placed in a prompt.
type Truncator interface {
	Truncate(text string, maxTokens int) string
}

// Engine implements domain.Assessor on top of a domain.Oracle.
type Engine struct {
	Oracle          domain.Oracle
	Tokens          Truncator
	MaxPromptTokens int
}

// NewEngine constructs an Engine. tokens may be nil, in which case inputs
// are passed to the oracle untruncated.
func NewEngine(o domain.Oracle, tokens Truncator, maxPromptTokens int) Engine {
	return Engine{Oracle: o, Tokens: tokens, MaxPromptTokens: maxPromptTokens}
}

var _ domain.Assessor = Engine{}

func (e Engine) truncate(text string) string {
	if e.Tokens == nil || e.MaxPromptTokens <= 0 {
		return text
	}
	return e.Tokens.Truncate(text, e.MaxPromptTokens)
}

// generate calls the oracle, treating a missing oracle as unavailable.
func (e Engine) generate(ctx context.Context, op, prompt string) (string, error) {
	if e.Oracle == nil {
		return "", fmt.Errorf("op=%s: %w", op, domain.ErrServiceUnavailable)
	}
	out, err := e.Oracle.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("op=%s: %w", op, err)
	}
	return out, nil
}

// askJSON runs prompt through the oracle and decodes the first JSON object
// of the answer into out. A non-nil schema is enforced before decoding; its
// violations come back as *domain.ValidationError. Every other error means
// the caller should use its offline fallback.
func (e Engine) askJSON(ctx context.Context, op, prompt string, schema *jsonschema.Schema, out any) error {
	raw, err := e.generate(ctx, op, prompt)
	if err != nil {
		return err
	}
	obj, ok := textx.ExtractJSONObject(raw)
	if !ok {
		return fmt.Errorf("op=%s: %w", op, errNoJSON)
	}
	if schema != nil {
		if err := validateAgainst(ctx, op, schema, []byte(obj)); err != nil {
			return err
		}
	}
	if err := json.Unmarshal([]byte(obj), out); err != nil {
		return fmt.Errorf("op=%s: decode: %w", op, err)
	}
	return nil
}

func fallbackUsed(ctx context.Context, op string, cause error) {
	observability.RecordFallback(op)
	observability.LoggerFromContext(ctx).Warn("oracle unusable, using offline fallback",
		slog.String("op", op),
		slog.Any("error", cause))
}
