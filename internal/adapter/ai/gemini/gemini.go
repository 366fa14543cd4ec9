// Package gemini serves oracle prompts from Gemini models on Vertex AI.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fairyhunter13/skillproof/internal/domain"
)

const temperature = 0.2

type generateFunc func(ctx context.Context, model, prompt string) (*genai.GenerateContentResponse, error)

// Provider implements ai.Provider.
type Provider struct {
	client   *genai.Client
	generate generateFunc
}

// New dials Vertex AI for the given project and location.
func New(ctx context.Context, project, location string) (*Provider, error) {
	if project == "" {
		return nil, fmt.Errorf("op=gemini.New: %w: GCP project is required", domain.ErrInvalidArgument)
	}
	client, err := genai.NewClient(ctx, project, location)
	if err != nil {
		return nil, fmt.Errorf("op=gemini.New: %w", err)
	}
	p := &Provider{client: client}
	p.generate = func(ctx context.Context, model, prompt string) (*genai.GenerateContentResponse, error) {
		m := client.GenerativeModel(model)
		m.SetTemperature(temperature)
		return m.GenerateContent(ctx, genai.Text(prompt))
	}
	return p, nil
}

func (p *Provider) Name() string { return "gemini" }

func (p *Provider) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := p.generate(ctx, model, prompt)
	if err != nil {
		return "", fmt.Errorf("op=gemini.generate model=%s: %w", model, classify(err))
	}
	text := textOf(resp)
	if text == "" {
		return "", fmt.Errorf("op=gemini.generate model=%s: empty response", model)
	}
	return text, nil
}

func (p *Provider) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}

// classify maps gRPC status codes onto the router's error classes.
func classify(err error) error {
	switch status.Code(err) {
	case codes.ResourceExhausted:
		return errors.Join(domain.ErrUpstreamRateLimit, err)
	case codes.NotFound:
		return errors.Join(domain.ErrModelNotFound, err)
	default:
		return err
	}
}

func textOf(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}
