// Package ollama serves oracle prompts from a self-hosted Ollama instance.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/skillproof/internal/domain"
)

// Provider implements ai.Provider.
type Provider struct {
	api *api.Client
}

// New builds a provider for baseURL. A nil httpClient gets an instrumented default.
func New(baseURL string, httpClient *http.Client) (*Provider, error) {
	u, err := url.ParseRequestURI(baseURL)
	if err != nil {
		return nil, fmt.Errorf("op=ollama.New: invalid base url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &Provider{api: api.NewClient(u, httpClient)}, nil
}

func (p *Provider) Name() string { return "ollama" }

func (p *Provider) Generate(ctx context.Context, model, prompt string) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:   model,
		Prompt:  prompt,
		Stream:  &stream,
		Options: map[string]any{"temperature": 0.2},
	}
	var b strings.Builder
	err := p.api.Generate(ctx, req, func(r api.GenerateResponse) error {
		b.WriteString(r.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("op=ollama.generate model=%s: %w", model, classify(err))
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("op=ollama.generate model=%s: empty response", model)
	}
	return b.String(), nil
}

// classify maps Ollama failures onto the router's error classes. Depending
// on the body the client reports either a StatusError or a bare message.
func classify(err error) error {
	var se api.StatusError
	if errors.As(err, &se) {
		switch se.StatusCode {
		case http.StatusTooManyRequests:
			return errors.Join(domain.ErrUpstreamRateLimit, err)
		case http.StatusNotFound:
			return errors.Join(domain.ErrModelNotFound, err)
		}
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "not found"):
		return errors.Join(domain.ErrModelNotFound, err)
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "too many requests"):
		return errors.Join(domain.ErrUpstreamRateLimit, err)
	}
	return err
}
