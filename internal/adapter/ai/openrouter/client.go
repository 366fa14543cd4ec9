// Package openrouter serves oracle prompts through an OpenAI-compatible
// chat completions endpoint such as OpenRouter.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	backoff "github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/skillproof/internal/adapter/observability"
	"github.com/fairyhunter13/skillproof/internal/config"
	"github.com/fairyhunter13/skillproof/internal/domain"
)

const maxTokens = 2048

// Client implements ai.Provider. Transient transport failures (5xx and
// network errors) are retried here with exponential backoff; rate limits and
// unknown models are handed back to the router untouched.
type Client struct {
	cfg config.Config
	hc  *http.Client
}

func New(cfg config.Config) *Client {
	return &Client{
		cfg: cfg,
		hc: &http.Client{
			Timeout: cfg.OracleHTTPTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
					return "openrouter " + r.URL.Path
				})),
		},
	}
}

func (c *Client) Name() string { return "openrouter" }

func (c *Client) backoffConfig() *backoff.ExponentialBackOff {
	expo := backoff.NewExponentialBackOff()
	maxElapsed, initial, maxInterval, multiplier := c.cfg.GetAIBackoffConfig()
	expo.MaxElapsedTime = maxElapsed
	expo.InitialInterval = initial
	expo.MaxInterval = maxInterval
	expo.Multiplier = multiplier
	return expo
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	if c.cfg.OpenRouterAPIKey == "" {
		return "", fmt.Errorf("op=openrouter.generate: %w: OPENROUTER_API_KEY missing", domain.ErrInvalidArgument)
	}
	lg := observability.LoggerFromContext(ctx)
	endpoint := c.cfg.OpenRouterBaseURL + "/chat/completions"
	b, err := json.Marshal(map[string]any{
		"model":       model,
		"temperature": 0.2,
		"max_tokens":  maxTokens,
		"messages":    []map[string]string{{"role": "user", "content": prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("op=openrouter.generate: %w", err)
	}

	var out chatResponse
	op := func() error {
		// rebuilt per attempt so the body is never reused
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.OpenRouterAPIKey)
		req.Header.Set("Content-Type", "application/json")
		if c.cfg.OpenRouterTitle != "" {
			req.Header.Set("X-Title", c.cfg.OpenRouterTitle)
		}
		resp, err := c.hc.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()
		body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return err
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return backoff.Permanent(fmt.Errorf("%w: status 429", domain.ErrUpstreamRateLimit))
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(fmt.Errorf("%w: %s", domain.ErrModelNotFound, snippet(body)))
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			lg.Warn("oracle provider 4xx",
				slog.String("provider", "openrouter"),
				slog.Int("status", resp.StatusCode),
				slog.String("model", model),
				slog.String("body", snippet(body)))
			return backoff.Permanent(fmt.Errorf("chat status %d", resp.StatusCode))
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return fmt.Errorf("chat status %d", resp.StatusCode)
		}
		return json.Unmarshal(body, &out)
	}

	if err := backoff.Retry(op, backoff.WithContext(c.backoffConfig(), ctx)); err != nil {
		return "", fmt.Errorf("op=openrouter.generate model=%s: %w", model, err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("op=openrouter.generate model=%s: %w", model, errors.New("empty choices"))
	}
	if out.Model != "" && out.Model != model {
		lg.Info("model substitution", slog.String("requested", model), slog.String("actual", out.Model))
	}
	return out.Choices[0].Message.Content, nil
}

func snippet(b []byte) string {
	if len(b) > 512 {
		b = b[:512]
	}
	return string(b)
}
