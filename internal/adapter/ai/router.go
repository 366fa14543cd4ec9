// Package ai routes oracle prompts across generative model providers.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fairyhunter13/skillproof/internal/adapter/observability"
	"github.com/fairyhunter13/skillproof/internal/domain"
	"github.com/fairyhunter13/skillproof/internal/service/ratelimiter"
)

// Provider is one generative model backend. Implementations map throttling
// to domain.ErrUpstreamRateLimit and unknown models to domain.ErrModelNotFound.
type Provider interface {
	Name() string
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Target pairs a provider with the model to call on it. A nil Breaker
// never trips.
type Target struct {
	Provider Provider
	Model    string
	Breaker  *Breaker
}

func (t Target) String() string { return t.Provider.Name() + "/" + t.Model }

// LimiterKey names the shared bucket all oracle calls draw from.
const LimiterKey = "oracle"

// Router implements domain.Oracle by walking its targets in order under
// Policy, returning ErrServiceUnavailable once every target is exhausted.
type Router struct {
	Targets []Target
	Policy  Policy
	// Limiter, when set, throttles calls across replicas. A denied call
	// counts as an upstream rate limit.
	Limiter ratelimiter.Limiter
	Sleep   func(ctx context.Context, d time.Duration) error
}

var _ domain.Oracle = (*Router)(nil)

func NewRouter(policy Policy, limiter ratelimiter.Limiter, targets ...Target) *Router {
	return &Router{Targets: targets, Policy: policy, Limiter: limiter, Sleep: sleepCtx}
}

func (r *Router) Generate(ctx context.Context, prompt string) (string, error) {
	lg := observability.LoggerFromContext(ctx)
	sleep := r.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for _, t := range r.Targets {
		if !t.Breaker.Allow() {
			lg.Warn("oracle target skipped", slog.String("target", t.String()), slog.String("breaker", t.Breaker.State().String()))
			lastErr = fmt.Errorf("%s: circuit open", t)
			continue
		}
	attempts:
		for attempt := 0; attempt < r.Policy.Attempts(); attempt++ {
			out, err := r.call(ctx, t, prompt)
			if err == nil {
				return out, nil
			}
			lastErr = err
			action, delay := r.Policy.Decide(attempt, err)
			lg.Warn("oracle attempt failed",
				slog.String("target", t.String()),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", delay),
				slog.Any("error", err))
			if action == NextTarget {
				break attempts
			}
			if delay > 0 {
				if err := sleep(ctx, delay); err != nil {
					return "", fmt.Errorf("op=oracle.generate: %w: %w", domain.ErrServiceUnavailable, err)
				}
			}
		}
	}
	if lastErr == nil {
		lastErr = errors.New("no oracle targets configured")
	}
	return "", fmt.Errorf("op=oracle.generate: %w: %w", domain.ErrServiceUnavailable, lastErr)
}

func (r *Router) call(ctx context.Context, t Target, prompt string) (string, error) {
	if r.Limiter != nil {
		allowed, wait, err := r.Limiter.Allow(ctx, LimiterKey, 1)
		if err == nil && !allowed {
			t.Breaker.Release()
			return "", fmt.Errorf("%w: local quota, retry in %s", domain.ErrUpstreamRateLimit, wait)
		}
	}
	start := time.Now()
	out, err := t.Provider.Generate(ctx, t.Model, prompt)
	observability.ObserveOracleCall(t.Provider.Name(), outcome(err), time.Since(start))
	switch {
	case err == nil:
		t.Breaker.Success()
	case errors.Is(err, domain.ErrUpstreamRateLimit):
		t.Breaker.Release()
	default:
		t.Breaker.Failure()
	}
	return out, err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrUpstreamRateLimit):
		return "rate_limited"
	case errors.Is(err, domain.ErrModelNotFound):
		return "model_not_found"
	default:
		return "error"
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
