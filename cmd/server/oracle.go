package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	ai "github.com/fairyhunter13/skillproof/internal/adapter/ai"
	"github.com/fairyhunter13/skillproof/internal/adapter/ai/gemini"
	"github.com/fairyhunter13/skillproof/internal/adapter/ai/ollama"
	"github.com/fairyhunter13/skillproof/internal/adapter/ai/openrouter"
	"github.com/fairyhunter13/skillproof/internal/config"
	"github.com/fairyhunter13/skillproof/internal/service/ratelimiter"
)

// providerSet lazily builds each named provider once so primary and
// fallback can share a client.
type providerSet struct {
	cfg     config.Config
	built   map[string]ai.Provider
	closers []func() error
	cat     *openrouter.Catalog
}

func (p *providerSet) catalog() *openrouter.Catalog {
	if p.cat == nil {
		p.cat = openrouter.NewCatalog(p.cfg.OpenRouterBaseURL, p.cfg.OpenRouterAPIKey, p.cfg.OpenRouterCatalogTTL, &http.Client{
			Timeout:   p.cfg.OracleHTTPTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		})
	}
	return p.cat
}

func (p *providerSet) get(ctx context.Context, name string) (ai.Provider, error) {
	if pr, ok := p.built[name]; ok {
		return pr, nil
	}
	var pr ai.Provider
	switch name {
	case "gemini":
		g, err := gemini.New(ctx, p.cfg.GCPProject, p.cfg.GCPLocation)
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, g.Close)
		pr = g
	case "openrouter":
		pr = openrouter.New(p.cfg)
	case "ollama":
		o, err := ollama.New(p.cfg.OllamaURL, &http.Client{
			Timeout:   p.cfg.OracleHTTPTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		})
		if err != nil {
			return nil, err
		}
		pr = o
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", name)
	}
	p.built[name] = pr
	return pr, nil
}

func (p *providerSet) Close() {
	for _, c := range p.closers {
		if err := c(); err != nil {
			slog.Warn("oracle provider close failed", slog.Any("error", err))
		}
	}
}

// buildOracle wires the primary and fallback targets behind the retry router.
func buildOracle(ctx context.Context, cfg config.Config, limiter ratelimiter.Limiter) (*ai.Router, *providerSet, error) {
	set := &providerSet{cfg: cfg, built: map[string]ai.Provider{}}
	primary, err := set.get(ctx, cfg.OracleProvider)
	if err != nil {
		return nil, nil, fmt.Errorf("op=oracle.build primary: %w", err)
	}
	targets := []ai.Target{{Provider: primary, Model: cfg.OraclePrimaryModel}}
	if cfg.OracleFallbackModel != "" {
		fallback, err := set.get(ctx, cfg.OracleFallbackProvider)
		if err != nil {
			set.Close()
			return nil, nil, fmt.Errorf("op=oracle.build fallback: %w", err)
		}
		targets = append(targets, ai.Target{Provider: fallback, Model: cfg.OracleFallbackModel})
	}
	for i := range targets {
		t := &targets[i]
		if t.Provider.Name() == "openrouter" && t.Model == openrouter.FreeModel {
			model, err := set.catalog().Resolve(ctx, t.Model)
			if err != nil {
				set.Close()
				return nil, nil, fmt.Errorf("op=oracle.build: %w", err)
			}
			t.Model = model
		}
		t.Breaker = ai.NewBreaker(t.String(), cfg.OracleBreakerFailures, cfg.OracleBreakerCooldown)
	}
	retries, rateLimitDelay, retryDelay := cfg.OracleRetry()
	policy := ai.Policy{Retries: retries, RateLimitDelay: rateLimitDelay, RetryDelay: retryDelay}
	for _, t := range targets {
		slog.Info("oracle target configured", slog.String("target", t.String()))
	}
	return ai.NewRouter(policy, limiter, targets...), set, nil
}
