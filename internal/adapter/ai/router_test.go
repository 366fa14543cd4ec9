package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/fairyhunter13/skillproof/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// scriptedProvider returns errs in order, then out.
type scriptedProvider struct {
	name  string
	out   string
	errs  []error
	mu    sync.Mutex
	calls []string
}

func (p *scriptedProvider) Name() string { return p.name }

func (p *scriptedProvider) Generate(_ context.Context, model, _ string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, model)
	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		return "", err
	}
	if p.out == "" {
		return "", errors.New("boom")
	}
	return p.out, nil
}

type sleepRecorder struct{ delays []time.Duration }

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func newTestRouter(targets ...Target) (*Router, *sleepRecorder) {
	rec := &sleepRecorder{}
	r := NewRouter(DefaultPolicy(), nil, targets...)
	r.Sleep = rec.sleep
	return r, rec
}

func rateLimited() error { return fmt.Errorf("%w: 429", domain.ErrUpstreamRateLimit) }

func TestPolicy_Decide(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 3, p.Attempts())

	for attempt, want := range []time.Duration{2 * time.Second, 4 * time.Second, 6 * time.Second} {
		action, d := p.Decide(attempt, rateLimited())
		assert.Equal(t, Retry, action)
		assert.Equal(t, want, d)
	}

	action, d := p.Decide(0, domain.ErrModelNotFound)
	assert.Equal(t, NextTarget, action)
	assert.Zero(t, d)

	_, d = p.Decide(1, errors.New("timeout"))
	assert.Equal(t, time.Second, d)
	_, d = p.Decide(2, errors.New("timeout"))
	assert.Zero(t, d)
}

func TestRouter_FirstAttemptSucceeds(t *testing.T) {
	p := &scriptedProvider{name: "gemini", out: `{"ok":true}`}
	r, rec := newTestRouter(Target{Provider: p, Model: "primary"}, Target{Provider: p, Model: "fallback"})

	out, err := r.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
	assert.Equal(t, []string{"primary"}, p.calls)
	assert.Empty(t, rec.delays)
}

func TestRouter_RateLimitBacksOffLinearly(t *testing.T) {
	p := &scriptedProvider{name: "gemini", out: "done", errs: []error{rateLimited(), rateLimited()}}
	r, rec := newTestRouter(Target{Provider: p, Model: "primary"})

	out, err := r.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, rec.delays)
}

func TestRouter_ModelNotFoundSkipsToFallback(t *testing.T) {
	primary := &scriptedProvider{name: "gemini", errs: []error{fmt.Errorf("%w: 404", domain.ErrModelNotFound)}}
	fallback := &scriptedProvider{name: "ollama", out: "from fallback"}
	r, rec := newTestRouter(Target{Provider: primary, Model: "gone"}, Target{Provider: fallback, Model: "llama3"})

	out, err := r.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "from fallback", out)
	assert.Len(t, primary.calls, 1)
	assert.Empty(t, rec.delays)
}

func TestRouter_ExhaustionIsServiceUnavailable(t *testing.T) {
	p := &scriptedProvider{name: "gemini"}
	r, rec := newTestRouter(Target{Provider: p, Model: "primary"}, Target{Provider: p, Model: "fallback"})

	_, err := r.Generate(context.Background(), "prompt")
	require.ErrorIs(t, err, domain.ErrServiceUnavailable)
	assert.Equal(t, []string{"primary", "primary", "primary", "fallback", "fallback", "fallback"}, p.calls)
	assert.Equal(t, []time.Duration{time.Second, time.Second, time.Second, time.Second}, rec.delays)
}

func TestRouter_NoTargets(t *testing.T) {
	r, _ := newTestRouter()
	_, err := r.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
}

func TestRouter_CancelledContextStopsWaiting(t *testing.T) {
	p := &scriptedProvider{name: "gemini", errs: []error{rateLimited(), rateLimited(), rateLimited()}}
	r := NewRouter(DefaultPolicy(), nil, Target{Provider: p, Model: "primary"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Generate(ctx, "prompt")
	require.ErrorIs(t, err, domain.ErrServiceUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, p.calls, 1)
}

type denyLimiter struct{ calls int }

func (l *denyLimiter) Allow(context.Context, string, int64) (bool, time.Duration, error) {
	l.calls++
	return l.calls > 1, time.Second, nil
}

func TestRouter_LimiterDenialCountsAsRateLimit(t *testing.T) {
	p := &scriptedProvider{name: "gemini", out: "ok"}
	r, rec := newTestRouter(Target{Provider: p, Model: "primary"})
	r.Limiter = &denyLimiter{}

	out, err := r.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Len(t, p.calls, 1)
	assert.Equal(t, []time.Duration{2 * time.Second}, rec.delays)
}
