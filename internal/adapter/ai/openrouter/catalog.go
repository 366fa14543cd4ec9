package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fairyhunter13/skillproof/internal/domain"
)

// FreeModel is the placeholder model name resolved through the Catalog.
const FreeModel = "free"

type model struct {
	ID      string  `json:"id"`
	Pricing pricing `json:"pricing"`
}

type pricing struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
	Request    string `json:"request"`
}

// Catalog lists the zero-priced models an OpenRouter account may call.
// Results are cached for ttl; a failed refresh keeps serving the last list.
type Catalog struct {
	baseURL string
	apiKey  string
	ttl     time.Duration
	hc      *http.Client

	mu        sync.Mutex
	ids       []string
	fetchedAt time.Time
}

func NewCatalog(baseURL, apiKey string, ttl time.Duration, hc *http.Client) *Catalog {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Catalog{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, ttl: ttl, hc: hc}
}

// FreeModels returns the ids of free models, refreshing when stale.
func (c *Catalog) FreeModels(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ids != nil && time.Since(c.fetchedAt) < c.ttl {
		return c.ids, nil
	}
	ids, err := c.fetch(ctx)
	if err != nil {
		if c.ids != nil {
			slog.Warn("openrouter catalog refresh failed, serving cached list",
				slog.Int("cached", len(c.ids)),
				slog.Any("error", err))
			return c.ids, nil
		}
		return nil, err
	}
	c.ids, c.fetchedAt = ids, time.Now()
	slog.Info("openrouter catalog refreshed", slog.Int("free_models", len(ids)))
	return ids, nil
}

// Resolve maps FreeModel to the first free catalog entry and returns any
// other name unchanged.
func (c *Catalog) Resolve(ctx context.Context, name string) (string, error) {
	if name != FreeModel {
		return name, nil
	}
	ids, err := c.FreeModels(ctx)
	if err != nil {
		return "", fmt.Errorf("op=openrouter.resolve: %w", err)
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("op=openrouter.resolve: %w: no free models listed", domain.ErrModelNotFound)
	}
	return ids[0], nil
}

func (c *Catalog) fetch(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("op=openrouter.catalog: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("op=openrouter.catalog: %w: %w", domain.ErrServiceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("op=openrouter.catalog: %w", domain.ErrUpstreamRateLimit)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("op=openrouter.catalog: status %d: %s", resp.StatusCode, body)
	}
	var out struct {
		Data []model `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("op=openrouter.catalog: decode: %w", err)
	}
	ids := make([]string, 0, len(out.Data))
	for _, m := range out.Data {
		if isFree(m) {
			ids = append(ids, m.ID)
		}
	}
	return ids, nil
}

// isFree excludes auto-routing ids, which pick a paid model on the fly.
func isFree(m model) bool {
	if strings.Contains(strings.ToLower(m.ID), "auto") {
		return false
	}
	for _, p := range []string{m.Pricing.Prompt, m.Pricing.Completion, m.Pricing.Request} {
		if p == "" {
			continue
		}
		if f, err := strconv.ParseFloat(p, 64); err != nil || f != 0 {
			return false
		}
	}
	return true
}
