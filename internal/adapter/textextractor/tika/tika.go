// Package tika provides Apache Tika integration for resume text extraction.
package tika

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/skillproof/internal/domain"
	"github.com/fairyhunter13/skillproof/pkg/textx"
)

// Client is a minimal Apache Tika HTTP client implementing domain.TextExtractor.
// It performs PUT /tika with Accept: text/plain to retrieve extracted text.
// See: https://tika.apache.org/server/ for API details.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ domain.TextExtractor = (*Client)(nil)

// New constructs a traced Tika client.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:9998"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Extract uploads data to Tika and returns whitespace-collapsed plain text.
func (c *Client) Extract(ctx context.Context, fileName string, fileType domain.FileType, data []byte) (string, error) {
	ct := contentType(fileType)
	if ct == "" {
		return "", fmt.Errorf("op=tika.extract: %w: %s", domain.ErrUnsupportedFileType, fileType)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/tika", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("op=tika.extract: %w", err)
	}
	req.Header.Set("Accept", "text/plain")
	req.Header.Set("Content-Type", ct)
	if fileName != "" {
		req.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("op=tika.extract: %w: %w", domain.ErrExtractionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("op=tika.extract: %w: tika status %d", domain.ErrExtractionFailed, resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("op=tika.extract: %w: %w", domain.ErrExtractionFailed, err)
	}
	// Sanitize control characters and then collapse all whitespace to single spaces
	text := textx.CollapseSpace(textx.SanitizeText(string(b)))
	if text == "" {
		return "", fmt.Errorf("op=tika.extract: %w: no text in document", domain.ErrExtractionFailed)
	}
	return text, nil
}

// Ping checks that the Tika server answers, for readiness probes.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/version", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tika status %d", resp.StatusCode)
	}
	return nil
}

func contentType(ft domain.FileType) string {
	switch ft {
	case domain.FilePDF:
		return "application/pdf"
	case domain.FileDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return ""
}
