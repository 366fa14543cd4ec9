// Package tokencount keeps prompt inputs inside a token budget using
// tiktoken-go. When no encoding can be loaded it approximates tokens as
// four characters each.
package tokencount

import (
	"log/slog"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

const (
	// cl100k_base is close enough for Gemini and the open models we route to.
	defaultEncoding = "cl100k_base"
	runesPerToken   = 4
)

// Counter is safe for concurrent use. The encoding is loaded lazily once.
type Counter struct {
	load func() (*tiktoken.Tiktoken, error)

	once sync.Once
	enc  *tiktoken.Tiktoken
}

func NewCounter() *Counter {
	return &Counter{load: func() (*tiktoken.Tiktoken, error) { return tiktoken.GetEncoding(defaultEncoding) }}
}

func (c *Counter) encoding() *tiktoken.Tiktoken {
	c.once.Do(func() {
		enc, err := c.load()
		if err != nil {
			slog.Warn("tiktoken encoding unavailable, approximating by characters", slog.Any("error", err))
			return
		}
		c.enc = enc
	})
	return c.enc
}

// Count returns the token count of text.
func (c *Counter) Count(text string) int {
	if enc := c.encoding(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return (len([]rune(text)) + runesPerToken - 1) / runesPerToken
}

// Truncate returns the longest prefix of text within maxTokens tokens.
// A non-positive budget leaves text untouched.
func (c *Counter) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 || text == "" {
		return text
	}
	enc := c.encoding()
	if enc == nil {
		runes := []rune(text)
		if limit := maxTokens * runesPerToken; len(runes) > limit {
			return string(runes[:limit])
		}
		return text
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return enc.Decode(tokens[:maxTokens])
}
