package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/fairyhunter13/skillproof/internal/adapter/auth"
	"github.com/fairyhunter13/skillproof/internal/domain"
)

// TokenParser verifies bearer tokens issued to HR users.
type TokenParser interface {
	Parse(token string) (auth.Claims, error)
}

type hrUserKey struct{}

// RequireHR rejects requests without a valid bearer token and stores the
// HR user id from the token subject in the context.
func RequireHR(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="skillproof"`)
				writeError(w, r, fmt.Errorf("%w: missing bearer token", domain.ErrUnauthorized), nil)
				return
			}
			claims, err := tokens.Parse(raw)
			if err != nil || claims.Subject == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="skillproof", error="invalid_token"`)
				writeError(w, r, fmt.Errorf("%w: invalid token", domain.ErrUnauthorized), nil)
				return
			}
			ctx := context.WithValue(r.Context(), hrUserKey{}, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, tok, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tok) == "" {
		return "", false
	}
	return strings.TrimSpace(tok), true
}

// HRUserID returns the authenticated HR user id, or "" outside RequireHR.
func HRUserID(ctx context.Context) string {
	id, _ := ctx.Value(hrUserKey{}).(string)
	return id
}
