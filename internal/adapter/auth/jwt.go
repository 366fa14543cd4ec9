package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fairyhunter13/skillproof/internal/domain"
)

const issuer = "skillproof"

// Claims carried by HR access tokens. Subject is the HR user id.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTIssuer signs and verifies HS256 access tokens.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

var _ domain.TokenIssuer = (*JWTIssuer)(nil)

// NewJWTIssuer returns an issuer. An empty secret is rejected.
func NewJWTIssuer(secret string, ttl time.Duration) (*JWTIssuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("op=auth.jwt: %w: empty secret", domain.ErrInvalidArgument)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for userID.
func (j *JWTIssuer) Issue(userID, email string) (string, time.Time, error) {
	now := j.now()
	exp := now.Add(j.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	s, err := tok.SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("op=auth.jwt.issue: %w", err)
	}
	return s, exp, nil
}

// Parse verifies token and returns its claims. Every failure wraps
// domain.ErrUnauthorized.
func (j *JWTIssuer) Parse(token string) (Claims, error) {
	var c Claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return j.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(j.now), jwt.WithExpirationRequired())
	if err != nil {
		return Claims{}, fmt.Errorf("op=auth.jwt.parse: %w: %w", domain.ErrUnauthorized, err)
	}
	if c.Subject == "" {
		return Claims{}, fmt.Errorf("op=auth.jwt.parse: %w: %w", domain.ErrUnauthorized, errors.New("missing subject"))
	}
	return c, nil
}
