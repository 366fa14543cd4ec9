package usecase

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fairyhunter13/skillproof/internal/domain"
	"github.com/fairyhunter13/skillproof/pkg/textx"
)

// Session is the result of a successful login.
type Session struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	User      domain.HRUser `json:"-"`
}

// AuthService registers HR users and exchanges credentials for tokens.
type AuthService struct {
	Users  domain.HRUserRepository
	Hasher domain.PasswordHasher
	Tokens domain.TokenIssuer
}

func NewAuthService(u domain.HRUserRepository, h domain.PasswordHasher, t domain.TokenIssuer) AuthService {
	return AuthService{Users: u, Hasher: h, Tokens: t}
}

// Register creates an HR account. The email is unique case-insensitively.
func (s AuthService) Register(ctx domain.Context, name, email, password, company string) (domain.HRUser, error) {
	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return domain.HRUser{}, fmt.Errorf("op=auth.register: %w", err)
	}
	u, err := s.Users.Create(ctx, domain.HRUser{
		Name:         strings.TrimSpace(name),
		Email:        textx.NormalizeEmail(email),
		PasswordHash: hash,
		Company:      strings.TrimSpace(company),
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return domain.HRUser{}, fmt.Errorf("op=auth.register: %w: email already registered", domain.ErrConflict)
		}
		return domain.HRUser{}, fmt.Errorf("op=auth.register: %w", err)
	}
	return u, nil
}

// Login verifies credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s AuthService) Login(ctx domain.Context, email, password string) (Session, error) {
	u, err := s.Users.GetByEmail(ctx, textx.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Session{}, fmt.Errorf("op=auth.login: %w: invalid credentials", domain.ErrUnauthorized)
		}
		return Session{}, fmt.Errorf("op=auth.login: %w", err)
	}
	if !s.Hasher.Verify(password, u.PasswordHash) {
		return Session{}, fmt.Errorf("op=auth.login: %w: invalid credentials", domain.ErrUnauthorized)
	}
	tok, exp, err := s.Tokens.Issue(u.ID, u.Email)
	if err != nil {
		return Session{}, fmt.Errorf("op=auth.login: %w", err)
	}
	return Session{Token: tok, ExpiresAt: exp, User: u}, nil
}
