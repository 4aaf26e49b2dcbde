package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/klinik-sehat/clinic-records/internal/core/auth"
	"github.com/klinik-sehat/clinic-records/internal/core/domain"
	"github.com/klinik-sehat/clinic-records/internal/core/ports"
)

// LoginTTL is the lifetime of tokens minted by Login.
const LoginTTL = 30 * time.Minute

// PasswordHasher is satisfied by *auth.Hasher.
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Verify(secret, hash string) bool
	VerifyDecoy(secret string) bool
}

// AuthService implements login, request authentication and user seeding.
type AuthService struct {
	users    ports.UserRepository
	hasher   PasswordHasher
	tokens   *auth.TokenAuthority
	tokenTTL time.Duration
	log      zerolog.Logger
}

func NewAuthService(users ports.UserRepository, hasher PasswordHasher, tokens *auth.TokenAuthority, tokenTTL time.Duration, log zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = LoginTTL
	}
	return &AuthService{users: users, hasher: hasher, tokens: tokens, tokenTTL: tokenTTL, log: log}
}

// Login checks the password and mints a session token. Unknown users and wrong
// passwords both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.VerifyDecoy(password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Username, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("login: issue token: %w", err)
	}

	s.log.Info().Str("username", user.Username).Str("role", string(user.Role)).Msg("user logged in")
	return &ports.LoginResult{Token: token, ExpiresIn: s.tokenTTL, User: user}, nil
}

// Authenticate resolves the request's token to a stored user.
func (s *AuthService) Authenticate(ctx context.Context, src auth.TokenSource) (*domain.User, error) {
	return s.tokens.Resolve(ctx, src)
}

// Provision creates a user with a freshly hashed password.
func (s *AuthService) Provision(ctx context.Context, username, password string, role domain.Role) (*domain.User, error) {
	if username == "" || password == "" || !role.Valid() {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return s.users.Create(ctx, &domain.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	})
}

// DefaultUsers are provisioned by SeedDefaultUsers on an empty store.
var DefaultUsers = []struct {
	Username string
	Password string
	Role     domain.Role
}{
	{"admin", "admin123", domain.RoleAdmin},
	{"doctor", "doctor123", domain.RoleDoctor},
}

// SeedDefaultUsers provisions DefaultUsers when no user exists yet. It reports
// whether anything was created.
func (s *AuthService) SeedDefaultUsers(ctx context.Context) (bool, error) {
	n, err := s.users.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("seed users: %w", err)
	}
	if n > 0 {
		s.log.Info().Int64("users", n).Msg("users already exist, skipping seed")
		return false, nil
	}

	for _, u := range DefaultUsers {
		if _, err := s.Provision(ctx, u.Username, u.Password, u.Role); err != nil {
			return false, fmt.Errorf("seed user %s: %w", u.Username, err)
		}
	}
	s.log.Warn().Msg("created default admin and doctor users; change their passwords")
	return true, nil
}
