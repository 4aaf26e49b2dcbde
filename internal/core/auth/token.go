package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/klinik-sehat/clinic-records/internal/core/domain"
)

// DefaultTTL applies when Issue is called without a positive ttl.
const DefaultTTL = 15 * time.Minute

// Every token failure wraps domain.ErrUnauthenticated so callers can treat
// them alike; the finer reason is only for logs and metrics.
var (
	ErrTokenMissing   = fmt.Errorf("%w: no token presented", domain.ErrUnauthenticated)
	ErrTokenExpired   = fmt.Errorf("%w: token expired", domain.ErrUnauthenticated)
	ErrTokenInvalid   = fmt.Errorf("%w: token invalid", domain.ErrUnauthenticated)
	ErrSubjectMissing = fmt.Errorf("%w: token has no subject", domain.ErrUnauthenticated)
	ErrSubjectUnknown = fmt.Errorf("%w: subject not found", domain.ErrUnauthenticated)
)

// TokenConfig is the process-wide signing configuration.
type TokenConfig struct {
	Secret    string
	Algorithm string
}

// UserFinder is the read-only lookup the authority needs from the user store.
type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
}

// TokenSource carries the raw values of both token channels of a request.
type TokenSource struct {
	// Cookie is the value of the access token cookie.
	Cookie string
	// Header is the raw Authorization header.
	Header string
}

// Token returns the token of the first populated channel. A non-empty cookie
// wins even when the header also carries a token.
func (s TokenSource) Token() string {
	for _, channel := range []func() string{s.cookieToken, s.bearerToken} {
		if tok := channel(); tok != "" {
			return tok
		}
	}
	return ""
}

func (s TokenSource) cookieToken() string {
	return strings.TrimSpace(s.Cookie)
}

func (s TokenSource) bearerToken() string {
	parts := strings.SplitN(strings.TrimSpace(s.Header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// TokenAuthority issues and verifies stateless session tokens.
type TokenAuthority struct {
	method *jwt.SigningMethodHMAC
	secret []byte
	users  UserFinder
	now    func() time.Time
}

// Option customises a TokenAuthority.
type Option func(*TokenAuthority)

// WithClock replaces the wall clock used for issuing and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(a *TokenAuthority) {
		if now != nil {
			a.now = now
		}
	}
}

// NewTokenAuthority validates cfg and returns an authority bound to users.
// Only HMAC algorithms are accepted; Algorithm defaults to HS256.
func NewTokenAuthority(cfg TokenConfig, users UserFinder, opts ...Option) (*TokenAuthority, error) {
	if cfg.Secret == "" {
		return nil, errors.New("auth: token secret must not be empty")
	}
	alg := cfg.Algorithm
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}
	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("auth: unsupported signing algorithm %q", alg)
	}

	a := &TokenAuthority{
		method: method,
		secret: []byte(cfg.Secret),
		users:  users,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Issue signs a token for subject that expires ttl from now.
func (a *TokenAuthority) Issue(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(a.now().Add(ttl)),
	}
	return jwt.NewWithClaims(a.method, claims).SignedString(a.secret)
}

// Verify checks signature, algorithm and expiry of raw and returns its subject.
func (a *TokenAuthority) Verify(raw string) (string, error) {
	if raw == "" {
		return "", ErrTokenMissing
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (interface{}, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{a.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}
	if claims.Subject == "" {
		return "", ErrSubjectMissing
	}
	return claims.Subject, nil
}

// Resolve picks the token from src, verifies it and loads its subject from the
// user store. Store failures other than a missing user are returned wrapped.
func (a *TokenAuthority) Resolve(ctx context.Context, src TokenSource) (*domain.User, error) {
	subject, err := a.Verify(src.Token())
	if err != nil {
		return nil, err
	}

	user, err := a.users.FindByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, ErrSubjectUnknown
		}
		return nil, fmt.Errorf("resolve token subject: %w", err)
	}
	if user == nil {
		return nil, ErrSubjectUnknown
	}
	return user, nil
}
