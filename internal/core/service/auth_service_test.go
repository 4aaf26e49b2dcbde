package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/klinik-sehat/clinic-records/internal/core/auth"
	"github.com/klinik-sehat/clinic-records/internal/core/domain"
)

var discardLogger = zerolog.Nop()

type stubUserRepo struct {
	users   map[string]*domain.User
	findErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, exists := r.users[user.Username]; exists {
		return nil, domain.ErrUserExists
	}
	created := cloneUser(user)
	created.ID = user.Username
	r.users[created.Username] = created
	return cloneUser(created), nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.users)), nil
}

func newTestAuthService(t *testing.T, repo *stubUserRepo, now func() time.Time) *AuthService {
	t.Helper()
	tokens, err := auth.NewTokenAuthority(auth.TokenConfig{Secret: "secret", Algorithm: "HS256"}, repo, auth.WithClock(now))
	if err != nil {
		t.Fatalf("token authority: %v", err)
	}
	return NewAuthService(repo, auth.NewHasher(bcrypt.MinCost), tokens, LoginTTL, discardLogger)
}

func TestAuthService_Provision(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(t, repo, time.Now)

	user, err := svc.Provision(context.Background(), "doctor", "doctor123", domain.RoleDoctor)
	if err != nil {
		t.Fatalf("Provision returned error: %v", err)
	}
	if user.PasswordHash == "doctor123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("doctor123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}

	if _, err := svc.Provision(context.Background(), "nurse", "pw", domain.Role("nurse")); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for bad role, got %v", err)
	}
	if _, err := svc.Provision(context.Background(), "doctor", "again", domain.RoleDoctor); err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(t, repo, time.Now)

	if _, err := svc.Provision(context.Background(), "doctor", "doctor123", domain.RoleDoctor); err != nil {
		t.Fatalf("provision failed: %v", err)
	}

	res, err := svc.Login(context.Background(), "doctor", "doctor123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Token == "" {
		t.Fatalf("expected token, got empty")
	}
	if res.ExpiresIn != 30*time.Minute {
		t.Fatalf("expected 30m ttl, got %s", res.ExpiresIn)
	}
	if res.User == nil || res.User.Username != "doctor" {
		t.Fatalf("unexpected user: %+v", res.User)
	}

	user, err := svc.Authenticate(context.Background(), auth.TokenSource{Cookie: res.Token})
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if user.Role != domain.RoleDoctor {
		t.Fatalf("expected doctor role, got %s", user.Role)
	}
}

func TestAuthService_Login_TokenExpiresAfterThirtyMinutes(t *testing.T) {
	repo := newStubUserRepo()
	now := time.Date(2024, 1, 25, 8, 0, 0, 0, time.UTC)
	svc := newTestAuthService(t, repo, func() time.Time { return now })

	_, _ = svc.Provision(context.Background(), "doctor", "doctor123", domain.RoleDoctor)
	res, err := svc.Login(context.Background(), "doctor", "doctor123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	now = now.Add(29 * time.Minute)
	if _, err := svc.Authenticate(context.Background(), auth.TokenSource{Cookie: res.Token}); err != nil {
		t.Fatalf("expected token valid before expiry, got %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := svc.Authenticate(context.Background(), auth.TokenSource{Cookie: res.Token}); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated after expiry, got %v", err)
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(t, repo, time.Now)

	_, _ = svc.Provision(context.Background(), "doctor", "goodpass", domain.RoleDoctor)
	if _, err := svc.Login(context.Background(), "doctor", "badpass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UnknownUserLooksLikeBadPassword(t *testing.T) {
	svc := newTestAuthService(t, newStubUserRepo(), time.Now)

	if _, err := svc.Login(context.Background(), "ghost", "pass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "", ""); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for empty form, got %v", err)
	}
}

// countingHasher records how many bcrypt comparisons a login performs.
type countingHasher struct {
	*auth.Hasher
	verifies int
	decoys   int
}

func (h *countingHasher) Verify(secret, hash string) bool {
	h.verifies++
	return h.Hasher.Verify(secret, hash)
}

func (h *countingHasher) VerifyDecoy(secret string) bool {
	h.decoys++
	return h.Hasher.VerifyDecoy(secret)
}

func TestAuthService_Login_UnknownUserSpendsBcryptWork(t *testing.T) {
	repo := newStubUserRepo()
	tokens, err := auth.NewTokenAuthority(auth.TokenConfig{Secret: "secret"}, repo)
	if err != nil {
		t.Fatalf("token authority: %v", err)
	}
	hasher := &countingHasher{Hasher: auth.NewHasher(bcrypt.MinCost)}
	svc := NewAuthService(repo, hasher, tokens, LoginTTL, discardLogger)

	if _, err := svc.Login(context.Background(), "ghost", "pass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if hasher.decoys != 1 || hasher.verifies != 0 {
		t.Fatalf("unknown user: want 1 decoy compare and 0 real, got decoys=%d verifies=%d", hasher.decoys, hasher.verifies)
	}

	if _, err := svc.Provision(context.Background(), "doctor", "goodpass", domain.RoleDoctor); err != nil {
		t.Fatalf("provision: %v", err)
	}
	if _, err := svc.Login(context.Background(), "doctor", "badpass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if hasher.decoys != 1 || hasher.verifies != 1 {
		t.Fatalf("known user: want decoys=1 verifies=1, got decoys=%d verifies=%d", hasher.decoys, hasher.verifies)
	}
}

func TestAuthService_Login_StoreError(t *testing.T) {
	repo := newStubUserRepo()
	repo.findErr = errors.New("db down")
	svc := newTestAuthService(t, repo, time.Now)

	_, err := svc.Login(context.Background(), "doctor", "pw")
	if err == nil || errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestAuthService_SeedDefaultUsers(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(t, repo, time.Now)

	created, err := svc.SeedDefaultUsers(context.Background())
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if !created || len(repo.users) != 2 {
		t.Fatalf("expected two seeded users, got %d", len(repo.users))
	}
	if repo.users["admin"].Role != domain.RoleAdmin || repo.users["doctor"].Role != domain.RoleDoctor {
		t.Fatalf("unexpected seeded roles: %+v", repo.users)
	}

	created, err = svc.SeedDefaultUsers(context.Background())
	if err != nil || created {
		t.Fatalf("expected second seed to be a no-op, got created=%v err=%v", created, err)
	}
}
