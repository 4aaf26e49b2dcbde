package ports

import (
	"context"
	"time"

	"github.com/klinik-sehat/clinic-records/internal/core/auth"
	"github.com/klinik-sehat/clinic-records/internal/core/domain"
)

// LoginResult is returned after a successful login.
type LoginResult struct {
	Token     string
	ExpiresIn time.Duration
	User      *domain.User
}

// AuthService covers login and per-request authentication.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Authenticate(ctx context.Context, src auth.TokenSource) (*domain.User, error)
}
