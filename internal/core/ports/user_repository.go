package ports

import (
	"context"

	"github.com/klinik-sehat/clinic-records/internal/core/domain"
)

// UserRepository defines user persistence.
type UserRepository interface {
	// FindByUsername returns domain.ErrUserNotFound when no user matches.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	// Create returns domain.ErrUserExists on a duplicate username.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Count(ctx context.Context) (int64, error)
}
