package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/klinik-sehat/clinic-records/internal/api/metrics"
	"github.com/klinik-sehat/clinic-records/internal/core/auth"
	"github.com/klinik-sehat/clinic-records/internal/core/domain"
)

const (
	// AccessTokenCookie carries the session token for browser clients.
	AccessTokenCookie = "access_token"
	// UserContextKey holds the resolved *domain.User in the echo context.
	UserContextKey = "user"
)

// Authenticator resolves the token presented with a request to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, src auth.TokenSource) (*domain.User, error)
}

// Auth resolves the session token from the access_token cookie or the
// Authorization header and injects the user into context. Every failure is
// returned to the central error handler.
func Auth(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			src := auth.TokenSource{Header: c.Request().Header.Get(echo.HeaderAuthorization)}
			if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
				src.Cookie = cookie.Value
			}

			user, err := a.Authenticate(c.Request().Context(), src)
			if err != nil {
				metrics.AuthFailuresTotal.WithLabelValues(metrics.AuthFailureReason(err)).Inc()
				return err
			}

			c.Set(UserContextKey, user)
			return next(c)
		}
	}
}

// CurrentUser returns the user injected by Auth, or nil.
func CurrentUser(c echo.Context) *domain.User {
	u, _ := c.Get(UserContextKey).(*domain.User)
	return u
}
