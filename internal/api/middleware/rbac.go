package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/klinik-sehat/clinic-records/internal/api/metrics"
	"github.com/klinik-sehat/clinic-records/internal/core/auth"
	"github.com/klinik-sehat/clinic-records/internal/core/domain"
)

// RequireRole admits only users whose role equals required exactly. It must
// run after Auth.
func RequireRole(required domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := auth.AuthorizeRole(CurrentUser(c), required); err != nil {
				metrics.AuthFailuresTotal.WithLabelValues("forbidden").Inc()
				return err
			}
			return next(c)
		}
	}
}
