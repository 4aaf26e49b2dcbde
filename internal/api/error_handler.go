package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/klinik-sehat/clinic-records/internal/api/handler"
	"github.com/klinik-sehat/clinic-records/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes.
//   - Adds the Bearer challenge to every 401.
//   - Logs unexpected errors without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if code == http.StatusUnauthorized {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var ve *handler.ValidationError
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity, ve.Error()
	}

	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "Not authenticated"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "Only doctors can perform this action"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Incorrect username or password"
	case errors.Is(err, domain.ErrPatientNotFound):
		return http.StatusNotFound, "Patient not found"
	case errors.Is(err, domain.ErrImportInProgress):
		return http.StatusConflict, "Import with this Idempotency-Key is still in progress"
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, "user already exists"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
