package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/klinik-sehat/clinic-records/internal/api/middleware"
	"github.com/klinik-sehat/clinic-records/internal/core/domain"
)

// identity returns the user injected by the Auth middleware. A missing user
// means the route was registered without Auth, which is reported as 401.
func identity(c echo.Context) (*domain.User, error) {
	u := middleware.CurrentUser(c)
	if u == nil {
		return nil, domain.ErrUnauthenticated
	}
	return u, nil
}

// patientID parses the :id path parameter.
func patientID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	return id, nil
}

// wantsJSON reports whether the client asked for a JSON response.
func wantsJSON(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}
