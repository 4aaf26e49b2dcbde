package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/klinik-sehat/clinic-records/internal/api/metrics"
	"github.com/klinik-sehat/clinic-records/internal/api/middleware"
	"github.com/klinik-sehat/clinic-records/internal/api/view"
	"github.com/klinik-sehat/clinic-records/internal/core/domain"
	"github.com/klinik-sehat/clinic-records/internal/core/ports"
)

type AuthHandler struct {
	authService    ports.AuthService
	patientService ports.PatientService
	cookieSecure   bool
}

func NewAuthHandler(authService ports.AuthService, patientService ports.PatientService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{authService: authService, patientService: patientService, cookieSecure: cookieSecure}
}

type loginRequest struct {
	Username string `form:"username" json:"username" validate:"required"`
	Password string `form:"password" json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// LoginPage handles GET / and renders the login form.
func (h *AuthHandler) LoginPage(c echo.Context) error {
	return c.Render(http.StatusOK, view.Login, view.LoginPage{})
}

// Login verifies credentials and sets the session cookie.
//
// @Summary      Login
// @Description  Browser clients get the cookie and the dashboard page; clients sending Accept: application/json get the token as JSON as well.
// @Tags         auth
// @Accept       x-www-form-urlencoded
// @Produce      json,html
// @Param        username  formData  string  true  "Username"
// @Param        password  formData  string  true  "Password"
// @Success      200       {object}  tokenResponse
// @Failure      401       {object}  map[string]string
// @Failure      422       {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
		}
		return err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	c.SetCookie(h.sessionCookie(result.Token, result.ExpiresIn))

	if wantsJSON(c) {
		return c.JSON(http.StatusOK, tokenResponse{AccessToken: result.Token, TokenType: "bearer"})
	}

	dash, err := h.patientService.Dashboard(c.Request().Context(), ports.DashboardInput{})
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, view.Dashboard, view.DashboardPage{
		User:          result.User,
		TotalPatients: dash.TotalPatients,
		Patients:      dash.Patients,
	})
}

// Logout deletes the session cookie. Issued tokens stay valid until they expire.
//
// @Summary  Logout
// @Tags     auth
// @Success  303
// @Router   /logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *AuthHandler) sessionCookie(token string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
