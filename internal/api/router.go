package api

import (
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/klinik-sehat/clinic-records/docs"
	"github.com/klinik-sehat/clinic-records/internal/api/handler"
	"github.com/klinik-sehat/clinic-records/internal/api/middleware"
	"github.com/klinik-sehat/clinic-records/internal/api/view"
	"github.com/klinik-sehat/clinic-records/internal/core/domain"
	"github.com/klinik-sehat/clinic-records/internal/core/ports"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Auth     ports.AuthService
	Patients ports.PatientService
	Log      zerolog.Logger

	CookieSecure bool
	// Checks are run by /health/ready, keyed by dependency name.
	Checks map[string]handler.Check

	// Registerer and Gatherer default to the global prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) (*echo.Echo, error) {
	renderer, err := view.NewRenderer()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "clinic",
		Registerer: d.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || strings.HasPrefix(c.Path(), "/health")
		},
	}))
	e.Use(requestLogger(d.Log))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Patients, d.CookieSecure)
	patientHandler := handler.NewPatientHandler(d.Patients)
	transferHandler := handler.NewTransferHandler(d.Patients)

	authenticated := middleware.Auth(d.Auth)
	doctorOnly := middleware.RequireRole(domain.RoleDoctor)

	// --- Auth routes ---
	e.GET("/", authHandler.LoginPage)
	e.POST("/login", authHandler.Login)
	e.POST("/logout", authHandler.Logout)

	// --- Any authenticated identity ---
	e.GET("/dashboard", patientHandler.Dashboard, authenticated)
	e.GET("/patients", patientHandler.List, authenticated)
	e.GET("/export", transferHandler.Export, authenticated)

	// --- Doctor only ---
	e.GET("/patients/create", patientHandler.CreateForm, authenticated, doctorOnly)
	e.POST("/patients", patientHandler.Create, authenticated, doctorOnly)
	e.GET("/patients/:id/edit", patientHandler.EditForm, authenticated, doctorOnly)
	e.POST("/patients/:id", patientHandler.Update, authenticated, doctorOnly)
	e.POST("/patients/:id/delete", patientHandler.Delete, authenticated, doctorOnly)
	e.POST("/import", transferHandler.Import, authenticated, doctorOnly)
	e.POST("/import/dummy", transferHandler.ImportDemo, authenticated, doctorOnly)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.Checks)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)

	// --- Operations ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e, nil
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
