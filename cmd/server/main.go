// Command server runs the clinic records web application.
//
// @title        Clinic Records API
// @version      1.0
// @description  Patient visit records with cookie or bearer session tokens. Mutations are restricted to doctors.
// @BasePath     /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/klinik-sehat/clinic-records/internal/api"
	"github.com/klinik-sehat/clinic-records/internal/api/metrics"
	"github.com/klinik-sehat/clinic-records/internal/core/auth"
	"github.com/klinik-sehat/clinic-records/internal/core/service"
	"github.com/klinik-sehat/clinic-records/internal/infrastructure/queue"
	"github.com/klinik-sehat/clinic-records/internal/pkg/config"
	"github.com/klinik-sehat/clinic-records/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "clinic-records",
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("closing store")
		}
	}()

	dedup, checks, closeRedis, err := openRedis(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRedis()
	checks[cfg.Store.Driver] = st.check

	// --- Auth core ---
	tokens, err := auth.NewTokenAuthority(auth.TokenConfig{
		Secret:    cfg.Auth.SecretKey,
		Algorithm: cfg.Auth.Algorithm,
	}, st.users)
	if err != nil {
		return err
	}
	authService := service.NewAuthService(st.users, auth.NewHasher(cfg.Auth.BcryptCost), tokens, cfg.Auth.AccessTokenTTL, logger.Component("auth"))

	if cfg.SeedDefaultUsers {
		if _, err := authService.SeedDefaultUsers(ctx); err != nil {
			return err
		}
	}

	// --- Audit trail ---
	// Workers outlive the signal context so queued events are drained after the server stops.
	auditCtx, stopAudit := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.AuditWorkers, st.audit, metrics.AuditObserver{}, logger.Component("audit"))
	dispatcher.Start(auditCtx)
	defer func() {
		stopAudit()
		dispatcher.Wait()
	}()

	patientService := service.NewPatientService(st.patients, dispatcher, dedup, logger.Component("patients"))

	// --- HTTP ---
	e, err := api.NewRouter(api.Deps{
		Auth:         authService,
		Patients:     patientService,
		Log:          logger.Component("http"),
		CookieSecure: cfg.Auth.CookieSecure,
		Checks:       checks,
	})
	if err != nil {
		return err
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Str("store", cfg.Store.Driver).Msg("listening")
		serverErr <- e.Start(":" + cfg.Port)
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
