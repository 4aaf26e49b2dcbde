package main

import (
	"context"
	"fmt"

	"github.com/klinik-sehat/clinic-records/internal/api/handler"
	"github.com/klinik-sehat/clinic-records/internal/core/ports"
	"github.com/klinik-sehat/clinic-records/internal/core/service"
	mongostore "github.com/klinik-sehat/clinic-records/internal/infrastructure/db/mongo"
	"github.com/klinik-sehat/clinic-records/internal/infrastructure/db/postgres"
	redisstore "github.com/klinik-sehat/clinic-records/internal/infrastructure/db/redis"
	"github.com/klinik-sehat/clinic-records/internal/pkg/config"
)

// store bundles the repositories of the configured driver.
type store struct {
	users    ports.UserRepository
	patients ports.PatientRepository
	audit    ports.AuditRepository
	check    handler.Check
	close    func(context.Context) error
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.Store.Driver {
	case config.StorePostgres:
		db, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.Store.DatabaseURL})
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &store{
			users:    postgres.NewUserRepository(db),
			patients: postgres.NewPatientRepository(db),
			audit:    postgres.NewAuditRepository(db),
			check:    db.PingContext,
			close:    func(context.Context) error { return db.Close() },
		}, nil

	case config.StoreMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return &store{
			users:    mongostore.NewUserRepository(db),
			patients: mongostore.NewPatientRepository(db),
			audit:    mongostore.NewAuditRepository(db),
			check:    func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close:    client.Disconnect,
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// openRedis connects the import deduper when REDIS_ENABLED is set. The
// returned check map always exists so the caller can add the store check.
func openRedis(ctx context.Context, cfg *config.Config) (service.ImportDeduper, map[string]handler.Check, func(), error) {
	checks := make(map[string]handler.Check)
	if !cfg.Redis.Enabled {
		return nil, checks, func() {}, nil
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	return redisstore.NewImportDeduper(rdb), checks, func() { _ = rdb.Close() }, nil
}
