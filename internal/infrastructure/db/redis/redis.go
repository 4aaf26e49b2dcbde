package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPingTimeout = 3 * time.Second

// Config holds the import idempotency store connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	// PingTimeout bounds the startup connectivity check.
	PingTimeout time.Duration
}

// Connect opens a client and pings it once. The client is closed again when
// the ping fails.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connect %s: %w", cfg.Addr, err)
	}
	return client, nil
}
