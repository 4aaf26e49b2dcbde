package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/klinik-sehat/clinic-records/internal/core/domain"
)

const (
	importTTL = 24 * time.Hour
	// pendingValue marks a key whose import has been reserved but not finished.
	pendingValue = "pending"
)

// ImportDeduper remembers the outcome of JSON imports keyed by the
// client-supplied idempotency key.
// Key format: import:<idempotency_key>
// Value: "pending" while the first import runs, then the imported count.
type ImportDeduper struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewImportDeduper creates an ImportDeduper wrapping the given Redis client.
func NewImportDeduper(client redis.Cmdable) *ImportDeduper {
	return &ImportDeduper{client: client, ttl: importTTL}
}

// Reserve atomically claims key. It reports false when another request
// already holds or finished it.
func (d *ImportDeduper) Reserve(ctx context.Context, key string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.key(key), pendingValue, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("import dedup reserve: %w", err)
	}
	return ok, nil
}

// Lookup returns the stored record count for key, if any. A key that is
// still reserved yields domain.ErrImportInProgress.
func (d *ImportDeduper) Lookup(ctx context.Context, key string) (int, bool, error) {
	v, err := d.client.Get(ctx, d.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("import dedup lookup: %w", err)
	}
	if v == pendingValue {
		return 0, false, domain.ErrImportInProgress
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, fmt.Errorf("import dedup value %q: %w", v, err)
	}
	return n, true, nil
}

// Remember overwrites the reservation with the import outcome (expires after importTTL).
func (d *ImportDeduper) Remember(ctx context.Context, key string, imported int) error {
	if err := d.client.Set(ctx, d.key(key), imported, d.ttl).Err(); err != nil {
		return fmt.Errorf("import dedup remember: %w", err)
	}
	return nil
}

// Release drops a reservation after a failed import so the client can retry.
func (d *ImportDeduper) Release(ctx context.Context, key string) error {
	if err := d.client.Del(ctx, d.key(key)).Err(); err != nil {
		return fmt.Errorf("import dedup release: %w", err)
	}
	return nil
}

func (d *ImportDeduper) key(k string) string {
	return "import:" + k
}
