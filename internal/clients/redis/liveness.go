package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ridgeline-retail/fedhui/internal/logger"
)

// LivenessCache is the fast, approximate half of the session registry
// (spec.md §4.4): a TTL'd key per store that expires on its own if no
// heartbeat refreshes it, so absence is "possibly inactive" rather
// than authoritative — Postgres' connection_status column remains the
// source of truth.
type LivenessCache interface {
	MarkActive(ctx context.Context, storeID string, ttl time.Duration) error
	IsActive(ctx context.Context, storeID string) (bool, error)
	ActiveStoreIDs(ctx context.Context) ([]string, error)
	Remove(ctx context.Context, storeID string) error
	Close() error

	// Client exposes the underlying go-redis client for components
	// that need raw Redis access (the coordinator's BudgetLedger).
	Client() *goredis.Client
}

type livenessCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

const defaultLivenessKeyPrefix = "fedhui:store:live:"

// NewLivenessCache dials Redis using the same REDIS_ADDR wiring the
// teacher's pub/sub bus used, but the store underneath is now a plain
// SETEX/EXISTS/DEL key space rather than a channel.
func NewLivenessCache(log *logger.Logger) (LivenessCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &livenessCache{
		log:    log.With("service", "RedisLivenessCache"),
		rdb:    rdb,
		prefix: defaultLivenessKeyPrefix,
	}, nil
}

func (c *livenessCache) Client() *goredis.Client { return c.rdb }

func (c *livenessCache) key(storeID string) string { return c.prefix + storeID }

func (c *livenessCache) MarkActive(ctx context.Context, storeID string, ttl time.Duration) error {
	if c == nil || c.rdb == nil {
		return fmt.Errorf("redis liveness cache not initialized")
	}
	return c.rdb.Set(ctx, c.key(storeID), "1", ttl).Err()
}

func (c *livenessCache) IsActive(ctx context.Context, storeID string) (bool, error) {
	if c == nil || c.rdb == nil {
		return false, fmt.Errorf("redis liveness cache not initialized")
	}
	n, err := c.rdb.Exists(ctx, c.key(storeID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *livenessCache) ActiveStoreIDs(ctx context.Context) ([]string, error) {
	if c == nil || c.rdb == nil {
		return nil, fmt.Errorf("redis liveness cache not initialized")
	}
	iter := c.rdb.Scan(ctx, 0, c.prefix+"*", 0).Iterator()
	var out []string
	for iter.Next(ctx) {
		out = append(out, strings.TrimPrefix(iter.Val(), c.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *livenessCache) Remove(ctx context.Context, storeID string) error {
	if c == nil || c.rdb == nil {
		return fmt.Errorf("redis liveness cache not initialized")
	}
	return c.rdb.Del(ctx, c.key(storeID)).Err()
}

func (c *livenessCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
