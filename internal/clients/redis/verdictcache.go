// Package redis caches interpreter outcomes keyed by a digest of the
// evidence and declaration, so re-submitting identical evidence does not pay
// for another interpreter round trip. The cache degrades silently: every
// miss or transport failure just means the pipeline runs fresh.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/suresight/suresight-backend/internal/pkg/logger"
)

const defaultTTL = 24 * time.Hour

type VerdictCache interface {
	// Get returns the cached value for key into dest, reporting whether a
	// usable entry existed.
	Get(ctx context.Context, key string, dest any) bool
	Put(ctx context.Context, key string, value any)
	Close() error
}

type verdictCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

// NewVerdictCache reads REDIS_ADDR. When unset the cache is a no-op; the
// pipelines never branch on whether caching is configured.
func NewVerdictCache(log *logger.Logger) (VerdictCache, error) {
	cacheLog := log.With("service", "VerdictCache")

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		cacheLog.Info("Verdict cache disabled")
		return &verdictCache{log: cacheLog, ttl: defaultTTL}, nil
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

	cacheLog.Info("Verdict cache connected", "addr", addr)
	return &verdictCache{log: cacheLog, rdb: rdb, ttl: defaultTTL}, nil
}

// DigestKey builds a stable cache key from the declaration fields and the
// evidence bytes.
func DigestKey(prefix string, parts []string, blobs [][]byte) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(strings.ToLower(strings.TrimSpace(p))))
		h.Write([]byte{0})
	}
	for _, b := range blobs {
		h.Write(b)
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(h.Sum(nil)))
}

func (c *verdictCache) Get(ctx context.Context, key string, dest any) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("Cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.log.Warn("Cache entry undecodable, dropping", "key", key, "error", err)
		_ = c.rdb.Del(ctx, key).Err()
		return false
	}
	return true
}

func (c *verdictCache) Put(ctx context.Context, key string, value any) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("Cache write failed", "key", key, "error", err)
	}
}

func (c *verdictCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
