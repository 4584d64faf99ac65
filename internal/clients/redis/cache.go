package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/selgeapp/selge-backend/internal/docgen"
	"github.com/selgeapp/selge-backend/internal/pkg/logger"
	"github.com/selgeapp/selge-backend/internal/utils"
)

const keyPrefix = "selge:docgen:"

// DocumentCache stores terminal generation results keyed by a content hash.
// A hit replays the cached result without spending a model call; misses and
// cache-layer failures are equivalent to the caller.
type DocumentCache interface {
	Get(ctx context.Context, key string) (*docgen.Result, bool)
	Set(ctx context.Context, key string, result *docgen.Result)
	Close() error
}

type documentCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

// NewDocumentCache connects to REDIS_ADDR and verifies the connection.
// Callers treat a missing REDIS_ADDR as "run without a cache"; that decision
// lives in the wiring layer, not here.
func NewDocumentCache(log *logger.Logger) (DocumentCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	ttl := 24 * time.Hour
	if n := utils.GetEnvAsInt("DOCGEN_CACHE_TTL_SECONDS", 0, log); n > 0 {
		ttl = time.Duration(n) * time.Second
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

	return &documentCache{
		log: log.With("service", "DocumentCache"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

func (c *documentCache) Get(ctx context.Context, key string) (*docgen.Result, bool) {
	raw, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if err == goredis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.Warn("cache read failed", "error", err.Error())
		return nil, false
	}

	var result docgen.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		// A corrupt entry must not poison future requests.
		c.log.Warn("cache entry undecodable, evicting", "error", err.Error())
		_ = c.rdb.Del(ctx, keyPrefix+key).Err()
		return nil, false
	}
	return &result, true
}

func (c *documentCache) Set(ctx context.Context, key string, result *docgen.Result) {
	raw, err := json.Marshal(result)
	if err != nil {
		c.log.Warn("cache encode failed", "error", err.Error())
		return
	}
	if err := c.rdb.Set(ctx, keyPrefix+key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("cache write failed", "error", err.Error())
	}
}

func (c *documentCache) Close() error {
	return c.rdb.Close()
}
