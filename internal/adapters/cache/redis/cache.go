package redis

import (
	"fmt"
	"log/slog"
	"time"

	"arbflow/internal/core/domain"
	"arbflow/internal/core/port"

	"github.com/redis/go-redis/v9"
)

var _ port.CachePort = (*RedisCache)(nil)

const (
	// Accepted rates stay visible to the HTTP surface for this long,
	// well past the detection staleness window.
	rateTTL = 5 * time.Minute
)

// RedisCache mirrors the graph's accepted rates so the read surface can
// serve recent history without touching the detection path.
type RedisCache struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisCache(client *redis.Client, logger *slog.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		logger: logger,
	}
}

// keyForPair returns the Redis key for one unordered currency pair.
func (c *RedisCache) keyForPair(pair domain.PairKey) string {
	return fmt.Sprintf("rates:%s", pair.String())
}
