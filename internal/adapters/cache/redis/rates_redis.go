package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"arbflow/internal/core/domain"

	"github.com/redis/go-redis/v9"
)

// Ping checks the connection to the Redis server.
func (c *RedisCache) Ping(ctx context.Context) string {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Sprintf("down: %v", err)
	}
	return "up"
}

// AddRate records one accepted quote in the pair's sorted set, scored by
// observation time, and trims entries older than the retention window.
// The member keeps the observed orientation so the original base/quote
// direction survives the round trip.
func (c *RedisCache) AddRate(ctx context.Context, quote domain.QuoteRecord) error {
	key := c.keyForPair(quote.Pair())

	score := float64(quote.ObservedAt.UnixMicro())
	member := fmt.Sprintf("%s:%s:%s",
		quote.Base,
		quote.Quote,
		strconv.FormatFloat(quote.Rate, 'f', -1, 64))

	pipe := c.client.Pipeline()

	pipe.ZAdd(ctx, key, redis.Z{Score: score, Member: member})

	minScore := float64(time.Now().Add(-rateTTL).UnixMicro())
	pipe.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("(%f", minScore))

	// Expire the key itself, in case a pair stops receiving quotes.
	pipe.Expire(ctx, key, rateTTL)

	_, err := pipe.Exec(ctx)
	if err != nil {
		c.logger.Error("failed to add rate to redis cache", "error", err)
		return err
	}

	return nil
}

// GetRatesByPeriod retrieves the rates observed for a pair within the
// given duration, oldest first.
func (c *RedisCache) GetRatesByPeriod(ctx context.Context, pair domain.PairKey, period time.Duration) ([]float64, error) {
	key := c.keyForPair(pair)
	minScore := time.Now().Add(-period).UnixMicro()

	members, err := c.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: fmt.Sprintf("%d", minScore),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}

	rates := make([]float64, 0, len(members))
	for _, member := range members {
		_, _, rate, err := splitMember(member)
		if err != nil {
			c.logger.Warn("could not parse rate from redis member", "member", member, "error", err)
			continue
		}
		rates = append(rates, rate)
	}

	return rates, nil
}

// GetLatestRate retrieves the most recently observed rate for a pair, or
// nil when the cache holds nothing for it.
func (c *RedisCache) GetLatestRate(ctx context.Context, pair domain.PairKey) (*domain.QuoteRecord, error) {
	key := c.keyForPair(pair)

	result, err := c.client.ZRevRangeWithScores(ctx, key, 0, 0).Result()
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, nil
	}

	member, ok := result[0].Member.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected member type %T", result[0].Member)
	}
	base, quote, rate, err := splitMember(member)
	if err != nil {
		return nil, fmt.Errorf("could not parse latest rate member: %w", err)
	}

	return &domain.QuoteRecord{
		Base:       base,
		Quote:      quote,
		Rate:       rate,
		ObservedAt: time.UnixMicro(int64(result[0].Score)),
	}, nil
}

func splitMember(member string) (domain.Currency, domain.Currency, float64, error) {
	parts := strings.SplitN(member, ":", 3)
	if len(parts) != 3 {
		return "", "", 0, fmt.Errorf("invalid member format: %s", member)
	}
	rate, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return "", "", 0, err
	}
	return domain.Currency(parts[0]), domain.Currency(parts[1]), rate, nil
}
