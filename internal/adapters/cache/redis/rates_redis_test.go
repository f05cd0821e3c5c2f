package redis

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"arbflow/internal/core/domain"

	"github.com/redis/go-redis/v9"
)

func testClient(t *testing.T) *redis.Client {
	t.Helper()

	rdb := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   0,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	return rdb
}

func TestAddRateAndGetLatest(t *testing.T) {
	ctx := context.Background()
	rdb := testClient(t)
	cache := NewRedisCache(rdb, slog.Default())

	pair := domain.NewPairKey("USD", "JPY")
	key := "rates:" + pair.String()
	defer rdb.Del(ctx, key)

	first := domain.QuoteRecord{
		Base:       "USD",
		Quote:      "JPY",
		Rate:       100.01,
		ObservedAt: time.Now().Add(-time.Second).Truncate(time.Microsecond),
	}
	second := domain.QuoteRecord{
		Base:       "USD",
		Quote:      "JPY",
		Rate:       100.05,
		ObservedAt: time.Now().Truncate(time.Microsecond),
	}

	for _, quote := range []domain.QuoteRecord{first, second} {
		if err := cache.AddRate(ctx, quote); err != nil {
			t.Fatalf("AddRate failed: %v", err)
		}
	}

	latest, err := cache.GetLatestRate(ctx, pair)
	if err != nil {
		t.Fatalf("GetLatestRate failed: %v", err)
	}
	if latest == nil {
		t.Fatal("no rate found")
	}
	if latest.Rate != second.Rate {
		t.Fatalf("latest rate %v, want %v", latest.Rate, second.Rate)
	}
	if latest.Base != "USD" || latest.Quote != "JPY" {
		t.Fatalf("orientation lost: %s/%s", latest.Base, latest.Quote)
	}
	if !latest.ObservedAt.Equal(second.ObservedAt) {
		t.Fatalf("observed at %v, want %v", latest.ObservedAt, second.ObservedAt)
	}
}

func TestGetRatesByPeriod(t *testing.T) {
	ctx := context.Background()
	rdb := testClient(t)
	cache := NewRedisCache(rdb, slog.Default())

	pair := domain.NewPairKey("EUR", "USD")
	key := "rates:" + pair.String()
	defer rdb.Del(ctx, key)

	base := time.Now()
	for i := 0; i < 5; i++ {
		quote := domain.QuoteRecord{
			Base:       "EUR",
			Quote:      "USD",
			Rate:       1.1 + float64(i)*0.001,
			ObservedAt: base.Add(time.Duration(i) * time.Millisecond),
		}
		if err := cache.AddRate(ctx, quote); err != nil {
			t.Fatalf("AddRate failed: %v", err)
		}
	}

	rates, err := cache.GetRatesByPeriod(ctx, pair, time.Minute)
	if err != nil {
		t.Fatalf("GetRatesByPeriod failed: %v", err)
	}
	if len(rates) != 5 {
		t.Fatalf("got %d rates, want 5", len(rates))
	}

	rates, err = cache.GetRatesByPeriod(ctx, domain.NewPairKey("AUD", "CAD"), time.Minute)
	if err != nil {
		t.Fatalf("GetRatesByPeriod on empty pair failed: %v", err)
	}
	if len(rates) != 0 {
		t.Fatalf("got %d rates for pair with no observations", len(rates))
	}
}

func TestGetLatestRateMissingPair(t *testing.T) {
	ctx := context.Background()
	rdb := testClient(t)
	cache := NewRedisCache(rdb, slog.Default())

	latest, err := cache.GetLatestRate(ctx, domain.NewPairKey("XAU", "XAG"))
	if err != nil {
		t.Fatalf("GetLatestRate failed: %v", err)
	}
	if latest != nil {
		t.Fatalf("expected nil for unseen pair, got %+v", latest)
	}
}
