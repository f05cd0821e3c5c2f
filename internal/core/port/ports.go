package port

import (
	"context"
	"time"

	"arbflow/internal/core/domain"
)

type CachePort interface {
	AddRate(ctx context.Context, quote domain.QuoteRecord) error
	GetLatestRate(ctx context.Context, pair domain.PairKey) (*domain.QuoteRecord, error)
	GetRatesByPeriod(ctx context.Context, pair domain.PairKey, period time.Duration) ([]float64, error)
	Ping(ctx context.Context) string
}

type RepositoryPort interface {
	SaveOpportunity(ctx context.Context, opp domain.Opportunity) error
	GetOpportunitiesByPeriod(ctx context.Context, period time.Duration) ([]domain.Opportunity, error)
	GetLatestOpportunity(ctx context.Context) (*domain.Opportunity, error)
	Ping(ctx context.Context) string
}

type QuoteSourcePort interface {
	Start() <-chan domain.QuoteRecord
	Stop()
	IsConnected() bool
}

type ArbitrageServicePort interface {
	GetLatestRate(ctx context.Context, pair domain.PairKey) (*domain.QuoteRecord, error)
	GetLatestOpportunity(ctx context.Context) (*domain.Opportunity, error)
	GetOpportunitiesByPeriod(ctx context.Context, period time.Duration) ([]domain.Opportunity, error)
	Health(ctx context.Context) domain.HealthResponse
}
