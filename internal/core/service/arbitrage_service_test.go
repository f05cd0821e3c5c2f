package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"arbflow/internal/core/domain"
	"arbflow/internal/core/port"
)

type fakeCache struct {
	mu     sync.Mutex
	quotes []domain.QuoteRecord
}

func (c *fakeCache) AddRate(_ context.Context, quote domain.QuoteRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quotes = append(c.quotes, quote)
	return nil
}

func (c *fakeCache) GetLatestRate(_ context.Context, pair domain.PairKey) (*domain.QuoteRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.quotes) - 1; i >= 0; i-- {
		if c.quotes[i].Pair() == pair {
			quote := c.quotes[i]
			return &quote, nil
		}
	}
	return nil, nil
}

func (c *fakeCache) GetRatesByPeriod(_ context.Context, pair domain.PairKey, _ time.Duration) ([]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var rates []float64
	for _, quote := range c.quotes {
		if quote.Pair() == pair {
			rates = append(rates, quote.Rate)
		}
	}
	return rates, nil
}

func (c *fakeCache) Ping(context.Context) string { return "up" }

type fakeRepository struct {
	mu   sync.Mutex
	opps []domain.Opportunity
}

func (r *fakeRepository) SaveOpportunity(_ context.Context, opp domain.Opportunity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opps = append(r.opps, opp)
	return nil
}

func (r *fakeRepository) GetOpportunitiesByPeriod(context.Context, time.Duration) ([]domain.Opportunity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Opportunity(nil), r.opps...), nil
}

func (r *fakeRepository) GetLatestOpportunity(context.Context) (*domain.Opportunity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.opps) == 0 {
		return nil, nil
	}
	opp := r.opps[len(r.opps)-1]
	return &opp, nil
}

func (r *fakeRepository) Ping(context.Context) string { return "up" }

func (r *fakeRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.opps)
}

type fakeFeed struct {
	ch       chan domain.QuoteRecord
	stopOnce sync.Once
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{ch: make(chan domain.QuoteRecord, 100)}
}

func (f *fakeFeed) Start() <-chan domain.QuoteRecord { return f.ch }
func (f *fakeFeed) Stop()                            { f.stopOnce.Do(func() { close(f.ch) }) }
func (f *fakeFeed) IsConnected() bool                { return true }

func testPipelineConfig() PipelineConfig {
	return PipelineConfig{
		StalenessWindow:   1500 * time.Millisecond,
		InactivityTimeout: time.Minute,
		StartNotional:     100,
	}
}

func TestServicePipelineDetectsAndSaves(t *testing.T) {
	cache := &fakeCache{}
	repo := &fakeRepository{}
	feed := newFakeFeed()

	svc := NewArbitrageService(cache, repo, []port.QuoteSourcePort{feed}, slog.Default(), testPipelineConfig())
	svc.Start()
	defer svc.Stop()

	now := time.Now()
	for _, quote := range []domain.QuoteRecord{
		{Base: "AUD", Quote: "USD", Rate: 0.75035, ObservedAt: now},
		{Base: "USD", Quote: "CHF", Rate: 1.0016, ObservedAt: now},
		{Base: "USD", Quote: "JPY", Rate: 100.04957, ObservedAt: now},
		{Base: "EUR", Quote: "USD", Rate: 1.1002, ObservedAt: now},
		{Base: "GBP", Quote: "USD", Rate: 1.2516, ObservedAt: now},
		{Base: "AUD", Quote: "CAD", Rate: 0.30038324044194714, ObservedAt: now.Add(time.Millisecond)},
		{Base: "CAD", Quote: "GBP", Rate: 1.2015329617677886, ObservedAt: now.Add(time.Millisecond)},
	} {
		feed.ch <- quote
	}

	deadline := time.After(3 * time.Second)
	for repo.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("no opportunity persisted within deadline")
		case <-time.After(10 * time.Millisecond):
		}
	}

	opp, err := repo.GetLatestOpportunity(context.Background())
	if err != nil || opp == nil {
		t.Fatalf("latest opportunity: %v %v", opp, err)
	}
	if opp.FinalAmount <= opp.StartAmount {
		t.Fatalf("persisted opportunity not profitable: %v -> %v", opp.StartAmount, opp.FinalAmount)
	}
	if len(opp.Steps) < 3 {
		t.Fatalf("opportunity has too few steps: %d", len(opp.Steps))
	}

	health := svc.Health(context.Background())
	if health.Status != "ok" {
		t.Fatalf("health status %q with healthy fakes", health.Status)
	}
	if health.DroppedWrites != 0 {
		t.Fatalf("%d writes dropped on an idle pool", health.DroppedWrites)
	}
}

func TestServiceRejectsMalformedWithoutStopping(t *testing.T) {
	cache := &fakeCache{}
	repo := &fakeRepository{}
	feed := newFakeFeed()

	svc := NewArbitrageService(cache, repo, []port.QuoteSourcePort{feed}, slog.Default(), testPipelineConfig())
	svc.Start()
	defer svc.Stop()

	now := time.Now()
	feed.ch <- domain.QuoteRecord{Base: "USD", Quote: "JPY", Rate: -5, ObservedAt: now}
	feed.ch <- domain.QuoteRecord{Base: "USD", Quote: "JPY", Rate: 100.05, ObservedAt: now}

	deadline := time.After(2 * time.Second)
	for {
		quote, err := svc.GetLatestRate(context.Background(), domain.NewPairKey("USD", "JPY"))
		if err != nil {
			t.Fatalf("get latest rate: %v", err)
		}
		if quote != nil {
			if quote.Rate != 100.05 {
				t.Fatalf("stored rate %v, want 100.05", quote.Rate)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("valid quote after malformed one was never applied")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestServiceInactivityEndsSession(t *testing.T) {
	cfg := testPipelineConfig()
	cfg.InactivityTimeout = 50 * time.Millisecond

	svc := NewArbitrageService(&fakeCache{}, &fakeRepository{}, []port.QuoteSourcePort{newFakeFeed()}, slog.Default(), cfg)
	svc.Start()
	defer svc.Stop()

	select {
	case <-svc.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not end on inactivity")
	}
}
