package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"arbflow/internal/core/domain"
	"arbflow/internal/core/port"
	"arbflow/internal/core/service/workerpool"
	taskpool "arbflow/internal/pkg/workerpool"
)

var _ port.ArbitrageServicePort = (*ArbitrageService)(nil)

// PipelineConfig carries the policy constants of the detection pipeline.
// The defaults come from the reference scenario and are configuration,
// not law.
type PipelineConfig struct {
	StalenessWindow   time.Duration
	InactivityTimeout time.Duration
	StartNotional     float64
}

// ArbitrageService owns the exchange graph for one session and runs the
// pipeline: filter, graph update, expiry, detection pass, report. All
// graph mutation happens on the single run goroutine; slow cache and
// repository writes go through the task pool.
type ArbitrageService struct {
	graph      *ExchangeGraph
	detector   *CycleDetector
	reporter   *OpportunityReporter
	cache      port.CachePort
	repository port.RepositoryPort
	feeds      []port.QuoteSourcePort
	logger     *slog.Logger

	aggregator *workerpool.FanInAggregator
	tasks      *taskpool.TaskPool

	window      time.Duration
	inactivity  time.Duration
	lastVersion uint64
	now         func() time.Time

	serviceCtx    context.Context
	serviceCancel context.CancelFunc
	wg            sync.WaitGroup
	stopOnce      sync.Once
}

func NewArbitrageService(
	cache port.CachePort,
	repository port.RepositoryPort,
	feeds []port.QuoteSourcePort,
	logger *slog.Logger,
	cfg PipelineConfig,
) *ArbitrageService {
	serviceCtx, serviceCancel := context.WithCancel(context.Background())

	return &ArbitrageService{
		graph:         NewExchangeGraph(NewFreshnessFilter(cfg.StalenessWindow)),
		detector:      NewCycleDetector(logger),
		reporter:      NewOpportunityReporter(cfg.StartNotional),
		cache:         cache,
		repository:    repository,
		feeds:         feeds,
		logger:        logger,
		tasks:         taskpool.NewTaskPool(4),
		window:        cfg.StalenessWindow,
		inactivity:    cfg.InactivityTimeout,
		now:           time.Now,
		serviceCtx:    serviceCtx,
		serviceCancel: serviceCancel,
	}
}

// Start fans all quote feeds into the single pipeline goroutine.
func (s *ArbitrageService) Start() {
	s.logger.Info("starting arbitrage detection service",
		slog.Int("feeds", len(s.feeds)),
		slog.Duration("staleness_window", s.window))

	s.aggregator = workerpool.NewFanInAggregator(s.logger)
	for _, feed := range s.feeds {
		s.aggregator.AddInputChan(feed.Start())
	}
	quotes := s.aggregator.Start()

	s.wg.Add(1)
	go s.run(quotes)
}

// Done closes when the session ends, whether by Stop or by the
// inactivity timeout.
func (s *ArbitrageService) Done() <-chan struct{} {
	return s.serviceCtx.Done()
}

// Stop tears the session down: feeds first, then the pipeline, then the
// pending writes. The graph and all its edges are discarded.
func (s *ArbitrageService) Stop() {
	s.stopOnce.Do(func() {
		s.serviceCancel()
		for _, feed := range s.feeds {
			feed.Stop()
		}
		if s.aggregator != nil {
			s.aggregator.Stop()
		}
		s.wg.Wait()
		s.tasks.Stop()
		s.graph.Clear()
		s.logger.Info("arbitrage detection service stopped")
	})
}

func (s *ArbitrageService) run(quotes <-chan domain.QuoteRecord) {
	defer s.wg.Done()

	idle := time.NewTimer(s.inactivity)
	defer idle.Stop()

	for {
		select {
		case <-s.serviceCtx.Done():
			return
		case <-idle.C:
			s.logger.Info("no quotes within inactivity timeout, ending session",
				slog.Duration("timeout", s.inactivity))
			s.serviceCancel()
			return
		case quote, ok := <-quotes:
			if !ok {
				s.logger.Info("quote stream closed, ending session")
				s.serviceCancel()
				return
			}
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(s.inactivity)

			s.processQuote(quote)
		}
	}
}

// processQuote runs the whole pipeline once for one decoded quote.
func (s *ArbitrageService) processQuote(quote domain.QuoteRecord) {
	now := s.now()

	applied, err := s.graph.Upsert(quote, now)
	if err != nil {
		s.logger.Warn("rejected malformed quote",
			slog.String("source", quote.Source),
			slog.Any("error", err))
		return
	}

	if expired := s.graph.ExpireOlderThan(now.Add(-s.window)); expired > 0 {
		s.logger.Debug("expired stale edges", slog.Int("count", expired))
	}

	if !applied {
		s.logger.Debug("ignored stale or superseded quote",
			slog.String("pair", quote.Pair().String()),
			slog.Time("observed_at", quote.ObservedAt))
		return
	}

	s.tasks.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.cache.AddRate(ctx, quote); err != nil {
			s.logger.Warn("rate cache write failed", slog.Any("error", err))
		}
	})

	if s.graph.Version() == s.lastVersion {
		return
	}

	snap := s.graph.Snapshot()
	s.lastVersion = snap.Version

	cycle, found, err := s.detector.Detect(snap)
	if err != nil {
		s.logger.Error("detection pass abandoned", slog.Any("error", err))
		return
	}
	if !found {
		return
	}

	opp, err := s.reporter.Report(cycle, snap, now)
	if err != nil {
		s.logger.Error("opportunity report abandoned", slog.Any("error", err))
		return
	}

	s.logger.Info("arbitrage opportunity detected",
		slog.String("cycle", cycle.String()),
		slog.Float64("start_amount", opp.StartAmount),
		slog.Float64("final_amount", opp.FinalAmount),
		slog.Float64("profit_pct", opp.ProfitPct()))

	s.tasks.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.repository.SaveOpportunity(ctx, opp); err != nil {
			s.logger.Error("failed to save opportunity", slog.Any("error", err))
		}
	})
}

// GetLatestRate serves the live graph first and falls back to the cache
// for pairs whose edge already expired.
func (s *ArbitrageService) GetLatestRate(ctx context.Context, pair domain.PairKey) (*domain.QuoteRecord, error) {
	if edge, ok := s.graph.Edge(pair); ok {
		return &domain.QuoteRecord{
			Base:       edge.Base,
			Quote:      edge.Quote,
			Rate:       edge.Rate,
			ObservedAt: edge.ObservedAt,
		}, nil
	}
	return s.cache.GetLatestRate(ctx, pair)
}

func (s *ArbitrageService) GetLatestOpportunity(ctx context.Context) (*domain.Opportunity, error) {
	return s.repository.GetLatestOpportunity(ctx)
}

func (s *ArbitrageService) GetOpportunitiesByPeriod(ctx context.Context, period time.Duration) ([]domain.Opportunity, error) {
	return s.repository.GetOpportunitiesByPeriod(ctx, period)
}

func (s *ArbitrageService) Health(ctx context.Context) domain.HealthResponse {
	connected := 0
	for _, feed := range s.feeds {
		if feed.IsConnected() {
			connected++
		}
	}

	health := domain.HealthResponse{
		Redis:         s.cache.Ping(ctx),
		Postgres:      s.repository.Ping(ctx),
		Feeds:         fmt.Sprintf("%d/%d connected", connected, len(s.feeds)),
		DroppedWrites: s.tasks.TasksDropped(),
	}
	health.Status = "ok"
	if health.Redis != "up" || health.Postgres != "up" || connected == 0 {
		health.Status = "degraded"
	}
	return health
}
