package workerpool

import (
	"context"
	"log/slog"
	"sync"

	"arbflow/internal/core/domain"
)

// FanInAggregator merges several quote feeds into one channel so that
// the graph keeps a single writer regardless of how many sources run.
type FanInAggregator struct {
	inputChannels []<-chan domain.QuoteRecord
	outputChan    chan domain.QuoteRecord
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	logger        *slog.Logger
}

func NewFanInAggregator(logger *slog.Logger) *FanInAggregator {
	ctx, cancel := context.WithCancel(context.Background())

	return &FanInAggregator{
		outputChan: make(chan domain.QuoteRecord, 1000),
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
	}
}

func (f *FanInAggregator) AddInputChan(ch <-chan domain.QuoteRecord) {
	f.inputChannels = append(f.inputChannels, ch)
}

func (f *FanInAggregator) Start() <-chan domain.QuoteRecord {
	f.logger.Info("starting quote fan-in",
		slog.Int("input_channels", len(f.inputChannels)))

	for i, inputChan := range f.inputChannels {
		f.wg.Add(1)
		go f.forward(i, inputChan)
	}

	go func() {
		f.wg.Wait()
		close(f.outputChan)
	}()

	return f.outputChan
}

func (f *FanInAggregator) forward(id int, input <-chan domain.QuoteRecord) {
	defer f.wg.Done()

	for {
		select {
		case <-f.ctx.Done():
			return
		case quote, ok := <-input:
			if !ok {
				f.logger.Info("quote feed channel closed", slog.Int("feed", id))
				return
			}

			select {
			case f.outputChan <- quote:
			case <-f.ctx.Done():
				return
			}
		}
	}
}

func (f *FanInAggregator) Stop() {
	f.cancel()
	f.wg.Wait()
}
