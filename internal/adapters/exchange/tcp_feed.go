package exchange

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"arbflow/internal/core/domain"
)

// TCPQuoteFeed streams line-delimited JSON quote messages from a rate
// provider over TCP. One line may carry a single quote object or an
// array of them; a record that fails to decode is skipped without
// blocking the others in the same message.
type TCPQuoteFeed struct {
	ID        string
	Host      string
	Port      string
	outChan   chan domain.QuoteRecord
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	connected bool
	mu        sync.RWMutex
	logger    *slog.Logger
}

type rawQuote struct {
	Base      string  `json:"base"`
	Quote     string  `json:"quote"`
	Rate      float64 `json:"rate"`
	Timestamp int64   `json:"timestamp"` // unix microseconds
}

func NewTCPQuoteFeed(id string, host string, port string, logger *slog.Logger) *TCPQuoteFeed {
	ctx, cancel := context.WithCancel(context.Background())
	return &TCPQuoteFeed{
		ID:     id,
		Host:   host,
		Port:   port,
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

func (f *TCPQuoteFeed) Start() <-chan domain.QuoteRecord {
	f.outChan = make(chan domain.QuoteRecord, 100)

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		defer close(f.outChan)

		for {
			select {
			case <-f.ctx.Done():
				return
			default:
				f.connectAndRead()
			}
		}
	}()

	return f.outChan
}

func (f *TCPQuoteFeed) Stop() {
	f.cancel()
	f.wg.Wait()
}

func (f *TCPQuoteFeed) IsConnected() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.connected
}

func (f *TCPQuoteFeed) connectAndRead() {
	conn, err := net.Dial("tcp", net.JoinHostPort(f.Host, f.Port))
	if err != nil {
		f.setConnected(false)
		f.logger.Error("failed to connect to quote provider",
			slog.String("feed", f.ID),
			slog.String("address", net.JoinHostPort(f.Host, f.Port)),
			slog.Any("error", err))

		select {
		case <-f.ctx.Done():
			return
		case <-time.After(5 * time.Second):
			// Retry connection
		}
		return
	}

	f.setConnected(true)
	f.logger.Info("connected to quote provider",
		slog.String("feed", f.ID),
		slog.String("address", net.JoinHostPort(f.Host, f.Port)))

	f.readStream(conn)
}

func (f *TCPQuoteFeed) readStream(conn net.Conn) {
	defer conn.Close()
	defer f.setConnected(false)

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		select {
		case <-f.ctx.Done():
			return
		default:
			quotes, skipped, err := parseMessage(scanner.Bytes(), f.ID)
			if err != nil {
				f.logger.Error("quote message decode error",
					slog.String("feed", f.ID),
					slog.Any("error", err))

				continue
			}
			if skipped > 0 {
				f.logger.Warn("skipped undecodable records in message",
					slog.String("feed", f.ID),
					slog.Int("count", skipped))
			}

			for _, quote := range quotes {
				select {
				case f.outChan <- quote:
				case <-f.ctx.Done():
					return
				}
			}
		}
	}
}

func (f *TCPQuoteFeed) setConnected(connected bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = connected
}

// parseMessage decodes one line into quote records. Array elements are
// decoded individually so one bad record never blocks the others in the
// same message; skipped reports how many were dropped. Code-length and
// rate validation happen later at the graph boundary.
func parseMessage(line []byte, feedID string) (records []domain.QuoteRecord, skipped int, err error) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return nil, 0, nil
	}

	var raws []rawQuote
	if trimmed[0] == '[' {
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return nil, 0, fmt.Errorf("json unmarshal error: %w", err)
		}
		for _, elem := range elems {
			var raw rawQuote
			if err := json.Unmarshal(elem, &raw); err != nil {
				skipped++
				continue
			}
			raws = append(raws, raw)
		}
	} else {
		var raw rawQuote
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, 0, fmt.Errorf("json unmarshal error: %w", err)
		}
		raws = append(raws, raw)
	}

	records = make([]domain.QuoteRecord, 0, len(raws))
	for _, raw := range raws {
		records = append(records, domain.QuoteRecord{
			Source:     feedID,
			Base:       domain.Currency(raw.Base),
			Quote:      domain.Currency(raw.Quote),
			Rate:       raw.Rate,
			ObservedAt: time.UnixMicro(raw.Timestamp),
		})
	}
	return records, skipped, nil
}
