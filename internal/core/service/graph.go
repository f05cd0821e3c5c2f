package service

import (
	"sort"
	"sync"
	"time"

	"arbflow/internal/core/domain"
)

// ExchangeGraph holds the currently valid exchange edges, one per
// unordered currency pair. Mutation is single-writer: Upsert and
// ExpireOlderThan run on the pipeline goroutine, Snapshot may be taken
// for a detection pass at any point between them.
type ExchangeGraph struct {
	mu      sync.RWMutex
	edges   map[domain.PairKey]domain.MarketEdge
	filter  *FreshnessFilter
	version uint64
}

func NewExchangeGraph(filter *FreshnessFilter) *ExchangeGraph {
	return &ExchangeGraph{
		edges:  make(map[domain.PairKey]domain.MarketEdge),
		filter: filter,
	}
}

// Upsert validates the quote, applies the freshness filter and, on Apply,
// overwrites the edge for the pair. Returns true when the graph changed.
// An Ignore decision is a silent no-op: stale and superseded quotes are a
// steady-state condition, not a fault.
func (g *ExchangeGraph) Upsert(quote domain.QuoteRecord, now time.Time) (bool, error) {
	if err := quote.Validate(); err != nil {
		return false, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	key := quote.Pair()
	var current *domain.MarketEdge
	if edge, ok := g.edges[key]; ok {
		current = &edge
	}

	if g.filter.Decide(quote, current, now) == Ignore {
		return false, nil
	}

	g.edges[key] = domain.MarketEdge{
		Base:       quote.Base,
		Quote:      quote.Quote,
		Rate:       quote.Rate,
		ObservedAt: quote.ObservedAt,
	}
	g.version++
	return true, nil
}

// ExpireOlderThan removes every edge whose observation time is before
// cutoff and returns how many were removed. An edge must be currently
// valid to stay eligible for cycle search.
func (g *ExchangeGraph) ExpireOlderThan(cutoff time.Time) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	removed := 0
	for key, edge := range g.edges {
		if edge.ObservedAt.Before(cutoff) {
			delete(g.edges, key)
			removed++
		}
	}
	if removed > 0 {
		g.version++
	}
	return removed
}

// Edge returns the stored edge for a pair, if any.
func (g *ExchangeGraph) Edge(pair domain.PairKey) (domain.MarketEdge, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	edge, ok := g.edges[pair]
	return edge, ok
}

// Len returns the number of stored pairs.
func (g *ExchangeGraph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// Version increases on every mutation that changed the graph. A detection
// pass over an unchanged version can be skipped.
func (g *ExchangeGraph) Version() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.version
}

// Clear drops every edge. Called on session teardown.
func (g *ExchangeGraph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edges = make(map[domain.PairKey]domain.MarketEdge)
	g.version++
}

// DirectedEdge is one direction of a stored pair inside a snapshot.
// From and To index into the snapshot's currency array.
type DirectedEdge struct {
	From   int
	To     int
	Weight float64
	Rate   float64
}

// Snapshot is an isolated, stable view of the graph for a single
// detection pass. The vertex array is sorted so equal graph states
// produce equal snapshots.
type Snapshot struct {
	Currencies []domain.Currency
	Edges      []DirectedEdge
	Version    uint64

	index map[domain.Currency]int
	rates map[[2]int]float64
}

// Snapshot copies the current graph into an immutable view. Each stored
// pair materializes as two directed edges with exactly opposite weights.
func (g *ExchangeGraph) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seen := make(map[domain.Currency]struct{}, len(g.edges)*2)
	for _, edge := range g.edges {
		seen[edge.Base] = struct{}{}
		seen[edge.Quote] = struct{}{}
	}

	currencies := make([]domain.Currency, 0, len(seen))
	for cur := range seen {
		currencies = append(currencies, cur)
	}
	sort.Slice(currencies, func(i, j int) bool { return currencies[i] < currencies[j] })

	index := make(map[domain.Currency]int, len(currencies))
	for i, cur := range currencies {
		index[cur] = i
	}

	edges := make([]DirectedEdge, 0, len(g.edges)*2)
	rates := make(map[[2]int]float64, len(g.edges)*2)
	for _, edge := range g.edges {
		base, quote := index[edge.Base], index[edge.Quote]
		edges = append(edges,
			DirectedEdge{From: base, To: quote, Weight: edge.Weight(), Rate: edge.Rate},
			DirectedEdge{From: quote, To: base, Weight: edge.ReverseWeight(), Rate: edge.ReverseRate()},
		)
		rates[[2]int{base, quote}] = edge.Rate
		rates[[2]int{quote, base}] = edge.ReverseRate()
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})

	return Snapshot{
		Currencies: currencies,
		Edges:      edges,
		Version:    g.version,
		index:      index,
		rates:      rates,
	}
}

// Rate returns the directed conversion rate between two snapshot
// currencies, if that direction exists.
func (s Snapshot) Rate(from, to domain.Currency) (float64, bool) {
	i, ok := s.index[from]
	if !ok {
		return 0, false
	}
	j, ok := s.index[to]
	if !ok {
		return 0, false
	}
	rate, ok := s.rates[[2]int{i, j}]
	return rate, ok
}
