package service

import (
	"fmt"
	"log/slog"

	"arbflow/internal/core/domain"
)

// relaxEpsilon guards the relaxation against rounding noise. A pair's
// two directed weights are exact negatives, so `(x+w)-w` can land one
// ulp below x and plant a bogus 2-cycle in the predecessor graph if a
// bare `<` is used. Real arbitrage margins are many orders of magnitude
// above this.
const relaxEpsilon = 1e-12

// CycleDetector searches a graph snapshot for a negative-weight cycle,
// which in the log-weighted graph corresponds to a sequence of
// conversions whose rate product exceeds 1.
type CycleDetector struct {
	logger *slog.Logger
}

func NewCycleDetector(logger *slog.Logger) *CycleDetector {
	return &CycleDetector{logger: logger}
}

// Detect runs Bellman-Ford over the snapshot. Every vertex starts at
// distance zero, which is equivalent to relaxing from a virtual source
// connected to all currencies and covers disconnected components in one
// pass. Predecessors are vertex indexes into the snapshot's currency
// array. Returns the reconstructed cycle and true when a negative cycle
// exists, or false when the final pass relaxes nothing.
func (d *CycleDetector) Detect(snap Snapshot) (domain.Cycle, bool, error) {
	n := len(snap.Currencies)
	if n < 3 || len(snap.Edges) == 0 {
		return nil, false, nil
	}

	dist := make([]float64, n)
	pred := make([]int, n)
	for i := range pred {
		pred[i] = -1
	}

	for round := 0; round < n-1; round++ {
		relaxed := false
		for _, e := range snap.Edges {
			if dist[e.From]+e.Weight < dist[e.To]-relaxEpsilon {
				dist[e.To] = dist[e.From] + e.Weight
				pred[e.To] = e.From
				relaxed = true
			}
		}
		if !relaxed {
			return nil, false, nil
		}
	}

	// One extra pass: any edge that still relaxes proves a reachable
	// negative cycle downstream of its head. Each relaxing edge is tried
	// as a detection seed until one reconstruction verifies.
	var lastErr error
	for _, e := range snap.Edges {
		if dist[e.From]+e.Weight >= dist[e.To]-relaxEpsilon {
			continue
		}

		prevDist, prevPred := dist[e.To], pred[e.To]
		dist[e.To] = dist[e.From] + e.Weight
		pred[e.To] = e.From

		cycle, err := d.reconstruct(snap, pred, e.To)
		if err == nil {
			return cycle, true, nil
		}
		lastErr = err
		dist[e.To], pred[e.To] = prevDist, prevPred
	}
	if lastErr != nil {
		return nil, false, lastErr
	}
	return nil, false, nil
}

// reconstruct walks predecessor indexes from the flagged vertex. The
// flagged vertex may lie downstream of the cycle, so it is first pulled
// back n steps to land on the cycle itself, then the predecessor chain is
// collected until the start repeats. The chain runs against edge
// direction and is reversed into forward order before closing.
func (d *CycleDetector) reconstruct(snap Snapshot, pred []int, flagged int) (domain.Cycle, error) {
	n := len(snap.Currencies)

	on := flagged
	for i := 0; i < n; i++ {
		on = pred[on]
		if on == -1 {
			return nil, fmt.Errorf("%w: broken predecessor chain", domain.ErrInconsistentCycle)
		}
	}

	chain := []int{on}
	for cur := pred[on]; cur != on; cur = pred[cur] {
		if cur == -1 || len(chain) > n {
			return nil, fmt.Errorf("%w: predecessor walk did not close", domain.ErrInconsistentCycle)
		}
		chain = append(chain, cur)
	}

	cycle := make(domain.Cycle, 0, len(chain)+1)
	cycle = append(cycle, snap.Currencies[chain[0]])
	for i := len(chain) - 1; i >= 1; i-- {
		cycle = append(cycle, snap.Currencies[chain[i]])
	}
	cycle = append(cycle, snap.Currencies[chain[0]])

	if err := d.verify(snap, cycle); err != nil {
		return nil, err
	}
	return cycle, nil
}

// verify recomputes the cycle's weight sum independently from the stored
// rates and checks shape: closed, at least three currencies, no repeated
// intermediate. A failure abandons the pass but keeps the graph, which
// remains a valid structure independent of one bad query.
func (d *CycleDetector) verify(snap Snapshot, cycle domain.Cycle) error {
	if !cycle.Closed() {
		return fmt.Errorf("%w: cycle too short or not closed: %v", domain.ErrInconsistentCycle, cycle)
	}

	seen := make(map[domain.Currency]struct{}, len(cycle))
	for _, cur := range cycle[:len(cycle)-1] {
		if _, dup := seen[cur]; dup {
			return fmt.Errorf("%w: repeated currency %s", domain.ErrInconsistentCycle, cur)
		}
		seen[cur] = struct{}{}
	}

	sum := 0.0
	for i := 0; i < len(cycle)-1; i++ {
		i2, ok := snap.index[cycle[i+1]]
		if !ok {
			return fmt.Errorf("%w: unknown currency %s", domain.ErrInconsistentCycle, cycle[i+1])
		}
		i1 := snap.index[cycle[i]]
		weight, ok := d.weight(snap, i1, i2)
		if !ok {
			return fmt.Errorf("%w: missing edge %s->%s", domain.ErrInconsistentCycle, cycle[i], cycle[i+1])
		}
		sum += weight
	}
	if sum >= 0 {
		return fmt.Errorf("%w: weight sum %v is not negative", domain.ErrInconsistentCycle, sum)
	}
	return nil
}

func (d *CycleDetector) weight(snap Snapshot, from, to int) (float64, bool) {
	for _, e := range snap.Edges {
		if e.From == from && e.To == to {
			return e.Weight, true
		}
	}
	return 0, false
}
