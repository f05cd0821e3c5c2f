package service

import (
	"fmt"
	"time"

	"arbflow/internal/core/domain"

	"github.com/google/uuid"
)

// OpportunityReporter converts a detected cycle into a concrete trade
// sequence with compounding notional amounts, the artifact handed to
// persistence and presentation.
type OpportunityReporter struct {
	startNotional float64
}

func NewOpportunityReporter(startNotional float64) *OpportunityReporter {
	return &OpportunityReporter{startNotional: startNotional}
}

// Report walks the cycle from the starting notional, applying the
// original (non-log) rate at each hop. A final amount that is not above
// the starting notional means the detector handed over a bad cycle; the
// report is abandoned.
func (r *OpportunityReporter) Report(cycle domain.Cycle, snap Snapshot, detectedAt time.Time) (domain.Opportunity, error) {
	if !cycle.Closed() {
		return domain.Opportunity{}, fmt.Errorf("%w: cycle too short or not closed: %v", domain.ErrInconsistentCycle, cycle)
	}

	amount := r.startNotional
	steps := make([]domain.TradeStep, 0, len(cycle)-1)
	for i := 0; i < len(cycle)-1; i++ {
		from, to := cycle[i], cycle[i+1]
		rate, ok := snap.Rate(from, to)
		if !ok {
			return domain.Opportunity{}, fmt.Errorf("%w: no rate for %s->%s", domain.ErrInconsistentCycle, from, to)
		}
		amount *= rate
		steps = append(steps, domain.TradeStep{From: from, To: to, Rate: rate, Amount: amount})
	}

	if amount <= r.startNotional {
		return domain.Opportunity{}, fmt.Errorf("%w: walk of %v ends at %v, not above notional %v",
			domain.ErrInconsistentCycle, cycle, amount, r.startNotional)
	}

	return domain.Opportunity{
		ID:          uuid.New(),
		DetectedAt:  detectedAt,
		Start:       cycle[0],
		StartAmount: r.startNotional,
		FinalAmount: amount,
		Steps:       steps,
	}, nil
}
