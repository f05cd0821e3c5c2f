package service

import (
	"time"

	"arbflow/internal/core/domain"
)

// Decision is the freshness filter verdict for an incoming quote.
type Decision int

const (
	Apply Decision = iota
	Ignore
)

func (d Decision) String() string {
	if d == Apply {
		return "apply"
	}
	return "ignore"
}

// FreshnessFilter decides whether an incoming quote supersedes the stored
// edge for its pair. Quotes may arrive out of order across a small skew;
// the filter is monotonic per pair and bounds lateness tolerance by the
// staleness window.
type FreshnessFilter struct {
	window time.Duration
}

func NewFreshnessFilter(window time.Duration) *FreshnessFilter {
	return &FreshnessFilter{window: window}
}

// Decide applies the acceptance policy:
//   - a candidate older than now minus the staleness window is ignored
//     regardless of what is stored, so a very late duplicate can never
//     revive an edge the graph has already moved past;
//   - with no stored edge, a fresh candidate is applied;
//   - otherwise the candidate must be strictly newer than the stored
//     observation.
func (f *FreshnessFilter) Decide(candidate domain.QuoteRecord, current *domain.MarketEdge, now time.Time) Decision {
	if candidate.ObservedAt.Before(now.Add(-f.window)) {
		return Ignore
	}
	if current == nil {
		return Apply
	}
	if candidate.ObservedAt.After(current.ObservedAt) {
		return Apply
	}
	return Ignore
}
