package service

import (
	"testing"
	"time"

	"arbflow/internal/core/domain"
)

func TestFreshnessFilterNoCurrentEdge(t *testing.T) {
	filter := NewFreshnessFilter(1500 * time.Millisecond)
	now := time.Now()

	quote := domain.QuoteRecord{Base: "USD", Quote: "JPY", Rate: 100, ObservedAt: now}
	if got := filter.Decide(quote, nil, now); got != Apply {
		t.Fatalf("fresh quote with no edge: got %v, want apply", got)
	}
}

func TestFreshnessFilterStrictlyNewerWins(t *testing.T) {
	filter := NewFreshnessFilter(1500 * time.Millisecond)
	now := time.Now()

	current := &domain.MarketEdge{Base: "USD", Quote: "JPY", Rate: 100, ObservedAt: now.Add(-100 * time.Millisecond)}

	newer := domain.QuoteRecord{Base: "USD", Quote: "JPY", Rate: 101, ObservedAt: now}
	if got := filter.Decide(newer, current, now); got != Apply {
		t.Fatalf("newer quote: got %v, want apply", got)
	}

	equal := domain.QuoteRecord{Base: "USD", Quote: "JPY", Rate: 101, ObservedAt: current.ObservedAt}
	if got := filter.Decide(equal, current, now); got != Ignore {
		t.Fatalf("equal timestamp: got %v, want ignore", got)
	}

	older := domain.QuoteRecord{Base: "USD", Quote: "JPY", Rate: 99, ObservedAt: now.Add(-200 * time.Millisecond)}
	if got := filter.Decide(older, current, now); got != Ignore {
		t.Fatalf("older quote: got %v, want ignore", got)
	}
}

func TestFreshnessFilterStalenessWindow(t *testing.T) {
	filter := NewFreshnessFilter(1500 * time.Millisecond)
	now := time.Now()

	// Older than the window at arrival: rejected even with no stored edge.
	late := domain.QuoteRecord{Base: "USD", Quote: "JPY", Rate: 100, ObservedAt: now.Add(-2 * time.Second)}
	if got := filter.Decide(late, nil, now); got != Ignore {
		t.Fatalf("late quote with no edge: got %v, want ignore", got)
	}

	// A very late quote must not revive an even older stored edge.
	current := &domain.MarketEdge{Base: "USD", Quote: "JPY", Rate: 100, ObservedAt: now.Add(-3 * time.Second)}
	if got := filter.Decide(late, current, now); got != Ignore {
		t.Fatalf("late quote newer than stored edge: got %v, want ignore", got)
	}

	// Just inside the window is fine.
	inside := domain.QuoteRecord{Base: "USD", Quote: "JPY", Rate: 100, ObservedAt: now.Add(-time.Second)}
	if got := filter.Decide(inside, nil, now); got != Apply {
		t.Fatalf("quote inside window: got %v, want apply", got)
	}
}
