package domain

import (
	"fmt"
	"math"
	"time"
)

// Currency is a 3-letter currency code. The set of valid codes is open:
// any code seen in input is accepted.
type Currency string

func (c Currency) Valid() bool {
	return len(c) == 3
}

// QuoteRecord is one decoded exchange-rate observation: 1 unit of Base
// converts to Rate units of Quote. Immutable once constructed.
type QuoteRecord struct {
	Source     string    `json:"source,omitempty"`
	Base       Currency  `json:"base"`
	Quote      Currency  `json:"quote"`
	Rate       float64   `json:"rate"`
	ObservedAt time.Time `json:"observed_at"`
}

// Validate rejects records that must never reach the exchange graph:
// malformed currency codes, self pairs, and rates whose logarithm is not
// a finite number.
func (q QuoteRecord) Validate() error {
	if !q.Base.Valid() || !q.Quote.Valid() {
		return fmt.Errorf("%w: currency code must be 3 characters (%q/%q)", ErrMalformedQuote, q.Base, q.Quote)
	}
	if q.Base == q.Quote {
		return fmt.Errorf("%w: self pair %s", ErrMalformedQuote, q.Base)
	}
	if q.Rate <= 0 || math.IsNaN(q.Rate) || math.IsInf(q.Rate, 0) {
		return fmt.Errorf("%w: non-positive rate %v for %s/%s", ErrMalformedQuote, q.Rate, q.Base, q.Quote)
	}
	if w := math.Log(q.Rate); math.IsNaN(w) || math.IsInf(w, 0) {
		return fmt.Errorf("%w: rate %v has no finite logarithm", ErrMalformedQuote, q.Rate)
	}
	return nil
}

// Pair returns the canonical unordered pair key for this record.
func (q QuoteRecord) Pair() PairKey {
	return NewPairKey(q.Base, q.Quote)
}
