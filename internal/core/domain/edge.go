package domain

import (
	"math"
	"time"
)

// PairKey identifies an unordered currency pair. Lo and Hi are ordered
// lexicographically so that {USD,EUR} and {EUR,USD} map to the same key.
type PairKey struct {
	Lo Currency
	Hi Currency
}

func NewPairKey(a, b Currency) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey{Lo: a, Hi: b}
}

func (k PairKey) String() string {
	return string(k.Lo) + "/" + string(k.Hi)
}

// MarketEdge is the currently valid rate for one currency pair, oriented
// Base→Quote as it was observed. Exactly one MarketEdge exists per pair;
// an accepted newer quote replaces it. Both directed weights derive from
// the single stored rate so they are always exact negatives of each other.
type MarketEdge struct {
	Base       Currency
	Quote      Currency
	Rate       float64
	ObservedAt time.Time
}

// Weight is the log-domain weight of the Base→Quote direction.
func (e MarketEdge) Weight() float64 {
	return -math.Log(e.Rate)
}

// ReverseWeight is the log-domain weight of the Quote→Base direction.
func (e MarketEdge) ReverseWeight() float64 {
	return math.Log(e.Rate)
}

// ReverseRate is the rate of the Quote→Base direction.
func (e MarketEdge) ReverseRate() float64 {
	return 1 / e.Rate
}

func (e MarketEdge) Pair() PairKey {
	return NewPairKey(e.Base, e.Quote)
}
