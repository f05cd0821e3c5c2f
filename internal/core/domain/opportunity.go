package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Cycle is an ordered sequence of currencies [C0, ..., Cn] with Cn == C0.
type Cycle []Currency

// Closed reports whether the cycle ends where it starts and has at least
// three distinct currencies.
func (c Cycle) Closed() bool {
	return len(c) >= 4 && c[0] == c[len(c)-1]
}

// RotateTo returns the same cycle rotated so that it starts (and ends) at
// start. Returns the cycle unchanged if start is not on it.
func (c Cycle) RotateTo(start Currency) Cycle {
	if !c.Closed() {
		return c
	}
	body := c[:len(c)-1]
	for i, cur := range body {
		if cur != start {
			continue
		}
		rotated := make(Cycle, 0, len(c))
		rotated = append(rotated, body[i:]...)
		rotated = append(rotated, body[:i]...)
		rotated = append(rotated, start)
		return rotated
	}
	return c
}

func (c Cycle) String() string {
	parts := make([]string, len(c))
	for i, cur := range c {
		parts[i] = string(cur)
	}
	return strings.Join(parts, "->")
}

// TradeStep is one conversion in an arbitrage walk: Amount is the amount
// of the To currency held after applying Rate.
type TradeStep struct {
	From   Currency `json:"from"`
	To     Currency `json:"to"`
	Rate   float64  `json:"rate"`
	Amount float64  `json:"amount"`
}

// Opportunity is a detected arbitrage cycle expressed as a concrete trade
// sequence with compounding notional amounts.
type Opportunity struct {
	ID          uuid.UUID   `json:"id"`
	DetectedAt  time.Time   `json:"detected_at"`
	Start       Currency    `json:"start_currency"`
	StartAmount float64     `json:"start_amount"`
	FinalAmount float64     `json:"final_amount"`
	Steps       []TradeStep `json:"steps"`
}

// ProfitPct is the net profit of the walk as a percentage of the
// starting notional.
func (o Opportunity) ProfitPct() float64 {
	if o.StartAmount == 0 {
		return 0
	}
	return (o.FinalAmount - o.StartAmount) / o.StartAmount * 100
}
