package domain

import "time"

type RateResponse struct {
	Base       Currency  `json:"base"`
	Quote      Currency  `json:"quote"`
	Rate       float64   `json:"rate"`
	ObservedAt time.Time `json:"observed_at"`
}

type HealthResponse struct {
	Status        string `json:"status"`
	Redis         string `json:"redis"`
	Postgres      string `json:"postgres"`
	Feeds         string `json:"feeds"`
	DroppedWrites int32  `json:"dropped_writes"`
}
