package model

import "time"

// TokenEventKind is the subset of economic-event kinds that move the
// infrastructure-token balance.
type TokenEventKind string

const (
	TokenIssued      TokenEventKind = "issued"
	TokenTransferred TokenEventKind = "transferred"
	TokenDecayed     TokenEventKind = "decayed"
)

// TokenTransaction is one replayed economic event, signed: issuance is
// positive, transfers and demurrage decay are negative.
type TokenTransaction struct {
	ID        string         `json:"id"`
	Kind      TokenEventKind `json:"kind"`
	Amount    float64        `json:"amount"`
	Note      string         `json:"note,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

type ExchangeRate struct {
	FromCategory string  `json:"from_category"`
	ToCategory   string  `json:"to_category"`
	Rate         float64 `json:"rate"`
}

type WindowSums struct {
	Last24h float64 `json:"last_24h"`
	Last7d  float64 `json:"last_7d"`
	Last30d float64 `json:"last_30d"`
	AllTime float64 `json:"all_time"`
}

type InfrastructureTokenBalance struct {
	OperatorID       string             `json:"operator_id"`
	Balance          float64            `json:"balance"`
	EarningRatePerHr float64            `json:"earning_rate_per_hour"`
	DemurrageRate    float64            `json:"demurrage_monthly_rate"`
	Projected30d     float64            `json:"projected_30d"`
	Transactions     []TokenTransaction `json:"transactions"`
	Windows          WindowSums         `json:"windows"`
	ExchangeRates    []ExchangeRate     `json:"exchange_rates"`
}
