// Package token converts elapsed resource usage into the
// infrastructure-token ledger: balance replay with demurrage decay, and
// interval usage-delta event generation.
package token

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"sheafa-accounting-agent/internal/bus"
	"sheafa-accounting-agent/internal/ledger"
	"sheafa-accounting-agent/internal/model"
)

// transactionCap limits the transaction list carried on a balance
// snapshot; older entries still count toward the balance and windows.
const transactionCap = 50

// projectionDays is the fixed demurrage projection horizon.
const projectionDays = 30.0

type Ledger struct {
	client        ledger.Client
	logger        *slog.Logger
	demurrageRate func() float64
	feed          *bus.Feed[model.InfrastructureTokenBalance]
}

// NewLedger builds a token ledger. demurrageRate is read on every
// balance computation so runtime configuration updates take effect
// without reconstruction.
func NewLedger(client ledger.Client, demurrageRate func() float64, logger *slog.Logger) *Ledger {
	return &Ledger{
		client:        client,
		logger:        logger,
		demurrageRate: demurrageRate,
		feed:          bus.NewFeed[model.InfrastructureTokenBalance](),
	}
}

// Balance replays the operator's economic-event history into a net token
// balance with rolling-window sums and a 30-day demurrage projection. On
// fetch failure it returns a canonical zero balance with empty
// transaction and exchange lists; it never fails.
func (l *Ledger) Balance(ctx context.Context, operatorID string) model.InfrastructureTokenBalance {
	rawEvents, rawRates, err := l.client.EconomicEvents(ctx, operatorID)
	if err != nil {
		l.logger.Warn("economic events fetch failed, using zero balance", "operator_id", operatorID, "error", err)
		bal := zeroBalance(operatorID, l.demurrageRate())
		l.feed.Publish(bal)
		return bal
	}

	txs := replay(rawEvents)
	now := time.Now().UTC()
	rate := l.demurrageRate()

	bal := model.InfrastructureTokenBalance{
		OperatorID:    operatorID,
		DemurrageRate: rate,
		ExchangeRates: normalizeRates(rawRates),
		Windows: model.WindowSums{
			Last24h: windowSum(txs, now.Add(-24*time.Hour)),
			Last7d:  windowSum(txs, now.Add(-7*24*time.Hour)),
			Last30d: windowSum(txs, now.Add(-30*24*time.Hour)),
		},
	}
	for _, tx := range txs {
		bal.Balance += tx.Amount
		bal.Windows.AllTime += tx.Amount
	}
	bal.Projected30d = Project(bal.Balance, rate, projectionDays)
	bal.EarningRatePerHr = earningRate(txs, now)

	// most-recent-first, capped for display
	sort.Slice(txs, func(i, j int) bool { return txs[i].Timestamp.After(txs[j].Timestamp) })
	if len(txs) > transactionCap {
		txs = txs[:transactionCap]
	}
	bal.Transactions = txs

	l.feed.Publish(bal)
	return bal
}

func (l *Ledger) Latest() (model.InfrastructureTokenBalance, bool) {
	return l.feed.Latest()
}

func (l *Ledger) Subscribe(buffer int) (string, <-chan model.InfrastructureTokenBalance) {
	return l.feed.Subscribe(buffer)
}

func (l *Ledger) Unsubscribe(id string) bool {
	return l.feed.Unsubscribe(id)
}

// Project applies demurrage decay to a balance over the given horizon:
// balance * (1 - monthlyRate/100 * days/30).
func Project(balance, monthlyRate, days float64) float64 {
	return balance * (1 - monthlyRate/100*days/30)
}

// replay filters raw events to the token-relevant kinds and signs their
// amounts: issuance adds, transfers and decay subtract. Unknown kinds
// are skipped.
func replay(raw []ledger.RawEconomicEvent) []model.TokenTransaction {
	txs := make([]model.TokenTransaction, 0, len(raw))
	for _, ev := range raw {
		if ev.Action == nil {
			continue
		}
		kind := model.TokenEventKind(*ev.Action)
		var sign float64
		switch kind {
		case model.TokenIssued:
			sign = 1
		case model.TokenTransferred, model.TokenDecayed:
			sign = -1
		default:
			continue
		}

		tx := model.TokenTransaction{Kind: kind}
		if ev.ID != nil {
			tx.ID = *ev.ID
		}
		if ev.Amount != nil {
			tx.Amount = sign * *ev.Amount
		}
		if ev.Note != nil {
			tx.Note = *ev.Note
		}
		if ev.TimestampUnix != nil && *ev.TimestampUnix > 0 {
			tx.Timestamp = time.Unix(*ev.TimestampUnix, 0).UTC()
		}
		txs = append(txs, tx)
	}
	return txs
}

func windowSum(txs []model.TokenTransaction, cutoff time.Time) float64 {
	var sum float64
	for _, tx := range txs {
		if tx.Timestamp.After(cutoff) {
			sum += tx.Amount
		}
	}
	return sum
}

// earningRate estimates tokens earned per hour from issuance over the
// trailing 24h window.
func earningRate(txs []model.TokenTransaction, now time.Time) float64 {
	cutoff := now.Add(-24 * time.Hour)
	var issued float64
	for _, tx := range txs {
		if tx.Kind == model.TokenIssued && tx.Timestamp.After(cutoff) {
			issued += tx.Amount
		}
	}
	return issued / 24
}

func normalizeRates(raw []ledger.RawExchangeRate) []model.ExchangeRate {
	rates := make([]model.ExchangeRate, 0, len(raw))
	for _, rr := range raw {
		rate := model.ExchangeRate{Rate: 1}
		if rr.FromCategory != nil {
			rate.FromCategory = *rr.FromCategory
		}
		if rr.ToCategory != nil {
			rate.ToCategory = *rr.ToCategory
		}
		if rr.Rate != nil {
			rate.Rate = *rr.Rate
		}
		rates = append(rates, rate)
	}
	return rates
}

func zeroBalance(operatorID string, demurrageRate float64) model.InfrastructureTokenBalance {
	return model.InfrastructureTokenBalance{
		OperatorID:    operatorID,
		DemurrageRate: demurrageRate,
		Transactions:  []model.TokenTransaction{},
		ExchangeRates: []model.ExchangeRate{},
	}
}
