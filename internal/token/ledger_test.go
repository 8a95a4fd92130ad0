package token

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheafa-accounting-agent/internal/ledger"
)

type fakeClient struct {
	events    []ledger.RawEconomicEvent
	rates     []ledger.RawExchangeRate
	eventsErr error

	created   [][]ledger.EventRecord
	createErr error
}

func (f *fakeClient) ComputeTelemetry(ctx context.Context, operatorID string) (ledger.RawTelemetry, error) {
	return ledger.RawTelemetry{}, nil
}

func (f *fakeClient) AllocationBlocks(ctx context.Context, resourceID string) ([]ledger.RawAllocationBlock, error) {
	return nil, nil
}

func (f *fakeClient) CustodianCommitments(ctx context.Context, operatorID string) ([]ledger.RawCommitment, error) {
	return nil, nil
}

func (f *fakeClient) CustodianLiveness(ctx context.Context, agentID string) (ledger.RawLiveness, error) {
	return ledger.RawLiveness{}, nil
}

func (f *fakeClient) EconomicEvents(ctx context.Context, operatorID string) ([]ledger.RawEconomicEvent, []ledger.RawExchangeRate, error) {
	return f.events, f.rates, f.eventsErr
}

func (f *fakeClient) CreateEconomicEvents(ctx context.Context, records []ledger.EventRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, records)
	return nil
}

func (f *fakeClient) Close(ctx context.Context) error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sp(v string) *string   { return &v }
func fp(v float64) *float64 { return &v }

func rawEvent(id, action string, amount float64, at time.Time) ledger.RawEconomicEvent {
	unix := at.Unix()
	return ledger.RawEconomicEvent{
		ID:            sp(id),
		Action:        sp(action),
		Amount:        fp(amount),
		TimestampUnix: &unix,
	}
}

func fixedRate(v float64) func() float64 {
	return func() float64 { return v }
}

func TestBalanceConservesSignedAmounts(t *testing.T) {
	now := time.Now().UTC()
	client := &fakeClient{events: []ledger.RawEconomicEvent{
		rawEvent("e1", "issued", 100, now.Add(-time.Hour)),
		rawEvent("e2", "transferred", 30, now.Add(-30*time.Minute)),
		rawEvent("e3", "decayed", 5, now.Add(-10*time.Minute)),
	}}
	l := NewLedger(client, fixedRate(0.5), testLogger())

	bal := l.Balance(context.Background(), "op-1")
	assert.InDelta(t, 65.0, bal.Balance, 1e-9)
	assert.InDelta(t, 65.0, bal.Windows.AllTime, 1e-9)
}

func TestBalanceSkipsUnknownEventKinds(t *testing.T) {
	now := time.Now().UTC()
	client := &fakeClient{events: []ledger.RawEconomicEvent{
		rawEvent("e1", "issued", 100, now),
		rawEvent("e2", "audited", 9999, now),
		{Amount: fp(50)}, // no action at all
	}}
	l := NewLedger(client, fixedRate(0), testLogger())

	bal := l.Balance(context.Background(), "op-1")
	assert.InDelta(t, 100.0, bal.Balance, 1e-9)
	assert.Len(t, bal.Transactions, 1)
}

func TestBalanceRollingWindows(t *testing.T) {
	now := time.Now().UTC()
	client := &fakeClient{events: []ledger.RawEconomicEvent{
		rawEvent("e1", "issued", 10, now.Add(-time.Hour)),
		rawEvent("e2", "issued", 20, now.Add(-3*24*time.Hour)),
		rawEvent("e3", "issued", 40, now.Add(-20*24*time.Hour)),
		rawEvent("e4", "issued", 80, now.Add(-40*24*time.Hour)),
	}}
	l := NewLedger(client, fixedRate(0), testLogger())

	bal := l.Balance(context.Background(), "op-1")
	assert.InDelta(t, 10.0, bal.Windows.Last24h, 1e-9)
	assert.InDelta(t, 30.0, bal.Windows.Last7d, 1e-9)
	assert.InDelta(t, 70.0, bal.Windows.Last30d, 1e-9)
	assert.InDelta(t, 150.0, bal.Windows.AllTime, 1e-9)
}

func TestBalanceCapsTransactionsMostRecentFirst(t *testing.T) {
	now := time.Now().UTC()
	client := &fakeClient{}
	for i := 0; i < transactionCap+10; i++ {
		client.events = append(client.events,
			rawEvent(fmt.Sprintf("e%d", i), "issued", 1, now.Add(-time.Duration(i)*time.Minute)))
	}
	l := NewLedger(client, fixedRate(0), testLogger())

	bal := l.Balance(context.Background(), "op-1")
	assert.InDelta(t, float64(transactionCap+10), bal.Balance, 1e-9,
		"capped-out transactions still count toward the balance")
	require.Len(t, bal.Transactions, transactionCap)
	assert.Equal(t, "e0", bal.Transactions[0].ID)
	assert.True(t, bal.Transactions[0].Timestamp.After(bal.Transactions[transactionCap-1].Timestamp))
}

func TestBalanceEarningRateFromIssuance(t *testing.T) {
	now := time.Now().UTC()
	client := &fakeClient{events: []ledger.RawEconomicEvent{
		rawEvent("e1", "issued", 24, now.Add(-time.Hour)),
		rawEvent("e2", "issued", 24, now.Add(-2*time.Hour)),
		rawEvent("e3", "transferred", 500, now.Add(-time.Hour)),
		rawEvent("e4", "issued", 1000, now.Add(-48*time.Hour)),
	}}
	l := NewLedger(client, fixedRate(0), testLogger())

	bal := l.Balance(context.Background(), "op-1")
	assert.InDelta(t, 2.0, bal.EarningRatePerHr, 1e-9,
		"only issuance inside the trailing day counts")
}

func TestBalanceCarriesExchangeRates(t *testing.T) {
	client := &fakeClient{
		events: []ledger.RawEconomicEvent{},
		rates: []ledger.RawExchangeRate{
			{FromCategory: sp("compute"), ToCategory: sp("care"), Rate: fp(1.2)},
			{FromCategory: sp("compute")}, // absent rate defaults to parity
		},
	}
	l := NewLedger(client, fixedRate(0), testLogger())

	bal := l.Balance(context.Background(), "op-1")
	require.Len(t, bal.ExchangeRates, 2)
	assert.Equal(t, 1.2, bal.ExchangeRates[0].Rate)
	assert.Equal(t, 1.0, bal.ExchangeRates[1].Rate)
}

func TestBalanceZeroOnFetchFailure(t *testing.T) {
	client := &fakeClient{eventsErr: errors.New("ledger unreachable")}
	l := NewLedger(client, fixedRate(0.5), testLogger())

	bal := l.Balance(context.Background(), "op-1")
	assert.Zero(t, bal.Balance)
	assert.Equal(t, 0.5, bal.DemurrageRate)
	assert.Empty(t, bal.Transactions)

	latest, ok := l.Latest()
	require.True(t, ok)
	assert.Equal(t, bal, latest)
}

func TestProjectDemurrage(t *testing.T) {
	assert.InDelta(t, 995.0, Project(1000, 0.5, 30), 1e-9)
	assert.InDelta(t, 1000.0, Project(1000, 0, 30), 1e-9)
	assert.InDelta(t, 990.0, Project(1000, 1, 30), 1e-9)
	assert.InDelta(t, 997.5, Project(1000, 0.5, 15), 1e-9)
}

func TestBalanceProjectionUsesCurrentRate(t *testing.T) {
	now := time.Now().UTC()
	client := &fakeClient{events: []ledger.RawEconomicEvent{
		rawEvent("e1", "issued", 1000, now.Add(-time.Hour)),
	}}
	l := NewLedger(client, fixedRate(0.5), testLogger())

	bal := l.Balance(context.Background(), "op-1")
	assert.InDelta(t, 995.0, bal.Projected30d, 1e-9)
	assert.Equal(t, 0.5, bal.DemurrageRate)
}
