package allocation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheafa-accounting-agent/internal/ledger"
	"sheafa-accounting-agent/internal/model"
)

type fakeClient struct {
	blocks []ledger.RawAllocationBlock
	err    error
}

func (f *fakeClient) ComputeTelemetry(ctx context.Context, operatorID string) (ledger.RawTelemetry, error) {
	return ledger.RawTelemetry{}, nil
}

func (f *fakeClient) AllocationBlocks(ctx context.Context, resourceID string) ([]ledger.RawAllocationBlock, error) {
	return f.blocks, f.err
}

func (f *fakeClient) CustodianCommitments(ctx context.Context, operatorID string) ([]ledger.RawCommitment, error) {
	return nil, nil
}

func (f *fakeClient) CustodianLiveness(ctx context.Context, agentID string) (ledger.RawLiveness, error) {
	return ledger.RawLiveness{}, nil
}

func (f *fakeClient) EconomicEvents(ctx context.Context, operatorID string) ([]ledger.RawEconomicEvent, []ledger.RawExchangeRate, error) {
	return nil, nil, nil
}

func (f *fakeClient) CreateEconomicEvents(ctx context.Context, records []ledger.EventRecord) error {
	return nil
}

func (f *fakeClient) Close(ctx context.Context) error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sp(v string) *string   { return &v }
func fp(v float64) *float64 { return &v }

func rawBlock(level string, cpu, mem, stor, bw float64) ledger.RawAllocationBlock {
	return ledger.RawAllocationBlock{
		ID:               sp("blk-" + level),
		GovernanceLevel:  sp(level),
		CPUPercent:       fp(cpu),
		MemoryPercent:    fp(mem),
		StoragePercent:   fp(stor),
		BandwidthPercent: fp(bw),
	}
}

func TestResolveGroupsBlocksByLevel(t *testing.T) {
	client := &fakeClient{blocks: []ledger.RawAllocationBlock{
		rawBlock("individual", 10, 20, 5, 10),
		rawBlock("individual", 15, 10, 5, 10),
		rawBlock("community", 30, 25, 40, 20),
	}}
	r := NewResolver(client, testLogger())

	snap := r.Resolve(context.Background(), "res-1")

	require.Len(t, snap.Blocks, 3)
	require.Contains(t, snap.Levels, model.LevelIndividual)
	require.Contains(t, snap.Levels, model.LevelCommunity)

	indiv := snap.Levels[model.LevelIndividual]
	assert.InDelta(t, 25.0, indiv.CPUPercent, 1e-9, "same-level blocks sum")
	assert.InDelta(t, 30.0, indiv.MemoryPercent, 1e-9)

	assert.InDelta(t, 55.0, snap.Totals.CPUPercent, 1e-9)
	assert.InDelta(t, 55.0, snap.Totals.MemoryPercent, 1e-9)
	assert.InDelta(t, 50.0, snap.Totals.StoragePercent, 1e-9)
	assert.InDelta(t, 40.0, snap.Totals.BandwidthPercent, 1e-9)
}

func TestResolveUnknownLevelExcludedFromTotals(t *testing.T) {
	client := &fakeClient{blocks: []ledger.RawAllocationBlock{
		rawBlock("household", 10, 10, 10, 10),
		rawBlock("galactic", 50, 50, 50, 50),
	}}
	r := NewResolver(client, testLogger())

	snap := r.Resolve(context.Background(), "res-1")

	assert.Len(t, snap.Blocks, 2, "unknown-level block kept in the flat list")
	assert.NotContains(t, snap.Levels, model.GovernanceLevel("galactic"))
	assert.InDelta(t, 10.0, snap.Totals.CPUPercent, 1e-9, "unknown level excluded from totals")
}

func TestResolveCarriesBlockDetail(t *testing.T) {
	blk := rawBlock("network", 5, 5, 5, 5)
	blk.Label = sp("mesh uplink")
	blk.RelatedAgents = []string{"agent-a", "agent-b"}
	pri := 3
	blk.Priority = &pri

	client := &fakeClient{blocks: []ledger.RawAllocationBlock{blk}}
	r := NewResolver(client, testLogger())

	snap := r.Resolve(context.Background(), "res-1")
	require.Len(t, snap.Blocks, 1)
	assert.Equal(t, "mesh uplink", snap.Blocks[0].Label)
	assert.Equal(t, 3, snap.Blocks[0].Priority)
	assert.Equal(t, []string{"agent-a", "agent-b"}, snap.Blocks[0].RelatedAgents)
}

func TestResolveEmptySnapshotOnFetchFailure(t *testing.T) {
	client := &fakeClient{err: errors.New("ledger unreachable")}
	r := NewResolver(client, testLogger())

	snap := r.Resolve(context.Background(), "res-1")

	assert.Equal(t, "res-1", snap.ResourceID)
	assert.Empty(t, snap.Blocks)
	assert.Empty(t, snap.Levels)
	assert.Zero(t, snap.Totals)

	latest, ok := r.Latest()
	require.True(t, ok)
	assert.Equal(t, snap, latest)
}
