package dashboard

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheafa-accounting-agent/internal/model"
)

type fakeMetrics struct{ metrics model.ComputeMetrics }

func (f *fakeMetrics) Sample(ctx context.Context, operatorID string) model.ComputeMetrics {
	return f.metrics
}

type fakeAllocation struct{ snapshot model.AllocationSnapshot }

func (f *fakeAllocation) Resolve(ctx context.Context, resourceID string) model.AllocationSnapshot {
	return f.snapshot
}

type fakeProtection struct{ status model.FamilyCommunityProtectionStatus }

func (f *fakeProtection) Assess(ctx context.Context, operatorID string) model.FamilyCommunityProtectionStatus {
	return f.status
}

type fakeTokens struct{ balance model.InfrastructureTokenBalance }

func (f *fakeTokens) Balance(ctx context.Context, operatorID string) model.InfrastructureTokenBalance {
	return f.balance
}

type fakeLimits struct{ status model.ConstitutionalLimitsStatus }

func (f *fakeLimits) Evaluate(metrics model.ComputeMetrics, tokens model.InfrastructureTokenBalance) model.ConstitutionalLimitsStatus {
	return f.status
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func onlineMetrics() model.ComputeMetrics {
	return model.ComputeMetrics{
		OperatorID: "op-1",
		CPU:        model.CPUMetrics{TotalCores: 8, UsagePercent: 40},
		Memory:     model.MemoryMetrics{TotalGB: 32},
		Storage:    model.StorageMetrics{TotalGB: 1000},
	}
}

func newTestAggregator(metrics model.ComputeMetrics) *Aggregator {
	return NewAggregator(
		"op-1", "res-1",
		&fakeMetrics{metrics: metrics},
		&fakeAllocation{snapshot: model.AllocationSnapshot{ResourceID: "res-1"}},
		&fakeProtection{status: model.FamilyCommunityProtectionStatus{Level: model.ProtectionProtected}},
		&fakeTokens{balance: model.InfrastructureTokenBalance{Balance: 42}},
		&fakeLimits{status: model.ConstitutionalLimitsStatus{Alerts: []model.ConstitutionalAlert{}}},
		testLogger(),
	)
}

func TestRefreshPublishesCompleteState(t *testing.T) {
	a := newTestAggregator(onlineMetrics())

	state := a.Refresh(context.Background())

	assert.Equal(t, "op-1", state.OperatorID)
	assert.Equal(t, model.NodeOnline, state.NodeStatus)
	assert.Equal(t, 8.0, state.Metrics.CPU.TotalCores)
	assert.Equal(t, "res-1", state.Allocation.ResourceID)
	assert.Equal(t, model.ProtectionProtected, state.Protection.Level)
	assert.Equal(t, 42.0, state.Tokens.Balance)
	assert.False(t, state.RefreshedAt.IsZero())

	latest, ok := a.Latest()
	require.True(t, ok)
	assert.Equal(t, state, latest)
}

func TestRefreshDegradedOnZeroMetrics(t *testing.T) {
	a := newTestAggregator(model.ComputeMetrics{OperatorID: "op-1"})

	state := a.Refresh(context.Background())
	assert.Equal(t, model.NodeDegraded, state.NodeStatus,
		"all-zero capacity means telemetry never arrived")
}

func TestRefreshCanceledContextKeepsLastState(t *testing.T) {
	a := newTestAggregator(onlineMetrics())

	first := a.Refresh(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	second := a.Refresh(ctx)

	assert.Equal(t, first.RefreshedAt, second.RefreshedAt, "canceled refresh returns the prior state")

	latest, ok := a.Latest()
	require.True(t, ok)
	assert.Equal(t, first.RefreshedAt, latest.RefreshedAt, "nothing new was published")
}

func TestRefreshCanceledWithNoHistoryIsOffline(t *testing.T) {
	a := newTestAggregator(onlineMetrics())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	state := a.Refresh(ctx)

	assert.Equal(t, model.NodeOffline, state.NodeStatus)
	_, ok := a.Latest()
	assert.False(t, ok, "nothing published from a canceled refresh")
}

func TestSubscribeSeesEachRefresh(t *testing.T) {
	a := newTestAggregator(onlineMetrics())
	id, ch := a.Subscribe(2)
	defer a.Unsubscribe(id)

	a.Refresh(context.Background())

	select {
	case state := <-ch:
		assert.Equal(t, model.NodeOnline, state.NodeStatus)
	default:
		t.Fatal("subscriber received nothing")
	}
}
