package agent

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheafa-accounting-agent/internal/config"
	"sheafa-accounting-agent/internal/model"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	t.Setenv("SHEAFA_OPERATOR_ID", "op-test")
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewWiresComponents(t *testing.T) {
	a, err := New(testConfig(t), testLogger())
	require.NoError(t, err)

	assert.NotNil(t, a.Dashboard())
	assert.NotNil(t, a.Health())
	assert.Equal(t, "op-test", a.Config().OperatorID)
}

func TestApplyConfigUpdateFlowsIntoComponentSettings(t *testing.T) {
	a, err := New(testConfig(t), testLogger())
	require.NoError(t, err)

	assert.Equal(t, 0.5, a.demurrageRate())
	assert.Equal(t, 5*time.Minute, a.generatorSettings().Interval)
	assert.Equal(t, 0.5, a.thresholds().FloorMinCores)

	newRate := 1.5
	newInterval := time.Minute
	newFloor := 2.0
	strategy := model.DistributeAggregate
	updated := a.ApplyConfigUpdate(config.Update{
		DemurrageMonthlyRate: &newRate,
		EventInterval:        &newInterval,
		FloorMinCores:        &newFloor,
		Strategy:             &strategy,
	})

	assert.Equal(t, 1.5, updated.DemurrageMonthlyRate)
	assert.Equal(t, 1.5, a.demurrageRate(), "closures read the merged config")
	assert.Equal(t, time.Minute, a.generatorSettings().Interval)
	assert.Equal(t, model.DistributeAggregate, a.generatorSettings().Strategy)
	assert.Equal(t, 2.0, a.thresholds().FloorMinCores)

	assert.Equal(t, 30*time.Second, a.Config().RefreshInterval, "unmentioned fields survive the merge")
}

func TestRefreshDelayBacksOffWhenDegraded(t *testing.T) {
	cfg := config.Config{
		RefreshInterval: 30 * time.Second,
		ErrorBackoff:    1500 * time.Millisecond,
	}

	assert.Equal(t, 30*time.Second, refreshDelay(cfg, false))
	assert.Equal(t, 1500*time.Millisecond, refreshDelay(cfg, true))

	cfg.ErrorBackoff = 0
	assert.Equal(t, 30*time.Second, refreshDelay(cfg, true), "zero backoff disables the fast retry")

	cfg.ErrorBackoff = time.Minute
	assert.Equal(t, 30*time.Second, refreshDelay(cfg, true), "backoff never exceeds the interval")
}

func TestInstrumentationObserveState(t *testing.T) {
	in := NewInstrumentation()

	state := model.SheafaDashboardState{
		Protection: model.FamilyCommunityProtectionStatus{Level: model.ProtectionHighlyProtected},
		Tokens:     model.InfrastructureTokenBalance{Balance: 321.5},
		Limits: model.ConstitutionalLimitsStatus{
			Floor:   model.DignityFloor{PercentOfFloor: 140},
			Ceiling: model.CeilingLimit{PercentOfCeiling: 3.2},
			Alerts:  []model.ConstitutionalAlert{{}, {}},
		},
	}
	in.ObserveState(state)
	in.ObserveState(state)

	assert.Equal(t, 2.0, testutil.ToFloat64(in.RefreshCycles))
	assert.Equal(t, 2.0, testutil.ToFloat64(in.ActiveAlerts))
	assert.Equal(t, 321.5, testutil.ToFloat64(in.TokenBalance))
	assert.Equal(t, 2.0, testutil.ToFloat64(in.ProtectionLevel))
	assert.Equal(t, 140.0, testutil.ToFloat64(in.FloorPercent))
	assert.Equal(t, 3.2, testutil.ToFloat64(in.CeilingPercent))
}
