package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheafa-accounting-agent/internal/model"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SHEAFA_OPERATOR_ID", "op-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "op-test", cfg.OperatorID)
	assert.Equal(t, "op-test", cfg.ResourceID, "resource id defaults to operator id")
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 5*time.Minute, cfg.EventInterval)
	assert.Equal(t, 2*time.Minute, cfg.ProtectionInterval)
	assert.Equal(t, LedgerModeGRPC, cfg.LedgerMode)
	assert.Equal(t, model.DistributePerLevel, cfg.Strategy)
	assert.Equal(t, 1.0, cfg.CPURatePerCoreHour)
	assert.Equal(t, 0.5, cfg.DemurrageMonthlyRate)
	assert.Equal(t, 10000.0, cfg.TokenCeiling)
	assert.True(t, cfg.LogJSON)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SHEAFA_OPERATOR_ID", "op-test")
	t.Setenv("SHEAFA_RESOURCE_ID", "res-9")
	t.Setenv("SHEAFA_REFRESH_INTERVAL", "10s")
	t.Setenv("SHEAFA_LEDGER_MODE", "WebSocket")
	t.Setenv("SHEAFA_DISTRIBUTION_STRATEGY", "aggregate")
	t.Setenv("SHEAFA_CPU_RATE", "2.5")
	t.Setenv("SHEAFA_LOG_JSON", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "res-9", cfg.ResourceID)
	assert.Equal(t, 10*time.Second, cfg.RefreshInterval)
	assert.Equal(t, LedgerModeWebSocket, cfg.LedgerMode, "mode is case-insensitive")
	assert.Equal(t, model.DistributeAggregate, cfg.Strategy)
	assert.Equal(t, 2.5, cfg.CPURatePerCoreHour)
	assert.False(t, cfg.LogJSON)
}

func TestLoadMalformedEnvFallsBack(t *testing.T) {
	t.Setenv("SHEAFA_OPERATOR_ID", "op-test")
	t.Setenv("SHEAFA_REFRESH_INTERVAL", "not-a-duration")
	t.Setenv("SHEAFA_CPU_RATE", "not-a-float")
	t.Setenv("SHEAFA_LOG_JSON", "maybe")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 1.0, cfg.CPURatePerCoreHour)
	assert.True(t, cfg.LogJSON)
}

func TestValidateRejectsBadLedgerMode(t *testing.T) {
	t.Setenv("SHEAFA_OPERATOR_ID", "op-test")
	t.Setenv("SHEAFA_LEDGER_MODE", "carrier-pigeon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger mode")
}

func TestValidateRejectsBadStrategy(t *testing.T) {
	t.Setenv("SHEAFA_OPERATOR_ID", "op-test")
	t.Setenv("SHEAFA_DISTRIBUTION_STRATEGY", "roulette")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "distribution strategy")
}

func TestValidateRejectsNonPositiveInterval(t *testing.T) {
	t.Setenv("SHEAFA_OPERATOR_ID", "op-test")
	t.Setenv("SHEAFA_EVENT_INTERVAL", "-5m")

	_, err := Load()
	require.Error(t, err)
}

func TestMergedAppliesOnlySetFields(t *testing.T) {
	base := Config{
		RefreshInterval:      30 * time.Second,
		EventInterval:        5 * time.Minute,
		CPURatePerCoreHour:   1,
		DemurrageMonthlyRate: 0.5,
		TokenCeiling:         10000,
		Strategy:             model.DistributePerLevel,
	}

	newRate := 2.0
	newInterval := time.Minute
	merged := base.Merged(Update{
		CPURatePerCoreHour: &newRate,
		EventInterval:      &newInterval,
	})

	assert.Equal(t, 2.0, merged.CPURatePerCoreHour)
	assert.Equal(t, time.Minute, merged.EventInterval)
	assert.Equal(t, 30*time.Second, merged.RefreshInterval, "untouched fields keep their values")
	assert.Equal(t, 0.5, merged.DemurrageMonthlyRate)
	assert.Equal(t, model.DistributePerLevel, merged.Strategy)
}

func TestMergedAcceptsValuesAsIs(t *testing.T) {
	base := Config{CPURatePerCoreHour: 1}
	negative := -3.0

	merged := base.Merged(Update{CPURatePerCoreHour: &negative})
	assert.Equal(t, -3.0, merged.CPURatePerCoreHour, "no validation on the runtime path")
}

func TestMergedEmptyUpdateIsIdentity(t *testing.T) {
	t.Setenv("SHEAFA_OPERATOR_ID", "op-test")
	base, err := Load()
	require.NoError(t, err)

	assert.Equal(t, base, base.Merged(Update{}))
}
