package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthSnapshotOmitsUnsetTimestamps(t *testing.T) {
	h := NewHealthStatus()

	snap := h.Snapshot()
	assert.Equal(t, false, snap["ledger_connected"])
	assert.NotContains(t, snap, "last_refresh_at")
	assert.NotContains(t, snap, "last_event_batch_at")
	assert.NotContains(t, snap, "last_protection_at")
}

func TestHealthSnapshotCarriesMarks(t *testing.T) {
	h := NewHealthStatus()
	at := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)

	h.SetLedgerConnected(true)
	h.MarkRefresh(at)
	h.MarkEventBatch(at.Add(time.Minute))
	h.MarkProtection(at.Add(2 * time.Minute))

	snap := h.Snapshot()
	assert.Equal(t, true, snap["ledger_connected"])
	require.Contains(t, snap, "last_refresh_at")
	assert.Equal(t, at, snap["last_refresh_at"])
	assert.Equal(t, at.Add(time.Minute), snap["last_event_batch_at"])
	assert.Equal(t, at.Add(2*time.Minute), snap["last_protection_at"])
}
