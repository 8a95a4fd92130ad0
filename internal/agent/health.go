package agent

import (
	"sync/atomic"
	"time"
)

type HealthStatus struct {
	ledgerConnected  atomic.Bool
	lastRefreshAt    atomic.Int64
	lastEventBatchAt atomic.Int64
	lastProtectionAt atomic.Int64
}

func NewHealthStatus() *HealthStatus {
	h := &HealthStatus{}
	h.ledgerConnected.Store(false)
	return h
}

func (h *HealthStatus) SetLedgerConnected(ok bool) {
	h.ledgerConnected.Store(ok)
}

func (h *HealthStatus) MarkRefresh(ts time.Time) {
	h.lastRefreshAt.Store(ts.UnixNano())
}

func (h *HealthStatus) MarkEventBatch(ts time.Time) {
	h.lastEventBatchAt.Store(ts.UnixNano())
}

func (h *HealthStatus) MarkProtection(ts time.Time) {
	h.lastProtectionAt.Store(ts.UnixNano())
}

func (h *HealthStatus) Snapshot() map[string]any {
	out := map[string]any{
		"ledger_connected": h.ledgerConnected.Load(),
	}
	if v := h.lastRefreshAt.Load(); v > 0 {
		out["last_refresh_at"] = time.Unix(0, v).UTC()
	}
	if v := h.lastEventBatchAt.Load(); v > 0 {
		out["last_event_batch_at"] = time.Unix(0, v).UTC()
	}
	if v := h.lastProtectionAt.Load(); v > 0 {
		out["last_protection_at"] = time.Unix(0, v).UTC()
	}
	return out
}
