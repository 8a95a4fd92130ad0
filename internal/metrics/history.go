package metrics

import (
	"sync"
	"time"

	"sheafa-accounting-agent/internal/model"
)

// HistoryCap bounds each per-metric ring buffer. 288 samples covers 24h
// at the nominal 5-minute cadence; the actual cadence is a runtime
// parameter, so the window in wall-clock terms varies with it.
const HistoryCap = 288

// History keeps bounded rolling sample buffers keyed by metric name.
type History struct {
	mu      sync.RWMutex
	cap     int
	buffers map[string][]model.HistoryPoint
}

func NewHistory(cap int) *History {
	if cap <= 0 {
		cap = HistoryCap
	}
	return &History{cap: cap, buffers: make(map[string][]model.HistoryPoint)}
}

// Append records one sample, dropping the oldest entry once the buffer
// exceeds its cap.
func (h *History) Append(metric string, at time.Time, value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	buf := append(h.buffers[metric], model.HistoryPoint{Timestamp: at, Value: value})
	if len(buf) > h.cap {
		buf = buf[len(buf)-h.cap:]
	}
	h.buffers[metric] = buf
}

// Samples returns a copy of the buffer for one metric, oldest first.
func (h *History) Samples(metric string) []model.HistoryPoint {
	h.mu.RLock()
	defer h.mu.RUnlock()
	buf := h.buffers[metric]
	out := make([]model.HistoryPoint, len(buf))
	copy(out, buf)
	return out
}

func (h *History) Len(metric string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.buffers[metric])
}
