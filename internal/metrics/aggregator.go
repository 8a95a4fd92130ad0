// Package metrics normalizes raw ledger telemetry into ComputeMetrics
// snapshots and maintains bounded rolling history per metric.
package metrics

import (
	"context"
	"log/slog"
	"time"

	"sheafa-accounting-agent/internal/bus"
	"sheafa-accounting-agent/internal/ledger"
	"sheafa-accounting-agent/internal/model"
)

const (
	HistoryCPU     = "cpu_usage_percent"
	HistoryMemory  = "memory_usage_percent"
	HistoryStorage = "storage_usage_percent"
)

type Aggregator struct {
	client  ledger.Client
	logger  *slog.Logger
	history *History
	feed    *bus.Feed[model.ComputeMetrics]
}

func NewAggregator(client ledger.Client, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		client:  client,
		logger:  logger,
		history: NewHistory(HistoryCap),
		feed:    bus.NewFeed[model.ComputeMetrics](),
	}
}

// Sample fetches raw telemetry for the operator, normalizes it, appends
// the usage percentages to history, and publishes the snapshot. On fetch
// failure it returns a canonical all-zero snapshot; it never fails.
func (a *Aggregator) Sample(ctx context.Context, operatorID string) model.ComputeMetrics {
	raw, err := a.client.ComputeTelemetry(ctx, operatorID)
	if err != nil {
		a.logger.Warn("telemetry fetch failed, using zero snapshot", "operator_id", operatorID, "error", err)
		m := zeroMetrics(operatorID)
		a.feed.Publish(m)
		return m
	}

	m := normalize(operatorID, raw)

	at := time.Unix(m.TimestampUnix, 0).UTC()
	a.history.Append(HistoryCPU, at, m.CPU.UsagePercent)
	a.history.Append(HistoryMemory, at, m.Memory.UsagePercent)
	a.history.Append(HistoryStorage, at, m.Storage.UsagePercent)

	a.feed.Publish(m)
	return m
}

// Latest returns the last published snapshot without fetching.
func (a *Aggregator) Latest() (model.ComputeMetrics, bool) {
	return a.feed.Latest()
}

func (a *Aggregator) Subscribe(buffer int) (string, <-chan model.ComputeMetrics) {
	return a.feed.Subscribe(buffer)
}

func (a *Aggregator) Unsubscribe(id string) bool {
	return a.feed.Unsubscribe(id)
}

// HistorySamples returns the rolling buffer for one metric name.
func (a *Aggregator) HistorySamples(metric string) []model.HistoryPoint {
	return a.history.Samples(metric)
}

// normalize maps a raw ledger record into a ComputeMetrics snapshot.
// Defaulting policy, applied in one place so it stays auditable:
//   - absent numeric fields become 0
//   - absent available capacity becomes total - used (floored at 0)
//   - absent usage percent is derived from used/total when both present
//   - timestamps default to now
func normalize(operatorID string, raw ledger.RawTelemetry) model.ComputeMetrics {
	m := model.ComputeMetrics{
		OperatorID:    operatorID,
		TimestampUnix: time.Now().UTC().Unix(),
	}
	if raw.TimestampUnix != nil && *raw.TimestampUnix > 0 {
		m.TimestampUnix = *raw.TimestampUnix
	}

	m.CPU = model.CPUMetrics{
		TotalCores:         f(raw.CPUTotalCores),
		AvailableCores:     f(raw.CPUAvailable),
		UsagePercent:       f(raw.CPUUsagePct),
		TemperatureCelsius: f(raw.CPUTempC),
	}
	if raw.CPUAvailable == nil && raw.CPUTotalCores != nil && raw.CPUUsagePct != nil {
		m.CPU.AvailableCores = clampNonNegative(m.CPU.TotalCores * (100 - m.CPU.UsagePercent) / 100)
	}

	m.Memory = model.MemoryMetrics{
		TotalGB:      f(raw.MemTotalGB),
		UsedGB:       f(raw.MemUsedGB),
		AvailableGB:  f(raw.MemAvailableGB),
		UsagePercent: f(raw.MemUsagePct),
	}
	if raw.MemAvailableGB == nil {
		m.Memory.AvailableGB = clampNonNegative(m.Memory.TotalGB - m.Memory.UsedGB)
	}
	if raw.MemUsagePct == nil {
		m.Memory.UsagePercent = percentOf(m.Memory.UsedGB, m.Memory.TotalGB)
	}

	m.Storage = model.StorageMetrics{
		TotalGB:      f(raw.StorTotalGB),
		UsedGB:       f(raw.StorUsedGB),
		AvailableGB:  f(raw.StorAvailableGB),
		UsagePercent: f(raw.StorUsagePct),
		BreakdownGB:  raw.StorBreakdownGB,
	}
	if raw.StorAvailableGB == nil {
		m.Storage.AvailableGB = clampNonNegative(m.Storage.TotalGB - m.Storage.UsedGB)
	}
	if raw.StorUsagePct == nil {
		m.Storage.UsagePercent = percentOf(m.Storage.UsedGB, m.Storage.TotalGB)
	}

	m.Network = model.NetworkMetrics{
		UpstreamCapMbps:    f(raw.NetUpCapMbps),
		DownstreamCapMbps:  f(raw.NetDownCapMbps),
		UpstreamUsedMbps:   f(raw.NetUpUsedMbps),
		DownstreamUsedMbps: f(raw.NetDownUsedMbps),
		LatencyP50Ms:       f(raw.NetLatencyP50),
		LatencyP95Ms:       f(raw.NetLatencyP95),
		LatencyP99Ms:       f(raw.NetLatencyP99),
		Connections:        raw.NetConnections,
	}

	for i := 0; i < len(raw.LoadAverage) && i < 3; i++ {
		m.LoadAverage[i] = raw.LoadAverage[i]
	}
	m.PowerDrawW = f(raw.PowerDrawW)
	return m
}

func zeroMetrics(operatorID string) model.ComputeMetrics {
	return model.ComputeMetrics{
		OperatorID:    operatorID,
		TimestampUnix: time.Now().UTC().Unix(),
	}
}

func f(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func percentOf(used, total float64) float64 {
	if total <= 0 {
		return 0
	}
	pct := used / total * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
