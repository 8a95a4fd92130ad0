package model

import "time"

// ComputeMetrics is a point-in-time resource snapshot for one operator.
type ComputeMetrics struct {
	OperatorID    string         `json:"operator_id"`
	TimestampUnix int64          `json:"timestamp_unix"`
	CPU           CPUMetrics     `json:"cpu"`
	Memory        MemoryMetrics  `json:"memory"`
	Storage       StorageMetrics `json:"storage"`
	Network       NetworkMetrics `json:"network"`
	LoadAverage   [3]float64     `json:"load_average"`
	PowerDrawW    float64        `json:"power_draw_watts,omitempty"`
}

type CPUMetrics struct {
	TotalCores         float64 `json:"total_cores"`
	AvailableCores     float64 `json:"available_cores"`
	UsagePercent       float64 `json:"usage_percent"`
	TemperatureCelsius float64 `json:"temperature_celsius,omitempty"`
}

type MemoryMetrics struct {
	TotalGB      float64 `json:"total_gb"`
	UsedGB       float64 `json:"used_gb"`
	AvailableGB  float64 `json:"available_gb"`
	UsagePercent float64 `json:"usage_percent"`
}

type StorageMetrics struct {
	TotalGB      float64            `json:"total_gb"`
	UsedGB       float64            `json:"used_gb"`
	AvailableGB  float64            `json:"available_gb"`
	UsagePercent float64            `json:"usage_percent"`
	BreakdownGB  map[string]float64 `json:"breakdown_gb,omitempty"`
}

type NetworkMetrics struct {
	UpstreamCapMbps    float64          `json:"upstream_cap_mbps"`
	DownstreamCapMbps  float64          `json:"downstream_cap_mbps"`
	UpstreamUsedMbps   float64          `json:"upstream_used_mbps"`
	DownstreamUsedMbps float64          `json:"downstream_used_mbps"`
	LatencyP50Ms       float64          `json:"latency_p50_ms"`
	LatencyP95Ms       float64          `json:"latency_p95_ms"`
	LatencyP99Ms       float64          `json:"latency_p99_ms"`
	Connections        map[string]int64 `json:"connections,omitempty"`
}

// HistoryPoint is one sample in a bounded per-metric ring buffer.
type HistoryPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}
