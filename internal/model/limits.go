package model

import "time"

type FloorStatus string

const (
	FloorMet      FloorStatus = "met"
	FloorWarning  FloorStatus = "warning"
	FloorBreached FloorStatus = "breached"
)

type CeilingStatus string

const (
	CeilingSafe     CeilingStatus = "safe"
	CeilingWarning  CeilingStatus = "warning"
	CeilingBreached CeilingStatus = "breached"
)

type AlertSeverity string

const (
	AlertWarning  AlertSeverity = "warning"
	AlertCritical AlertSeverity = "critical"
)

// ConstitutionalAlert is regenerated fresh on every evaluation, never
// accumulated or deduplicated across cycles.
type ConstitutionalAlert struct {
	ID             string        `json:"id"`
	Severity       AlertSeverity `json:"severity"`
	Resource       string        `json:"resource"`
	CurrentValue   float64       `json:"current_value"`
	Threshold      float64       `json:"threshold"`
	Recommendation string        `json:"recommendation"`
	RaisedAt       time.Time     `json:"raised_at"`
}

// DignityFloor is the minimum resource entitlement an operator is
// guaranteed. PercentOfFloor is the minimum ratio across the four
// dimensions: the floor is violated if any dimension is short, so the
// worst dimension governs the displayed percentage.
type DignityFloor struct {
	MinCores         float64     `json:"min_cores"`
	MinMemoryGB      float64     `json:"min_memory_gb"`
	MinStorageGB     float64     `json:"min_storage_gb"`
	MinBandwidthMbps float64     `json:"min_bandwidth_mbps"`
	PercentOfFloor   float64     `json:"percent_of_floor"`
	Status           FloorStatus `json:"status"`
}

// CeilingLimit is the maximum entitlement plus a token-accumulation
// ceiling before mandatory redistribution.
type CeilingLimit struct {
	MaxCores         float64       `json:"max_cores"`
	MaxMemoryGB      float64       `json:"max_memory_gb"`
	MaxStorageGB     float64       `json:"max_storage_gb"`
	MaxBandwidthMbps float64       `json:"max_bandwidth_mbps"`
	TokenCeiling     float64       `json:"token_ceiling"`
	PercentOfCeiling float64       `json:"percent_of_ceiling"`
	Status           CeilingStatus `json:"status"`
}

// SafeZone holds per-dimension headroom percentages, clamped to [0,100].
type SafeZone struct {
	CPUPercent       float64 `json:"cpu_percent"`
	MemoryPercent    float64 `json:"memory_percent"`
	StoragePercent   float64 `json:"storage_percent"`
	BandwidthPercent float64 `json:"bandwidth_percent"`
}

type ConstitutionalLimitsStatus struct {
	Floor    DignityFloor          `json:"floor"`
	Ceiling  CeilingLimit          `json:"ceiling"`
	SafeZone SafeZone              `json:"safe_zone"`
	Alerts   []ConstitutionalAlert `json:"alerts"`
}
