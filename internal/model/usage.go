package model

import "time"

// DistributionStrategy selects how a usage delta is split into events.
type DistributionStrategy string

const (
	DistributePerLevel     DistributionStrategy = "per-governance-level"
	DistributePerCustodian DistributionStrategy = "per-custodian"
	DistributeAggregate    DistributionStrategy = "aggregate"
)

// ComputeUsageSnapshot is an ephemeral usage delta accumulated between
// two accounting ticks. It is persisted once as economic events and then
// discarded.
type ComputeUsageSnapshot struct {
	CPUCoreHours     float64 `json:"cpu_core_hours"`
	StorageGBHours   float64 `json:"storage_gb_hours"`
	BandwidthMbpsHrs float64 `json:"bandwidth_mbps_hours"`
}

func (u ComputeUsageSnapshot) Scaled(factor float64) ComputeUsageSnapshot {
	return ComputeUsageSnapshot{
		CPUCoreHours:     u.CPUCoreHours * factor,
		StorageGBHours:   u.StorageGBHours * factor,
		BandwidthMbpsHrs: u.BandwidthMbpsHrs * factor,
	}
}

// ComputeEventPayload attributes a usage delta to a governance level or
// custodian agent together with the token amount it earns.
type ComputeEventPayload struct {
	ID         string               `json:"id"`
	OperatorID string               `json:"operator_id"`
	Level      GovernanceLevel      `json:"level,omitempty"`
	AgentID    string               `json:"agent_id,omitempty"`
	Usage      ComputeUsageSnapshot `json:"usage"`
	Tokens     float64              `json:"tokens"`
	Timestamp  time.Time            `json:"timestamp"`
}
