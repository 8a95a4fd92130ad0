package model

import "time"

// CommitmentStatus is the lifecycle status of a custody commitment.
type CommitmentStatus string

const (
	CommitmentActive   CommitmentStatus = "active"
	CommitmentPending  CommitmentStatus = "pending"
	CommitmentBreached CommitmentStatus = "breached"
	CommitmentExpired  CommitmentStatus = "expired"
)

// RedundancyStrategy describes how custodied data is replicated.
type RedundancyStrategy string

const (
	StrategyFullReplica    RedundancyStrategy = "full_replica"
	StrategyThresholdSplit RedundancyStrategy = "threshold_split"
	StrategyErasureCoded   RedundancyStrategy = "erasure_coded"
)

type CustodianHealth struct {
	UptimePercent  float64   `json:"uptime_percent"`
	LastSeen       time.Time `json:"last_seen"`
	ResponseTimeMs float64   `json:"response_time_ms"`
}

// CustodianNode is one data-protection relationship for an operator.
type CustodianNode struct {
	AgentID          string             `json:"agent_id"`
	Relationship     string             `json:"relationship"`
	Region           string             `json:"region"`
	Country          string             `json:"country"`
	StoredGB         float64            `json:"stored_gb"`
	ShardCount       int                `json:"shard_count"`
	ShardThreshold   int                `json:"shard_threshold,omitempty"`
	RedundancyLevel  float64            `json:"redundancy_level"`
	Strategy         RedundancyStrategy `json:"strategy"`
	Health           CustodianHealth    `json:"health"`
	CommitmentStatus CommitmentStatus   `json:"commitment_status"`
	TrustScore       float64            `json:"trust_score"`
}
