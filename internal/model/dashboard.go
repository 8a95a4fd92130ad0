package model

import "time"

type NodeStatus string

const (
	NodeOnline   NodeStatus = "online"
	NodeDegraded NodeStatus = "degraded"
	NodeOffline  NodeStatus = "offline"
)

// SheafaDashboardState is the aggregate published every refresh interval.
// It is exclusively owned and replaced wholesale by the dashboard
// aggregator; consumers only ever read the latest published value.
type SheafaDashboardState struct {
	OperatorID  string                          `json:"operator_id"`
	NodeStatus  NodeStatus                      `json:"node_status"`
	UptimeSecs  int64                           `json:"uptime_secs"`
	RefreshedAt time.Time                       `json:"refreshed_at"`
	Metrics     ComputeMetrics                  `json:"metrics"`
	Allocation  AllocationSnapshot              `json:"allocation"`
	Protection  FamilyCommunityProtectionStatus `json:"protection"`
	Tokens      InfrastructureTokenBalance      `json:"tokens"`
	Limits      ConstitutionalLimitsStatus      `json:"limits"`
}
