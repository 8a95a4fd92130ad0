package model

// GovernanceLevel is a scope at which resource allocation is declared.
type GovernanceLevel string

const (
	LevelIndividual GovernanceLevel = "individual"
	LevelHousehold  GovernanceLevel = "household"
	LevelCommunity  GovernanceLevel = "community"
	LevelNetwork    GovernanceLevel = "network"
)

// KnownGovernanceLevels lists the levels carried in grouped totals, in
// display order. Blocks declared at any other level are kept only in the
// flat block list.
var KnownGovernanceLevels = []GovernanceLevel{
	LevelIndividual,
	LevelHousehold,
	LevelCommunity,
	LevelNetwork,
}

// ResourceShare holds per-dimension percentage totals for one governance
// level. Percentages are independent per dimension and are not required
// to sum to 100 across levels.
type ResourceShare struct {
	CPUPercent       float64 `json:"cpu_percent"`
	MemoryPercent    float64 `json:"memory_percent"`
	StoragePercent   float64 `json:"storage_percent"`
	BandwidthPercent float64 `json:"bandwidth_percent"`
}

type AllocationBlock struct {
	ID               string          `json:"id"`
	Label            string          `json:"label"`
	Level            GovernanceLevel `json:"level"`
	Priority         int             `json:"priority"`
	CPUPercent       float64         `json:"cpu_percent"`
	MemoryPercent    float64         `json:"memory_percent"`
	StoragePercent   float64         `json:"storage_percent"`
	BandwidthPercent float64         `json:"bandwidth_percent"`
	UtilizedPercent  float64         `json:"utilized_percent"`
	RelatedAgents    []string        `json:"related_agents,omitempty"`
}

// AllocationSnapshot groups an operator's declared allocation blocks by
// governance level. Per-level totals equal the sum of that level's blocks;
// Totals equals the sum across levels.
type AllocationSnapshot struct {
	ResourceID string                            `json:"resource_id"`
	Levels     map[GovernanceLevel]ResourceShare `json:"levels"`
	Totals     ResourceShare                     `json:"totals"`
	Blocks     []AllocationBlock                 `json:"blocks"`
}
