package ledger

// Raw records mirror the ledger backend's loosely-typed snake_case wire
// convention. Fields are pointers so an absent field is distinguishable
// from a zero; each engine component normalizes these into its own
// strongly-typed snapshot with documented defaults.

type RawTelemetry struct {
	OperatorID    *string  `json:"operator_id,omitempty"`
	TimestampUnix *int64   `json:"timestamp_unix,omitempty"`
	CPUTotalCores *float64 `json:"cpu_total_cores,omitempty"`
	CPUAvailable  *float64 `json:"cpu_available_cores,omitempty"`
	CPUUsagePct   *float64 `json:"cpu_usage_percent,omitempty"`
	CPUTempC      *float64 `json:"cpu_temperature_celsius,omitempty"`

	MemTotalGB     *float64 `json:"memory_total_gb,omitempty"`
	MemUsedGB      *float64 `json:"memory_used_gb,omitempty"`
	MemAvailableGB *float64 `json:"memory_available_gb,omitempty"`
	MemUsagePct    *float64 `json:"memory_usage_percent,omitempty"`

	StorTotalGB     *float64           `json:"storage_total_gb,omitempty"`
	StorUsedGB      *float64           `json:"storage_used_gb,omitempty"`
	StorAvailableGB *float64           `json:"storage_available_gb,omitempty"`
	StorUsagePct    *float64           `json:"storage_usage_percent,omitempty"`
	StorBreakdownGB map[string]float64 `json:"storage_breakdown_gb,omitempty"`

	NetUpCapMbps    *float64         `json:"network_upstream_cap_mbps,omitempty"`
	NetDownCapMbps  *float64         `json:"network_downstream_cap_mbps,omitempty"`
	NetUpUsedMbps   *float64         `json:"network_upstream_used_mbps,omitempty"`
	NetDownUsedMbps *float64         `json:"network_downstream_used_mbps,omitempty"`
	NetLatencyP50   *float64         `json:"network_latency_p50_ms,omitempty"`
	NetLatencyP95   *float64         `json:"network_latency_p95_ms,omitempty"`
	NetLatencyP99   *float64         `json:"network_latency_p99_ms,omitempty"`
	NetConnections  map[string]int64 `json:"network_connections,omitempty"`

	LoadAverage []float64 `json:"load_average,omitempty"`
	PowerDrawW  *float64  `json:"power_draw_watts,omitempty"`
}

type RawAllocationBlock struct {
	ID               *string  `json:"id,omitempty"`
	Label            *string  `json:"label,omitempty"`
	GovernanceLevel  *string  `json:"governance_level,omitempty"`
	Priority         *int     `json:"priority,omitempty"`
	CPUPercent       *float64 `json:"cpu_percent,omitempty"`
	MemoryPercent    *float64 `json:"memory_percent,omitempty"`
	StoragePercent   *float64 `json:"storage_percent,omitempty"`
	BandwidthPercent *float64 `json:"bandwidth_percent,omitempty"`
	UtilizedPercent  *float64 `json:"utilized_percent,omitempty"`
	RelatedAgents    []string `json:"related_agents,omitempty"`
}

type RawCommitment struct {
	AgentID         *string  `json:"agent_id,omitempty"`
	Relationship    *string  `json:"relationship,omitempty"`
	Region          *string  `json:"region,omitempty"`
	Country         *string  `json:"country,omitempty"`
	StoredGB        *float64 `json:"stored_gb,omitempty"`
	ShardCount      *int     `json:"shard_count,omitempty"`
	ShardThreshold  *int     `json:"shard_threshold,omitempty"`
	RedundancyLevel *float64 `json:"redundancy_level,omitempty"`
	Strategy        *string  `json:"strategy,omitempty"`
	Status          *string  `json:"status,omitempty"`
	TrustScore      *float64 `json:"trust_score,omitempty"`
}

type RawLiveness struct {
	AgentID        *string  `json:"agent_id,omitempty"`
	UptimePercent  *float64 `json:"uptime_percent,omitempty"`
	LastSeenUnix   *int64   `json:"last_seen_unix,omitempty"`
	ResponseTimeMs *float64 `json:"response_time_ms,omitempty"`
}

type RawEconomicEvent struct {
	ID            *string  `json:"id,omitempty"`
	Action        *string  `json:"action,omitempty"`
	Amount        *float64 `json:"amount,omitempty"`
	Note          *string  `json:"note,omitempty"`
	TimestampUnix *int64   `json:"timestamp_unix,omitempty"`
}

type RawExchangeRate struct {
	FromCategory *string  `json:"from_category,omitempty"`
	ToCategory   *string  `json:"to_category,omitempty"`
	Rate         *float64 `json:"rate,omitempty"`
}

// EventRecord is the persisted artifact shape of the batch-create call:
// one dominant resource quantity with its unit, a free-text note carrying
// all three usage figures, and a categorical event-type tag.
type EventRecord struct {
	Action       string  `json:"action"`
	ProviderID   string  `json:"provider_id"`
	ReceiverID   string  `json:"receiver_id"`
	Quantity     float64 `json:"quantity"`
	QuantityUnit string  `json:"quantity_unit"`
	Note         string  `json:"note"`
	EventType    string  `json:"event_type"`
}
