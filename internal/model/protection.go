package model

// ProtectionLevel classifies an operator's overall custody posture.
type ProtectionLevel string

const (
	ProtectionVulnerable      ProtectionLevel = "vulnerable"
	ProtectionProtected       ProtectionLevel = "protected"
	ProtectionHighlyProtected ProtectionLevel = "highly-protected"
)

// Rank orders protection levels so vulnerable < protected < highly-protected.
func (p ProtectionLevel) Rank() int {
	switch p {
	case ProtectionProtected:
		return 1
	case ProtectionHighlyProtected:
		return 2
	default:
		return 0
	}
}

type TrustStrength string

const (
	TrustStrong   TrustStrength = "strong"
	TrustModerate TrustStrength = "moderate"
	TrustWeak     TrustStrength = "weak"
)

// TrustEdge is one depth-1 edge in the custody trust graph. Transitive
// trust is not modeled.
type TrustEdge struct {
	AgentID      string        `json:"agent_id"`
	Relationship string        `json:"relationship"`
	TrustScore   float64       `json:"trust_score"`
	Strength     TrustStrength `json:"strength"`
}

type GeographicGroup struct {
	Region         string   `json:"region"`
	Country        string   `json:"country"`
	CustodianCount int      `json:"custodian_count"`
	ShardCount     int      `json:"shard_count"`
	MaxRedundancy  float64  `json:"max_redundancy"`
	RiskFlags      []string `json:"risk_flags,omitempty"`
}

// FamilyCommunityProtectionStatus is fully recomputed every assessment,
// never partially mutated.
type FamilyCommunityProtectionStatus struct {
	OperatorID        string             `json:"operator_id"`
	Strategy          RedundancyStrategy `json:"strategy"`
	RedundancyFactor  int                `json:"redundancy_factor"`
	RecoveryThreshold int                `json:"recovery_threshold"`
	Custodians        []CustodianNode    `json:"custodians"`
	Geographic        []GeographicGroup  `json:"geographic"`
	TrustGraph        []TrustEdge        `json:"trust_graph"`
	Level             ProtectionLevel    `json:"level"`
	EstimatedRecovery string             `json:"estimated_recovery"`
}
