package ledger

import "context"

// Client is the narrow request/response boundary with the remote ledger
// backend. Implementations are transport details; callers treat the
// backend as an opaque RPC collaborator keyed by operator/resource
// identifiers.
type Client interface {
	ComputeTelemetry(ctx context.Context, operatorID string) (RawTelemetry, error)
	AllocationBlocks(ctx context.Context, resourceID string) ([]RawAllocationBlock, error)
	CustodianCommitments(ctx context.Context, operatorID string) ([]RawCommitment, error)
	CustodianLiveness(ctx context.Context, agentID string) (RawLiveness, error)
	EconomicEvents(ctx context.Context, operatorID string) ([]RawEconomicEvent, []RawExchangeRate, error)
	CreateEconomicEvents(ctx context.Context, records []EventRecord) error
	Close(ctx context.Context) error
}

type idRequest struct {
	ID string `json:"id"`
}

type telemetryResponse struct {
	Telemetry RawTelemetry `json:"telemetry"`
}

type allocationResponse struct {
	Blocks []RawAllocationBlock `json:"blocks"`
}

type commitmentsResponse struct {
	Commitments []RawCommitment `json:"commitments"`
}

type livenessResponse struct {
	Liveness RawLiveness `json:"liveness"`
}

type eventsResponse struct {
	Events []RawEconomicEvent `json:"events"`
	Rates  []RawExchangeRate  `json:"exchange_rates,omitempty"`
}

type createRequest struct {
	Records []EventRecord `json:"records"`
}

type createResponse struct {
	Created int `json:"created"`
}
