package ledger

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/metadata"
)

type jsonCodec struct{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

type GRPCMethods struct {
	Telemetry   string
	Allocation  string
	Commitments string
	Liveness    string
	Events      string
	Create      string
}

type GRPCClient struct {
	mu sync.Mutex

	logger      *slog.Logger
	addr        string
	tlsConfig   *tls.Config
	token       string
	methods     GRPCMethods
	conn        *grpc.ClientConn
	callLimit   time.Duration
	dialTimeout time.Duration
}

func NewGRPCClient(addr string, tlsCfg *tls.Config, token string, methods GRPCMethods, callLimit time.Duration, logger *slog.Logger) *GRPCClient {
	encoding.RegisterCodec(jsonCodec{})
	if callLimit <= 0 {
		callLimit = 10 * time.Second
	}
	return &GRPCClient{
		logger:      logger,
		addr:        addr,
		tlsConfig:   tlsCfg,
		token:       token,
		methods:     methods,
		callLimit:   callLimit,
		dialTimeout: 8 * time.Second,
	}
}

func (c *GRPCClient) ComputeTelemetry(ctx context.Context, operatorID string) (RawTelemetry, error) {
	var resp telemetryResponse
	if err := c.invoke(ctx, c.methods.Telemetry, idRequest{ID: operatorID}, &resp); err != nil {
		return RawTelemetry{}, err
	}
	return resp.Telemetry, nil
}

func (c *GRPCClient) AllocationBlocks(ctx context.Context, resourceID string) ([]RawAllocationBlock, error) {
	var resp allocationResponse
	if err := c.invoke(ctx, c.methods.Allocation, idRequest{ID: resourceID}, &resp); err != nil {
		return nil, err
	}
	return resp.Blocks, nil
}

func (c *GRPCClient) CustodianCommitments(ctx context.Context, operatorID string) ([]RawCommitment, error) {
	var resp commitmentsResponse
	if err := c.invoke(ctx, c.methods.Commitments, idRequest{ID: operatorID}, &resp); err != nil {
		return nil, err
	}
	return resp.Commitments, nil
}

func (c *GRPCClient) CustodianLiveness(ctx context.Context, agentID string) (RawLiveness, error) {
	var resp livenessResponse
	if err := c.invoke(ctx, c.methods.Liveness, idRequest{ID: agentID}, &resp); err != nil {
		return RawLiveness{}, err
	}
	return resp.Liveness, nil
}

func (c *GRPCClient) EconomicEvents(ctx context.Context, operatorID string) ([]RawEconomicEvent, []RawExchangeRate, error) {
	var resp eventsResponse
	if err := c.invoke(ctx, c.methods.Events, idRequest{ID: operatorID}, &resp); err != nil {
		return nil, nil, err
	}
	return resp.Events, resp.Rates, nil
}

func (c *GRPCClient) CreateEconomicEvents(ctx context.Context, records []EventRecord) error {
	if len(records) == 0 {
		return nil
	}
	var resp createResponse
	if err := c.invoke(ctx, c.methods.Create, createRequest{Records: records}, &resp); err != nil {
		return err
	}
	if resp.Created != len(records) {
		c.logger.Warn("ledger accepted partial event batch", "sent", len(records), "created", resp.Created)
	}
	return nil
}

func (c *GRPCClient) Close(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

func (c *GRPCClient) invoke(ctx context.Context, method string, req, resp any) error {
	c.mu.Lock()
	if err := c.ensureConnLocked(ctx); err != nil {
		c.mu.Unlock()
		return err
	}
	conn := c.conn
	c.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, c.callLimit)
	defer cancel()
	if c.token != "" {
		callCtx = metadata.AppendToOutgoingContext(callCtx, "authorization", "Bearer "+c.token)
	}

	if err := conn.Invoke(callCtx, method, req, resp); err != nil {
		return fmt.Errorf("ledger call %s: %w", method, err)
	}
	return nil
}

func (c *GRPCClient) ensureConnLocked(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	dialCtx, cancel := context.WithTimeout(context.Background(), c.dialTimeout)
	defer cancel()
	if dl, ok := ctx.Deadline(); ok {
		dialCtx, cancel = context.WithDeadline(context.Background(), dl)
		defer cancel()
	}

	var creds credentials.TransportCredentials
	if c.tlsConfig != nil {
		creds = credentials.NewTLS(c.tlsConfig)
	} else {
		creds = insecure.NewCredentials()
	}

	conn, err := grpc.DialContext(
		dialCtx,
		c.addr,
		grpc.WithTransportCredentials(creds),
		grpc.WithBlock(),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{}), grpc.CallContentSubtype("json")),
	)
	if err != nil {
		return fmt.Errorf("grpc dial %s: %w", c.addr, err)
	}
	c.conn = conn
	c.logger.Info("ledger grpc connected", "addr", c.addr)
	return nil
}
