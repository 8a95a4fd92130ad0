package ledger

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

// wsFrame is one request/response exchange over the ledger socket. The
// backend answers each op frame in order on the same connection.
type wsFrame struct {
	Op      string          `json:"op"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type WebSocketClient struct {
	mu sync.Mutex

	logger       *slog.Logger
	url          string
	token        string
	tlsConfig    *tls.Config
	callLimit    time.Duration
	pingInterval time.Duration
	conn         *websocket.Conn
	pingCancel   context.CancelFunc
}

func NewWebSocketClient(url, token string, tlsCfg *tls.Config, callLimit time.Duration, logger *slog.Logger) *WebSocketClient {
	if callLimit <= 0 {
		callLimit = 10 * time.Second
	}
	return &WebSocketClient{
		logger:       logger,
		url:          url,
		token:        token,
		tlsConfig:    tlsCfg,
		callLimit:    callLimit,
		pingInterval: 10 * time.Second,
	}
}

func (c *WebSocketClient) ComputeTelemetry(ctx context.Context, operatorID string) (RawTelemetry, error) {
	var resp telemetryResponse
	if err := c.call(ctx, "get_compute_telemetry", idRequest{ID: operatorID}, &resp); err != nil {
		return RawTelemetry{}, err
	}
	return resp.Telemetry, nil
}

func (c *WebSocketClient) AllocationBlocks(ctx context.Context, resourceID string) ([]RawAllocationBlock, error) {
	var resp allocationResponse
	if err := c.call(ctx, "get_allocation_blocks", idRequest{ID: resourceID}, &resp); err != nil {
		return nil, err
	}
	return resp.Blocks, nil
}

func (c *WebSocketClient) CustodianCommitments(ctx context.Context, operatorID string) ([]RawCommitment, error) {
	var resp commitmentsResponse
	if err := c.call(ctx, "get_custodian_commitments", idRequest{ID: operatorID}, &resp); err != nil {
		return nil, err
	}
	return resp.Commitments, nil
}

func (c *WebSocketClient) CustodianLiveness(ctx context.Context, agentID string) (RawLiveness, error) {
	var resp livenessResponse
	if err := c.call(ctx, "get_custodian_liveness", idRequest{ID: agentID}, &resp); err != nil {
		return RawLiveness{}, err
	}
	return resp.Liveness, nil
}

func (c *WebSocketClient) EconomicEvents(ctx context.Context, operatorID string) ([]RawEconomicEvent, []RawExchangeRate, error) {
	var resp eventsResponse
	if err := c.call(ctx, "get_economic_events", idRequest{ID: operatorID}, &resp); err != nil {
		return nil, nil, err
	}
	return resp.Events, resp.Rates, nil
}

func (c *WebSocketClient) CreateEconomicEvents(ctx context.Context, records []EventRecord) error {
	if len(records) == 0 {
		return nil
	}
	var resp createResponse
	if err := c.call(ctx, "create_economic_events", createRequest{Records: records}, &resp); err != nil {
		return err
	}
	if resp.Created != len(records) {
		c.logger.Warn("ledger accepted partial event batch", "sent", len(records), "created", resp.Created)
	}
	return nil
}

func (c *WebSocketClient) Close(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pingCancel != nil {
		c.pingCancel()
		c.pingCancel = nil
	}
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close(websocket.StatusNormalClosure, "shutdown")
	c.conn = nil
	return err
}

func (c *WebSocketClient) call(ctx context.Context, op string, req, resp any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureConnLocked(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", op, err)
	}
	frame, err := json.Marshal(wsFrame{Op: op, Payload: payload})
	if err != nil {
		return fmt.Errorf("encode %s frame: %w", op, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.callLimit)
	defer cancel()

	if err := c.conn.Write(callCtx, websocket.MessageText, frame); err != nil {
		c.logger.Warn("websocket write failed, reconnecting", "error", err)
		_ = c.conn.Close(websocket.StatusInternalError, "reconnect")
		c.conn = nil
		if err2 := c.ensureConnLocked(ctx); err2 != nil {
			return err2
		}
		if err2 := c.conn.Write(callCtx, websocket.MessageText, frame); err2 != nil {
			return fmt.Errorf("write %s frame retry: %w", op, err2)
		}
	}

	_, data, err := c.conn.Read(callCtx)
	if err != nil {
		_ = c.conn.Close(websocket.StatusInternalError, "read failed")
		c.conn = nil
		return fmt.Errorf("read %s response: %w", op, err)
	}

	var reply wsFrame
	if err := json.Unmarshal(data, &reply); err != nil {
		return fmt.Errorf("decode %s response frame: %w", op, err)
	}
	if reply.Error != "" {
		return fmt.Errorf("ledger %s: %s", op, reply.Error)
	}
	if len(reply.Payload) > 0 {
		if err := json.Unmarshal(reply.Payload, resp); err != nil {
			return fmt.Errorf("decode %s payload: %w", op, err)
		}
	}
	return nil
}

func (c *WebSocketClient) ensureConnLocked(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	h := http.Header{}
	if c.token != "" {
		h.Set("Authorization", "Bearer "+c.token)
	}
	opt := &websocket.DialOptions{HTTPHeader: h}
	if c.tlsConfig != nil {
		opt.HTTPClient = &http.Client{Transport: &http.Transport{TLSClientConfig: c.tlsConfig}}
	}
	dialCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.callLimit)
		defer cancel()
	}
	conn, _, err := websocket.Dial(dialCtx, c.url, opt)
	if err != nil {
		return fmt.Errorf("websocket dial %s: %w", c.url, err)
	}
	conn.SetReadLimit(10 << 20)
	c.conn = conn
	c.startPingLoopLocked()
	c.logger.Info("ledger websocket connected", "url", c.url)
	return nil
}

func (c *WebSocketClient) startPingLoopLocked() {
	if c.pingCancel != nil {
		c.pingCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.pingCancel = cancel
	go func(conn *websocket.Conn, interval time.Duration) {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
				_ = conn.Ping(pingCtx)
				pingCancel()
			}
		}
	}(c.conn, c.pingInterval)
}
