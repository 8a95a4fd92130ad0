package ledger

import (
	"crypto/tls"
	"fmt"
	"log/slog"

	"sheafa-accounting-agent/internal/config"
)

func NewClientFromConfig(cfg config.Config, tlsCfg *tls.Config, logger *slog.Logger) (Client, error) {
	switch cfg.LedgerMode {
	case config.LedgerModeGRPC:
		methods := GRPCMethods{
			Telemetry:   cfg.GRPCTelemetryMethod,
			Allocation:  cfg.GRPCAllocationMethod,
			Commitments: cfg.GRPCCommitmentsMethod,
			Liveness:    cfg.GRPCLivenessMethod,
			Events:      cfg.GRPCEventsMethod,
			Create:      cfg.GRPCCreateMethod,
		}
		return NewGRPCClient(cfg.LedgerGRPCAddr, tlsCfg, cfg.LedgerToken, methods, cfg.LedgerCallLimit, logger), nil
	case config.LedgerModeWebSocket:
		return NewWebSocketClient(cfg.LedgerWSURL, cfg.LedgerToken, tlsCfg, cfg.LedgerCallLimit, logger), nil
	default:
		return nil, fmt.Errorf("unsupported ledger mode %q", cfg.LedgerMode)
	}
}
