package config

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"sheafa-accounting-agent/internal/model"
)

type LedgerMode string

const (
	LedgerModeGRPC      LedgerMode = "grpc"
	LedgerModeWebSocket LedgerMode = "websocket"
)

type Config struct {
	OperatorID      string
	ResourceID      string
	Hostname        string
	ProbeListenAddr string

	RefreshInterval    time.Duration
	EventInterval      time.Duration
	ProtectionInterval time.Duration
	ErrorBackoff       time.Duration
	ShutdownTimeout    time.Duration

	LedgerMode      LedgerMode
	LedgerGRPCAddr  string
	LedgerWSURL     string
	LedgerToken     string
	LedgerCallLimit time.Duration

	GRPCTelemetryMethod   string
	GRPCAllocationMethod  string
	GRPCCommitmentsMethod string
	GRPCLivenessMethod    string
	GRPCEventsMethod      string
	GRPCCreateMethod      string

	TLSEnabled    bool
	TLSSkipVerify bool
	TLSCAPath     string
	TLSCertPath   string
	TLSKeyPath    string

	LogJSON  bool
	LogLevel string

	// Token conversion rates, tokens per unit-hour.
	CPURatePerCoreHour   float64
	StorageRatePerGBHour float64
	BandwidthRatePerHour float64
	DemurrageMonthlyRate float64
	Strategy             model.DistributionStrategy

	// Dignity floor minimums.
	FloorMinCores         float64
	FloorMinMemoryGB      float64
	FloorMinStorageGB     float64
	FloorMinBandwidthMbps float64

	// Ceiling limits.
	CeilingMaxCores         float64
	CeilingMaxMemoryGB      float64
	CeilingMaxStorageGB     float64
	CeilingMaxBandwidthMbps float64
	TokenCeiling            float64
}

func Load() (Config, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown-host"
	}

	cfg := Config{
		OperatorID:      env("SHEAFA_OPERATOR_ID", hostname),
		ResourceID:      env("SHEAFA_RESOURCE_ID", ""),
		Hostname:        hostname,
		ProbeListenAddr: env("SHEAFA_AGENT_PROBE_ADDR", "0.0.0.0:7444"),

		RefreshInterval:    envDuration("SHEAFA_REFRESH_INTERVAL", 30*time.Second),
		EventInterval:      envDuration("SHEAFA_EVENT_INTERVAL", 5*time.Minute),
		ProtectionInterval: envDuration("SHEAFA_PROTECTION_INTERVAL", 2*time.Minute),
		ErrorBackoff:       envDuration("SHEAFA_ERROR_BACKOFF", 1500*time.Millisecond),
		ShutdownTimeout:    envDuration("SHEAFA_SHUTDOWN_TIMEOUT", 20*time.Second),

		LedgerMode:      LedgerMode(strings.ToLower(env("SHEAFA_LEDGER_MODE", string(LedgerModeGRPC)))),
		LedgerGRPCAddr:  env("SHEAFA_LEDGER_GRPC_ADDR", "127.0.0.1:3200"),
		LedgerWSURL:     env("SHEAFA_LEDGER_WS_URL", "ws://127.0.0.1:3200/ws/ledger"),
		LedgerToken:     env("SHEAFA_LEDGER_TOKEN", ""),
		LedgerCallLimit: envDuration("SHEAFA_LEDGER_CALL_LIMIT", 10*time.Second),

		GRPCTelemetryMethod:   env("SHEAFA_GRPC_TELEMETRY_METHOD", "/sheafa.ledger.v1.LedgerService/GetComputeTelemetry"),
		GRPCAllocationMethod:  env("SHEAFA_GRPC_ALLOCATION_METHOD", "/sheafa.ledger.v1.LedgerService/GetAllocationBlocks"),
		GRPCCommitmentsMethod: env("SHEAFA_GRPC_COMMITMENTS_METHOD", "/sheafa.ledger.v1.LedgerService/GetCustodianCommitments"),
		GRPCLivenessMethod:    env("SHEAFA_GRPC_LIVENESS_METHOD", "/sheafa.ledger.v1.LedgerService/GetCustodianLiveness"),
		GRPCEventsMethod:      env("SHEAFA_GRPC_EVENTS_METHOD", "/sheafa.ledger.v1.LedgerService/GetEconomicEvents"),
		GRPCCreateMethod:      env("SHEAFA_GRPC_CREATE_METHOD", "/sheafa.ledger.v1.LedgerService/CreateEconomicEvents"),

		TLSEnabled:    envBool("SHEAFA_TLS_ENABLED", false),
		TLSSkipVerify: envBool("SHEAFA_TLS_SKIP_VERIFY", false),
		TLSCAPath:     env("SHEAFA_TLS_CA_PATH", ""),
		TLSCertPath:   env("SHEAFA_TLS_CERT_PATH", ""),
		TLSKeyPath:    env("SHEAFA_TLS_KEY_PATH", ""),

		LogJSON:  envBool("SHEAFA_LOG_JSON", true),
		LogLevel: strings.ToLower(env("SHEAFA_LOG_LEVEL", "info")),

		CPURatePerCoreHour:   envFloat("SHEAFA_CPU_RATE", 1.0),
		StorageRatePerGBHour: envFloat("SHEAFA_STORAGE_RATE", 0.01),
		BandwidthRatePerHour: envFloat("SHEAFA_BANDWIDTH_RATE", 0.05),
		DemurrageMonthlyRate: envFloat("SHEAFA_DEMURRAGE_MONTHLY_RATE", 0.5),
		Strategy:             model.DistributionStrategy(strings.ToLower(env("SHEAFA_DISTRIBUTION_STRATEGY", string(model.DistributePerLevel)))),

		FloorMinCores:         envFloat("SHEAFA_FLOOR_MIN_CORES", 0.5),
		FloorMinMemoryGB:      envFloat("SHEAFA_FLOOR_MIN_MEMORY_GB", 1),
		FloorMinStorageGB:     envFloat("SHEAFA_FLOOR_MIN_STORAGE_GB", 10),
		FloorMinBandwidthMbps: envFloat("SHEAFA_FLOOR_MIN_BANDWIDTH_MBPS", 1),

		CeilingMaxCores:         envFloat("SHEAFA_CEILING_MAX_CORES", 64),
		CeilingMaxMemoryGB:      envFloat("SHEAFA_CEILING_MAX_MEMORY_GB", 256),
		CeilingMaxStorageGB:     envFloat("SHEAFA_CEILING_MAX_STORAGE_GB", 4096),
		CeilingMaxBandwidthMbps: envFloat("SHEAFA_CEILING_MAX_BANDWIDTH_MBPS", 1000),
		TokenCeiling:            envFloat("SHEAFA_TOKEN_CEILING", 10000),
	}

	if cfg.ResourceID == "" {
		cfg.ResourceID = cfg.OperatorID
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.OperatorID == "" {
		return errors.New("SHEAFA_OPERATOR_ID is required")
	}
	if strings.TrimSpace(c.ProbeListenAddr) == "" {
		return errors.New("SHEAFA_AGENT_PROBE_ADDR is required")
	}
	if c.RefreshInterval <= 0 || c.EventInterval <= 0 || c.ProtectionInterval <= 0 {
		return errors.New("intervals must be > 0")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHEAFA_SHUTDOWN_TIMEOUT must be > 0")
	}
	switch c.LedgerMode {
	case LedgerModeGRPC, LedgerModeWebSocket:
	default:
		return fmt.Errorf("unsupported ledger mode %q", c.LedgerMode)
	}
	if c.LedgerMode == LedgerModeGRPC {
		if c.LedgerGRPCAddr == "" {
			return errors.New("SHEAFA_LEDGER_GRPC_ADDR is required for grpc mode")
		}
		methods := map[string]string{
			"SHEAFA_GRPC_TELEMETRY_METHOD":   c.GRPCTelemetryMethod,
			"SHEAFA_GRPC_ALLOCATION_METHOD":  c.GRPCAllocationMethod,
			"SHEAFA_GRPC_COMMITMENTS_METHOD": c.GRPCCommitmentsMethod,
			"SHEAFA_GRPC_LIVENESS_METHOD":    c.GRPCLivenessMethod,
			"SHEAFA_GRPC_EVENTS_METHOD":      c.GRPCEventsMethod,
			"SHEAFA_GRPC_CREATE_METHOD":      c.GRPCCreateMethod,
		}
		for name, method := range methods {
			if strings.TrimSpace(method) == "" {
				return fmt.Errorf("%s is required for grpc mode", name)
			}
		}
	}
	if c.LedgerMode == LedgerModeWebSocket && c.LedgerWSURL == "" {
		return errors.New("SHEAFA_LEDGER_WS_URL is required for websocket mode")
	}
	switch c.Strategy {
	case model.DistributePerLevel, model.DistributePerCustodian, model.DistributeAggregate:
	default:
		return fmt.Errorf("unsupported distribution strategy %q", c.Strategy)
	}
	return nil
}

func (c Config) TLSConfig() (*tls.Config, error) {
	if !c.TLSEnabled {
		return nil, nil
	}
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12, InsecureSkipVerify: c.TLSSkipVerify}
	if c.TLSCAPath != "" {
		caBytes, err := os.ReadFile(c.TLSCAPath)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caBytes) {
			return nil, errors.New("append CA cert failed")
		}
		tlsCfg.RootCAs = pool
	}
	if c.TLSCertPath != "" || c.TLSKeyPath != "" {
		if c.TLSCertPath == "" || c.TLSKeyPath == "" {
			return nil, errors.New("both TLS cert and key are required")
		}
		crt, err := tls.LoadX509KeyPair(c.TLSCertPath, c.TLSKeyPath)
		if err != nil {
			return nil, fmt.Errorf("load mTLS cert/key: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{crt}
	}
	return tlsCfg, nil
}

func env(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return fallback
	}
	switch v {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
