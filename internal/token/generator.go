package token

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"sheafa-accounting-agent/internal/ledger"
	"sheafa-accounting-agent/internal/model"
)

// antiDupFraction guards against double emission: a tick arriving before
// this fraction of the configured interval has elapsed since the last
// successful persist produces no events.
const antiDupFraction = 0.8

type MetricsSource interface {
	Sample(ctx context.Context, operatorID string) model.ComputeMetrics
}

type AllocationSource interface {
	Resolve(ctx context.Context, resourceID string) model.AllocationSnapshot
}

// GeneratorSettings is the slice of runtime configuration the generator
// reads on every tick, so partial config merges take effect immediately.
type GeneratorSettings struct {
	CPURatePerCoreHour   float64
	StorageRatePerGBHour float64
	BandwidthRatePerHour float64
	Strategy             model.DistributionStrategy
	Interval             time.Duration
}

type baseline struct {
	metrics    model.ComputeMetrics
	allocation model.AllocationSnapshot
	at         time.Time
}

// Generator computes the usage delta accrued since the previous tick,
// converts it to token quantities, and persists the batch as economic
// events. The baseline cell is read then written only within a tick; the
// scheduler guarantees one in-flight tick per operator.
type Generator struct {
	client        ledger.Client
	metrics       MetricsSource
	allocation    AllocationSource
	settings      func() GeneratorSettings
	logger        *slog.Logger
	prev          *baseline
	lastPersistAt time.Time
}

func NewGenerator(client ledger.Client, metrics MetricsSource, allocation AllocationSource, settings func() GeneratorSettings, logger *slog.Logger) *Generator {
	return &Generator{
		client:     client,
		metrics:    metrics,
		allocation: allocation,
		settings:   settings,
		logger:     logger,
	}
}

// Tick runs one accounting interval: delta computation, distribution,
// and persistence. It returns the persisted batch, or an empty batch
// when the anti-duplication guard trips or persistence fails. It never
// fails.
func (g *Generator) Tick(ctx context.Context, operatorID, resourceID string) []model.ComputeEventPayload {
	settings := g.settings()

	if !g.lastPersistAt.IsZero() && time.Since(g.lastPersistAt) < time.Duration(antiDupFraction*float64(settings.Interval)) {
		g.logger.Debug("tick within anti-duplication window, skipping", "operator_id", operatorID)
		return []model.ComputeEventPayload{}
	}

	now := time.Now().UTC()
	current := g.metrics.Sample(ctx, operatorID)
	alloc := g.allocation.Resolve(ctx, resourceID)

	usage := g.computeDelta(current, settings.Interval, now)
	g.prev = &baseline{metrics: current, allocation: alloc, at: now}

	events := distribute(operatorID, usage, alloc, settings, now)
	if len(events) == 0 {
		return events
	}

	records := make([]ledger.EventRecord, 0, len(events))
	for _, ev := range events {
		records = append(records, toRecord(ev))
	}
	if err := g.client.CreateEconomicEvents(ctx, records); err != nil {
		g.logger.Error("economic event persist failed", "operator_id", operatorID, "count", len(records), "error", err)
		return []model.ComputeEventPayload{}
	}
	g.lastPersistAt = now
	return events
}

// computeDelta derives core-hours, GB-hours, and Mbps-hours from the
// average of the previous and current samples over the elapsed time. On
// the first tick there is no baseline, so the current sample alone
// stands in for the average and the configured interval for the elapsed
// time.
func (g *Generator) computeDelta(current model.ComputeMetrics, interval time.Duration, now time.Time) model.ComputeUsageSnapshot {
	var hours float64
	cpuPct := current.CPU.UsagePercent
	storageGB := current.Storage.UsedGB
	bandwidthMbps := (current.Network.UpstreamUsedMbps + current.Network.DownstreamUsedMbps) / 2

	if g.prev == nil {
		hours = interval.Hours()
	} else {
		hours = now.Sub(g.prev.at).Hours()
		cpuPct = (g.prev.metrics.CPU.UsagePercent + cpuPct) / 2
		storageGB = (g.prev.metrics.Storage.UsedGB + storageGB) / 2
		prevBandwidth := (g.prev.metrics.Network.UpstreamUsedMbps + g.prev.metrics.Network.DownstreamUsedMbps) / 2
		bandwidthMbps = (prevBandwidth + bandwidthMbps) / 2
	}
	if hours < 0 {
		hours = 0
	}

	return model.ComputeUsageSnapshot{
		CPUCoreHours:     cpuPct / 100 * current.CPU.TotalCores * hours,
		StorageGBHours:   storageGB * hours,
		BandwidthMbpsHrs: bandwidthMbps * hours,
	}
}

// distribute splits the usage delta into events under the configured
// strategy and prices each with the configured rates.
func distribute(operatorID string, usage model.ComputeUsageSnapshot, alloc model.AllocationSnapshot, settings GeneratorSettings, now time.Time) []model.ComputeEventPayload {
	events := []model.ComputeEventPayload{}

	switch settings.Strategy {
	case model.DistributePerLevel:
		for _, level := range model.KnownGovernanceLevels {
			share, ok := alloc.Levels[level]
			if !ok {
				continue
			}
			scaled := model.ComputeUsageSnapshot{
				CPUCoreHours:     usage.CPUCoreHours * share.CPUPercent / 100,
				StorageGBHours:   usage.StorageGBHours * share.StoragePercent / 100,
				BandwidthMbpsHrs: usage.BandwidthMbpsHrs * share.BandwidthPercent / 100,
			}
			events = append(events, newEvent(operatorID, level, "", scaled, settings, now))
		}
	case model.DistributePerCustodian:
		for _, block := range alloc.Blocks {
			if len(block.RelatedAgents) == 0 {
				continue
			}
			blockShare := model.ComputeUsageSnapshot{
				CPUCoreHours:     usage.CPUCoreHours * block.CPUPercent / 100,
				StorageGBHours:   usage.StorageGBHours * block.StoragePercent / 100,
				BandwidthMbpsHrs: usage.BandwidthMbpsHrs * block.BandwidthPercent / 100,
			}
			perAgent := blockShare.Scaled(1 / float64(len(block.RelatedAgents)))
			for _, agentID := range block.RelatedAgents {
				events = append(events, newEvent(operatorID, block.Level, agentID, perAgent, settings, now))
			}
		}
	default:
		events = append(events, newEvent(operatorID, "", "", usage, settings, now))
	}
	return events
}

func newEvent(operatorID string, level model.GovernanceLevel, agentID string, usage model.ComputeUsageSnapshot, settings GeneratorSettings, now time.Time) model.ComputeEventPayload {
	tokens := usage.CPUCoreHours*settings.CPURatePerCoreHour +
		usage.StorageGBHours*settings.StorageRatePerGBHour +
		usage.BandwidthMbpsHrs*settings.BandwidthRatePerHour
	return model.ComputeEventPayload{
		ID:         uuid.NewString(),
		OperatorID: operatorID,
		Level:      level,
		AgentID:    agentID,
		Usage:      usage,
		Tokens:     tokens,
		Timestamp:  now,
	}
}

// toRecord shapes one event for the ledger batch-create call: the
// numerically largest usage figure becomes the dominant quantity and the
// note carries all three.
func toRecord(ev model.ComputeEventPayload) ledger.EventRecord {
	quantity, unit := ev.Usage.CPUCoreHours, "cpu_core_hours"
	if ev.Usage.StorageGBHours > quantity {
		quantity, unit = ev.Usage.StorageGBHours, "storage_gb_hours"
	}
	if ev.Usage.BandwidthMbpsHrs > quantity {
		quantity, unit = ev.Usage.BandwidthMbpsHrs, "bandwidth_mbps_hours"
	}

	receiver := ev.AgentID
	if receiver == "" {
		receiver = string(ev.Level)
	}
	if receiver == "" {
		receiver = ev.OperatorID
	}

	return ledger.EventRecord{
		Action:       string(model.TokenIssued),
		ProviderID:   ev.OperatorID,
		ReceiverID:   receiver,
		Quantity:     quantity,
		QuantityUnit: unit,
		Note: fmt.Sprintf("cpu=%.4f core-hours storage=%.4f gb-hours bandwidth=%.4f mbps-hours",
			ev.Usage.CPUCoreHours, ev.Usage.StorageGBHours, ev.Usage.BandwidthMbpsHrs),
		EventType: "compute_usage",
	}
}
