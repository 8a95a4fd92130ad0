// Package limits enforces dignity floor and ceiling resource-entitlement
// constraints over metrics and token state.
package limits

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"sheafa-accounting-agent/internal/bus"
	"sheafa-accounting-agent/internal/model"
)

// safetyBufferPoints is the fixed buffer subtracted from headroom when
// computing safe-zone percentages.
const safetyBufferPoints = 20.0

// Thresholds is the configured floor and ceiling, read fresh on every
// evaluation.
type Thresholds struct {
	FloorMinCores         float64
	FloorMinMemoryGB      float64
	FloorMinStorageGB     float64
	FloorMinBandwidthMbps float64

	CeilingMaxCores         float64
	CeilingMaxMemoryGB      float64
	CeilingMaxStorageGB     float64
	CeilingMaxBandwidthMbps float64
	TokenCeiling            float64
}

type Enforcer struct {
	thresholds func() Thresholds
	feed       *bus.Feed[model.ConstitutionalLimitsStatus]
}

func NewEnforcer(thresholds func() Thresholds) *Enforcer {
	return &Enforcer{
		thresholds: thresholds,
		feed:       bus.NewFeed[model.ConstitutionalLimitsStatus](),
	}
}

// Evaluate combines a metrics snapshot and token balance against the
// configured thresholds. Alerts are regenerated fresh on every call,
// never accumulated across cycles; identical inputs produce identical
// percentages and alert lists.
func (e *Enforcer) Evaluate(metrics model.ComputeMetrics, tokens model.InfrastructureTokenBalance) model.ConstitutionalLimitsStatus {
	t := e.thresholds()
	now := time.Now().UTC()

	upstreamAvail := metrics.Network.UpstreamCapMbps - metrics.Network.UpstreamUsedMbps
	if upstreamAvail < 0 {
		upstreamAvail = 0
	}

	status := model.ConstitutionalLimitsStatus{
		Floor:    evaluateFloor(t, metrics, upstreamAvail),
		Ceiling:  evaluateCeiling(t, metrics, tokens),
		SafeZone: evaluateSafeZone(metrics),
		Alerts:   []model.ConstitutionalAlert{},
	}

	if t.FloorMinCores > 0 && metrics.CPU.AvailableCores < t.FloorMinCores {
		status.Alerts = append(status.Alerts, model.ConstitutionalAlert{
			ID:           uuid.NewString(),
			Severity:     model.AlertCritical,
			Resource:     "cpu",
			CurrentValue: metrics.CPU.AvailableCores,
			Threshold:    t.FloorMinCores,
			Recommendation: fmt.Sprintf("available cores %.2f below dignity floor %.2f: shed or rebalance workloads to restore the guaranteed minimum",
				metrics.CPU.AvailableCores, t.FloorMinCores),
			RaisedAt: now,
		})
	}
	if t.TokenCeiling > 0 && tokens.Balance > t.TokenCeiling {
		status.Alerts = append(status.Alerts, model.ConstitutionalAlert{
			ID:           uuid.NewString(),
			Severity:     model.AlertWarning,
			Resource:     "tokens",
			CurrentValue: tokens.Balance,
			Threshold:    t.TokenCeiling,
			Recommendation: fmt.Sprintf("token balance %.2f exceeds accumulation ceiling %.2f: redistribute surplus tokens",
				tokens.Balance, t.TokenCeiling),
			RaisedAt: now,
		})
	}

	e.feed.Publish(status)
	return status
}

func (e *Enforcer) Latest() (model.ConstitutionalLimitsStatus, bool) {
	return e.feed.Latest()
}

func (e *Enforcer) Subscribe(buffer int) (string, <-chan model.ConstitutionalLimitsStatus) {
	return e.feed.Subscribe(buffer)
}

func (e *Enforcer) Unsubscribe(id string) bool {
	return e.feed.Unsubscribe(id)
}

// evaluateFloor checks all four dimensions against their minimums. The
// displayed percent-of-floor is the minimum ratio across dimensions: the
// floor is violated if any dimension is short, so the worst dimension
// governs the number shown. Dimensions with a non-positive configured
// minimum are trivially satisfied and excluded from the ratio.
func evaluateFloor(t Thresholds, metrics model.ComputeMetrics, upstreamAvail float64) model.DignityFloor {
	floor := model.DignityFloor{
		MinCores:         t.FloorMinCores,
		MinMemoryGB:      t.FloorMinMemoryGB,
		MinStorageGB:     t.FloorMinStorageGB,
		MinBandwidthMbps: t.FloorMinBandwidthMbps,
	}

	met := true
	minRatio := -1.0
	check := func(value, minimum float64) {
		if minimum <= 0 {
			return
		}
		if value < minimum {
			met = false
		}
		ratio := value / minimum * 100
		if minRatio < 0 || ratio < minRatio {
			minRatio = ratio
		}
	}
	check(metrics.CPU.AvailableCores, t.FloorMinCores)
	check(metrics.Memory.AvailableGB, t.FloorMinMemoryGB)
	check(metrics.Storage.AvailableGB, t.FloorMinStorageGB)
	check(upstreamAvail, t.FloorMinBandwidthMbps)

	if minRatio < 0 {
		minRatio = 100
	}
	floor.PercentOfFloor = minRatio
	if met {
		floor.Status = model.FloorMet
	} else {
		floor.Status = model.FloorWarning
	}
	return floor
}

func evaluateCeiling(t Thresholds, metrics model.ComputeMetrics, tokens model.InfrastructureTokenBalance) model.CeilingLimit {
	ceiling := model.CeilingLimit{
		MaxCores:         t.CeilingMaxCores,
		MaxMemoryGB:      t.CeilingMaxMemoryGB,
		MaxStorageGB:     t.CeilingMaxStorageGB,
		MaxBandwidthMbps: t.CeilingMaxBandwidthMbps,
		TokenCeiling:     t.TokenCeiling,
	}
	if t.TokenCeiling > 0 {
		ceiling.PercentOfCeiling = tokens.Balance / t.TokenCeiling * 100
	}

	switch {
	case t.TokenCeiling > 0 && tokens.Balance > t.TokenCeiling:
		ceiling.Status = model.CeilingBreached
	case metrics.CPU.UsagePercent > 90 || (t.TokenCeiling > 0 && tokens.Balance > 0.8*t.TokenCeiling):
		ceiling.Status = model.CeilingWarning
	default:
		ceiling.Status = model.CeilingSafe
	}
	return ceiling
}

func evaluateSafeZone(metrics model.ComputeMetrics) model.SafeZone {
	bandwidthPct := 0.0
	if metrics.Network.UpstreamCapMbps > 0 {
		bandwidthPct = metrics.Network.UpstreamUsedMbps / metrics.Network.UpstreamCapMbps * 100
	}
	return model.SafeZone{
		CPUPercent:       headroom(metrics.CPU.UsagePercent),
		MemoryPercent:    headroom(metrics.Memory.UsagePercent),
		StoragePercent:   headroom(metrics.Storage.UsagePercent),
		BandwidthPercent: headroom(bandwidthPct),
	}
}

// headroom is the clamped remainder beyond the fixed safety buffer.
func headroom(usagePct float64) float64 {
	v := 100 - usagePct - safetyBufferPoints
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
