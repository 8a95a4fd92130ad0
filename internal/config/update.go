package config

import (
	"time"

	"sheafa-accounting-agent/internal/model"
)

// Update is a partial configuration change applied over the current
// config. Nil fields are left untouched. Values are accepted as-is, even
// when nonsensical (negative rates): there is deliberately no validation
// layer on the runtime path.
type Update struct {
	RefreshInterval    *time.Duration `json:"refresh_interval,omitempty"`
	EventInterval      *time.Duration `json:"event_interval,omitempty"`
	ProtectionInterval *time.Duration `json:"protection_interval,omitempty"`

	CPURatePerCoreHour   *float64                    `json:"cpu_rate,omitempty"`
	StorageRatePerGBHour *float64                    `json:"storage_rate,omitempty"`
	BandwidthRatePerHour *float64                    `json:"bandwidth_rate,omitempty"`
	DemurrageMonthlyRate *float64                    `json:"demurrage_monthly_rate,omitempty"`
	Strategy             *model.DistributionStrategy `json:"strategy,omitempty"`

	FloorMinCores         *float64 `json:"floor_min_cores,omitempty"`
	FloorMinMemoryGB      *float64 `json:"floor_min_memory_gb,omitempty"`
	FloorMinStorageGB     *float64 `json:"floor_min_storage_gb,omitempty"`
	FloorMinBandwidthMbps *float64 `json:"floor_min_bandwidth_mbps,omitempty"`

	CeilingMaxCores         *float64 `json:"ceiling_max_cores,omitempty"`
	CeilingMaxMemoryGB      *float64 `json:"ceiling_max_memory_gb,omitempty"`
	CeilingMaxStorageGB     *float64 `json:"ceiling_max_storage_gb,omitempty"`
	CeilingMaxBandwidthMbps *float64 `json:"ceiling_max_bandwidth_mbps,omitempty"`
	TokenCeiling            *float64 `json:"token_ceiling,omitempty"`
}

// Merged returns a copy of c with the non-nil fields of u applied.
func (c Config) Merged(u Update) Config {
	out := c
	if u.RefreshInterval != nil {
		out.RefreshInterval = *u.RefreshInterval
	}
	if u.EventInterval != nil {
		out.EventInterval = *u.EventInterval
	}
	if u.ProtectionInterval != nil {
		out.ProtectionInterval = *u.ProtectionInterval
	}
	if u.CPURatePerCoreHour != nil {
		out.CPURatePerCoreHour = *u.CPURatePerCoreHour
	}
	if u.StorageRatePerGBHour != nil {
		out.StorageRatePerGBHour = *u.StorageRatePerGBHour
	}
	if u.BandwidthRatePerHour != nil {
		out.BandwidthRatePerHour = *u.BandwidthRatePerHour
	}
	if u.DemurrageMonthlyRate != nil {
		out.DemurrageMonthlyRate = *u.DemurrageMonthlyRate
	}
	if u.Strategy != nil {
		out.Strategy = *u.Strategy
	}
	if u.FloorMinCores != nil {
		out.FloorMinCores = *u.FloorMinCores
	}
	if u.FloorMinMemoryGB != nil {
		out.FloorMinMemoryGB = *u.FloorMinMemoryGB
	}
	if u.FloorMinStorageGB != nil {
		out.FloorMinStorageGB = *u.FloorMinStorageGB
	}
	if u.FloorMinBandwidthMbps != nil {
		out.FloorMinBandwidthMbps = *u.FloorMinBandwidthMbps
	}
	if u.CeilingMaxCores != nil {
		out.CeilingMaxCores = *u.CeilingMaxCores
	}
	if u.CeilingMaxMemoryGB != nil {
		out.CeilingMaxMemoryGB = *u.CeilingMaxMemoryGB
	}
	if u.CeilingMaxStorageGB != nil {
		out.CeilingMaxStorageGB = *u.CeilingMaxStorageGB
	}
	if u.CeilingMaxBandwidthMbps != nil {
		out.CeilingMaxBandwidthMbps = *u.CeilingMaxBandwidthMbps
	}
	if u.TokenCeiling != nil {
		out.TokenCeiling = *u.TokenCeiling
	}
	return out
}
