// Package allocation reads an operator's declared resource-allocation
// blocks and groups them by governance level.
package allocation

import (
	"context"
	"log/slog"

	"sheafa-accounting-agent/internal/bus"
	"sheafa-accounting-agent/internal/ledger"
	"sheafa-accounting-agent/internal/model"
)

type Resolver struct {
	client ledger.Client
	logger *slog.Logger
	feed   *bus.Feed[model.AllocationSnapshot]
}

func NewResolver(client ledger.Client, logger *slog.Logger) *Resolver {
	return &Resolver{
		client: client,
		logger: logger,
		feed:   bus.NewFeed[model.AllocationSnapshot](),
	}
}

// Resolve fetches the allocation blocks for a resource and returns the
// grouped per-level totals plus the flat block list. Blocks declared at
// an unknown governance level are dropped from the grouped totals but
// retained in the flat list. On fetch failure it returns an all-zero
// snapshot with an empty block list; it never fails.
func (r *Resolver) Resolve(ctx context.Context, resourceID string) model.AllocationSnapshot {
	raw, err := r.client.AllocationBlocks(ctx, resourceID)
	if err != nil {
		r.logger.Warn("allocation fetch failed, using empty snapshot", "resource_id", resourceID, "error", err)
		snap := emptySnapshot(resourceID)
		r.feed.Publish(snap)
		return snap
	}

	snap := model.AllocationSnapshot{
		ResourceID: resourceID,
		Levels:     make(map[model.GovernanceLevel]model.ResourceShare),
		Blocks:     make([]model.AllocationBlock, 0, len(raw)),
	}

	known := make(map[model.GovernanceLevel]bool, len(model.KnownGovernanceLevels))
	for _, lvl := range model.KnownGovernanceLevels {
		known[lvl] = true
	}

	for _, rb := range raw {
		block := normalizeBlock(rb)
		snap.Blocks = append(snap.Blocks, block)

		if !known[block.Level] {
			continue
		}
		share := snap.Levels[block.Level]
		share.CPUPercent += block.CPUPercent
		share.MemoryPercent += block.MemoryPercent
		share.StoragePercent += block.StoragePercent
		share.BandwidthPercent += block.BandwidthPercent
		snap.Levels[block.Level] = share

		snap.Totals.CPUPercent += block.CPUPercent
		snap.Totals.MemoryPercent += block.MemoryPercent
		snap.Totals.StoragePercent += block.StoragePercent
		snap.Totals.BandwidthPercent += block.BandwidthPercent
	}

	r.feed.Publish(snap)
	return snap
}

func (r *Resolver) Latest() (model.AllocationSnapshot, bool) {
	return r.feed.Latest()
}

func (r *Resolver) Subscribe(buffer int) (string, <-chan model.AllocationSnapshot) {
	return r.feed.Subscribe(buffer)
}

func (r *Resolver) Unsubscribe(id string) bool {
	return r.feed.Unsubscribe(id)
}

// normalizeBlock maps a raw ledger block record with zero/empty defaults
// for absent fields.
func normalizeBlock(rb ledger.RawAllocationBlock) model.AllocationBlock {
	block := model.AllocationBlock{
		RelatedAgents: rb.RelatedAgents,
	}
	if rb.ID != nil {
		block.ID = *rb.ID
	}
	if rb.Label != nil {
		block.Label = *rb.Label
	}
	if rb.GovernanceLevel != nil {
		block.Level = model.GovernanceLevel(*rb.GovernanceLevel)
	}
	if rb.Priority != nil {
		block.Priority = *rb.Priority
	}
	if rb.CPUPercent != nil {
		block.CPUPercent = *rb.CPUPercent
	}
	if rb.MemoryPercent != nil {
		block.MemoryPercent = *rb.MemoryPercent
	}
	if rb.StoragePercent != nil {
		block.StoragePercent = *rb.StoragePercent
	}
	if rb.BandwidthPercent != nil {
		block.BandwidthPercent = *rb.BandwidthPercent
	}
	if rb.UtilizedPercent != nil {
		block.UtilizedPercent = *rb.UtilizedPercent
	}
	return block
}

func emptySnapshot(resourceID string) model.AllocationSnapshot {
	return model.AllocationSnapshot{
		ResourceID: resourceID,
		Levels:     make(map[model.GovernanceLevel]model.ResourceShare),
		Blocks:     []model.AllocationBlock{},
	}
}
