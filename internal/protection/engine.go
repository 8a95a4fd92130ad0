// Package protection derives replication and custody posture from an
// operator's custodian commitments.
package protection

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"sheafa-accounting-agent/internal/bus"
	"sheafa-accounting-agent/internal/ledger"
	"sheafa-accounting-agent/internal/model"
)

// livenessFanout caps concurrent liveness probes per assessment.
const livenessFanout = 8

type Engine struct {
	client ledger.Client
	logger *slog.Logger
	feed   *bus.Feed[model.FamilyCommunityProtectionStatus]
}

func NewEngine(client ledger.Client, logger *slog.Logger) *Engine {
	return &Engine{
		client: client,
		logger: logger,
		feed:   bus.NewFeed[model.FamilyCommunityProtectionStatus](),
	}
}

// Assess recomputes the full protection status from the current set of
// custodian commitments. A commitments fetch failure collapses to the
// canonical empty status; per-custodian liveness failures only degrade
// that custodian's health to a null placeholder. It never fails.
func (e *Engine) Assess(ctx context.Context, operatorID string) model.FamilyCommunityProtectionStatus {
	raw, err := e.client.CustodianCommitments(ctx, operatorID)
	if err != nil {
		e.logger.Warn("commitments fetch failed, using empty status", "operator_id", operatorID, "error", err)
		status := emptyStatus(operatorID)
		e.feed.Publish(status)
		return status
	}
	if len(raw) == 0 {
		status := emptyStatus(operatorID)
		e.feed.Publish(status)
		return status
	}

	custodians := make([]model.CustodianNode, len(raw))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(livenessFanout)
	for i, rc := range raw {
		g.Go(func() error {
			node := normalizeCommitment(rc)
			live, liveErr := e.client.CustodianLiveness(gctx, node.AgentID)
			if liveErr != nil {
				e.logger.Debug("liveness fetch failed, using null health", "agent_id", node.AgentID, "error", liveErr)
				node.Health = model.CustodianHealth{}
			} else {
				node.Health = normalizeLiveness(live)
			}
			custodians[i] = node
			return nil
		})
	}
	_ = g.Wait()

	status := derive(operatorID, custodians)
	e.feed.Publish(status)
	return status
}

func (e *Engine) Latest() (model.FamilyCommunityProtectionStatus, bool) {
	return e.feed.Latest()
}

func (e *Engine) Subscribe(buffer int) (string, <-chan model.FamilyCommunityProtectionStatus) {
	return e.feed.Subscribe(buffer)
}

func (e *Engine) Unsubscribe(id string) bool {
	return e.feed.Unsubscribe(id)
}

// derive computes every derived field of the protection status from the
// normalized custodian set. The status is rebuilt wholesale; nothing is
// mutated in place between assessments.
func derive(operatorID string, custodians []model.CustodianNode) model.FamilyCommunityProtectionStatus {
	status := model.FamilyCommunityProtectionStatus{
		OperatorID: operatorID,
		Custodians: custodians,
		Strategy:   detectStrategy(custodians),
	}
	status.RedundancyFactor = redundancyFactor(custodians)
	status.RecoveryThreshold = recoveryThreshold(status.Strategy, status.RedundancyFactor, custodians)
	status.Geographic = groupGeographic(custodians)
	status.TrustGraph = buildTrustGraph(custodians)
	status.Level = classify(custodians, status.RedundancyFactor)
	status.EstimatedRecovery = estimateRecovery(len(custodians), status.RecoveryThreshold)
	return status
}

// detectStrategy tallies strategy occurrences across commitments; the
// plurality wins with full_replica as the tie-break default.
func detectStrategy(custodians []model.CustodianNode) model.RedundancyStrategy {
	counts := make(map[model.RedundancyStrategy]int)
	for _, c := range custodians {
		counts[c.Strategy]++
	}

	best := model.StrategyFullReplica
	bestCount := counts[model.StrategyFullReplica]
	for _, s := range []model.RedundancyStrategy{model.StrategyThresholdSplit, model.StrategyErasureCoded} {
		if counts[s] > bestCount {
			best = s
			bestCount = counts[s]
		}
	}
	return best
}

func redundancyFactor(custodians []model.CustodianNode) int {
	if len(custodians) == 0 {
		return 0
	}
	var sum float64
	for _, c := range custodians {
		sum += c.RedundancyLevel
	}
	return int(math.Ceil(sum / float64(len(custodians))))
}

func recoveryThreshold(strategy model.RedundancyStrategy, factor int, custodians []model.CustodianNode) int {
	switch strategy {
	case model.StrategyThresholdSplit:
		if len(custodians) == 0 {
			return 0
		}
		var sum float64
		for _, c := range custodians {
			threshold := c.ShardThreshold
			if threshold == 0 {
				// missing threshold defaults to half the shard count, rounded up
				threshold = (c.ShardCount + 1) / 2
			}
			sum += float64(threshold)
		}
		return int(math.Ceil(sum / float64(len(custodians))))
	case model.StrategyErasureCoded:
		return factor
	default:
		return 1
	}
}

func groupGeographic(custodians []model.CustodianNode) []model.GeographicGroup {
	type geoKey struct{ region, country string }
	groups := make(map[geoKey]*model.GeographicGroup)
	for _, c := range custodians {
		key := geoKey{c.Region, c.Country}
		grp, ok := groups[key]
		if !ok {
			grp = &model.GeographicGroup{Region: c.Region, Country: c.Country}
			if c.Region == "" {
				grp.RiskFlags = append(grp.RiskFlags, "unknown-region")
			}
			if c.Country == "" {
				grp.RiskFlags = append(grp.RiskFlags, "unknown-country")
			}
			groups[key] = grp
		}
		grp.CustodianCount++
		grp.ShardCount += c.ShardCount
		if c.RedundancyLevel > grp.MaxRedundancy {
			grp.MaxRedundancy = c.RedundancyLevel
		}
	}

	out := make([]model.GeographicGroup, 0, len(groups))
	for _, grp := range groups {
		out = append(out, *grp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Region != out[j].Region {
			return out[i].Region < out[j].Region
		}
		return out[i].Country < out[j].Country
	})
	return out
}

func buildTrustGraph(custodians []model.CustodianNode) []model.TrustEdge {
	edges := make([]model.TrustEdge, 0, len(custodians))
	for _, c := range custodians {
		strength := model.TrustWeak
		switch {
		case c.TrustScore >= 80:
			strength = model.TrustStrong
		case c.TrustScore >= 50:
			strength = model.TrustModerate
		}
		edges = append(edges, model.TrustEdge{
			AgentID:      c.AgentID,
			Relationship: c.Relationship,
			TrustScore:   c.TrustScore,
			Strength:     strength,
		})
	}
	return edges
}

func classify(custodians []model.CustodianNode, factor int) model.ProtectionLevel {
	healthy := 0
	for _, c := range custodians {
		if c.Health.UptimePercent >= 95 {
			healthy++
		}
	}
	switch {
	case len(custodians) >= 3 && healthy >= 2 && float64(factor) >= 2.5:
		return model.ProtectionHighlyProtected
	case len(custodians) >= 2 && float64(factor) >= 1.5:
		return model.ProtectionProtected
	default:
		return model.ProtectionVulnerable
	}
}

func estimateRecovery(custodianCount, threshold int) string {
	switch {
	case custodianCount >= 3 && threshold <= 2:
		return "<1h"
	case custodianCount >= 2 && threshold <= 2:
		return "<4h"
	case custodianCount >= 2:
		return "<24h"
	case custodianCount == 1:
		return ">24h (single custodian)"
	default:
		return "unable-to-recover"
	}
}

func normalizeCommitment(rc ledger.RawCommitment) model.CustodianNode {
	node := model.CustodianNode{
		Strategy:         model.StrategyFullReplica,
		CommitmentStatus: model.CommitmentPending,
	}
	if rc.AgentID != nil {
		node.AgentID = *rc.AgentID
	}
	if rc.Relationship != nil {
		node.Relationship = *rc.Relationship
	}
	if rc.Region != nil {
		node.Region = *rc.Region
	}
	if rc.Country != nil {
		node.Country = *rc.Country
	}
	if rc.StoredGB != nil {
		node.StoredGB = *rc.StoredGB
	}
	if rc.ShardCount != nil {
		node.ShardCount = *rc.ShardCount
	}
	if rc.ShardThreshold != nil {
		node.ShardThreshold = *rc.ShardThreshold
	}
	if rc.RedundancyLevel != nil {
		node.RedundancyLevel = *rc.RedundancyLevel
	}
	if rc.Strategy != nil {
		switch model.RedundancyStrategy(*rc.Strategy) {
		case model.StrategyFullReplica, model.StrategyThresholdSplit, model.StrategyErasureCoded:
			node.Strategy = model.RedundancyStrategy(*rc.Strategy)
		}
	}
	if rc.Status != nil {
		switch model.CommitmentStatus(*rc.Status) {
		case model.CommitmentActive, model.CommitmentPending, model.CommitmentBreached, model.CommitmentExpired:
			node.CommitmentStatus = model.CommitmentStatus(*rc.Status)
		}
	}
	if rc.TrustScore != nil {
		node.TrustScore = *rc.TrustScore
	}
	return node
}

func normalizeLiveness(live ledger.RawLiveness) model.CustodianHealth {
	h := model.CustodianHealth{}
	if live.UptimePercent != nil {
		h.UptimePercent = *live.UptimePercent
	}
	if live.LastSeenUnix != nil && *live.LastSeenUnix > 0 {
		h.LastSeen = time.Unix(*live.LastSeenUnix, 0).UTC()
	}
	if live.ResponseTimeMs != nil {
		h.ResponseTimeMs = *live.ResponseTimeMs
	}
	return h
}

func emptyStatus(operatorID string) model.FamilyCommunityProtectionStatus {
	return model.FamilyCommunityProtectionStatus{
		OperatorID:        operatorID,
		Strategy:          model.StrategyFullReplica,
		Custodians:        []model.CustodianNode{},
		Geographic:        []model.GeographicGroup{},
		TrustGraph:        []model.TrustEdge{},
		Level:             model.ProtectionVulnerable,
		EstimatedRecovery: "unable-to-recover",
	}
}
