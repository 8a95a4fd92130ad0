// Package dashboard combines the engine components' latest outputs into
// one consistent published snapshot per refresh interval.
package dashboard

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"sheafa-accounting-agent/internal/bus"
	"sheafa-accounting-agent/internal/model"
)

type MetricsSource interface {
	Sample(ctx context.Context, operatorID string) model.ComputeMetrics
}

type AllocationSource interface {
	Resolve(ctx context.Context, resourceID string) model.AllocationSnapshot
}

type ProtectionSource interface {
	Assess(ctx context.Context, operatorID string) model.FamilyCommunityProtectionStatus
}

type TokenSource interface {
	Balance(ctx context.Context, operatorID string) model.InfrastructureTokenBalance
}

type LimitsEvaluator interface {
	Evaluate(metrics model.ComputeMetrics, tokens model.InfrastructureTokenBalance) model.ConstitutionalLimitsStatus
}

// Aggregator owns SheafaDashboardState exclusively: every refresh builds
// a complete new value and replaces the published one wholesale.
type Aggregator struct {
	operatorID string
	resourceID string
	startedAt  time.Time
	logger     *slog.Logger

	metrics    MetricsSource
	allocation AllocationSource
	protection ProtectionSource
	tokens     TokenSource
	limits     LimitsEvaluator

	feed *bus.Feed[model.SheafaDashboardState]
}

func NewAggregator(
	operatorID, resourceID string,
	metrics MetricsSource,
	allocation AllocationSource,
	protection ProtectionSource,
	tokens TokenSource,
	limits LimitsEvaluator,
	logger *slog.Logger,
) *Aggregator {
	return &Aggregator{
		operatorID: operatorID,
		resourceID: resourceID,
		startedAt:  time.Now().UTC(),
		logger:     logger,
		metrics:    metrics,
		allocation: allocation,
		protection: protection,
		tokens:     tokens,
		limits:     limits,
		feed:       bus.NewFeed[model.SheafaDashboardState](),
	}
}

// Refresh fans out the component fetches concurrently, joins them, and
// publishes a complete new state. Sub-fetches default internally rather
// than failing, so the dashboard always publishes something; a canceled
// context degrades to the last published (or empty) state without
// publishing.
func (a *Aggregator) Refresh(ctx context.Context) model.SheafaDashboardState {
	var (
		metrics    model.ComputeMetrics
		allocation model.AllocationSnapshot
		protection model.FamilyCommunityProtectionStatus
		tokens     model.InfrastructureTokenBalance
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		metrics = a.metrics.Sample(gctx, a.operatorID)
		return nil
	})
	g.Go(func() error {
		allocation = a.allocation.Resolve(gctx, a.resourceID)
		return nil
	})
	g.Go(func() error {
		protection = a.protection.Assess(gctx, a.operatorID)
		return nil
	})
	g.Go(func() error {
		tokens = a.tokens.Balance(gctx, a.operatorID)
		return nil
	})
	_ = g.Wait()

	if ctx.Err() != nil {
		// refresh canceled mid-flight: discard results
		if last, ok := a.feed.Latest(); ok {
			return last
		}
		return a.emptyState()
	}

	state := model.SheafaDashboardState{
		OperatorID:  a.operatorID,
		NodeStatus:  nodeStatus(metrics),
		UptimeSecs:  int64(time.Since(a.startedAt).Seconds()),
		RefreshedAt: time.Now().UTC(),
		Metrics:     metrics,
		Allocation:  allocation,
		Protection:  protection,
		Tokens:      tokens,
		Limits:      a.limits.Evaluate(metrics, tokens),
	}

	a.feed.Publish(state)
	return state
}

// Latest returns the last published state; consumers never observe a
// partially built one.
func (a *Aggregator) Latest() (model.SheafaDashboardState, bool) {
	return a.feed.Latest()
}

func (a *Aggregator) Subscribe(buffer int) (string, <-chan model.SheafaDashboardState) {
	return a.feed.Subscribe(buffer)
}

func (a *Aggregator) Unsubscribe(id string) bool {
	return a.feed.Unsubscribe(id)
}

// nodeStatus marks the node degraded when the metrics snapshot is the
// canonical zero value, which only a telemetry fetch failure produces.
func nodeStatus(metrics model.ComputeMetrics) model.NodeStatus {
	if metrics.CPU.TotalCores == 0 && metrics.Memory.TotalGB == 0 && metrics.Storage.TotalGB == 0 {
		return model.NodeDegraded
	}
	return model.NodeOnline
}

func (a *Aggregator) emptyState() model.SheafaDashboardState {
	return model.SheafaDashboardState{
		OperatorID:  a.operatorID,
		NodeStatus:  model.NodeOffline,
		UptimeSecs:  int64(time.Since(a.startedAt).Seconds()),
		RefreshedAt: time.Now().UTC(),
	}
}
