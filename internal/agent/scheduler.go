package agent

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"sheafa-accounting-agent/internal/config"
	"sheafa-accounting-agent/internal/model"
)

// Scheduler drives the three periodic concerns on their own tickers:
// dashboard refresh, economic event emission, and protection
// reassessment. Each loop runs one synchronous tick at a time, so no
// concern ever has two ticks in flight.
type Scheduler struct {
	agent  *Agent
	logger *slog.Logger
}

func NewScheduler(agent *Agent, logger *slog.Logger) *Scheduler {
	return &Scheduler{agent: agent, logger: logger}
}

func (s *Scheduler) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.runRefreshLoop(gctx)
	})
	g.Go(func() error {
		return s.runEventLoop(gctx)
	})
	g.Go(func() error {
		return s.runProtectionLoop(gctx)
	})
	return g.Wait()
}

func (s *Scheduler) runRefreshLoop(ctx context.Context) error {
	degraded := s.refresh(ctx)

	for {
		t := time.NewTimer(refreshDelay(s.agent.Config(), degraded))
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
			degraded = s.refresh(ctx)
		}
	}
}

// refreshDelay shortens the wait after a degraded refresh so ledger
// recovery is observed well before the next full interval.
func refreshDelay(cfg config.Config, degraded bool) time.Duration {
	if degraded && cfg.ErrorBackoff > 0 && cfg.ErrorBackoff < cfg.RefreshInterval {
		return cfg.ErrorBackoff
	}
	return cfg.RefreshInterval
}

func (s *Scheduler) refresh(ctx context.Context) bool {
	state := s.agent.aggregator.Refresh(ctx)
	if ctx.Err() != nil {
		return false
	}
	s.agent.health.MarkRefresh(state.RefreshedAt)
	s.agent.health.SetLedgerConnected(state.NodeStatus != model.NodeDegraded)
	s.agent.metrics.ObserveState(state)
	return state.NodeStatus == model.NodeDegraded
}

func (s *Scheduler) runEventLoop(ctx context.Context) error {
	for {
		interval := s.agent.Config().EventInterval
		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
			cfg := s.agent.Config()
			batch := s.agent.generator.Tick(ctx, cfg.OperatorID, cfg.ResourceID)
			if len(batch) > 0 {
				s.agent.health.MarkEventBatch(time.Now().UTC())
				s.agent.metrics.EventBatchesSent.Inc()
				s.agent.metrics.EventsEmitted.Add(float64(len(batch)))
				s.logger.Debug("economic event batch persisted", "count", len(batch))
			}
		}
	}
}

func (s *Scheduler) runProtectionLoop(ctx context.Context) error {
	var lastLevel model.ProtectionLevel

	for {
		interval := s.agent.Config().ProtectionInterval
		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
			cfg := s.agent.Config()
			status := s.agent.protection.Assess(ctx, cfg.OperatorID)
			if ctx.Err() != nil {
				return nil
			}
			s.agent.health.MarkProtection(time.Now().UTC())
			if status.Level != lastLevel {
				s.logger.Info("protection level changed",
					"from", lastLevel,
					"to", status.Level,
					"custodians", len(status.Custodians),
				)
				lastLevel = status.Level
			}
		}
	}
}
