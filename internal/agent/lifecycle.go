package agent

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

func (a *Agent) run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.scheduler.Run(gctx)
	})
	g.Go(func() error {
		return a.runProbeListener(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *Agent) shutdown(ctx context.Context) {
	if err := a.client.Close(ctx); err != nil {
		a.logger.Warn("ledger client close failed", "error", err)
	}
	a.health.SetLedgerConnected(false)
}
