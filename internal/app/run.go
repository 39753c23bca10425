package app

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Run serves /health and /metrics and, if watch is set, reloads the addons
// whenever a manifest changes. It returns when ctx is cancelled or either
// task fails; a failure stops the other task too. Boot must have run.
func (a *App) Run(ctx context.Context, watch bool) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Serve(ctx) })
	if watch {
		g.Go(func() error { return a.Watch(ctx) })
	}
	return g.Wait()
}
