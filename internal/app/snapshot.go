package app

import (
	"context"
	"time"

	"github.com/DesolationStaging/mediarm/registry"
	"github.com/DesolationStaging/mediarm/transport/rpc"
)

// Snapshot fetches a read-only copy of the daemon's current registry
// state, for status reporting and the live monitor.
func (a *App) Snapshot(ctx context.Context, timeout time.Duration) (registry.Snapshot, error) {
	var snap registry.Snapshot
	err := a.withClient(ctx, timeout, func(ctx context.Context, client *rpc.Client) error {
		var err error
		snap, err = client.Snapshot(ctx)
		return err
	})
	return snap, err
}
