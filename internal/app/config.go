package app

import (
	"context"
	"time"

	"github.com/DesolationStaging/mediarm/policy"
	"github.com/DesolationStaging/mediarm/transport/rpc"
)

// SetPolicy applies policy settings on the running daemon.
func (a *App) SetPolicy(ctx context.Context, settings []policy.Setting, timeout time.Duration) error {
	return a.withClient(ctx, timeout, func(ctx context.Context, client *rpc.Client) error {
		return client.Config(ctx, settings)
	})
}
