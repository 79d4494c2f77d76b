package app

import (
	"context"
	"time"

	"github.com/DesolationStaging/mediarm/transport/rpc"
)

// RemoveResource withdraws a client's declaration by id.
func (a *App) RemoveResource(ctx context.Context, clientID int64, timeout time.Duration) error {
	return a.withClient(ctx, timeout, func(ctx context.Context, client *rpc.Client) error {
		return client.RemoveResource(ctx, clientID)
	})
}
