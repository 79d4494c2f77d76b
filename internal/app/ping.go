package app

import (
	"context"
	"time"

	"github.com/DesolationStaging/mediarm/transport/rpc"
)

// Ping contacts the daemon and returns its health response.
func (a *App) Ping(ctx context.Context, timeout time.Duration) (string, error) {
	var out string
	err := a.withClient(ctx, timeout, func(ctx context.Context, client *rpc.Client) error {
		msg, err := client.Ping(ctx)
		if err != nil {
			return err
		}
		out = msg
		return nil
	})
	return out, err
}
