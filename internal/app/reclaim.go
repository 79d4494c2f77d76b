package app

import (
	"context"
	"fmt"
	"time"

	"github.com/DesolationStaging/mediarm/transport/rpc"
)

// ReclaimParams configures a reclaim request issued on behalf of a calling
// process.
type ReclaimParams struct {
	CallingPID int32
	Resources  []ResourceSpec
	Timeout    time.Duration
}

// Reclaim asks the daemon to make room for the requested resources,
// evicting lower-priority holders if the arbitration decision allows it.
func (a *App) Reclaim(ctx context.Context, params ReclaimParams) (bool, error) {
	resources, err := toDomainResources(params.Resources)
	if err != nil {
		return false, err
	}
	if params.CallingPID <= 0 {
		return false, fmt.Errorf("invalid pid %d", params.CallingPID)
	}

	var granted bool
	err = a.withClient(ctx, params.Timeout, func(ctx context.Context, client *rpc.Client) error {
		var err error
		granted, err = client.ReclaimResource(ctx, params.CallingPID, resources)
		return err
	})
	return granted, err
}
