package app

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/DesolationStaging/mediarm/resource"
	"github.com/DesolationStaging/mediarm/transport/rpc"
)

// addResourceRetryDelay bounds how long addResourceWithRetry waits before
// its one retry, giving the daemon a moment to finish registering the
// Surrender stream if it hadn't already by the time streamReady fired.
const addResourceRetryDelay = 20 * time.Millisecond

// addResourceWithRetry calls AddResource, retrying once on
// codes.FailedPrecondition. streamReady only tells us the client's
// registration message was handed to the transport, not that the daemon
// has finished processing it; a single short retry absorbs that residual
// gap without masking a genuine "stream never opened" failure.
func addResourceWithRetry(ctx context.Context, client *rpc.Client, pid int32, clientID int64, resources []resource.Resource) error {
	err := client.AddResource(ctx, pid, clientID, resources)
	if err == nil || status.Code(err) != codes.FailedPrecondition {
		return err
	}
	select {
	case <-time.After(addResourceRetryDelay):
	case <-ctx.Done():
		return err
	}
	return client.AddResource(ctx, pid, clientID, resources)
}

// HoldParams configures a long-lived client session that declares
// resources and stays reachable for the daemon to ask it to surrender
// them.
type HoldParams struct {
	PID         int32
	ClientID    int64
	Resources   []ResourceSpec
	DialTimeout time.Duration
	// OnSurrender is invoked whenever the daemon asks this client to give
	// up its resources; its return value is reported back as the
	// surrender's outcome. A nil OnSurrender always succeeds.
	OnSurrender func() bool
}

// Hold opens this client's Surrender stream, declares its resources, and
// blocks until ctx is canceled, at which point it withdraws its
// declaration and returns. It is meant to be run for the lifetime of a
// process that wants to hold onto media resources.
func (a *App) Hold(ctx context.Context, params HoldParams) error {
	resources, err := toDomainResources(params.Resources)
	if err != nil {
		return err
	}
	if params.PID <= 0 || params.ClientID == 0 {
		return fmt.Errorf("pid must be positive and client id non-zero, got pid=%d client_id=%d", params.PID, params.ClientID)
	}

	dialCtx, cancel := context.WithTimeout(ctx, params.DialTimeout)
	client, conn, err := dialDaemonClient(dialCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("connect to daemon: %w", err)
	}
	defer conn.Close()

	surrender := params.OnSurrender
	if surrender == nil {
		surrender = func() bool { return true }
	}

	streamReady := make(chan struct{})
	streamErr := make(chan error, 1)
	go func() {
		streamErr <- rpc.OpenSurrenderStream(ctx, conn, params.ClientID, streamReady, func(context.Context) bool { return surrender() })
	}()

	// Wait for the client's registration to go out on the Surrender stream
	// before declaring resources: the daemon rejects AddResource for a
	// client with no registered stream. If the stream fails outright before
	// registering, report that instead of a confusing FailedPrecondition.
	select {
	case <-streamReady:
	case err := <-streamErr:
		if err != nil {
			return fmt.Errorf("open surrender stream: %w", err)
		}
	case <-ctx.Done():
		return nil
	}

	if err := addResourceWithRetry(ctx, client, params.PID, params.ClientID, resources); err != nil {
		return fmt.Errorf("declare resources: %w", err)
	}
	defer func() {
		removeCtx, cancel := context.WithTimeout(context.Background(), params.DialTimeout)
		defer cancel()
		_ = client.RemoveResource(removeCtx, params.ClientID)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-streamErr:
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
}
