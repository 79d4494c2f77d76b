package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/grpc"

	"github.com/DesolationStaging/mediarm/internal/daemon"
	"github.com/DesolationStaging/mediarm/transport/rpc"
)

// daemonConn is the subset of *grpc.ClientConn that app needs from a
// dialed connection: closing it, and (for Hold) opening the Surrender
// stream directly. Naming it lets tests substitute a fake that satisfies
// both without pulling in a real *grpc.ClientConn.
type daemonConn interface {
	grpc.ClientConnInterface
	io.Closer
}

var (
	daemonIsRunning  = daemon.IsRunning
	dialDaemonClient = func(ctx context.Context) (*rpc.Client, daemonConn, error) {
		return daemon.Dial(ctx)
	}
)

func resetDaemonDeps() {
	daemonIsRunning = daemon.IsRunning
	dialDaemonClient = func(ctx context.Context) (*rpc.Client, daemonConn, error) {
		return daemon.Dial(ctx)
	}
}

func (a *App) withClient(ctx context.Context, timeout time.Duration, fn func(context.Context, *rpc.Client) error) error {
	if timeout <= 0 {
		return errors.New("timeout must be greater than 0")
	}
	if !daemonIsRunning() {
		return errors.New("daemon is not running")
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, conn, err := dialDaemonClient(ctx)
	if err != nil {
		return fmt.Errorf("connect to daemon: %w", err)
	}
	if conn != nil {
		defer conn.Close()
	}

	return fn(ctx, client)
}
