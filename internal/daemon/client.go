package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/DesolationStaging/mediarm/transport/rpc"
)

// envDialBaseBackoff overrides the base delay gRPC waits between reconnect
// attempts against the daemon's UNIX socket. The daemon's socket can
// legitimately be absent for a moment during a restart (see StartDaemon's
// stale-socket cleanup), so a short base backoff lets mediarmctl/mediarm-top
// recover from that window quickly instead of waiting out gRPC's much
// longer HTTP-service default.
const envDialBaseBackoff = "MEDIARM_DIAL_BASE_BACKOFF"

const defaultDialBaseBackoff = 100 * time.Millisecond

// Dial opens a gRPC connection to the daemon over the UNIX socket and
// returns a typed rpc.Client bound to it. Callers own the returned
// *grpc.ClientConn and must Close it.
func Dial(ctx context.Context) (*rpc.Client, *grpc.ClientConn, error) {
	target := socketTarget()
	conn, err := grpc.NewClient(
		target,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(unixDialer),
		grpc.WithConnectParams(grpc.ConnectParams{Backoff: dialBackoffConfig()}),
	)
	if err != nil {
		return nil, nil, err
	}
	conn.Connect()
	if err := waitForReady(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return rpc.NewClient(conn), conn, nil
}

func dialBackoffConfig() backoff.Config {
	cfg := backoff.DefaultConfig
	cfg.BaseDelay = defaultDialBaseBackoff
	if v := os.Getenv(envDialBaseBackoff); v != "" {
		if dur, err := time.ParseDuration(v); err == nil && dur > 0 {
			cfg.BaseDelay = dur
		}
	}
	return cfg
}

func socketTarget() string {
	path := SocketPath()
	if trimmed, ok := strings.CutPrefix(path, "/"); ok {
		return "unix:///" + trimmed
	}
	return "unix://" + path
}

func unixDialer(ctx context.Context, addr string) (net.Conn, error) {
	if trimmed, ok := strings.CutPrefix(addr, "unix://"); ok {
		addr = trimmed
	}
	if addr == "" {
		addr = SocketPath()
	}
	var d net.Dialer
	return d.DialContext(ctx, "unix", addr)
}

func waitForReady(ctx context.Context, conn *grpc.ClientConn) error {
	for {
		switch state := conn.GetState(); state {
		case connectivity.Ready:
			return nil
		case connectivity.Shutdown:
			return errors.New("grpc connection is shut down")
		default:
			if !conn.WaitForStateChange(ctx, state) {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("grpc connection stuck in state %s", state.String())
			}
		}
	}
}
