package daemon

import (
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/DesolationStaging/mediarm/internal/config"
	"github.com/DesolationStaging/mediarm/policy"
	"github.com/DesolationStaging/mediarm/priority"
	"github.com/DesolationStaging/mediarm/service"
	"github.com/DesolationStaging/mediarm/transport/callback"
	"github.com/DesolationStaging/mediarm/transport/rpc"
)

// Server wraps the UNIX listener and the underlying gRPC server.
type Server struct {
	ln       net.Listener
	path     string
	grpcSrv  *grpc.Server
	Service  *service.Service
	Callback *callback.Registry
}

// Close stops the server and unlinks the socket.
func (s *Server) Close() error {
	if s.grpcSrv != nil {
		s.grpcSrv.GracefulStop()
	}
	if s.path != "" {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return RemovePID()
}

// StartDaemon binds the UNIX socket, loads the arbiter's config, and
// starts serving the Arbiter gRPC service in the background.
func StartDaemon(configPath string) (*Server, error) {
	if err := EnsureRuntimeDir(); err != nil {
		return nil, err
	}
	path := SocketPath()

	if _, err := os.Stat(path); err == nil && !IsRunning() {
		if err := os.Remove(path); err != nil {
			return nil, err
		}
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		ln.Close()
		return nil, err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		ln.Close()
		return nil, err
	}

	svc := service.New(priority.NewProcOracle())
	svc.Config([]policy.Setting{
		{Tag: "supports-multiple-secure-codecs", Value: boolValue(cfg.Flags.SupportsMultipleSecureCodecs)},
		{Tag: "supports-secure-with-non-secure-codec", Value: boolValue(cfg.Flags.SupportsSecureWithNonSecureCodec)},
	})

	cb := callback.NewRegistry()
	rpcSrv := rpc.NewServer(svc, cb)

	grpcSrv := grpc.NewServer()
	grpcSrv.RegisterService(&rpc.ServiceDesc, rpcSrv)

	s := &Server{ln: ln, path: path, grpcSrv: grpcSrv, Service: svc, Callback: cb}
	if err := WritePID(os.Getpid()); err != nil {
		s.Close()
		return nil, err
	}
	go grpcSrv.Serve(ln)
	return s, nil
}

func boolValue(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// StopRunningDaemon sends a termination signal to the currently running daemon, if any.
func StopRunningDaemon(force bool) error {
	pid, err := RunningPID()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if IsRunning() {
				return fmt.Errorf("daemon is running but PID file %q is missing; stop it manually", PIDPath())
			}
			return nil
		}
		return fmt.Errorf("unable to read daemon PID: %w", err)
	}
	if pid == os.Getpid() {
		return errors.New("refusing to stop current process")
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	if err := sendSignal(proc, syscall.SIGTERM); err != nil {
		return err
	}
	if waitForShutdown(3 * time.Second) {
		return nil
	}
	if !force {
		return fmt.Errorf("daemon process %d did not exit after SIGTERM", pid)
	}
	if err := sendSignal(proc, syscall.SIGKILL); err != nil {
		return err
	}
	if waitForShutdown(2 * time.Second) {
		return nil
	}
	return fmt.Errorf("daemon process %d did not exit after SIGKILL", pid)
}

func sendSignal(proc *os.Process, sig syscall.Signal) error {
	if err := proc.Signal(sig); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			_ = RemovePID()
			return nil
		}
		return err
	}
	return nil
}

func waitForShutdown(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if !IsRunning() {
			_ = RemovePID()
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(100 * time.Millisecond)
	}
}
