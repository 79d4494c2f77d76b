package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/DesolationStaging/mediarm/transport/rpc"
)

// fakeConn is a grpc.ClientConnInterface double, letting tests dispatch
// Invoke and NewStream without a real socket.
type fakeConn struct {
	invoke    func(ctx context.Context, method string, args interface{}, reply interface{}, opts ...grpc.CallOption) error
	newStream func(ctx context.Context, desc *grpc.StreamDesc, method string, opts ...grpc.CallOption) (grpc.ClientStream, error)
}

func (f *fakeConn) Invoke(ctx context.Context, method string, args interface{}, reply interface{}, opts ...grpc.CallOption) error {
	if f.invoke != nil {
		return f.invoke(ctx, method, args, reply, opts...)
	}
	return nil
}

func (f *fakeConn) NewStream(ctx context.Context, desc *grpc.StreamDesc, method string, opts ...grpc.CallOption) (grpc.ClientStream, error) {
	if f.newStream != nil {
		return f.newStream(ctx, desc, method, opts...)
	}
	return nil, errors.New("not implemented")
}

func (f *fakeConn) Close() error { return nil }

// fakeClientStream is a minimal grpc.ClientStream double for the Surrender
// stream: it records every SendMsg (the registration message, then any
// surrender replies) and blocks RecvMsg until the stream's context ends,
// since these tests never have the daemon push a surrender request.
type fakeClientStream struct {
	ctx context.Context

	mu   sync.Mutex
	sent []*structpb.Struct
}

func (f *fakeClientStream) Header() (metadata.MD, error) { return nil, nil }
func (f *fakeClientStream) Trailer() metadata.MD          { return nil }
func (f *fakeClientStream) CloseSend() error              { return nil }
func (f *fakeClientStream) Context() context.Context      { return f.ctx }

func (f *fakeClientStream) SendMsg(m interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := m.(*structpb.Struct); ok {
		f.sent = append(f.sent, s)
	}
	return nil
}

func (f *fakeClientStream) RecvMsg(m interface{}) error {
	<-f.ctx.Done()
	return f.ctx.Err()
}

func (f *fakeClientStream) sentMessages() []*structpb.Struct {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*structpb.Struct(nil), f.sent...)
}

func stubDaemon(t *testing.T, running bool, dial func(context.Context) (*rpc.Client, daemonConn, error)) {
	t.Helper()
	resetDaemonDeps()
	daemonIsRunning = func() bool { return running }
	if dial == nil {
		dial = func(context.Context) (*rpc.Client, daemonConn, error) {
			return nil, nil, errors.New("dial not stubbed")
		}
	}
	dialDaemonClient = dial
	t.Cleanup(resetDaemonDeps)
}
