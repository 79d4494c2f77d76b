package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/DesolationStaging/mediarm/resource"
	"github.com/DesolationStaging/mediarm/transport/rpc"
)

// TestHoldWaitsForStreamRegistrationBeforeAddResource guards against the
// race where Hold calls AddResource before the Surrender stream's
// registration message has gone out: the daemon rejects AddResource with
// FailedPrecondition until it sees that registration.
func TestHoldWaitsForStreamRegistrationBeforeAddResource(t *testing.T) {
	var mu sync.Mutex
	var addResourceCalls int
	var stream *fakeClientStream
	added := make(chan struct{}, 1)

	stubDaemon(t, true, func(ctx context.Context) (*rpc.Client, daemonConn, error) {
		conn := &fakeConn{
			invoke: func(ctx context.Context, method string, args interface{}, reply interface{}, opts ...grpc.CallOption) error {
				if method == rpc.MethodAddResource {
					mu.Lock()
					addResourceCalls++
					sent := stream.sentMessages()
					mu.Unlock()
					if len(sent) == 0 {
						t.Errorf("AddResource called before the Surrender stream registered")
					}
					select {
					case added <- struct{}{}:
					default:
					}
				}
				return nil
			},
			newStream: func(ctx context.Context, desc *grpc.StreamDesc, method string, opts ...grpc.CallOption) (grpc.ClientStream, error) {
				mu.Lock()
				stream = &fakeClientStream{ctx: ctx}
				mu.Unlock()
				return stream, nil
			},
		}
		return rpc.NewClient(conn), conn, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := New(Options{})
	errc := make(chan error, 1)
	go func() {
		errc <- app.Hold(ctx, HoldParams{
			PID:         10,
			ClientID:    1,
			Resources:   []ResourceSpec{{Kind: "secure-codec", Value: 1}},
			DialTimeout: time.Second,
		})
	}()

	select {
	case <-added:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for AddResource to be called")
	}

	// Hold has already declared resources and moved into its final select;
	// canceling now exercises the ctx.Done() return path deterministically
	// rather than racing it against the stream's own error.
	cancel()

	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Hold to return")
	}

	mu.Lock()
	defer mu.Unlock()
	if addResourceCalls != 1 {
		t.Fatalf("expected exactly one AddResource call, got %d", addResourceCalls)
	}
	if stream == nil || len(stream.sentMessages()) == 0 {
		t.Fatal("expected the Surrender stream to have sent a registration message")
	}
}

func TestAddResourceWithRetrySucceedsAfterFailedPrecondition(t *testing.T) {
	var calls int
	conn := &fakeConn{
		invoke: func(ctx context.Context, method string, args interface{}, reply interface{}, opts ...grpc.CallOption) error {
			calls++
			if calls == 1 {
				return status.Error(codes.FailedPrecondition, "client has no open surrender stream")
			}
			return nil
		},
	}
	client := rpc.NewClient(conn)

	err := addResourceWithRetry(context.Background(), client, 10, 1, []resource.Resource{{Kind: resource.SecureCodec, Value: 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected AddResource to be retried once, got %d calls", calls)
	}
}

func TestAddResourceWithRetryDoesNotMaskOtherErrors(t *testing.T) {
	var calls int
	conn := &fakeConn{
		invoke: func(ctx context.Context, method string, args interface{}, reply interface{}, opts ...grpc.CallOption) error {
			calls++
			return errors.New("boom")
		},
	}
	client := rpc.NewClient(conn)

	err := addResourceWithRetry(context.Background(), client, 10, 1, nil)
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected no retry for a non-FailedPrecondition error, got %d calls", calls)
	}
}
