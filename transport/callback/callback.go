// Package callback implements clienthandle.Handle over a gRPC bidi
// stream: a client opens one long-lived "Surrender" stream per registered
// ClientID, and the daemon uses it to ask that client to give up its
// resources on demand. There is no protoc-generated stub for this
// service; both ends speak structpb.Struct directly against a hand-built
// grpc.StreamDesc (see transport/rpc.ServiceDesc).
package callback

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/DesolationStaging/mediarm/clienthandle"
)

// Registry tracks the open Surrender streams, keyed by ClientID.
type Registry struct {
	mu       sync.Mutex
	byClient map[int64]*streamHandle
}

// NewRegistry returns an empty, ready-to-use Registry.
func NewRegistry() *Registry {
	return &Registry{byClient: make(map[int64]*streamHandle)}
}

// Lookup returns the clienthandle.Handle registered for clientID, if its
// Surrender stream is currently open.
func (r *Registry) Lookup(clientID int64) (clienthandle.Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.byClient[clientID]
	return h, ok
}

// Serve runs the server side of one client's Surrender stream until the
// client disconnects or the stream errors. It blocks; call it from the
// grpc.StreamDesc handler.
func (r *Registry) Serve(stream grpc.ServerStream) error {
	var reg structpb.Struct
	if err := stream.RecvMsg(&reg); err != nil {
		return err
	}
	clientID := int64(reg.Fields["client_id"].GetNumberValue())
	if clientID == 0 {
		return fmt.Errorf("callback: registration message missing client_id")
	}

	h := &streamHandle{clientID: clientID, stream: stream}
	r.mu.Lock()
	r.byClient[clientID] = h
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.byClient, clientID)
		r.mu.Unlock()
	}()

	<-stream.Context().Done()
	return stream.Context().Err()
}

// streamHandle is the daemon-side clienthandle.Handle for one client's
// Surrender stream. Surrender pushes a request down the stream and waits
// for the matching reply. Surrender runs outside the arbiter's lock, so two
// concurrent reclamations may pick the same client; mu serializes their
// Surrender calls on this handle so only one request is in flight at a time.
type streamHandle struct {
	clientID int64
	mu       sync.Mutex
	stream   grpc.ServerStream
}

// Surrender implements clienthandle.Handle.
func (h *streamHandle) Surrender(ctx context.Context) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	req, err := structpb.NewStruct(map[string]interface{}{"surrender": true})
	if err != nil {
		return false
	}
	if err := h.stream.SendMsg(req); err != nil {
		return false
	}

	reply := new(structpb.Struct)
	done := make(chan error, 1)
	go func() { done <- h.stream.RecvMsg(reply) }()

	select {
	case err := <-done:
		if err != nil {
			return false
		}
		return reply.Fields["ok"].GetBoolValue()
	case <-ctx.Done():
		return false
	}
}

// ClientLoop runs the client side of a Surrender stream: it registers
// clientID, then blocks handling surrender requests with surrender until
// the stream ends. Callers typically run this in its own goroutine for
// the lifetime of the client process.
//
// If ready is non-nil, it is closed once the registration message has been
// sent, so a caller can wait for it before issuing calls (like AddResource)
// that require the registration to already be visible server-side.
func ClientLoop(ctx context.Context, stream grpc.ClientStream, clientID int64, ready chan<- struct{}, surrender func(context.Context) bool) error {
	reg, err := structpb.NewStruct(map[string]interface{}{"client_id": float64(clientID)})
	if err != nil {
		return err
	}
	if err := stream.SendMsg(reg); err != nil {
		return err
	}
	if ready != nil {
		close(ready)
	}

	for {
		req := new(structpb.Struct)
		if err := stream.RecvMsg(req); err != nil {
			return err
		}
		ok := surrender(ctx)
		reply, err := structpb.NewStruct(map[string]interface{}{"ok": ok})
		if err != nil {
			return err
		}
		if err := stream.SendMsg(reply); err != nil {
			return err
		}
	}
}
