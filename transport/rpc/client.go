package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/DesolationStaging/mediarm/policy"
	"github.com/DesolationStaging/mediarm/registry"
	"github.com/DesolationStaging/mediarm/resource"
	"github.com/DesolationStaging/mediarm/transport/callback"
)

// Client is a typed wrapper over a grpc.ClientConnInterface, playing the
// role protoc-gen-go-grpc's generated client would.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps any grpc.ClientConnInterface (a *grpc.ClientConn in
// production, a fake in tests).
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Ping checks daemon liveness.
func (c *Client) Ping(ctx context.Context) (string, error) {
	resp := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodPing, &structpb.Struct{}, resp); err != nil {
		return "", err
	}
	return resp.Fields["ok"].GetStringValue(), nil
}

// Config applies policy settings on the daemon.
func (c *Client) Config(ctx context.Context, settings []policy.Setting) error {
	req, err := structpb.NewStruct(map[string]interface{}{"settings": encodeSettings(settings)})
	if err != nil {
		return err
	}
	return c.cc.Invoke(ctx, MethodConfig, req, &structpb.Struct{})
}

// AddResource declares resources for a client already registered on its
// Surrender stream (see OpenSurrenderStream).
func (c *Client) AddResource(ctx context.Context, pid int32, clientID int64, resources []resource.Resource) error {
	req, err := structpb.NewStruct(map[string]interface{}{
		"pid":       float64(pid),
		"client_id": float64(clientID),
		"resources": encodeResources(resources),
	})
	if err != nil {
		return err
	}
	return c.cc.Invoke(ctx, MethodAddResource, req, &structpb.Struct{})
}

// RemoveResource withdraws a client's declaration.
func (c *Client) RemoveResource(ctx context.Context, clientID int64) error {
	req, err := structpb.NewStruct(map[string]interface{}{"client_id": float64(clientID)})
	if err != nil {
		return err
	}
	return c.cc.Invoke(ctx, MethodRemoveResource, req, &structpb.Struct{})
}

// ReclaimResource asks the daemon to make room for requested resources on
// callingPid's behalf and reports whether it succeeded.
func (c *Client) ReclaimResource(ctx context.Context, callingPid int32, requested []resource.Resource) (bool, error) {
	req, err := structpb.NewStruct(map[string]interface{}{
		"calling_pid": float64(callingPid),
		"resources":   encodeResources(requested),
	})
	if err != nil {
		return false, err
	}
	resp := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodReclaimResource, req, resp); err != nil {
		return false, err
	}
	return resp.Fields["granted"].GetBoolValue(), nil
}

// Snapshot fetches a read-only copy of the current registry state.
func (c *Client) Snapshot(ctx context.Context) (registry.Snapshot, error) {
	resp := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodSnapshot, &structpb.Struct{}, resp); err != nil {
		return registry.Snapshot{}, err
	}
	return decodeSnapshot(resp), nil
}

// surrenderStreamDesc is used by callers that need direct access to
// conn.NewStream (Client only exposes the unary calls above, since the
// Surrender stream has an unusual client-drives-the-registration,
// server-drives-the-requests shape that doesn't fit a single method).
var surrenderStreamDesc = &grpc.StreamDesc{
	StreamName:    "Surrender",
	ServerStreams: true,
	ClientStreams: true,
}

// OpenSurrenderStream opens this client's Surrender stream and runs its
// receive loop until ctx is canceled or the connection drops, calling
// surrender for every request the daemon sends. It blocks; run it in its
// own goroutine before declaring any resources with this clientID.
//
// If ready is non-nil, it is closed once the client's registration message
// has gone out on the stream, so a caller can wait for it before calling
// AddResource, which the daemon rejects until this client's stream is
// registered.
func OpenSurrenderStream(ctx context.Context, cc grpc.ClientConnInterface, clientID int64, ready chan<- struct{}, surrender func(context.Context) bool) error {
	stream, err := cc.NewStream(ctx, surrenderStreamDesc, StreamSurrender)
	if err != nil {
		return err
	}
	return callback.ClientLoop(ctx, stream, clientID, ready, surrender)
}
