// Package rpc is the arbiter's wire protocol. There is no protoc-generated
// stub for this service in this tree, so both the server and client speak
// google.golang.org/protobuf/types/known/structpb.Struct directly against
// a hand-built grpc.ServiceDesc, the same shape protoc-gen-go would
// otherwise produce. See DESIGN.md for why this was chosen over authoring
// generated code by hand.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/DesolationStaging/mediarm/policy"
	"github.com/DesolationStaging/mediarm/registry"
	"github.com/DesolationStaging/mediarm/resource"
	"github.com/DesolationStaging/mediarm/service"
	"github.com/DesolationStaging/mediarm/transport/callback"
)

const (
	ServiceName = "mediarm.v1.Arbiter"

	MethodConfig          = "/" + ServiceName + "/Config"
	MethodAddResource     = "/" + ServiceName + "/AddResource"
	MethodRemoveResource  = "/" + ServiceName + "/RemoveResource"
	MethodReclaimResource = "/" + ServiceName + "/ReclaimResource"
	MethodPing            = "/" + ServiceName + "/Ping"
	MethodSnapshot        = "/" + ServiceName + "/Snapshot"
	StreamSurrender       = "/" + ServiceName + "/Surrender"
)

// Server adapts a *service.Service and a callback.Registry to the
// grpc.ServiceDesc below.
type Server struct {
	svc *service.Service
	cb  *callback.Registry
}

// NewServer wires a Service and a callback Registry into an RPC server.
func NewServer(svc *service.Service, cb *callback.Registry) *Server {
	return &Server{svc: svc, cb: cb}
}

func (s *Server) config(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.svc.Config(decodeSettings(req.Fields["settings"]))
	return &structpb.Struct{}, nil
}

func (s *Server) addResource(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	pid := int32(req.Fields["pid"].GetNumberValue())
	clientID := int64(req.Fields["client_id"].GetNumberValue())
	if pid <= 0 || clientID == 0 {
		return nil, status.Error(codes.InvalidArgument, "pid and client_id are required")
	}
	resources, err := decodeResources(req.Fields["resources"])
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	handle, ok := s.cb.Lookup(clientID)
	if !ok {
		return nil, status.Errorf(codes.FailedPrecondition, "client %d has no open surrender stream", clientID)
	}
	s.svc.AddResource(pid, clientID, handle, resources)
	return &structpb.Struct{}, nil
}

func (s *Server) removeResource(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	clientID := int64(req.Fields["client_id"].GetNumberValue())
	s.svc.RemoveResource(clientID)
	return &structpb.Struct{}, nil
}

func (s *Server) reclaimResource(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	pid := int32(req.Fields["calling_pid"].GetNumberValue())
	resources, err := decodeResources(req.Fields["resources"])
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	granted := s.svc.ReclaimResource(ctx, pid, resources)
	resp, _ := structpb.NewStruct(map[string]interface{}{"granted": granted})
	return resp, nil
}

func (s *Server) ping(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{"ok": "pong"})
}

func (s *Server) snapshot(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return encodeSnapshot(s.svc.Snapshot())
}

func (s *Server) surrender(stream grpc.ServerStream) error {
	return s.cb.Serve(stream)
}

// ServiceDesc is the hand-rolled equivalent of what protoc-gen-go-grpc
// would emit for a service with these RPCs.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Config", Handler: unaryHandler(MethodConfig, func(s *Server) unaryFunc { return s.config })},
		{MethodName: "AddResource", Handler: unaryHandler(MethodAddResource, func(s *Server) unaryFunc { return s.addResource })},
		{MethodName: "RemoveResource", Handler: unaryHandler(MethodRemoveResource, func(s *Server) unaryFunc { return s.removeResource })},
		{MethodName: "ReclaimResource", Handler: unaryHandler(MethodReclaimResource, func(s *Server) unaryFunc { return s.reclaimResource })},
		{MethodName: "Ping", Handler: unaryHandler(MethodPing, func(s *Server) unaryFunc { return s.ping })},
		{MethodName: "Snapshot", Handler: unaryHandler(MethodSnapshot, func(s *Server) unaryFunc { return s.snapshot })},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Surrender",
			Handler:       func(srv interface{}, stream grpc.ServerStream) error { return srv.(*Server).surrender(stream) },
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "mediarm/v1/arbiter",
}

type unaryFunc func(context.Context, *structpb.Struct) (*structpb.Struct, error)

// unaryHandler adapts a (*Server) -> unaryFunc selector into a
// grpc.MethodDesc handler, decoding the request as structpb.Struct and
// running any registered interceptor exactly as generated code would, with
// fullMethod as the interceptor's UnaryServerInfo.FullMethod.
func unaryHandler(fullMethod string, pick func(*Server) unaryFunc) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		fn := pick(srv.(*Server))
		if interceptor == nil {
			return fn(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return fn(ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func decodeSettings(v *structpb.Value) []policy.Setting {
	list := v.GetListValue()
	if list == nil {
		return nil
	}
	out := make([]policy.Setting, 0, len(list.Values))
	for _, item := range list.Values {
		m := item.GetStructValue()
		if m == nil {
			continue
		}
		out = append(out, policy.Setting{
			Tag:   m.Fields["tag"].GetStringValue(),
			Value: uint64(m.Fields["value"].GetNumberValue()),
		})
	}
	return out
}

func encodeSettings(settings []policy.Setting) []interface{} {
	out := make([]interface{}, len(settings))
	for i, s := range settings {
		out[i] = map[string]interface{}{"tag": s.Tag, "value": float64(s.Value)}
	}
	return out
}

func decodeResources(v *structpb.Value) ([]resource.Resource, error) {
	list := v.GetListValue()
	if list == nil {
		return nil, nil
	}
	out := make([]resource.Resource, 0, len(list.Values))
	for _, item := range list.Values {
		m := item.GetStructValue()
		if m == nil {
			return nil, status.Error(codes.InvalidArgument, "resource entry must be an object")
		}
		tag := m.Fields["kind"].GetStringValue()
		kind, ok := resource.ParseKind(tag)
		if !ok {
			return nil, status.Errorf(codes.InvalidArgument, "unknown resource kind %q", tag)
		}
		out = append(out, resource.Resource{Kind: kind, Value: uint64(m.Fields["value"].GetNumberValue())})
	}
	return out, nil
}

func encodeResources(resources []resource.Resource) []interface{} {
	out := make([]interface{}, len(resources))
	for i, r := range resources {
		out[i] = map[string]interface{}{"kind": r.Kind.String(), "value": float64(r.Value)}
	}
	return out
}

func encodeSnapshot(snap registry.Snapshot) (*structpb.Struct, error) {
	buckets := make([]interface{}, len(snap.Buckets))
	for i, b := range snap.Buckets {
		clients := make([]interface{}, len(b.Clients))
		for j, c := range b.Clients {
			clients[j] = map[string]interface{}{
				"client_id": float64(c.ClientID),
				"resources": encodeResources(c.Resources),
			}
		}
		buckets[i] = map[string]interface{}{"pid": float64(b.PID), "clients": clients}
	}
	return structpb.NewStruct(map[string]interface{}{"buckets": buckets})
}

func decodeSnapshot(s *structpb.Struct) registry.Snapshot {
	list := s.Fields["buckets"].GetListValue()
	if list == nil {
		return registry.Snapshot{}
	}
	out := registry.Snapshot{Buckets: make([]registry.BucketSnapshot, 0, len(list.Values))}
	for _, item := range list.Values {
		bm := item.GetStructValue()
		if bm == nil {
			continue
		}
		bucket := registry.BucketSnapshot{PID: int32(bm.Fields["pid"].GetNumberValue())}
		clientList := bm.Fields["clients"].GetListValue()
		if clientList != nil {
			for _, c := range clientList.Values {
				cm := c.GetStructValue()
				if cm == nil {
					continue
				}
				resources, _ := decodeResources(cm.Fields["resources"])
				bucket.Clients = append(bucket.Clients, registry.ClientSnapshot{
					ClientID:  int64(cm.Fields["client_id"].GetNumberValue()),
					Resources: resources,
				})
			}
		}
		out.Buckets = append(out.Buckets, bucket)
	}
	return out
}
