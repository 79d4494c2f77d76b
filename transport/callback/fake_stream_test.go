package callback

import (
	"context"

	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// fakeServerStream is a minimal grpc.ServerStream double: it replays
// recvQueue as decoded structpb.Struct messages and records everything
// sent through SendMsg.
type fakeServerStream struct {
	ctx       context.Context
	recvQueue []map[string]interface{}
	sent      []*structpb.Struct
}

func newFakeServerStream() *fakeServerStream {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Context().Done() must resolve promptly for Serve's tests.
	return &fakeServerStream{ctx: ctx}
}

func (f *fakeServerStream) SetHeader(metadata.MD) error  { return nil }
func (f *fakeServerStream) SendHeader(metadata.MD) error { return nil }
func (f *fakeServerStream) SetTrailer(metadata.MD)       {}
func (f *fakeServerStream) Context() context.Context     { return f.ctx }

func (f *fakeServerStream) SendMsg(m interface{}) error {
	if s, ok := m.(*structpb.Struct); ok {
		f.sent = append(f.sent, s)
	}
	return nil
}

func (f *fakeServerStream) RecvMsg(m interface{}) error {
	if len(f.recvQueue) == 0 {
		return context.Canceled
	}
	next := f.recvQueue[0]
	f.recvQueue = f.recvQueue[1:]
	s, err := structpb.NewStruct(next)
	if err != nil {
		return err
	}
	*m.(*structpb.Struct) = *s
	return nil
}
