package app

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/DesolationStaging/mediarm/transport/rpc"
)

func TestAppReclaimRejectsInvalidPID(t *testing.T) {
	app := New(Options{})
	_, err := app.Reclaim(context.Background(), ReclaimParams{CallingPID: 0, Timeout: time.Second})
	if err == nil || err.Error() != "invalid pid 0" {
		t.Fatalf("expected invalid pid error, got %v", err)
	}
}

func TestAppReclaimRejectsUnknownKind(t *testing.T) {
	app := New(Options{})
	_, err := app.Reclaim(context.Background(), ReclaimParams{
		CallingPID: 10,
		Resources:  []ResourceSpec{{Kind: "not-a-kind", Value: 1}},
		Timeout:    time.Second,
	})
	if err == nil {
		t.Fatal("expected an error for an unrecognized resource kind")
	}
}

func TestAppReclaimSuccess(t *testing.T) {
	var captured *structpb.Struct
	stubDaemon(t, true, func(ctx context.Context) (*rpc.Client, daemonConn, error) {
		conn := &fakeConn{
			invoke: func(ctx context.Context, method string, args interface{}, reply interface{}, opts ...grpc.CallOption) error {
				captured = args.(*structpb.Struct)
				resp, _ := structpb.NewStruct(map[string]interface{}{"granted": true})
				*reply.(*structpb.Struct) = *resp
				return nil
			},
		}
		return rpc.NewClient(conn), conn, nil
	})

	app := New(Options{})
	granted, err := app.Reclaim(context.Background(), ReclaimParams{
		CallingPID: 10,
		Resources:  []ResourceSpec{{Kind: "secure-codec", Value: 1}},
		Timeout:    time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !granted {
		t.Fatal("expected granted=true")
	}
	if captured.Fields["calling_pid"].GetNumberValue() != 10 {
		t.Fatalf("expected calling_pid 10 in request, got %+v", captured)
	}
}
