package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	serviceName = "vendctl.v1.Control"
	doMethod    = "/" + serviceName + "/Do"
)

// Handler processes one IPC command request.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

type controlServer interface {
	do(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type controlService struct {
	handler Handler
}

func (s *controlService) do(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req Request
	if err := decodeStruct(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}

	out, err := encodeStruct(s.handler.Handle(ctx, req))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func doHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(controlServer).do(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: doMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(controlServer).do(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var controlServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*controlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Do", Handler: doHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "vendctl/v1/control.proto",
}

// Serve answers gRPC requests on listener until ctx is cancelled. The health
// service reports SERVING for as long as Serve runs.
func Serve(ctx context.Context, listener net.Listener, handler Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	server := grpc.NewServer(grpc.ChainUnaryInterceptor(
		recoveryInterceptor(logger),
		loggingInterceptor(logger),
	))
	server.RegisterService(&controlServiceDesc, &controlService{handler: handler})

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		healthServer.Shutdown()
		server.Stop()
		<-serveDone
		return nil
	case err := <-serveDone:
		if err == nil || errors.Is(err, grpc.ErrServerStopped) || errors.Is(err, net.ErrClosed) {
			return nil
		}
		return fmt.Errorf("serve IPC: %w", err)
	}
}
