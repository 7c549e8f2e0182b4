package ipc

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Send performs one request/response roundtrip against the owner on path.
func Send(ctx context.Context, path string, req Request, timeout time.Duration) (Response, error) {
	conn, err := dial(path)
	if err != nil {
		return Response{}, err
	}
	defer conn.Close()

	in, err := encodeStruct(req)
	if err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(withRequestID(ctx), timeout)
	defer cancel()

	out := new(structpb.Struct)
	if err := conn.Invoke(ctx, doMethod, in, out); err != nil {
		return Response{}, fmt.Errorf("send %s request: %w", req.Command, err)
	}

	var resp Response
	if err := decodeStruct(out, &resp); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

// Probe checks whether a responsive owner is currently listening on path.
// Any health answer counts as alive, including NOT_SERVING from an owner that
// is shutting down. A missing or refusing socket is not alive; anything else
// is inconclusive.
func Probe(ctx context.Context, path string, timeout time.Duration) (bool, error) {
	conn, err := dial(path)
	if err != nil {
		return false, fmt.Errorf("probe socket: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{}); err != nil {
		if IsUnavailable(err) {
			return false, nil
		}
		return false, fmt.Errorf("probe socket: %w", err)
	}
	return true, nil
}

// IsUnavailable reports errors meaning no owner is listening.
func IsUnavailable(err error) bool {
	return status.Code(err) == codes.Unavailable
}

func dial(path string) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(target(path), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", path, err)
	}
	return conn, nil
}

func target(path string) string {
	if filepath.IsAbs(path) {
		return "unix://" + path
	}
	return "unix:" + path
}
