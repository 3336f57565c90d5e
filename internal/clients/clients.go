package clients

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	hrgrpc "hrdesk/internal/grpc"
)

type Clients struct {
	AttendanceConn *grpc.ClientConn
	Attendance     hrgrpc.AttendanceQueryServiceClient
}

// New dials the attendance query service. Extra options are appended after the
// defaults, e.g. a custom dialer in tests.
func New(ctx context.Context, attendanceAddr, serviceToken string, timeout time.Duration, opts ...grpc.DialOption) (*Clients, error) {
	if serviceToken == "" {
		return nil, errors.New("service auth token required")
	}
	conn, err := dial(ctx, attendanceAddr, serviceToken, timeout, opts...)
	if err != nil {
		return nil, err
	}
	return &Clients{
		AttendanceConn: conn,
		Attendance:     hrgrpc.NewAttendanceQueryServiceClient(conn),
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.AttendanceConn != nil {
		_ = c.AttendanceConn.Close()
	}
}

func dial(ctx context.Context, addr, serviceToken string, timeout time.Duration, extra ...grpc.DialOption) (*grpc.ClientConn, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(serviceAuthUnaryClientInterceptor(serviceToken)),
	}
	return grpc.DialContext(ctx, addr, append(opts, extra...)...)
}

func serviceAuthUnaryClientInterceptor(serviceToken string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, hrgrpc.ServiceTokenHeader, serviceToken)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}
