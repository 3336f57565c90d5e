package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified name of the attendance query service. Requests and
// responses are protobuf well-known types, so no generated stubs are needed.
const ServiceName = "hrdesk.attendance.v1.AttendanceQueryService"

const (
	getPeriodSummaryMethod   = "/" + ServiceName + "/GetPeriodSummary"
	listIncompleteDaysMethod = "/" + ServiceName + "/ListIncompleteDays"
)

type AttendanceQueryServiceServer interface {
	GetPeriodSummary(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListIncompleteDays(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
}

var AttendanceQueryServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AttendanceQueryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetPeriodSummary", Handler: getPeriodSummaryHandler},
		{MethodName: "ListIncompleteDays", Handler: listIncompleteDaysHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hrdesk/attendance/v1/query.proto",
}

func RegisterAttendanceQueryServiceServer(s grpc.ServiceRegistrar, srv AttendanceQueryServiceServer) {
	s.RegisterService(&AttendanceQueryServiceDesc, srv)
}

func getPeriodSummaryHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AttendanceQueryServiceServer).GetPeriodSummary(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getPeriodSummaryMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AttendanceQueryServiceServer).GetPeriodSummary(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func listIncompleteDaysHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AttendanceQueryServiceServer).ListIncompleteDays(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listIncompleteDaysMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AttendanceQueryServiceServer).ListIncompleteDays(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

type AttendanceQueryServiceClient interface {
	GetPeriodSummary(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListIncompleteDays(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.ListValue, error)
}

type attendanceQueryServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAttendanceQueryServiceClient(cc grpc.ClientConnInterface) AttendanceQueryServiceClient {
	return &attendanceQueryServiceClient{cc: cc}
}

func (c *attendanceQueryServiceClient) GetPeriodSummary(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getPeriodSummaryMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *attendanceQueryServiceClient) ListIncompleteDays(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, listIncompleteDaysMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
