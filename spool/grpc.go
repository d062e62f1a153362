package spool

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// The farm service's messages are google.protobuf.Struct,
// holding json representation of the values.
const (
	farmServiceName = "cook.Farm"
	spoolMethod     = "/cook.Farm/Spool"
	jobsMethod      = "/cook.Farm/Jobs"
	pauseMethod     = "/cook.Farm/Pause"
)

// FarmServer is the server API for the farm service.
type FarmServer interface {
	Spool(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Jobs(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Pause(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterFarmServer registers the farm service to a grpc server.
func RegisterFarmServer(s grpc.ServiceRegistrar, srv FarmServer) {
	s.RegisterService(&farmServiceDesc, srv)
}

func unaryHandler(method string, call func(FarmServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(FarmServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: method,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(FarmServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var farmServiceDesc = grpc.ServiceDesc{
	ServiceName: farmServiceName,
	HandlerType: (*FarmServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Spool",
			Handler:    unaryHandler(spoolMethod, FarmServer.Spool),
		},
		{
			MethodName: "Jobs",
			Handler:    unaryHandler(jobsMethod, FarmServer.Jobs),
		},
		{
			MethodName: "Pause",
			Handler:    unaryHandler(pauseMethod, FarmServer.Pause),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cook/farm.proto",
}
