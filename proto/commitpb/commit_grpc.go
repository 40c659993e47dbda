// Package commitpb defines the dashlog.Commit gRPC service. Messages are
// protobuf Structs laid out by the wire package and the helpers below.
package commitpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	Commit_Publish_FullMethodName = "/dashlog.Commit/Publish"
	Commit_Fetch_FullMethodName   = "/dashlog.Commit/Fetch"
)

// CommitClient is the client API for the dashlog.Commit service.
type CommitClient interface {
	// Publish appends one encoded commit and returns its receipt.
	Publish(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	// Fetch returns encoded commits starting at a position of the index.
	Fetch(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type commitClient struct {
	cc grpc.ClientConnInterface
}

func NewCommitClient(cc grpc.ClientConnInterface) CommitClient {
	return &commitClient{cc}
}

func (c *commitClient) Publish(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, Commit_Publish_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *commitClient) Fetch(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, Commit_Fetch_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// CommitServer is the server API for the dashlog.Commit service.
type CommitServer interface {
	Publish(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Fetch(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedCommitServer can be embedded to have forward compatible
// implementations.
type UnimplementedCommitServer struct{}

func (UnimplementedCommitServer) Publish(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Publish not implemented")
}

func (UnimplementedCommitServer) Fetch(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Fetch not implemented")
}

func RegisterCommitServer(s grpc.ServiceRegistrar, srv CommitServer) {
	s.RegisterService(&Commit_ServiceDesc, srv)
}

func _Commit_Publish_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CommitServer).Publish(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Commit_Publish_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CommitServer).Publish(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _Commit_Fetch_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CommitServer).Fetch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Commit_Fetch_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CommitServer).Fetch(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Commit_ServiceDesc is the grpc.ServiceDesc for the dashlog.Commit service.
var Commit_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "dashlog.Commit",
	HandlerType: (*CommitServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Publish",
			Handler:    _Commit_Publish_Handler,
		},
		{
			MethodName: "Fetch",
			Handler:    _Commit_Fetch_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dashlog/commit",
}
