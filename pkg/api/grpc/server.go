// Package grpcapi implements the flare.v1.Interpreter gRPC service over the
// same session store as the REST API.
//
// The service has no generated stubs: requests and responses are
// google.protobuf.Struct messages and the service descriptor is declared by
// hand, so any gRPC client can call it with the standard codec.
package grpcapi

import (
	"context"
	"fmt"
	"log"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lemonberrylabs/flare/pkg/store"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "flare.v1.Interpreter"

// Full method names, for clients invoking the service directly.
const (
	MethodCreateSession = "/" + ServiceName + "/CreateSession"
	MethodEval          = "/" + ServiceName + "/Eval"
	MethodDeleteSession = "/" + ServiceName + "/DeleteSession"
)

// InterpreterServer is the server API for the Interpreter service.
type InterpreterServer interface {
	CreateSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Eval(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// Server implements the Interpreter service.
type Server struct {
	store *store.Store
	grpc  *grpc.Server
}

// New creates a new gRPC server wrapping the given store.
func New(s *store.Store) *Server {
	srv := &Server{store: s}

	gs := grpc.NewServer()
	RegisterInterpreterServer(gs, srv)
	srv.grpc = gs

	return srv
}

// Serve starts listening on the given address and serves gRPC requests.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	return s.grpc.Serve(lis)
}

// GracefulStop gracefully stops the gRPC server.
func (s *Server) GracefulStop() {
	s.grpc.GracefulStop()
}

// CreateSession creates a new evaluation session.
func (s *Server) CreateSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, err := s.store.CreateSession()
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	log.Printf("Created session %s (grpc)", sess.Name)
	return structpb.NewStruct(map[string]interface{}{
		"name": sess.Name,
	})
}

// Eval evaluates source in a session. Evaluation errors are returned in the
// response fields error_kind and error_message, not as gRPC errors.
func (s *Server) Eval(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name, err := stringField(req, "session")
	if err != nil {
		return nil, err
	}
	source, err := stringField(req, "source")
	if err != nil {
		return nil, err
	}

	rec, err := s.store.Eval(name, source)
	if err != nil {
		return nil, status.Error(codes.NotFound, err.Error())
	}

	fields := map[string]interface{}{
		"result": rec.Result,
		"output": rec.Output,
	}
	if rec.Error != nil {
		fields["error_kind"] = rec.Error.Kind
		fields["error_message"] = rec.Error.Message
	}
	return structpb.NewStruct(fields)
}

// DeleteSession removes a session.
func (s *Server) DeleteSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name, err := stringField(req, "session")
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteSession(name); err != nil {
		return nil, status.Error(codes.NotFound, err.Error())
	}
	return &structpb.Struct{}, nil
}

// stringField returns a required string field of req.
func stringField(req *structpb.Struct, key string) (string, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	sv, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "%s must be a string", key)
	}
	return sv.StringValue, nil
}

// RegisterInterpreterServer registers srv with s.
func RegisterInterpreterServer(s grpc.ServiceRegistrar, srv InterpreterServer) {
	s.RegisterService(&interpreterServiceDesc, srv)
}

var interpreterServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InterpreterServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateSession", Handler: unaryHandler(MethodCreateSession, InterpreterServer.CreateSession)},
		{MethodName: "Eval", Handler: unaryHandler(MethodEval, InterpreterServer.Eval)},
		{MethodName: "DeleteSession", Handler: unaryHandler(MethodDeleteSession, InterpreterServer.DeleteSession)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "flare/v1/interpreter.proto",
}

type unaryMethod func(InterpreterServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// unaryHandler adapts a method to the shape grpc.MethodDesc expects,
// running it through any configured interceptor.
func unaryHandler(fullMethod string, m unaryMethod) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return m(srv.(InterpreterServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return m(srv.(InterpreterServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Client is a thin client for the Interpreter service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a client connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// CreateSession calls Interpreter.CreateSession.
func (c *Client) CreateSession(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodCreateSession, &structpb.Struct{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Eval calls Interpreter.Eval.
func (c *Client) Eval(ctx context.Context, session, source string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]interface{}{"session": session, "source": source})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodEval, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteSession calls Interpreter.DeleteSession.
func (c *Client) DeleteSession(ctx context.Context, session string, opts ...grpc.CallOption) error {
	in, err := structpb.NewStruct(map[string]interface{}{"session": session})
	if err != nil {
		return err
	}
	return c.cc.Invoke(ctx, MethodDeleteSession, in, new(structpb.Struct), opts...)
}
