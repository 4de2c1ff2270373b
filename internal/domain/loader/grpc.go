package loader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/GriffinCanCode/coderegistry/internal/domain/registry"
	"github.com/GriffinCanCode/coderegistry/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/coderegistry/internal/infrastructure/tracing"
)

const (
	serviceName = "loader.v1.Loader"
	loadMethod  = "/" + serviceName + "/Load"

	maxMessageSize = 16 * 1024 * 1024
)

// GRPCClient forwards load requests to a remote loader node
type GRPCClient struct {
	conn    *grpc.ClientConn
	addr    string
	timeout time.Duration
	breaker *resilience.Breaker
}

var _ registry.Loader = (*GRPCClient)(nil)

// ClientOptions configures a GRPCClient
type ClientOptions struct {
	Timeout time.Duration
	Tracer  *tracing.Tracer
	// DialOptions are appended to the defaults, e.g. a bufconn dialer in tests
	DialOptions []grpc.DialOption
}

// NewGRPCClient creates a client for the loader at addr. The connection is
// established lazily on the first call.
func NewGRPCClient(addr string, opts ClientOptions) (*GRPCClient, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:    60 * time.Second,
			Timeout: 20 * time.Second,
		}),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(maxMessageSize),
			grpc.MaxCallSendMsgSize(maxMessageSize),
		),
	}
	if opts.Tracer != nil {
		dialOpts = append(dialOpts, grpc.WithUnaryInterceptor(tracing.GRPCClientInterceptor(opts.Tracer)))
	}
	dialOpts = append(dialOpts, opts.DialOptions...)

	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create loader client: %w", err)
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	breaker := resilience.New("loader", resilience.Settings{
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsFailure: isTransportFailure,
	})

	return &GRPCClient{conn: conn, addr: addr, timeout: timeout, breaker: breaker}, nil
}

// Addr returns the loader address
func (c *GRPCClient) Addr() string {
	return c.addr
}

// Close closes the connection
func (c *GRPCClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Load sends req to the remote loader. Rejections come back wrapped in
// ErrRejected; transport failures are returned as gRPC status errors.
func (c *GRPCClient) Load(ctx context.Context, req registry.LoadRequest) error {
	in, err := encodeRequest(req)
	if err != nil {
		return fmt.Errorf("encode load request: %w", err)
	}

	err = c.breaker.Do(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		return c.conn.Invoke(ctx, loadMethod, in, &structpb.Struct{})
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		return fmt.Errorf("loader %s unavailable: %w", c.addr, err)
	case !isTransportFailure(err):
		return fmt.Errorf("%w: %s", ErrRejected, status.Convert(err).Message())
	default:
		return fmt.Errorf("loader %s: %w", c.addr, err)
	}
}

func isTransportFailure(err error) bool {
	if err == nil {
		return false
	}
	switch status.Code(err) {
	case codes.InvalidArgument, codes.FailedPrecondition:
		return false
	default:
		return true
	}
}

// Service is the server side of the loader wire contract
type Service interface {
	Load(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

type service struct {
	loader registry.Loader
}

func (s *service) Load(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.loader.Load(ctx, req); err != nil {
		if ctx.Err() != nil {
			return nil, status.FromContextError(ctx.Err()).Err()
		}
		return nil, status.Error(codes.FailedPrecondition, err.Error())
	}
	return structpb.NewStruct(map[string]interface{}{"accepted": true})
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*Service)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Load",
			Handler:    loadHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "loader/v1/loader.proto",
}

func loadHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Service).Load(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: loadMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(Service).Load(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterServer exposes l on s under the loader wire contract
func RegisterServer(s grpc.ServiceRegistrar, l registry.Loader) {
	s.RegisterService(&serviceDesc, &service{loader: l})
}
