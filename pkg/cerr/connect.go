package cerr

import (
	"context"

	"connectrpc.com/connect"
)

// errorInterceptor turns errors returned by Connect handlers into
// *connect.Error values, recording the underlying error on the request log.
// Only unary calls are served here (grpc health checks).
type errorInterceptor struct{}

func NewConvertConnectErrorInterceptor() connect.Interceptor {
	return errorInterceptor{}
}

func (errorInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		resp, err := next(ctx, req)
		return resp, ExtractConnectError(ctx, err)
	}
}

func (errorInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (errorInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		return ExtractConnectError(ctx, next(ctx, conn))
	}
}
