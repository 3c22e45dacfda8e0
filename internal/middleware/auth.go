package middleware

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"appointment-scheduler/internal/pb"
	"appointment-scheduler/internal/scheduling"
)

type ctxKey string

const callerKey ctxKey = "caller"

// Authenticator turns an Authorization header value into a caller.
type Authenticator interface {
	Authenticate(header string) (scheduling.Caller, error)
}

// skip auth for these
var open = map[string]bool{
	pb.FullMethod("Register"): true,
	pb.FullMethod("Login"):    true,
	pb.FullMethod("Refresh"):  true,
	pb.FullMethod("Logout"):   true,
}

func WithCaller(ctx context.Context, c scheduling.Caller) context.Context {
	return context.WithValue(ctx, callerKey, c)
}

func CallerFrom(ctx context.Context) (scheduling.Caller, bool) {
	c, ok := ctx.Value(callerKey).(scheduling.Caller)
	return c, ok
}

func Auth(a Authenticator) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if open[info.FullMethod] {
			return next(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		// token from Authorization: Bearer <jwt>
		header := ""
		if vals := md.Get("authorization"); len(vals) > 0 {
			header = vals[0]
		}

		c, err := a.Authenticate(header)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}
		return next(WithCaller(ctx, c), req)
	}
}
