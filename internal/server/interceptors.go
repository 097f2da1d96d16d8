package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/tradeslip/internal/common"
)

const requestIDHeader = "x-request-id"

func requestContext(ctx context.Context, logger *slog.Logger, method string) context.Context {
	id := ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(requestIDHeader); len(v) > 0 {
			id = v[0]
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDHeader, id))
	ctx = common.WithRequestID(ctx, id)
	return common.WithLogger(ctx, logger.With("request_id", id, "method", method))
}

// UnaryInterceptor tags the request, applies the rate limit and logs the outcome.
func UnaryInterceptor(logger *slog.Logger, limiter *rate.Limiter) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx = requestContext(ctx, logger, info.FullMethod)
		if limiter != nil && !limiter.Allow() {
			return nil, common.ResourceExhaustedError("rate limit exceeded")
		}
		start := time.Now()
		resp, err := handler(ctx, req)
		logCall(ctx, logger, start, err)
		return resp, err
	}
}

// StreamInterceptor is the streaming counterpart of UnaryInterceptor.
func StreamInterceptor(logger *slog.Logger, limiter *rate.Limiter) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx := requestContext(ss.Context(), logger, info.FullMethod)
		if limiter != nil && !limiter.Allow() {
			return common.ResourceExhaustedError("rate limit exceeded")
		}
		start := time.Now()
		err := handler(srv, &contextStream{ServerStream: ss, ctx: ctx})
		logCall(ctx, logger, start, err)
		return err
	}
}

func logCall(ctx context.Context, fallback *slog.Logger, start time.Time, err error) {
	l := common.LoggerFromContext(ctx, fallback)
	code := status.Code(err)
	if err != nil {
		l.Warn("grpc call failed", "code", code.String(), "duration_ms", time.Since(start).Milliseconds(), "error", err)
		return
	}
	l.Info("grpc call", "code", code.String(), "duration_ms", time.Since(start).Milliseconds())
}

type contextStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *contextStream) Context() context.Context { return s.ctx }
