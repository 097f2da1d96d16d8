package server

import (
	"log/slog"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// NewGRPCServer registers the slip service and the standard health service.
// maxRecvBytes must cover a base64-encoded upload.
func NewGRPCServer(svc SlipServer, limiter *rate.Limiter, maxRecvBytes int, logger *slog.Logger) (*grpc.Server, *health.Server) {
	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(UnaryInterceptor(logger, limiter)),
		grpc.ChainStreamInterceptor(StreamInterceptor(logger, limiter)),
	}
	if maxRecvBytes > 0 {
		opts = append(opts, grpc.MaxRecvMsgSize(maxRecvBytes))
	}
	s := grpc.NewServer(opts...)
	s.RegisterService(&SlipServiceDesc, svc)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, healthServer)
	// Empty string means overall server health.
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(slipServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	return s, healthServer
}
