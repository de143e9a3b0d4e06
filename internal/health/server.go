// Package health exposes the catalog state over the standard gRPC health
// protocol.
package health

import (
	"log/slog"
	"net"

	otelgrpc "go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// CatalogService is the service name reported alongside the server-wide
// status.
const CatalogService = "jobboard.Catalog"

// Server is a gRPC server carrying only the health service.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	logger     *slog.Logger
}

// NewServer starts out NOT_SERVING until SetReady(true).
func NewServer(logger *slog.Logger) *Server {
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)

	s := &Server{
		grpcServer: grpcServer,
		health:     hs,
		logger:     logger.With("component", "grpc-health"),
	}
	s.SetReady(false)
	return s
}

// SetReady switches both the server-wide and the catalog status.
func (s *Server) SetReady(ready bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ready {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(CatalogService, status)
	s.logger.Info("health status changed", "status", status.String())
}

// Serve blocks accepting connections on lis.
func (s *Server) Serve(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

// GracefulStop marks every service NOT_SERVING and drains the server.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
