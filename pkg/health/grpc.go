package health

import (
	"context"
	"fmt"
	"net"

	"literary-character-ai/backend/pkg/logger"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// GRPCServer exposes the checker over the standard gRPC health protocol so
// orchestrators can check the service without HTTP
type GRPCServer struct {
	server  *grpc.Server
	health  *grpchealth.Server
	service string
	log     *logger.Logger
}

// NewGRPCServer creates the server and keeps its serving status in sync with
// checker. service is the name reported alongside the overall "" entry.
func NewGRPCServer(checker *Checker, service string, log *logger.Logger) *GRPCServer {
	s := &GRPCServer{
		server:  grpc.NewServer(),
		health:  grpchealth.NewServer(),
		service: service,
		log:     log,
	}
	healthpb.RegisterHealthServer(s.server, s.health)

	s.setServing(checker.IsSystemHealthy())
	checker.OnChange(s.setServing)

	return s
}

func (s *GRPCServer) setServing(healthy bool) {
	status := healthpb.HealthCheckResponse_SERVING
	if !healthy {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(s.service, status)
}

// Serve listens on addr and blocks until the server stops
func (s *GRPCServer) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.ServeListener(lis)
}

// ServeListener serves on an existing listener
func (s *GRPCServer) ServeListener(lis net.Listener) error {
	s.log.Info("gRPC health server listening", "addr", lis.Addr().String())
	return s.server.Serve(lis)
}

// Shutdown stops the server, waiting for in-flight checks until ctx is done
func (s *GRPCServer) Shutdown(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.server.Stop()
	}
}
