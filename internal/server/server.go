// Package server hosts the gRPC endpoint with health and reflection services.
package server

import (
	"context"
	"net"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the name health checks are reported under.
const ServiceName = "omnipos.sales.v1.SalesService"

// Pinger reports whether a dependency is reachable. *sqlx.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	grpc   *grpc.Server
	health *health.Server
	logger logger.ZapLogger
}

func New(log logger.ZapLogger, opts ...grpc.ServerOption) *Server {
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(UnaryInterceptor(log))}, opts...)
	s := &Server{
		grpc:   grpc.NewServer(opts...),
		health: health.NewServer(),
		logger: log,
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	reflection.Register(s.grpc)
	s.setServing(false)
	return s
}

// GRPC exposes the underlying server so services can be registered on it.
func (s *Server) GRPC() *grpc.Server {
	return s.grpc
}

func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("starting grpc server", zap.String("addr", lis.Addr().String()))
	return s.grpc.Serve(lis)
}

// Watch pings db every interval and reports the result through the health
// service until ctx is done.
func (s *Server) Watch(ctx context.Context, db Pinger, interval time.Duration) {
	check := func() {
		pingCtx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()
		err := db.PingContext(pingCtx)
		if err != nil && ctx.Err() == nil {
			s.logger.Warn("database ping failed", zap.Error(err))
		}
		s.setServing(err == nil)
	}

	check()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}

func (s *Server) setServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Stop marks the service as not serving and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
	s.logger.Info("grpc server stopped")
}
