package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name reported alongside the overall status.
const ServiceName = "wz.splitter.Watcher"

// Health serves the gRPC health protocol while the watcher runs.
type Health struct {
	grpc   *grpc.Server
	hs     *health.Server
	lis    net.Listener
	logger *slog.Logger
}

// Listen binds addr and registers health and reflection. Status starts as
// NOT_SERVING until SetServing is called.
func Listen(addr string, logger *slog.Logger) (*Health, error) {
	if logger == nil {
		logger = slog.Default()
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	g := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(g, hs)
	// Reflection for grpcurl
	reflection.Register(g)

	h := &Health{grpc: g, hs: hs, lis: lis, logger: logger}
	h.SetServing(false)
	return h, nil
}

// Addr is the bound address, useful when listening on port 0.
func (h *Health) Addr() string { return h.lis.Addr().String() }

func (h *Health) SetServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	h.hs.SetServingStatus("", st)
	h.hs.SetServingStatus(ServiceName, st)
	h.logger.Debug("health.status", "status", st.String())
}

// Serve blocks until ctx ends, then reports NOT_SERVING and stops gracefully.
func (h *Health) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("health.serving", "addr", h.Addr())
		errCh <- h.grpc.Serve(h.lis)
	}()

	select {
	case <-ctx.Done():
		h.hs.Shutdown()
		h.grpc.GracefulStop()
		<-errCh
		h.logger.Info("health.stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("grpc serve: %w", err)
	}
}
