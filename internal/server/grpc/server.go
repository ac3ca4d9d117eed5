package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/elifred2022/bokadillo/internal/backend"
	"github.com/elifred2022/bokadillo/internal/config"
)

// Module exposes the gRPC server and lifecycle hooks to Fx.
var Module = fx.Module("grpc_server",
	fx.Provide(NewServer, NewHealth),
	fx.Invoke(Run, RunHealth),
)

// NewServer builds the gRPC server. Every call is logged with its method,
// status code and duration.
func NewServer(logger *zap.Logger) *grpc.Server {
	return grpc.NewServer(
		grpc.ChainUnaryInterceptor(func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
			start := time.Now()
			resp, err := handler(ctx, req)
			logCall(logger, info.FullMethod, start, err)
			return resp, err
		}),
		grpc.ChainStreamInterceptor(func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
			start := time.Now()
			err := handler(srv, ss)
			logCall(logger, info.FullMethod, start, err)
			return err
		}),
	)
}

func logCall(logger *zap.Logger, method string, start time.Time, err error) {
	fields := []zap.Field{
		zap.String("method", method),
		zap.String("code", status.Code(err).String()),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		logger.Warn("grpc call failed", append(fields, zap.Error(err))...)
		return
	}
	logger.Debug("grpc call", fields...)
}

// Run serves on the configured address. The listener is bound during
// startup; shutdown is graceful until the stop context expires.
func Run(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg config.Config, server *grpc.Server, logger *zap.Logger) {
	addr := fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
			if err != nil {
				return fmt.Errorf("listen grpc %s: %w", addr, err)
			}
			logger.Info("grpc server listening", zap.String("addr", ln.Addr().String()))
			go func() {
				if err := server.Serve(ln); err != nil {
					logger.Error("grpc server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping grpc server")
			stopped := make(chan struct{})
			go func() {
				server.GracefulStop()
				close(stopped)
			}()
			select {
			case <-stopped:
				return nil
			case <-ctx.Done():
				server.Stop()
				return ctx.Err()
			}
		},
	})
}

// Health serves grpc.health.v1 and tracks backend reachability.
type Health struct {
	server *health.Server
	probe  backend.Describer
	logger *zap.Logger
}

// NewHealth registers the health service on server. It reports NOT_SERVING
// until the first successful probe.
func NewHealth(server *grpc.Server, probe backend.Describer, logger *zap.Logger) *Health {
	h := &Health{server: health.NewServer(), probe: probe, logger: logger}
	h.server.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(server, h.server)
	return h
}

// Check probes the backend once and updates the overall serving status.
func (h *Health) Check(ctx context.Context, timeout time.Duration) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	serving := healthpb.HealthCheckResponse_SERVING
	if _, err := h.probe.Describe(ctx); err != nil {
		h.logger.Warn("backend probe failed", zap.Error(err))
		serving = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.server.SetServingStatus("", serving)
	return serving
}

// RunHealth re-probes the backend on the configured interval while the
// application runs.
func RunHealth(lc fx.Lifecycle, cfg config.Config, h *Health) {
	ctx, cancel := context.WithCancel(context.Background())
	interval := cfg.GRPC.HealthInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				ticker := time.NewTicker(interval)
				defer ticker.Stop()
				for {
					h.Check(ctx, cfg.Backend.Timeout)
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
					}
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			h.server.Shutdown()
			return nil
		},
	})
}
