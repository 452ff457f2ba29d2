package app

import (
	"context"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// HealthService is the name probes ask about in addition to the overall "".
const HealthService = "delivery.v1.Delivery"

const healthCheckEvery = 10 * time.Second

func newGRPCServer() (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	// Enable reflection for grpcurl/grpcui
	reflection.Register(srv)
	return srv, hs
}

type pinger interface {
	Ping(ctx context.Context) error
}

// watchHealth reports NOT_SERVING while any dependency fails to answer a
// ping, and SERVING otherwise.
func watchHealth(ctx context.Context, hs *health.Server, log *zap.Logger, deps ...pinger) {
	check := func() {
		status := healthpb.HealthCheckResponse_SERVING
		for _, d := range deps {
			pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err := d.Ping(pctx)
			cancel()
			if err != nil {
				log.Warn("dependency ping failed", zap.Error(err))
				status = healthpb.HealthCheckResponse_NOT_SERVING
				break
			}
		}
		hs.SetServingStatus("", status)
		hs.SetServingStatus(HealthService, status)
	}

	check()
	ticker := time.NewTicker(healthCheckEvery)
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
