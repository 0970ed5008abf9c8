// internal/grpc/server.go
package grpc

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName - имя, под которым каталог отчитывается в протоколе health.
const ServiceName = "catalog.v1.CatalogService"

const defaultCheckInterval = 10 * time.Second

// Pinger проверяет доступность хранилища. *sqlx.DB удовлетворяет интерфейсу.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthReporter переключает статус каталога между SERVING и NOT_SERVING
// по результату периодического пинга хранилища.
type HealthReporter struct {
	health   *health.Server
	pinger   Pinger
	interval time.Duration
	logger   *slog.Logger
}

// NewServer создает gRPC сервер со стандартным health-сервисом и reflection.
// pinger может быть nil (in-memory хранилище), тогда каталог всегда SERVING.
func NewServer(pinger Pinger, interval time.Duration, logger *slog.Logger) (*grpc.Server, *HealthReporter) {
	if interval <= 0 {
		interval = defaultCheckInterval
	}
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return srv, &HealthReporter{health: hs, pinger: pinger, interval: interval, logger: logger}
}

// Run проверяет хранилище сразу и затем с интервалом, пока не отменен ctx.
func (r *HealthReporter) Run(ctx context.Context) error {
	r.check(ctx)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.health.Shutdown()
			return nil
		case <-ticker.C:
			r.check(ctx)
		}
	}
}

func (r *HealthReporter) check(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if r.pinger != nil {
		pingCtx, cancel := context.WithTimeout(ctx, r.interval)
		defer cancel()
		if err := r.pinger.PingContext(pingCtx); err != nil {
			r.logger.WarnContext(ctx, "Storage ping failed", slog.String("error", err.Error()))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	r.health.SetServingStatus(ServiceName, status)
	r.health.SetServingStatus("", status)
}
