// cmd/catalogservice/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	httpAPI "catalog-service/internal/api"
	"catalog-service/internal/config"
	grpcServer "catalog-service/internal/grpc"
	"catalog-service/internal/rating"
	"catalog-service/internal/service"
	"catalog-service/internal/store"
	"catalog-service/pkg/auth"
)

const shutdownTimeout = 10 * time.Second

// catalogStores - хранилища, выбранные конфигурацией, и ресурсы для их закрытия.
type catalogStores struct {
	movies    store.MovieStore
	actors    store.ActorStore
	directors store.DirectorStore
	reviews   store.ReviewStore
	users     store.UserStore
	pinger    grpcServer.Pinger
	close     func() error
}

// connectToDB открывает соединение с БД, проверяет его и применяет схему.
func connectToDB(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sqlx.DB, error) {
	logger.Info("Attempting to connect to catalog database",
		slog.String("driver", cfg.DBDriver), slog.String("dbURL_used", cfg.RedactedDatabaseURL()))

	db, err := sqlx.ConnectContext(ctx, cfg.DBDriver, cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.DBDriver, err)
	}
	if cfg.DBDriver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}
	if err := store.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("Successfully connected to catalog database, schema is up to date")
	return db, nil
}

func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*catalogStores, error) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn("Using in-memory storage, data will be lost on restart")
		m := store.NewMockStores(logger)
		return &catalogStores{
			movies:    m.Movies,
			actors:    m.Actors,
			directors: m.Directors,
			reviews:   m.Reviews,
			users:     m.Users,
			close:     func() error { return nil },
		}, nil
	}

	db, err := connectToDB(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	s, err := sqlStores(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func sqlStores(db *sqlx.DB, logger *slog.Logger) (*catalogStores, error) {
	s := &catalogStores{pinger: db, close: db.Close}
	var err error
	if s.movies, err = store.NewSQLMovieStore(db, logger); err != nil {
		return nil, err
	}
	if s.actors, err = store.NewSQLActorStore(db, logger); err != nil {
		return nil, err
	}
	if s.directors, err = store.NewSQLDirectorStore(db, logger); err != nil {
		return nil, err
	}
	if s.reviews, err = store.NewSQLReviewStore(db, logger); err != nil {
		return nil, err
	}
	if s.users, err = store.NewSQLUserStore(db, logger); err != nil {
		return nil, err
	}
	return s, nil
}

// ratingDispatch возвращает Notifier для сервисов и, для очереди Redis,
// воркер, который нужно запустить.
func ratingDispatch(cfg *config.Config, coordinator *rating.Coordinator, metrics *rating.Metrics, logger *slog.Logger) (rating.Notifier, *rating.RedisQueue, func() error, error) {
	if cfg.RatingDispatch == config.DispatchSync {
		return rating.NewSyncNotifier(coordinator), nil, func() error { return nil }, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid CATALOG_REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	queue, err := rating.NewRedisQueue(rdb, cfg.RatingQueue, coordinator, logger, rating.WithQueueMetrics(metrics))
	if err != nil {
		rdb.Close()
		return nil, nil, nil, err
	}
	return queue, queue, rdb.Close, nil
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		logger.Info("Closing catalog storage...")
		if err := stores.close(); err != nil {
			logger.Error("Failed to close catalog storage", slog.String("error", err.Error()))
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := rating.NewMetrics("catalog", registry)
	coordinator := rating.NewCoordinator(stores.movies, stores.reviews, metrics, logger)

	notifier, queue, closeQueue, err := ratingDispatch(cfg, coordinator, metrics, logger)
	if err != nil {
		return err
	}
	defer closeQueue()

	tokenManager, err := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	services := httpAPI.Services{
		Movies:  service.NewMovieService(stores.movies, stores.actors, stores.directors, notifier, logger),
		People:  service.NewPeopleService(stores.actors, stores.directors, stores.movies, logger),
		Reviews: service.NewReviewService(stores.reviews, stores.movies, stores.users, notifier, logger),
		Users:   service.NewUserService(stores.users, logger),
	}
	handler := httpAPI.NewHTTPHandler(services, tokenManager, logger, validator.New())
	httpSrv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      httpAPI.NewRouter(handler, promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	grpcSrv, health := grpcServer.NewServer(stores.pinger, cfg.HealthInterval, logger)
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC on port %s: %w", cfg.GRPCPort, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Catalog HTTP server starting", slog.String("port", cfg.HTTPPort))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("Catalog gRPC server starting", slog.String("port", cfg.GRPCPort))
		if err := grpcSrv.Serve(lis); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	g.Go(func() error { return health.Run(gctx) })
	if queue != nil {
		g.Go(func() error { return queue.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Catalog service shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Catalog HTTP server shutdown failed", slog.String("error", err.Error()))
		} else {
			logger.Info("Catalog HTTP server gracefully stopped.")
		}
		grpcSrv.GracefulStop()
		logger.Info("Catalog gRPC server gracefully stopped.")
		return nil
	})

	return g.Wait()
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error("Invalid catalog service configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := run(cfg, logger); err != nil {
		logger.Error("Catalog service stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
