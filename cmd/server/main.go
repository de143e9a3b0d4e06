// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	http_api "job-board/internal/api/http"
	"job-board/internal/config"
	"job-board/internal/domain"
	"job-board/internal/health"
	"job-board/internal/infra/etcd"
	file_infra "job-board/internal/infra/file"
	http_infra "job-board/internal/infra/http"
	"job-board/internal/infra/memory"
	redis_infra "job-board/internal/infra/redis"
	"job-board/internal/scheduler"
	"job-board/internal/storage"
	"job-board/internal/tracing"
	"job-board/internal/usecase"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const sessionSweepSchedule = "@every 1m"

func main() {
	// 1. Initialize logger and configuration
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	tracerShutdown, err := tracing.InitTracer("job-board", cfg.Tracing.Enabled)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tracerShutdown(context.Background()); err != nil {
			log.Printf("failed to shutdown tracer: %v", err)
		}
	}()

	log.Println("Starting job board service...")

	// 2. Create root context for lifecycle management
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupGracefulShutdown(cancel)

	// 3. Storage backend
	kv, closeKV := newKeyValueStore(rootCtx, cfg, logger)
	defer closeKV()
	store := storage.New(kv, logger)

	// 4. Feeds and catalog
	jobsFeed := newFeedSource(cfg.Feed.JobsSource, cfg, logger)
	var companiesFeed domain.FeedSource
	if cfg.Feed.CompaniesSource != "" {
		companiesFeed = newFeedSource(cfg.Feed.CompaniesSource, cfg, logger)
	}
	catalog := usecase.NewCatalogService(jobsFeed, companiesFeed, logger)

	healthServer := health.NewServer(logger)
	catalog.OnReadyChange(healthServer.SetReady)

	if err := catalog.Load(rootCtx); err != nil {
		// The API answers with the load error state until a reload succeeds.
		logger.Error("initial catalog load failed", "error", err)
	}

	// 5. Use cases
	listings := usecase.NewListingService(catalog, store, cfg.SearchDebounce, logger)
	applications := usecase.NewApplicationService(catalog, listings, storage.NewApplicationRepository(kv), logger)
	contact := usecase.NewContactService(store, logger)

	// 6. Background tasks
	cronScheduler := scheduler.NewCronScheduler(logger)
	if err := cronScheduler.AddTask("session-sweep", sessionSweepSchedule, func(ctx context.Context) error {
		listings.Sweep(ctx, cfg.SessionTTL)
		return nil
	}); err != nil {
		log.Fatalf("Failed to schedule session sweep: %v", err)
	}
	if cfg.Feed.RefreshSchedule != "" {
		if err := cronScheduler.AddTask("feed-refresh", cfg.Feed.RefreshSchedule, catalog.Load); err != nil {
			log.Fatalf("Failed to schedule feed refresh: %v", err)
		}
	}
	go func() {
		if err := cronScheduler.Start(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduler stopped with error", "error", err)
		}
	}()

	if cfg.Feed.Watch {
		watchFeeds(rootCtx, catalog, cfg.SearchDebounce, logger, jobsFeed, companiesFeed)
	}

	// 7. Register routes and metrics endpoint
	handler := http_api.NewHandler(catalog, listings, applications, contact, http_api.DefaultLiveLimits, logger)
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	handler.RegisterRoutes(mux)

	// 8. Start gRPC health server
	lis, err := net.Listen("tcp", cfg.GrpcListenAddr)
	if err != nil {
		log.Fatalf("Failed to listen for gRPC: %v", err)
	}
	log.Printf("gRPC health server listening on %s", cfg.GrpcListenAddr)
	go func() {
		if err := healthServer.Serve(lis); err != nil {
			log.Fatalf("gRPC server failed: %v", err)
		}
	}()

	// 9. Start HTTP API server with CORS middleware
	log.Printf("Starting HTTP API server on %s", cfg.HttpListenAddr)
	server := &http.Server{
		Addr:    cfg.HttpListenAddr,
		Handler: http_api.CORSMiddleware(mux),
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// 10. Block until shutdown
	<-rootCtx.Done()
	log.Println("Shutting down application gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	healthServer.GracefulStop()

	log.Println("Application shut down.")
}

// newFeedSource picks the HTTP fetcher for URLs and the file reader
// otherwise.
func newFeedSource(source string, cfg *config.Config, logger *slog.Logger) domain.FeedSource {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return http_infra.NewHttpFeedSource(source, cfg.Feed.Timeout, http_infra.RetryPolicy{
			MaxRetries: cfg.Feed.MaxRetries,
			Backoff:    cfg.Feed.RetryBackoff,
		})
	}
	return file_infra.NewFeedSource(source, logger)
}

func newKeyValueStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (domain.KeyValueStore, func()) {
	switch cfg.Storage.Backend {
	case config.StorageEtcd:
		client, err := etcd.NewClient(cfg.Storage.EtcdEndpoints, cfg.Storage.EtcdTimeout)
		if err != nil {
			log.Fatalf("Failed to create etcd client: %v", err)
		}
		log.Println("Connected to etcd.")
		return etcd.NewEtcdKVStore(client, logger), func() { _ = client.Close() }
	case config.StorageRedis:
		rdb, err := redis_infra.NewClient(ctx, cfg.Storage.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		log.Println("Connected to redis.")
		return redis_infra.NewRedisKVStore(rdb), func() { _ = rdb.Close() }
	}
	return memory.NewKVStore(), func() {}
}

// watchFeeds reloads the catalog when a file feed changes on disk.
func watchFeeds(ctx context.Context, catalog *usecase.CatalogService, quiet time.Duration, logger *slog.Logger, feeds ...domain.FeedSource) {
	for _, feed := range feeds {
		fs, ok := feed.(*file_infra.FeedSource)
		if !ok {
			continue
		}
		go func() {
			err := fs.Watch(ctx, quiet, func() {
				if err := catalog.Load(ctx); err != nil {
					logger.Error("catalog reload failed", "source", fs.Name(), "error", err)
				}
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("feed watcher stopped", "source", fs.Name(), "error", err)
			}
		}()
	}
}

func setupGracefulShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal %v. Initiating graceful shutdown...", sig)
		cancel()
	}()
}
