package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"gogogo/internal/general/config"
	"gogogo/internal/general/contracts"
	"gogogo/internal/general/logger"
	"gogogo/internal/general/media"
	"gogogo/internal/general/postgres"
	"gogogo/internal/general/rabbitmq"
	"gogogo/internal/ports"
	"gogogo/internal/software/matching"
	ridehandler "gogogo/internal/software/ride/handler"
	rideservice "gogogo/internal/software/ride/service"
	userhandler "gogogo/internal/software/user/handler"
	userservice "gogogo/internal/software/user/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Run wires the HTTP API and blocks until ctx is cancelled.
func Run(ctx context.Context, configPath string, maxConcurrent int) error {
	// set up a new logger and context with a static request ID for startup logs
	logger := logger.New("api")
	ctx = logger.WithRequestID(ctx, "startup-001")

	// load a config from file
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}

	// set up a Postgres connection pool
	pool, err := postgres.NewPool(ctx, cfg, logger, cfg.Database.MaxConns)
	if err != nil {
		logger.Error(ctx, "db_connection_failed", "Failed to initialize Postgres pool", err, nil)
		return err
	}
	defer pool.Close()

	if cfg.Database.Migrate {
		if err := postgres.Migrate(ctx, pool, logger); err != nil {
			logger.Error(ctx, "db_migration_failed", "Failed to apply migrations", err, nil)
			return err
		}
	}

	// connect to RabbitMQ
	rmq, err := rabbitmq.ConnectRabbitMQ(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err, nil)
		return err
	}
	defer rmq.Close()

	// set up the necessary repos
	uow := postgres.NewUnitOfWork(pool)
	offerRepo := postgres.NewOfferRepo()
	requestRepo := postgres.NewRequestRepo()
	photoRepo := postgres.NewCarPhotoRepo()
	userRepo := postgres.NewUserRepo()
	telegramRepo := postgres.NewTelegramRepo()

	engine := matching.NewEngine(offerRepo, requestRepo,
		cfg.Matching.OfferWindow, cfg.Matching.RequestWindow, cfg.Matching.DefaultLimit)

	var store ports.MediaStore = media.Disabled{}
	if cfg.MediaEnabled() {
		store = media.NewCloudinary("", cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret, 30*time.Second, logger)
	} else {
		logger.Info(ctx, "media_disabled", "Cloudinary credentials not set, car photo uploads are disabled", nil)
	}

	// set up the services
	queue := rabbitmq.NewJobPublisher(rmq, contracts.ProducerAPI)
	rideSvc := rideservice.NewRideService(logger, uow, offerRepo, requestRepo, photoRepo, engine, queue, store, cfg.Cloudinary.Folder)
	userSvc := userservice.NewUserService(logger, uow, userRepo, telegramRepo)

	// set up the HTTP handlers and their routes
	mux := http.NewServeMux()
	ridehandler.NewRideHTTPHandler(rideSvc, logger).RegisterRoutes(mux, cfg.HTTP.BasePath)
	userhandler.NewUserHTTPHandler(userSvc, logger).RegisterRoutes(mux, cfg.HTTP.BasePath)
	mux.HandleFunc("GET "+cfg.HTTP.BasePath+"/health", healthHandler(pool, rmq))

	// concurrency limiter (global), blocks when capacity is full
	limitedHandler := withConcurrencyLimit(maxConcurrent, mux)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           limitedHandler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second, // photo uploads
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	logger.Info(ctx, "service_started",
		fmt.Sprintf("API started on port %d", cfg.HTTP.Port),
		map[string]any{"port": cfg.HTTP.Port, "base_path": cfg.HTTP.BasePath, "max_concurrent": maxConcurrent},
	)

	// start the server in a background goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info(ctx, "shutdown_started", "Starting graceful shutdown", nil)
		if err := srv.Shutdown(shCtx); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "http_shutdown_failed", "Failed to gracefully shut down HTTP server", err, nil)
		}
	case err := <-errCh:
		if err != nil {
			logger.Error(ctx, "http_server_error", "HTTP server terminated with error", err, map[string]any{"port": cfg.HTTP.Port})
			return err
		}
	}

	return nil
}

// healthHandler reports whether the database and the broker are reachable.
func healthHandler(pool *pgxpool.Pool, rmq *rabbitmq.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		dbOK := pool.Ping(ctx) == nil
		mqOK := rmq.Ready()

		status := http.StatusOK
		if !dbOK || !mqOK {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_, _ = fmt.Fprintf(w, `{"database":%t,"rabbitmq":%t}`, dbOK, mqOK)
	}
}

// withConcurrencyLimit wraps an http.Handler with a semaphore-based limiter.
func withConcurrencyLimit(n int, next http.Handler) http.Handler {
	if n <= 0 {
		return next
	}
	sem := make(chan struct{}, n)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case sem <- struct{}{}: // acquire
			defer func() { <-sem }() // release
			next.ServeHTTP(w, r)
		case <-r.Context().Done():
			// client canceled or server is shutting down
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		}
	})
}
