package worker

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gogogo/internal/general/config"
	"gogogo/internal/general/contracts"
	"gogogo/internal/general/jwt"
	"gogogo/internal/general/logger"
	"gogogo/internal/general/postgres"
	"gogogo/internal/general/rabbitmq"
	"gogogo/internal/general/webhook"
	"gogogo/internal/ports"
	"gogogo/internal/software/matching"
	"gogogo/internal/software/notify"
	"gogogo/internal/software/pipeline"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Run wires the match worker and consumes jobs until ctx is cancelled.
// prefetch and maxConcurrent override the config when positive.
func Run(ctx context.Context, configPath string, prefetch, maxConcurrent int) error {
	logger := logger.New("worker")
	ctx = logger.WithRequestID(ctx, "startup-001")

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}
	if prefetch <= 0 {
		prefetch = cfg.RabbitMQ.Prefetch
	}
	if maxConcurrent <= 0 {
		maxConcurrent = prefetch
	}

	// the worker owns a small pool so job reads never compete with API requests
	pool, err := postgres.NewPool(ctx, cfg, logger, cfg.Database.WorkerMaxConns)
	if err != nil {
		logger.Error(ctx, "db_connection_failed", "Failed to initialize Postgres pool", err, nil)
		return err
	}
	defer pool.Close()

	rmq, err := rabbitmq.ConnectRabbitMQ(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err, nil)
		return err
	}
	defer rmq.Close()

	uow := postgres.NewUnitOfWork(pool)
	offerRepo := postgres.NewOfferRepo()
	requestRepo := postgres.NewRequestRepo()
	userRepo := postgres.NewUserRepo()
	telegramRepo := postgres.NewTelegramRepo()
	photoRepo := postgres.NewCarPhotoRepo()

	orch := pipeline.NewOrchestrator(pipeline.Deps{
		Logger:   logger,
		UoW:      uow,
		Offers:   offerRepo,
		Requests: requestRepo,
		Telegram: telegramRepo,
		Engine: matching.NewEngine(offerRepo, requestRepo,
			cfg.Matching.OfferWindow, cfg.Matching.RequestWindow, cfg.Matching.DefaultLimit),
		Enricher:       notify.NewEnricher(userRepo, telegramRepo, photoRepo),
		Dispatcher:     notify.NewDispatcher(newNotifier(ctx, cfg, logger), logger, cfg.Notify.MaxParallel),
		VerifyCapacity: cfg.Matching.VerifyCapacity,
	})

	host, _ := os.Hostname()
	tag := fmt.Sprintf("match-worker-%s-%d", host, os.Getpid())

	logger.Info(ctx, "service_started", "Match worker started", map[string]any{
		"queue":           contracts.QueueMatchJobs,
		"prefetch":        prefetch,
		"max_concurrent":  maxConcurrent,
		"handler_timeout": cfg.RabbitMQ.HandlerTimeout.String(),
		"delivery_budget": cfg.DeliveryBudget().String(),
	})

	err = rmq.Consume(ctx, contracts.QueueMatchJobs, tag, prefetch, maxConcurrent, cfg.RabbitMQ.HandlerTimeout,
		func(ctx context.Context, d amqp.Delivery) error {
			err := orch.HandleJob(ctx, d.Body)
			if err != nil {
				logger.Error(ctx, "match_job_failed", "Match job failed", err, map[string]any{
					"message_id":  d.MessageId,
					"redelivered": d.Redelivered,
					"fatal":       errors.Is(err, pipeline.ErrFatalJob),
				})
			}
			return err
		})
	if err != nil {
		logger.Error(ctx, "consumer_stopped", "Match job consumer stopped with error", err, nil)
		return err
	}

	logger.Info(ctx, "shutdown_complete", "Match worker stopped", nil)
	return nil
}

// newNotifier returns the webhook notifier, or a no-op one when no URL is configured.
func newNotifier(ctx context.Context, cfg *config.Config, logger *logger.Logger) ports.Notifier {
	if cfg.Notify.WebhookURL == "" {
		logger.Info(ctx, "webhook_disabled", "No webhook URL configured, notifications are discarded", nil)
		return webhook.Noop{}
	}

	var signer *jwt.Manager
	if cfg.Notify.SigningSecret != "" {
		signer = jwt.NewManager(cfg.Notify.SigningSecret, "gogogo-worker", cfg.Notify.TokenTTL)
	}
	return webhook.New(cfg.Notify.WebhookURL, cfg.Notify.Timeout, signer)
}
