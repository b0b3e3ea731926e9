package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"go-permit/internal/config"
	"go-permit/internal/directory"
	"go-permit/internal/escalation"
	"go-permit/internal/messaging/kafka"
	"go-permit/internal/messaging/kafka/producer"
	"go-permit/internal/notify"
	"go-permit/internal/request"
	"go-permit/internal/shared/connection"
)

// RunWorker hosts the two background loops: the outbox dispatcher that drains
// queued notifications into Kafka, and the escalation scanner that sweeps
// approved permissions for missed check-ins.
func RunWorker(cfg config.Config) error {
	logger := zap.L().Named("app.worker")

	gormDB, err := connection.ConnectGORMWithRetry(cfg.DB, 5)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, 5)
	if err != nil {
		return err
	}
	defer rdb.Close()

	if cfg.KafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	kafkaWriter, err := connection.ConnectKafkaWithRetry(cfg.KafkaBroker, 5)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	outboxRepo := kafka.NewOutboxRepository(sqlDB)

	requestRepo := request.NewRepository(gormDB)
	directoryCache := directory.NewRedisCache(rdb, cfg.DirectoryTTL)
	directoryService := directory.NewService(directory.NewRepository(gormDB), directoryCache)
	notifyRouter := notify.NewRouter(cfg.Channels, outboxRepo)

	scanner := escalation.NewScanner(
		requestRepo,
		directoryService,
		notifyRouter,
		escalation.NewRedisLocker(rdb, 2*cfg.ScanInterval),
		cfg.PlaceholderPhoto,
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go producer.ProcessOutboxEvents(
		ctx,
		outboxRepo,
		kafkaWriter,
		logger,
		cfg.OutboxPollInterval,
	)

	go escalation.Run(ctx, scanner, cfg.ScanInterval, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("worker shutting down")
	cancel()

	return nil
}
