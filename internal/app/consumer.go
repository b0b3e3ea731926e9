package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"go-permit/internal/blob"
	"go-permit/internal/config"
	"go-permit/internal/directory"
	"go-permit/internal/messaging/kafka"
	"go-permit/internal/messaging/kafka/consumer"
	"go-permit/internal/notify"
	"go-permit/internal/request"
	"go-permit/internal/shared/connection"
)

// RunConsumer reads approve/reject actions pressed in notification channels
// and applies them through the same decision path the HTTP API uses.
func RunConsumer(cfg config.Config) error {
	logger := zap.L().Named("app.consumer")

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

	outboxRepo := kafka.NewOutboxRepository(sqlDB)
	requestRepo := request.NewRepository(gormDB)
	directoryCache := directory.NewRedisCache(rdb, cfg.DirectoryTTL)
	directoryService := directory.NewService(directory.NewRepository(gormDB), directoryCache)
	notifyRouter := notify.NewRouter(cfg.Channels, outboxRepo)
	blobStore := blob.NewHTTPStore(cfg.BlobUploadURL)

	requestService := request.NewService(sqlDB, requestRepo, directoryService, notifyRouter, blobStore, cfg)

	reader := connection.NewKafkaReader(cfg.KafkaBroker, cfg.ActionTopic, "go-permit-actions")
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go consumer.ConsumeActionEvents(ctx, reader, requestService, cfg, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()

	return nil
}
