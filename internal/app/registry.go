package app

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"go-permit/internal/blob"
	"go-permit/internal/config"
	"go-permit/internal/directory"
	"go-permit/internal/messaging/kafka"
	"go-permit/internal/middleware"
	"go-permit/internal/notify"
	"go-permit/internal/request"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	cfg config.Config,
) error {
	router.Use(middleware.RequestID())
	router.Use(middleware.RateLimitByIP(rate.Limit(20), 40))

	// --- Repositories ---
	requestRepo := request.NewRepository(gormDB)
	directoryRepo := directory.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- Services ---
	directoryCache := directory.NewRedisCache(rdb, cfg.DirectoryTTL)
	directoryService := directory.NewService(directoryRepo, directoryCache)
	notifyRouter := notify.NewRouter(cfg.Channels, outboxRepo)
	blobStore := blob.NewHTTPStore(cfg.BlobUploadURL)
	requestService := request.NewService(db, requestRepo, directoryService, notifyRouter, blobStore, cfg)

	// --- Handlers ---
	requestHandler := request.NewHandler(requestService, cfg)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		request.RegisterRoutes(api, requestHandler, cfg.JWTSecret, rdb)
	}

	return nil
}
