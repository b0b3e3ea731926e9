package app

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-permit/internal/config"
	"go-permit/internal/shared/connection"
)

func BuildApp(router *gin.Engine, cfg config.Config) error {
	// 1. Setup Infrastructure
	gormDB, err := connection.ConnectGORMWithRetry(cfg.DB, 5)
	if err != nil {
		return err
	}
	zap.L().Info("✅ Database connection established")

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}

	rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, 5)
	if err != nil {
		return err
	}
	zap.L().Info("✅ Redis connection established")

	// Register Modules & Routes
	return registerModules(router, sqlDB, gormDB, rdb, cfg)
}
