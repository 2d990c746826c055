package main

import (
	"context"
	"log"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"lotbot/internal/bot"
	"lotbot/internal/config"
	"lotbot/internal/database"
	"lotbot/internal/logger"
	"lotbot/internal/metrics"
	"lotbot/internal/store"
	"lotbot/internal/worker"
)

func main() {
	cfg := config.LoadConfig()

	zlog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Could not create logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	db, err := database.ConnectPostgres(cfg)
	if err != nil {
		zlog.Fatal("could not connect to database", zap.Error(err))
	}

	rdb, err := database.ConnectRedis(cfg)
	if err != nil {
		zlog.Fatal("could not connect to redis", zap.Error(err))
	}

	metrics.StartServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pingDB(ctx, db)
	})

	st := store.NewGorm(db)

	b, err := bot.NewBot(cfg, st, rdb, zlog)
	if err != nil {
		zlog.Fatal("could not create bot", zap.Error(err))
	}

	checker := worker.NewChecker(st, rdb, b.Instance, zlog)
	sched, err := checker.Start()
	if err != nil {
		zlog.Fatal("could not start expiry worker", zap.Error(err))
	}
	defer func() { _ = sched.Shutdown() }()

	zlog.Info("service started", zap.String("env", cfg.Env))
	if err := b.Start(); err != nil {
		zlog.Fatal("bot stopped", zap.Error(err))
	}
}

func pingDB(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
