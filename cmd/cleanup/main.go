package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/qs3c/subs_go_server/config"
	"github.com/qs3c/subs_go_server/internal/database"
	"github.com/qs3c/subs_go_server/internal/pkg/logger"
	"github.com/qs3c/subs_go_server/internal/pkg/oss"
	"github.com/qs3c/subs_go_server/internal/repository"
	"github.com/qs3c/subs_go_server/internal/service"
)

var (
	dryRun        = flag.Bool("dry-run", true, "Dry run mode, only count matching subscriptions")
	retentionDays = flag.Int("retention-days", 90, "Days to keep canceled/expired subscriptions after their expiration date")
	batchSize     = flag.Int("batch-size", 500, "Rows archived and deleted per batch")
)

// 清理过期时间早于保留期的 CANCELED/EXPIRED 订阅，配置了 OSS 时先归档
func main() {
	flag.Parse()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zlog.Sync()

	if *retentionDays < 1 {
		zlog.Fatal("retention-days must be at least 1", zap.Int("retention_days", *retentionDays))
	}

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		zlog.Fatal("failed to connect database", zap.Error(err))
	}

	var archiver service.Archiver
	if cfg.OSS.Enabled() {
		ossClient, err := oss.NewClient(&cfg.OSS)
		if err != nil {
			zlog.Fatal("failed to init OSS client", zap.Error(err))
		}
		archiver = ossClient
	} else {
		zlog.Warn("OSS not configured, purged subscriptions will not be archived")
	}

	purger := service.NewPurgeService(
		repository.NewSubscriptionRepository(db),
		archiver,
		cfg.OSS.ArchivePrefix,
		*batchSize,
		zlog.Named("purge"),
	)

	cutoff := time.Now().UTC().AddDate(0, 0, -*retentionDays)
	zlog.Info("starting cleanup", zap.Bool("dry_run", *dryRun), zap.Time("cutoff", cutoff))

	result, err := purger.Purge(context.Background(), cutoff, *dryRun)
	if err != nil {
		zlog.Fatal("cleanup failed", zap.Error(err))
	}

	zlog.Info("cleanup complete",
		zap.Int64("matched", result.Matched),
		zap.Int64("deleted", result.Deleted),
		zap.Strings("archives", result.Archives),
	)
}
