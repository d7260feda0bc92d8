package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/facility-report-api/internal/repository"
	"github.com/noah-isme/facility-report-api/internal/service"
	"github.com/noah-isme/facility-report-api/pkg/cache"
	"github.com/noah-isme/facility-report-api/pkg/config"
	"github.com/noah-isme/facility-report-api/pkg/database"
	"github.com/noah-isme/facility-report-api/pkg/jobs"
	"github.com/noah-isme/facility-report-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	interval := flag.Duration("interval", cfg.Replication.Interval, "repeat the resync on this interval; zero runs once and exits")
	flag.Parse()

	logr, err := logger.New(cfg, "replicate")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if !cfg.Replica.Configured() {
		logr.Fatal("replica not configured; set REPLICA_DB_URL or REPLICA_DB_HOST")
	}

	primaryDB, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("connect primary database", zap.Error(err))
	}
	defer primaryDB.Close()

	replicaDB, err := database.NewReplica(cfg.Replica)
	if err != nil {
		logr.Fatal("connect replica database", zap.Error(err))
	}
	defer replicaDB.Close()

	var cacheRepo service.CacheRepository
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable; stats cache will expire on its own", zap.Error(err))
	} else if redisClient != nil {
		defer redisClient.Close()
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}

	metrics := service.NewMetricsService()
	replication := service.NewReplicationService(service.ReplicationParams{
		Store:   repository.NewReplicationRepository(primaryDB, replicaDB, cfg.Replication.BatchSize),
		Primary: repository.NewReportRepository(primaryDB),
		Replica: repository.NewReportRepository(replicaDB),
		Cache:   service.NewCacheService(cacheRepo, metrics, cfg.Stats.CacheTTL, logr, cacheRepo != nil),
		Metrics: metrics,
		Logger:  logr,
		Timeout: cfg.Replication.Timeout,
	})

	task := func(ctx context.Context) error {
		_, err := replication.Run(ctx)
		return err
	}
	runner := jobs.NewRunner("replication", task, jobs.RunnerConfig{
		Interval:   *interval,
		RunOnStart: true,
		Logger:     logr,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *interval <= 0 {
		if err := runner.RunOnce(ctx); err != nil {
			logr.Sync() //nolint:errcheck
			os.Exit(1)
		}
		return
	}

	runner.Start(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logr.Info("stopping replication runner", zap.Duration("interval", *interval))
	stopped := make(chan struct{})
	go func() {
		runner.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(cfg.Replication.Timeout + 5*time.Second):
		logr.Warn("replication runner did not stop in time")
	}
}
