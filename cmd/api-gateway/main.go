package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/facility-report-api/api/swagger"
	"github.com/noah-isme/facility-report-api/internal/handler"
	"github.com/noah-isme/facility-report-api/internal/middleware"
	"github.com/noah-isme/facility-report-api/internal/repository"
	"github.com/noah-isme/facility-report-api/internal/router"
	"github.com/noah-isme/facility-report-api/internal/service"
	"github.com/noah-isme/facility-report-api/pkg/cache"
	"github.com/noah-isme/facility-report-api/pkg/config"
	"github.com/noah-isme/facility-report-api/pkg/database"
	"github.com/noah-isme/facility-report-api/pkg/export"
	"github.com/noah-isme/facility-report-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/facility-report-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/facility-report-api/pkg/middleware/requestid"
	"github.com/noah-isme/facility-report-api/pkg/storage"
)

// @title Facility Report API
// @version 1.0.0
// @description Facility maintenance reporting with a replicated read store
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg, "api-gateway")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
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
	if replicaDB != nil {
		defer replicaDB.Close()
	} else {
		logr.Warn("replica not configured; weak reads fall back to primary")
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable; caching disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	users := repository.NewUserRepository(primaryDB)
	reports := repository.NewReportRepository(primaryDB)
	replication := repository.NewReplicationRepository(primaryDB, replicaDB, cfg.Replication.BatchSize)

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Stats.CacheTTL, logr, cacheRepo != nil)

	routerParams := service.RouterParams{Primary: reports, Metrics: metrics, Logger: logr}
	replicationParams := service.ReplicationParams{
		Store:   replication,
		Primary: reports,
		Cache:   cacheSvc,
		Metrics: metrics,
		Logger:  logr,
		Timeout: cfg.Replication.Timeout,
	}
	if replicaDB != nil {
		replicaReports := repository.NewReportRepository(replicaDB)
		routerParams.Replica = replicaReports
		routerParams.State = replication
		replicationParams.Replica = replicaReports
	}
	consistency := service.NewConsistencyRouter(routerParams)

	ranges := service.DateRangePolicy{
		DefaultWindowDays: cfg.Stats.DefaultWindowDays,
		MaxRangeDays:      cfg.Stats.MaxRangeDays,
	}

	authSvc := service.NewAuthService(users, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	lifecycleSvc := service.NewLifecycleService(reports, users, validate, logr, service.WithLifecycleMetrics(metrics))
	reportSvc := service.NewReportService(consistency, logr)
	statsSvc := service.NewStatsService(consistency, cacheSvc, service.StatsServiceConfig{
		Ranges:   ranges,
		CacheTTL: cfg.Stats.CacheTTL,
	}, logr)
	durationSvc := service.NewDurationService(consistency, ranges, export.NewRenderer(), logr)
	taskSvc := service.NewTaskService(consistency, logr)
	userSvc := service.NewUserService(users, logr)
	replicationSvc := service.NewReplicationService(replicationParams)

	var uploadSvc *service.UploadService
	if cfg.Storage.Enabled {
		uploadSvc = service.NewUploadService(storage.NewPhotoSigner(cfg.Storage), validate, logr)
	} else {
		uploadSvc = service.NewUploadService(nil, validate, logr)
	}

	checks := map[string]handler.Pinger{"primary": primaryDB}
	if replicaDB != nil {
		checks["replica"] = replicaDB
	}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	router.Register(r, cfg.APIPrefix, authSvc, router.Handlers{
		Auth:    handler.NewAuthHandler(authSvc, cfg.Env == config.EnvProduction),
		Reports: handler.NewReportHandler(lifecycleSvc, reportSvc),
		Tasks:   handler.NewTaskHandler(taskSvc),
		Stats:   handler.NewStatsHandler(statsSvc, durationSvc),
		Admin:   handler.NewAdminHandler(replicationSvc, userSvc, uploadSvc),
		Metrics: handler.NewMetricsHandler(metrics, checks),
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "replica", replicaDB != nil, "cache", cacheSvc.Enabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logr.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
