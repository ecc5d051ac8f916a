package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/attendance-report-api/api/swagger"
	"github.com/noah-isme/attendance-report-api/internal/handler"
	"github.com/noah-isme/attendance-report-api/internal/middleware"
	"github.com/noah-isme/attendance-report-api/internal/repository"
	"github.com/noah-isme/attendance-report-api/internal/service"
	"github.com/noah-isme/attendance-report-api/pkg/cache"
	"github.com/noah-isme/attendance-report-api/pkg/config"
	"github.com/noah-isme/attendance-report-api/pkg/database"
	"github.com/noah-isme/attendance-report-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/attendance-report-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/attendance-report-api/pkg/middleware/requestid"
)

// @title Attendance Report API
// @version 1.0.0
// @description Staff attendance reporting service for the school portal
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, report caching disabled", "error", err)
		redisClient = nil
	}

	metricsSvc := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Reports.CacheTTL, logr, cfg.Reports.CacheEnabled && redisClient != nil)

	eventRepo := repository.NewAttendanceEventRepository(db)
	terms := service.NewTermCalendarFromConfig(cfg.Terms)
	windows := service.NewWindowResolver(terms)
	aggregator := service.NewAggregator(cfg.Reports.DefaultExpectedArrival)
	reducer := service.NewSummaryReducer(cfg.Reports.DefaultExpectedArrival)
	reportSvc := service.NewReportService(eventRepo, windows, aggregator, reducer, cacheSvc, metricsSvc, logr)

	reportHandler := handler.NewReportHandler(reportSvc, nil)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)

	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	{
		reports := api.Group("/reports")
		reports.GET("/attendance", reportHandler.Generate)
		reports.GET("/attendance/events", reportHandler.Events)
		reports.DELETE("/attendance/cache", reportHandler.InvalidateCache)

		api.GET("/metrics/system", metricsHandler.System)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
