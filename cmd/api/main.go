package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/activity-media-api/api/swagger"
	"github.com/noah-isme/activity-media-api/internal/handler"
	"github.com/noah-isme/activity-media-api/internal/mediahost"
	"github.com/noah-isme/activity-media-api/internal/middleware"
	"github.com/noah-isme/activity-media-api/internal/repository"
	"github.com/noah-isme/activity-media-api/internal/service"
	"github.com/noah-isme/activity-media-api/pkg/cache"
	"github.com/noah-isme/activity-media-api/pkg/config"
	"github.com/noah-isme/activity-media-api/pkg/database"
	"github.com/noah-isme/activity-media-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/activity-media-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/activity-media-api/pkg/middleware/requestid"
	"github.com/noah-isme/activity-media-api/pkg/scratch"
)

// @title Activity Media API
// @version 1.0.0
// @description Media submission service for topic activities
// @BasePath /api/v1
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Listings.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, listing cache disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Listings.CacheTTL, logr, true)
		}
	}

	scratchStore, err := scratch.NewStore(cfg.Uploads.ScratchDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare scratch directory", "error", err)
	}

	uploader := mediahost.NewCloudinaryUploader(cfg.MediaHost)
	submissionRepo := repository.NewSubmissionRepository(db, metricsSvc)
	submissionSvc := service.NewSubmissionService(
		submissionRepo,
		scratchStore,
		uploader,
		cacheSvc,
		metricsSvc,
		validator.New(),
		logr,
		service.SubmissionServiceConfig{
			UploadTimeout:   cfg.MediaHost.UploadTimeout,
			ListingCacheTTL: cfg.Listings.CacheTTL,
		},
	)
	submissionHandler := handler.NewSubmissionHandler(submissionSvc, scratchStore, cfg.Uploads.MaxFileSizeBytes)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		activities := api.Group("/activities/:userId/:topic/:activityNo")
		activities.POST("/image", submissionHandler.UploadImage)
		activities.POST("/video", submissionHandler.UploadVideo)
		activities.GET("", submissionHandler.Status)

		topics := api.Group("/topics/:topic")
		topics.GET("/videos", submissionHandler.ListVideos)
		topics.GET("/images", submissionHandler.ListImages)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
