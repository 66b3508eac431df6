package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/school-office-api/api/swagger"
	"github.com/noah-isme/school-office-api/internal/handler"
	"github.com/noah-isme/school-office-api/internal/middleware"
	"github.com/noah-isme/school-office-api/internal/repository"
	"github.com/noah-isme/school-office-api/internal/service"
	"github.com/noah-isme/school-office-api/pkg/cache"
	"github.com/noah-isme/school-office-api/pkg/config"
	"github.com/noah-isme/school-office-api/pkg/database"
	"github.com/noah-isme/school-office-api/pkg/export"
	"github.com/noah-isme/school-office-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/school-office-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-office-api/pkg/middleware/requestid"
	"github.com/noah-isme/school-office-api/pkg/storage"
)

// @title School Office API
// @version 1.0.0
// @description Student records, club enrollment and contract administration.
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metrics := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect redis", "error", err)
		}
		defer redisClient.Close() //nolint:errcheck
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, true)
	} else {
		cacheSvc = service.NewCacheService(nil, metrics, cfg.Cache.TTL, logr, false)
	}

	store, err := storage.NewLocalStorage(cfg.Documents.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare document storage", "error", err)
	}

	studentRepo := repository.NewStudentRepository(db)
	clubRepo := repository.NewClubRepository(db)
	selectionRepo := repository.NewClubSelectionRepository(db)
	contractRepo := repository.NewContractRepository(db)

	validate := validator.New()

	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	clubSvc := service.NewClubService(clubRepo, selectionRepo, cacheSvc, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(selectionRepo, clubRepo, studentRepo, cacheSvc, validate, logr)
	contractSvc := service.NewContractService(contractRepo, studentRepo, cacheSvc, validate, logr)
	historySvc := service.NewHistoryService(contractSvc, cacheSvc, metrics, validate, logr)
	registrationSvc := service.NewRegistrationService(contractRepo, studentRepo, clubRepo, selectionRepo, cacheSvc, validate, logr)
	documentSvc := service.NewDocumentService(contractRepo, studentRepo, export.NewPDFExporter(), store, service.DocumentServiceConfig{
		SchoolName: cfg.Documents.SchoolName,
		Workers:    cfg.Documents.ArchiveWorkers,
		MaxRetries: cfg.Documents.ArchiveRetries,
		RetryDelay: cfg.Documents.ArchiveRetryDelay,
	}, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	documentSvc.Start(ctx)
	defer documentSvc.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	studentHandler := handler.NewStudentHandler(studentSvc)
	api.GET("/students", studentHandler.List)
	api.GET("/students/:id", studentHandler.Get)
	api.POST("/students", studentHandler.Create)
	api.PUT("/students/:id", studentHandler.Update)
	api.DELETE("/students/:id", studentHandler.Delete)

	clubHandler := handler.NewClubHandler(clubSvc)
	api.GET("/clubs", clubHandler.List)
	api.GET("/clubs/:id", clubHandler.Get)
	api.POST("/clubs", clubHandler.Create)
	api.PUT("/clubs/:id", clubHandler.Update)
	api.DELETE("/clubs/:id", clubHandler.Delete)

	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	api.POST("/clubs/:id/students", enrollmentHandler.Enroll)
	api.DELETE("/clubs/:id/students/:selectionId", enrollmentHandler.Remove)
	api.POST("/club-selections", enrollmentHandler.EnrollBatch)

	contractHandler := handler.NewContractHandler(contractSvc)
	contractHandler.RegisterRoutes(api)

	historyHandler := handler.NewHistoryHandler(historySvc)
	api.GET("/history", historyHandler.List)
	api.DELETE("/history", historyHandler.BulkDelete)
	api.GET("/history/export", historyHandler.Export)

	registrationHandler := handler.NewRegistrationHandler(registrationSvc)
	api.POST("/registrations", registrationHandler.Finalize)

	documentHandler := handler.NewDocumentHandler(documentSvc)
	api.GET("/documents/:kind/:studentId", documentHandler.Render)
	api.POST("/documents/combined/:studentId", documentHandler.RenderCombined)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
