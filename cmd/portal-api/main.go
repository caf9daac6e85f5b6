package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/portal-colegio-api/api/swagger"
	"github.com/noah-isme/portal-colegio-api/internal/handler"
	"github.com/noah-isme/portal-colegio-api/internal/repository"
	"github.com/noah-isme/portal-colegio-api/internal/router"
	"github.com/noah-isme/portal-colegio-api/internal/service"
	"github.com/noah-isme/portal-colegio-api/internal/workflow"
	"github.com/noah-isme/portal-colegio-api/pkg/cache"
	"github.com/noah-isme/portal-colegio-api/pkg/config"
	"github.com/noah-isme/portal-colegio-api/pkg/database"
	"github.com/noah-isme/portal-colegio-api/pkg/export"
	"github.com/noah-isme/portal-colegio-api/pkg/jobs"
	"github.com/noah-isme/portal-colegio-api/pkg/logger"
)

// @title Portal Colegio API
// @version 1.0.0
// @description School portal: procedures, tuition invoices and role-scoped access for parents, teachers and administrators.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	validate := validator.New()
	metrics := service.NewMetricsService()
	engine := workflow.NewEngine()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	procedureRepo := repository.NewProcedureRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	programRepo := repository.NewProgramRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, "portal", logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.CatalogTTL, logr, redisClient != nil)

	auditSvc := service.NewAuditService(repository.NewAuditLogRepository(db), nil, metrics, logr)
	auditQueue := jobs.NewQueue("audit", auditSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.MaxRetries,
		RetryDelay: cfg.Audit.RetryDelay,
		Logger:     logr,
		OnFailure:  auditSvc.HandleFailure,
	})
	auditSvc.AttachQueue(auditQueue)
	// Not bound to the signal context: Stop drains entries recorded during shutdown.
	auditQueue.Start(context.Background())

	authSvc := service.NewAuthService(userRepo, auditSvc, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		SingleSession:      cfg.JWT.SingleSession,
	})
	catalogSvc := service.NewCatalogService(repository.NewProcedureTypeRepository(db), cacheSvc, cfg.Cache.CatalogTTL, logr)
	dashboardSvc := service.NewDashboardService(repository.NewDashboardRepository(db), cacheSvc, cfg.Cache.DashboardTTL, logr)
	procedureSvc := service.NewProcedureService(service.ProcedureServiceParams{
		Repo:      procedureRepo,
		Catalog:   catalogSvc,
		Students:  studentRepo,
		Users:     userRepo,
		Engine:    engine,
		Audit:     auditSvc,
		Metrics:   metrics,
		Cache:     cacheSvc,
		Validator: validate,
		Logger:    logr,
	})
	invoiceSvc := service.NewInvoiceService(invoiceRepo, studentRepo, engine, auditSvc, metrics, cacheSvc, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, userRepo, auditSvc, cacheSvc, validate, logr)
	userSvc := service.NewUserService(userRepo, auditSvc, validate, logr)
	programSvc := service.NewProgramService(programRepo, auditSvc, validate, logr)
	reportSvc := service.NewReportService(studentRepo, invoiceRepo, procedureRepo, &export.CSVExporter{BOM: cfg.Reports.CSVByteOrder}, export.NewPDFExporter(), service.ReportConfig{
		MaxRows:     cfg.Reports.MaxRows,
		TitlePrefix: cfg.Reports.PDFTitlePrefix,
	}, logr)

	checks := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(cache.Ping(redisClient))
	}

	r := router.New(router.Options{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Logger:         logr,
		Tokens:         authSvc,
		Actors:         service.NewActorResolver(studentRepo),
		MetricsService: metrics,
	}, router.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Catalog:    handler.NewCatalogHandler(catalogSvc),
		Procedures: handler.NewProcedureHandler(procedureSvc),
		Students:   handler.NewStudentHandler(studentSvc),
		Invoices:   handler.NewInvoiceHandler(invoiceSvc),
		Programs:   handler.NewProgramHandler(programSvc),
		Users:      handler.NewUserHandler(userSvc),
		Dashboard:  handler.NewDashboardHandler(dashboardSvc),
		Audit:      handler.NewAuditHandler(auditSvc),
		Reports:    handler.NewReportHandler(reportSvc),
		Metrics:    handler.NewMetricsHandler(metrics, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("http shutdown", zap.Error(err))
	}
	auditQueue.Stop()
}
