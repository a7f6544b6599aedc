package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pressly/goose/v3"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/time/rate"

	_ "github.com/clanpulse/clanpulse-api/api/swagger"
	"github.com/clanpulse/clanpulse-api/internal/handler"
	"github.com/clanpulse/clanpulse-api/internal/middleware"
	"github.com/clanpulse/clanpulse-api/internal/models"
	"github.com/clanpulse/clanpulse-api/internal/repository"
	"github.com/clanpulse/clanpulse-api/internal/service"
	"github.com/clanpulse/clanpulse-api/migrations"
	"github.com/clanpulse/clanpulse-api/pkg/cache"
	"github.com/clanpulse/clanpulse-api/pkg/config"
	"github.com/clanpulse/clanpulse-api/pkg/database"
	"github.com/clanpulse/clanpulse-api/pkg/logger"
	corsmiddleware "github.com/clanpulse/clanpulse-api/pkg/middleware/cors"
	ratelimitmiddleware "github.com/clanpulse/clanpulse-api/pkg/middleware/ratelimit"
	reqidmiddleware "github.com/clanpulse/clanpulse-api/pkg/middleware/requestid"
	"github.com/clanpulse/clanpulse-api/pkg/observability"
)

// @title ClanPulse API
// @version 1.0.0
// @description Clan data import, review and analytics backend
// @BasePath /api/v1
// @schemes http
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

	if cfg.Sentry.DSN != "" {
		flush, err := observability.InitSentry(cfg.Sentry.DSN, cfg.Env, cfg.Sentry.Release)
		if err != nil {
			logr.Sugar().Warnw("sentry init failed", "error", err)
		} else {
			defer flush()
		}
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		logr.Sugar().Fatalw("failed to set migration dialect", "error", err)
	}
	if err := goose.Up(db.DB, "."); err != nil {
		logr.Sugar().Fatalw("failed to run migrations", "error", err)
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if redisClient, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
	} else {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		defer cacheRepo.Close() //nolint:errcheck
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, true)
	}

	userRepo := repository.NewUserRepository(db)
	clanRepo := repository.NewClanRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	validationRepo := repository.NewValidationRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "clanpulse-api",
		Audience:           []string{"clanpulse-web"},
	})
	importSvc := service.NewImportService(submissionRepo, clanRepo, validationRepo, userRepo, metricsSvc, validate, logr, cfg.Import.MaxItemsPerType)
	reviewSvc := service.NewReviewService(submissionRepo, clanRepo, validationRepo, userRepo, cacheSvc, metricsSvc, logr)
	submissionSvc := service.NewSubmissionService(submissionRepo)
	dashboardSvc := service.NewDashboardService(analyticsRepo, clanRepo, cacheSvc, logr, cfg.Dashboard.CacheTTL)
	exportSvc := service.NewExportService(analyticsRepo, clanRepo, logr, cfg.Export.MaxRows)

	authHandler := handler.NewAuthHandler(authSvc)
	importHandler := handler.NewImportHandler(importSvc)
	submissionHandler := handler.NewSubmissionHandler(submissionSvc, reviewSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
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
	if cfg.RateLimit.Enabled {
		limiter := ratelimitmiddleware.NewIPRateLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
		r.Use(ratelimitmiddleware.Middleware(limiter))
	}

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
			auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
		}

		protected := api.Group("", middleware.JWT(authSvc))
		{
			if cfg.Import.Enabled {
				protected.POST("/import/submit",
					middleware.Audit(userRepo, models.AuditActionImportSubmit, "import"),
					importHandler.Submit)
			}

			admin := protected.Group("", middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))
			{
				admin.GET("/import/submissions", submissionHandler.List)
				admin.GET("/import/submissions/:id", submissionHandler.Get)
				admin.POST("/import/submissions/:id/review",
					middleware.Audit(userRepo, models.AuditActionSubmissionReview, "submission"),
					submissionHandler.Review)
				admin.GET("/metrics/snapshot", metricsHandler.Snapshot)
			}

			if cfg.Dashboard.Enabled {
				protected.GET("/clans/:id/dashboard", dashboardHandler.ClanOverview)
			}
			if cfg.Export.Enabled {
				protected.GET("/clans/:id/export/chests", exportHandler.ChestEntries)
			}
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
