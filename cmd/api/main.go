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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/saufi-opi/mini-emr/api/swagger"
	"github.com/saufi-opi/mini-emr/internal/handler"
	"github.com/saufi-opi/mini-emr/internal/middleware"
	"github.com/saufi-opi/mini-emr/internal/repository"
	"github.com/saufi-opi/mini-emr/internal/service"
	"github.com/saufi-opi/mini-emr/pkg/cache"
	"github.com/saufi-opi/mini-emr/pkg/config"
	"github.com/saufi-opi/mini-emr/pkg/database"
	"github.com/saufi-opi/mini-emr/pkg/logger"
	corsmiddleware "github.com/saufi-opi/mini-emr/pkg/middleware/cors"
	"github.com/saufi-opi/mini-emr/pkg/middleware/ratelimit"
	reqidmiddleware "github.com/saufi-opi/mini-emr/pkg/middleware/requestid"
	"github.com/saufi-opi/mini-emr/pkg/observability"
)

// @title ClinicCare Mini EMR API
// @version 1.0.0
// @description Users, diagnoses and consultation records behind JWT authentication
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

var version = "dev"

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

	if err := observability.InitSentry(cfg.Sentry.DSN, cfg.Env, version); err != nil {
		logr.Warn("sentry disabled", zap.Error(err))
	}
	defer observability.FlushSentry()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		applied, err := database.Migrate(ctx, db)
		if err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
		logr.Info("database migrated", zap.Strings("applied", applied))
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redisClient.Close()

	validate := validator.New()
	metrics := service.NewMetricsService()
	hasher := service.NewPasswordHasher(0)

	userRepo := repository.NewUserRepository(db, metrics)
	diagnosisRepo := repository.NewDiagnosisRepository(db, metrics)
	consultationRepo := repository.NewConsultationRepository(db, metrics)

	tokens := service.NewTokenService(repository.NewRevocationRepository(redisClient), cfg.JWT.Secret, logr)
	guard := service.NewGuardService(tokens, userRepo, logr)
	authSvc := service.NewAuthService(userRepo, tokens, hasher, validate, logr, service.AuthConfig{
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
	})
	diagnosisCache := service.NewCacheService(
		repository.NewCacheRepository(redisClient, "diagnosis:"),
		metrics,
		cfg.Diagnosis.CacheTTL,
		logr,
		cfg.Diagnosis.CacheEnabled,
	)

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.NewLimiter(redisClient, logr).WithRecorder(metrics)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r, err := handler.NewEngine(cfg.RateLimit.TrustedProxies)
	if err != nil {
		logr.Fatal("failed to configure router", zap.Error(err))
	}
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metrics))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	handler.RegisterRoutes(r, handler.RouteConfig{
		APIPrefix: cfg.APIPrefix,
		Guard:     guard,
		Limiter:   limiter,
		Logger:    logr,
	}, handler.Handlers{
		Auth: handler.NewAuthHandler(authSvc, handler.CookieConfig{
			Secure:   cfg.Session.CookieSecure,
			SameSite: handler.ParseSameSite(cfg.Session.CookieSameSite),
		}, metrics),
		Users:         handler.NewUserHandler(service.NewUserService(userRepo, hasher, validate, logr)),
		Diagnoses:     handler.NewDiagnosisHandler(service.NewDiagnosisService(diagnosisRepo, diagnosisCache, validate, logr)),
		Consultations: handler.NewConsultationHandler(service.NewConsultationService(consultationRepo, validate, logr)),
		Metrics: handler.NewMetricsHandler(metrics, cfg.ProjectName, map[string]handler.ReadinessCheck{
			"database": db.PingContext,
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		}),
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
