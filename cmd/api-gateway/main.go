package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-revision-api/api/swagger"
	"github.com/noah-isme/sma-revision-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-revision-api/internal/middleware"
	"github.com/noah-isme/sma-revision-api/internal/models"
	"github.com/noah-isme/sma-revision-api/internal/repository"
	"github.com/noah-isme/sma-revision-api/internal/service"
	"github.com/noah-isme/sma-revision-api/internal/supply"
	"github.com/noah-isme/sma-revision-api/pkg/cache"
	"github.com/noah-isme/sma-revision-api/pkg/config"
	"github.com/noah-isme/sma-revision-api/pkg/database"
	"github.com/noah-isme/sma-revision-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-revision-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-revision-api/pkg/middleware/requestid"
)

// @title SMA Revision API
// @version 1.0.0
// @description Topic feedback for graded submissions and personalised revision lists.
// @BasePath /
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	readiness := []handler.ReadinessCheck{{Name: "postgres", Check: db.PingContext}}

	var redisClient *redis.Client
	if cfg.SupplyCache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, supply cache disabled", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			readiness = append(readiness, handler.ReadinessCheck{Name: "redis", Check: func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}})
		}
	}

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	submissionRepo := repository.NewSubmissionRepository(db)
	revisionRepo := repository.NewRevisionRepository(db)
	questionRepo := repository.NewQuestionBankRepository(db)

	supplier := buildSupplyChain(cfg, logr, questionRepo, redisClient, metricsSvc)

	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
	})
	builder := service.NewRevisionBuilder(revisionRepo, supplier, service.RevisionBuilderConfig{
		RedItems:      cfg.Revision.RedItems,
		AmberItems:    cfg.Revision.AmberItems,
		SupplyTimeout: cfg.Revision.SupplyTimeout,
		DefaultTitle:  cfg.Revision.DefaultTitle,
	}, metricsSvc, logr)
	feedbackSvc := service.NewFeedbackService(submissionRepo, logr)
	revisionSvc := service.NewRevisionService(submissionRepo, revisionRepo, builder, validate, logr)
	progressSvc := service.NewProgressService(revisionRepo, metricsSvc, logr)

	metricsHandler := handler.NewMetricsHandler(metricsSvc, logr, readiness...)
	feedbackHandler := handler.NewFeedbackHandler(feedbackSvc)
	revisionHandler := handler.NewRevisionHandler(revisionSvc)
	progressHandler := handler.NewProgressHandler(progressSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	staff := []models.UserRole{models.RoleTeacher, models.RoleAdmin}
	selfOrStaff := []string{string(models.RoleTeacher), string(models.RoleAdmin), "SELF"}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.JWT(authSvc))
	{
		api.GET("/submissions/:submissionId/feedback", feedbackHandler.Summary)

		api.POST("/revision-lists", revisionHandler.Generate)
		api.POST("/assignments/:assignmentId/revision-lists", internalmiddleware.RequireRoles(staff...), revisionHandler.GenerateForAssignment)
		api.GET("/revision-lists/:listId", revisionHandler.Get)
		api.DELETE("/revision-lists/:listId", internalmiddleware.RequireRoles(staff...), revisionHandler.Delete)

		api.PATCH("/revision-items/:itemId", progressHandler.Record)

		students := api.Group("/students/:studentId")
		students.Use(internalmiddleware.RBAC(selfOrStaff...))
		students.GET("/revision-lists", revisionHandler.ListByStudent)
		students.GET("/revision-lists/current", revisionHandler.Current)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

// buildSupplyChain orders practice sources: the database bank first, then an
// optional YAML bank, then the optional generator behind the Redis cache.
func buildSupplyChain(cfg *config.Config, logr *zap.Logger, questionRepo *repository.QuestionBankRepository, redisClient *redis.Client, metricsSvc *service.MetricsService) supply.Supplier {
	suppliers := []supply.Supplier{questionRepo}

	if cfg.QuestionBank.Dir != "" {
		bank, err := supply.NewFileBank(cfg.QuestionBank.Dir, logr)
		if err != nil {
			logr.Sugar().Warnw("question bank directory not loaded", "dir", cfg.QuestionBank.Dir, "error", err)
		} else {
			suppliers = append(suppliers, bank)
		}
	}

	if cfg.Generator.Enabled {
		client, err := supply.NewOpenAIClient(cfg.Generator.APIKey, cfg.Generator.BaseURL)
		if err != nil {
			logr.Sugar().Warnw("question generator disabled", "error", err)
		} else {
			var generator supply.Supplier = supply.NewGenerator(client, supply.GeneratorConfig{Model: cfg.Generator.Model}, logr)
			if redisClient != nil {
				cacheRepo := repository.NewCacheRepository(redisClient, logr)
				cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.SupplyCache.TTL, logr, true)
				generator = supply.NewCachedSupplier(generator, cacheSvc, cfg.SupplyCache.TTL, logr)
			}
			suppliers = append(suppliers, generator)
		}
	}

	return supply.NewChain(logr, questionRepo, suppliers...)
}
