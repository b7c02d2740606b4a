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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campusplan/scheduler-api/api/swagger"
	"github.com/campusplan/scheduler-api/internal/engine"
	"github.com/campusplan/scheduler-api/internal/handler"
	"github.com/campusplan/scheduler-api/internal/repository"
	"github.com/campusplan/scheduler-api/internal/service"
	"github.com/campusplan/scheduler-api/pkg/cache"
	"github.com/campusplan/scheduler-api/pkg/config"
	"github.com/campusplan/scheduler-api/pkg/database"
	"github.com/campusplan/scheduler-api/pkg/logger"
	authmiddleware "github.com/campusplan/scheduler-api/pkg/middleware/auth"
	corsmiddleware "github.com/campusplan/scheduler-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campusplan/scheduler-api/pkg/middleware/requestid"
)

// @title Campus Scheduler API
// @version 0.1.0
// @description Constraint-based room and timetable scheduling for academic terms
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
		logr.Sugar().Fatalw("database unavailable", "error", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, continuing without cache", "error", err)
			redisClient = nil
		}
	}

	// Repositories
	roomRepo := repository.NewRoomRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	facultyRepo := repository.NewFacultyRepository(db)
	runRepo := repository.NewScheduleRunRepository(db)
	allocRepo := repository.NewAllocationRepository(db)
	overrideRepo := repository.NewOverrideRepository(db)
	absenceRepo := repository.NewAbsenceRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services
	metricsSvc := service.NewMetricsService()
	tuning := service.EngineTuning{
		ProposalTTL:     cfg.Engine.ProposalTTL,
		IterationBudget: cfg.Engine.IterationBudget,
		TimeBudget:      cfg.Engine.TimeBudget,
		DefaultSeed:     cfg.Engine.DefaultSeed,
		MaxBlockHours:   cfg.Engine.MaxBlockHours,
		InitialTemp:     cfg.Engine.InitialTemp,
		CoolingRate:     cfg.Engine.CoolingRate,
		Weights: engine.Weights{
			Preference: cfg.Engine.WeightPreference,
			Gap:        cfg.Engine.WeightGap,
			Balance:    cfg.Engine.WeightBalance,
			Continuity: cfg.Engine.WeightContinuity,
		},
	}
	generatorSvc := service.NewScheduleGeneratorService(roomRepo, sectionRepo, facultyRepo, runRepo, allocRepo, db, metricsSvc, nil, logr, tuning)
	scheduleSvc := service.NewScheduleService(runRepo, allocRepo, overrideRepo, cacheRepo, db, logr, cfg.Cache.TTL)
	overrideSvc := service.NewOverrideService(overrideRepo, allocRepo, absenceRepo, runRepo, roomRepo, sectionRepo, cacheRepo, db, nil, logr)
	absenceSvc := service.NewAbsenceService(absenceRepo, allocRepo, overrideRepo, runRepo, roomRepo, sectionRepo, db, nil, logr)
	roomSvc := service.NewRoomService(roomRepo, nil, logr)
	sectionSvc := service.NewSectionService(sectionRepo, facultyRepo, nil, logr)
	facultySvc := service.NewFacultyService(facultyRepo, nil, logr)
	exportSvc := service.NewExportService(runRepo, allocRepo, cacheRepo, logr, cfg.Exports.WorkerConcurrency, cfg.Exports.WorkerRetries)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	exportSvc.Start(ctx)
	defer exportSvc.Stop()

	// Handlers
	schedulerHandler := handler.NewSchedulerHandler(generatorSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc, exportSvc)
	overrideHandler := handler.NewOverrideHandler(overrideSvc)
	absenceHandler := handler.NewAbsenceHandler(absenceSvc)
	roomHandler := handler.NewRoomHandler(roomSvc)
	sectionHandler := handler.NewSectionHandler(sectionSvc)
	facultyHandler := handler.NewFacultyHandler(facultySvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metricsSvc.ObserveHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	})

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
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
	api.Use(authmiddleware.Middleware(cfg.JWT.Secret))
	{
		admin := api.Group("")
		admin.Use(authmiddleware.RequireAdmin())
		{
			admin.POST("/scheduler/generate", schedulerHandler.Generate)
			admin.POST("/scheduler/save", schedulerHandler.Save)
			admin.GET("/scheduler/proposals/:id", schedulerHandler.Proposal)

			admin.POST("/schedule/runs/:id/lock", scheduleHandler.Lock)
			admin.DELETE("/schedule/runs/:id", scheduleHandler.DeleteRun)

			admin.POST("/overrides", overrideHandler.Create)
			admin.DELETE("/overrides/:id", overrideHandler.Cancel)

			admin.POST("/makeups/:id/decide", absenceHandler.DecideMakeup)
			admin.GET("/makeups/pending", absenceHandler.PendingMakeups)

			admin.POST("/rooms", roomHandler.Create)
			admin.PATCH("/rooms/:id", roomHandler.Update)
			admin.DELETE("/rooms/:id", roomHandler.Delete)

			admin.POST("/sections", sectionHandler.Create)
			admin.PATCH("/sections/:id", sectionHandler.Update)
			admin.DELETE("/sections/:id", sectionHandler.Delete)

			admin.POST("/faculty", facultyHandler.Create)
			admin.PATCH("/faculty/:id", facultyHandler.Update)
		}

		api.GET("/schedule", scheduleHandler.Query)
		api.GET("/schedule/runs", scheduleHandler.Runs)
		api.GET("/schedule/runs/:id", scheduleHandler.Run)
		api.POST("/schedule/runs/:id/export", scheduleHandler.Export)
		api.GET("/schedule/exports/:token", scheduleHandler.Download)

		api.GET("/overrides", overrideHandler.List)

		api.POST("/absences", absenceHandler.Report)
		api.GET("/absences", absenceHandler.List)
		api.POST("/makeups", absenceHandler.RequestMakeup)

		api.GET("/rooms", roomHandler.List)
		api.GET("/rooms/:id", roomHandler.Get)
		api.GET("/sections", sectionHandler.List)
		api.GET("/sections/:id", sectionHandler.Get)
		api.GET("/faculty", facultyHandler.List)
		api.GET("/faculty/:id", facultyHandler.Get)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
