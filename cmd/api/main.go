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

	_ "github.com/acadops/timetable-api/api/swagger"
	"github.com/acadops/timetable-api/internal/handler"
	"github.com/acadops/timetable-api/internal/middleware"
	"github.com/acadops/timetable-api/internal/repository"
	"github.com/acadops/timetable-api/internal/service"
	"github.com/acadops/timetable-api/pkg/cache"
	"github.com/acadops/timetable-api/pkg/config"
	"github.com/acadops/timetable-api/pkg/database"
	"github.com/acadops/timetable-api/pkg/logger"
	corsmiddleware "github.com/acadops/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/acadops/timetable-api/pkg/middleware/requestid"
)

// @title AcadOps Timetable API
// @version 0.1.0
// @description Scheduling and conflict-resolution engine for academic administration
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	// Redis backs the timetable view cache and the notification channel.
	// The engine runs without it; both degrade to no-ops.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, cache and notifications disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	validate := validator.New()

	termRepo := repository.NewTermRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	sectionCourseRepo := repository.NewSectionCourseRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	facultyRepo := repository.NewFacultyRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	guard := service.NewIntegrityGuard(logr)
	guard.Protect("term", "section", func(ctx context.Context, id string) (int, error) {
		return sectionRepo.CountByTerm(ctx, id)
	})
	guard.Protect("section", "section_course", func(ctx context.Context, id string) (int, error) {
		return sectionCourseRepo.CountBySection(ctx, id)
	})
	guard.Protect("room", "schedule", func(ctx context.Context, id string) (int, error) {
		return scheduleRepo.CountByRoom(ctx, id)
	})
	guard.Protect("department", "program", func(ctx context.Context, id string) (int, error) {
		return catalogRepo.CountProgramsByDepartment(ctx, id)
	})
	guard.Protect("program", "course", func(ctx context.Context, id string) (int, error) {
		return catalogRepo.CountCoursesByProgram(ctx, id)
	})
	guard.Protect("course", "section_course", func(ctx context.Context, id string) (int, error) {
		return catalogRepo.CountSectionCoursesByCourse(ctx, id)
	})

	metricsSvc := service.NewMetricsService()

	var notifClient = redisClient
	if !cfg.Notifications.Enabled {
		notifClient = nil
	}
	notifSvc := service.NewNotificationService(notifClient, cfg.Notifications.Channel, cfg.Notifications.Workers, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	notifSvc.Start(ctx)
	defer notifSvc.Stop()

	detector := service.NewConflictDetector(scheduleRepo, metricsSvc, logr)
	scheduleSvc := service.NewScheduleService(
		scheduleRepo,
		sectionCourseRepo,
		roomRepo,
		facultyRepo,
		detector,
		notifSvc,
		cacheRepo,
		cfg.Timetable.ViewCacheTTL,
		validate,
		logr,
	)
	termSvc := service.NewTermService(termRepo, guard, validate, logr)
	sectionSvc := service.NewSectionService(sectionRepo, termRepo, guard, validate, logr)
	sectionCourseSvc := service.NewSectionCourseService(sectionCourseRepo, sectionRepo, catalogRepo, facultyRepo, scheduleRepo, validate, logr)
	roomSvc := service.NewRoomService(roomRepo, guard, validate, logr)
	facultySvc := service.NewFacultyService(facultyRepo, logr)
	catalogSvc := service.NewCatalogService(catalogRepo, guard, validate, logr)
	exportSvc := service.NewExportService(scheduleSvc, sectionRepo, cfg.Timetable.ExportLimit, logr)

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
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		status := gin.H{"status": "ready"}
		if redisClient != nil {
			if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
				status["cache"] = "unavailable"
			}
		}
		c.JSON(http.StatusOK, status)
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	handler.RegisterRoutes(api, handler.Handlers{
		Terms:          handler.NewTermHandler(termSvc, sectionSvc),
		Sections:       handler.NewSectionHandler(sectionSvc),
		SectionCourses: handler.NewSectionCourseHandler(sectionCourseSvc),
		Schedules:      handler.NewScheduleHandler(scheduleSvc, exportSvc),
		Rooms:          handler.NewRoomHandler(roomSvc),
		Faculty:        handler.NewFacultyHandler(facultySvc),
		Catalog:        handler.NewCatalogHandler(catalogSvc),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
