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

	_ "github.com/acadplan/acadplan-api/api/swagger"
	"github.com/acadplan/acadplan-api/internal/handler"
	internalmiddleware "github.com/acadplan/acadplan-api/internal/middleware"
	"github.com/acadplan/acadplan-api/internal/models"
	"github.com/acadplan/acadplan-api/internal/repository"
	"github.com/acadplan/acadplan-api/internal/service"
	"github.com/acadplan/acadplan-api/pkg/cache"
	"github.com/acadplan/acadplan-api/pkg/config"
	"github.com/acadplan/acadplan-api/pkg/database"
	"github.com/acadplan/acadplan-api/pkg/logger"
	corsmiddleware "github.com/acadplan/acadplan-api/pkg/middleware/cors"
	reqidmiddleware "github.com/acadplan/acadplan-api/pkg/middleware/requestid"
	"github.com/acadplan/acadplan-api/pkg/storage"
)

// @title AcadPlan API
// @version 1.0.0
// @description Multi-tenant academic schedule planning service
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

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, conflict report caching disabled", "error", err)
		redisClient = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	institutionRepo := repository.NewInstitutionRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	entryRepo := repository.NewEntryRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	conflictRepo := repository.NewConflictRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "acadplan-api",
		Audience:           []string{"acadplan"},
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	institutionSvc := service.NewInstitutionService(institutionRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, courseRepo, validate, logr)
	availabilitySvc := service.NewAvailabilityService(availabilityRepo, userRepo, validate, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, subjectRepo, notificationSvc, validate, logr)

	var scheduleSvc *service.ScheduleService
	var conflictSvc *service.ConflictService
	var generatorSvc *service.GeneratorService
	if redisClient != nil && cfg.Conflicts.CacheEnabled {
		reportCache := repository.NewConflictCacheRepository(redisClient, cfg.Conflicts.CacheTTL)
		scheduleSvc = service.NewScheduleService(scheduleRepo, entryRepo, reportCache, validate, logr)
		conflictSvc = service.NewConflictService(scheduleRepo, entryRepo, availabilityRepo, conflictRepo, reportCache, validate, logr)
		generatorSvc = service.NewGeneratorService(scheduleRepo, subjectRepo, userRepo, entryRepo, reportCache, nil, cfg.Generator, logr)
	} else {
		scheduleSvc = service.NewScheduleService(scheduleRepo, entryRepo, nil, validate, logr)
		conflictSvc = service.NewConflictService(scheduleRepo, entryRepo, availabilityRepo, conflictRepo, nil, validate, logr)
		generatorSvc = service.NewGeneratorService(scheduleRepo, subjectRepo, userRepo, entryRepo, nil, nil, cfg.Generator, logr)
	}

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportRepo := repository.NewExportRepository(db)
		exportSvc = service.NewExportService(exportRepo, scheduleRepo, entryRepo, subjectRepo, userRepo, store, signer, service.ExportQueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
		}, logr)
		exportSvc.Start(ctx)
		defer exportSvc.Stop()

		go func() {
			ticker := time.NewTicker(cfg.Exports.CleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					exportSvc.CleanupExpired(cfg.Exports.SignedURLTTL)
				}
			}
		}()
	}

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	institutionHandler := handler.NewInstitutionHandler(institutionSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	generatorHandler := handler.NewGeneratorHandler(generatorSvc, metricsSvc)
	conflictHandler := handler.NewConflictHandler(conflictSvc, metricsSvc)
	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	authed := api.Group("", internalmiddleware.JWT(authSvc))
	authed.POST("/auth/logout", authHandler.Logout)
	authed.PUT("/auth/password", authHandler.ChangePassword)
	authed.GET("/auth/me", authHandler.Me)

	admin := authed.Group("", internalmiddleware.RequireRoles(models.RoleAdmin))
	admin.POST("/users", userHandler.Create)
	admin.PUT("/users/:id", userHandler.Update)
	admin.PUT("/institution", institutionHandler.Update)

	staff := authed.Group("", internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator))
	staff.GET("/users", userHandler.List)
	staff.GET("/users/:id", userHandler.Get)
	staff.POST("/courses", courseHandler.Create)
	staff.PUT("/courses/:id", courseHandler.Update)
	staff.DELETE("/courses/:id", courseHandler.Delete)
	staff.POST("/subjects", subjectHandler.Create)
	staff.PUT("/subjects/:id", subjectHandler.Update)
	staff.DELETE("/subjects/:id", subjectHandler.Delete)
	staff.POST("/schedules", scheduleHandler.Create)
	staff.PUT("/schedules/:id", scheduleHandler.Update)
	staff.DELETE("/schedules/:id", scheduleHandler.Delete)
	staff.POST("/schedules/:id/publish", scheduleHandler.Publish)
	staff.POST("/schedules/:id/entries", scheduleHandler.AddEntry)
	staff.DELETE("/schedules/:id/entries/:entryId", scheduleHandler.DeleteEntry)
	staff.POST("/schedules/:id/generate", generatorHandler.Generate)
	staff.GET("/schedules/:id/conflicts", conflictHandler.DetectForSchedule)
	staff.GET("/schedules/:id/conflicts/resolved", conflictHandler.ListResolved)
	staff.GET("/conflicts", conflictHandler.DetectPublished)
	staff.POST("/conflicts/resolve", conflictHandler.Resolve)
	staff.GET("/assignments", assignmentHandler.List)
	staff.POST("/assignments/:id/approve", assignmentHandler.Approve)
	staff.POST("/assignments/:id/decline", assignmentHandler.Decline)

	authed.GET("/institution", institutionHandler.Get)
	authed.GET("/courses", courseHandler.List)
	authed.GET("/courses/:id", courseHandler.Get)
	authed.GET("/subjects", subjectHandler.List)
	authed.GET("/subjects/:id", subjectHandler.Get)
	authed.GET("/teachers", userHandler.ListTeachers)
	authed.GET("/schedules", scheduleHandler.List)
	authed.GET("/schedules/:id", scheduleHandler.Get)
	authed.GET("/schedules/:id/entries", scheduleHandler.ListEntries)
	authed.GET("/notifications", notificationHandler.List)
	authed.POST("/notifications/:id/read", notificationHandler.MarkRead)
	authed.GET("/assignments/mine", assignmentHandler.ListMine)

	teacherOrStaff := internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleCoordinator), "SELF")
	authed.GET("/teachers/:id/availability", teacherOrStaff, availabilityHandler.List)
	authed.PUT("/teachers/:id/availability", teacherOrStaff, availabilityHandler.Replace)

	authed.POST("/assignments", internalmiddleware.RequireRoles(models.RoleTeacher), assignmentHandler.Request)

	if exportSvc != nil {
		exportHandler := handler.NewExportHandler(exportSvc, metricsSvc)
		staff.POST("/schedules/:id/export", exportHandler.Enqueue)
		staff.GET("/exports/:id", exportHandler.Get)
		api.GET("/exports/download", exportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
