package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/edubridge-ng/portal-api/api/swagger"
	"github.com/edubridge-ng/portal-api/internal/handler"
	"github.com/edubridge-ng/portal-api/internal/middleware"
	"github.com/edubridge-ng/portal-api/internal/models"
	"github.com/edubridge-ng/portal-api/internal/repository"
	"github.com/edubridge-ng/portal-api/internal/service"
	"github.com/edubridge-ng/portal-api/pkg/cache"
	"github.com/edubridge-ng/portal-api/pkg/config"
	"github.com/edubridge-ng/portal-api/pkg/database"
	"github.com/edubridge-ng/portal-api/pkg/events"
	"github.com/edubridge-ng/portal-api/pkg/export"
	"github.com/edubridge-ng/portal-api/pkg/jobs"
	"github.com/edubridge-ng/portal-api/pkg/logger"
	corsmiddleware "github.com/edubridge-ng/portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edubridge-ng/portal-api/pkg/middleware/requestid"
)

// @title EduBridge Portal API
// @version 1.0.0
// @description Approval workflows for report cards, school calendars and exam results
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
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	var broadcaster events.Broadcaster = events.Nop{}
	var cacheRepo *repository.CacheRepository
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, change events and caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		broadcaster = events.NewRedisBroadcaster(redisClient, cfg.Workflow.EventsChannel, logr)
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	parentRepo := repository.NewParentRepository(db)
	reportCardRepo := repository.NewReportCardRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	examResultRepo := repository.NewExamResultRepository(db)
	trailRepo := repository.NewWorkflowAuditRepository(db)

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cacheRepo != nil {
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Workflow.PendingCacheTTL, logr, true)
	}

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "portal-api",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, validate, logr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var notifier *service.NotificationService
	if cfg.Notifications.Enabled {
		queue := jobs.NewQueue("recipient-notifications", service.DeliveryHandler(logr), jobs.QueueConfig{
			Workers:    cfg.Notifications.WorkerConcurrency,
			MaxRetries: cfg.Notifications.WorkerRetries,
			Logger:     logr,
			OnDrop: func(job jobs.Job, err error) {
				logr.Sugar().Errorw("notification delivery abandoned", "job_id", job.ID, "error", err)
			},
		})
		queue.Start(ctx)
		defer queue.Stop()
		notifier = service.NewNotificationService(queue, logr)
	}

	resolver := service.NewRecipientResolver(parentRepo, studentRepo, logr)
	reportCardSvc := service.NewReportCardService(reportCardRepo, trailRepo, studentRepo, resolver, broadcaster, notifier, cacheSvc, metricsSvc, validate, logr)
	calendarSvc := service.NewCalendarService(calendarRepo, trailRepo, broadcaster, metricsSvc, validate, logr)
	examResultSvc := service.NewExamResultService(examResultRepo, broadcaster, metricsSvc, validate, logr)
	exportSvc := service.NewExportService(reportCardSvc, examResultSvc, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	reportCardHandler := handler.NewReportCardHandler(reportCardSvc, exportSvc)
	calendarHandler := handler.NewCalendarHandler(calendarSvc)
	examResultHandler := handler.NewExamResultHandler(examResultSvc, exportSvc)
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

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	users := api.Group("/users", middleware.JWT(authSvc))
	{
		users.GET("", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), userHandler.List)
		users.GET("/:id", middleware.RequireRolesOrSelf(models.RoleSuperAdmin, models.RoleAdmin), userHandler.Get)
		users.POST("", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), middleware.Audit(userRepo, models.AuditActionUserCreate, "users"), userHandler.Create)
		users.PUT("/:id", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), middleware.Audit(userRepo, models.AuditActionUserUpdate, "users"), userHandler.Update)
		users.DELETE("/:id", middleware.RequireRoles(models.RoleSuperAdmin), middleware.Audit(userRepo, models.AuditActionUserDelete, "users"), userHandler.Delete)
	}

	students := api.Group("/students", middleware.JWT(authSvc))
	{
		students.GET("", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher), studentHandler.List)
		students.GET("/:id", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher), studentHandler.Get)
		students.POST("", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), studentHandler.Create)
		students.PUT("/:id", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), studentHandler.Update)
	}

	reportCards := api.Group("/report-cards", middleware.JWT(authSvc))
	{
		reportCards.GET("", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher), reportCardHandler.List)
		reportCards.GET("/detail", reportCardHandler.Get)
		reportCards.GET("/trail", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher), reportCardHandler.Trail)
		reportCards.GET("/export", reportCardHandler.Export)
		reportCards.POST("/submit", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher), reportCardHandler.Submit)
		reportCards.POST("/approve", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), reportCardHandler.Approve)
		reportCards.POST("/revoke", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), reportCardHandler.Revoke)
		reportCards.POST("/mark-edited", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher), reportCardHandler.MarkEdited)
	}

	calendar := api.Group("/calendar", middleware.JWT(authSvc))
	{
		calendar.GET("", calendarHandler.Get)
		calendar.GET("/trail", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), calendarHandler.Trail)
		calendar.POST("/events", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher), calendarHandler.AddEvent)
		calendar.PUT("/events/:id", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher), calendarHandler.UpdateEvent)
		calendar.DELETE("/events/:id", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher), calendarHandler.RemoveEvent)
		calendar.PUT("/title", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher), calendarHandler.Rename)
		calendar.POST("/submit", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher), calendarHandler.Submit)
		calendar.POST("/approve", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), calendarHandler.Approve)
		calendar.POST("/publish", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), calendarHandler.Publish)
	}

	system := api.Group("/system", middleware.JWT(authSvc))
	{
		system.GET("/metrics", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), metricsHandler.Snapshot)
	}

	examResults := api.Group("/exam-results", middleware.JWT(authSvc))
	{
		examResults.GET("", examResultHandler.List)
		examResults.GET("/:exam_id/export", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher), examResultHandler.Export)
		examResults.POST("", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher), examResultHandler.Save)
		examResults.POST("/:exam_id/publish", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), examResultHandler.PublishAll)
		examResults.POST("/withhold", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), examResultHandler.Withhold)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
