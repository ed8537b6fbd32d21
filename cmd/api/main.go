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
	"go.uber.org/zap"

	_ "github.com/edupoint/coaching-admin-api/api/swagger"
	"github.com/edupoint/coaching-admin-api/internal/handler"
	"github.com/edupoint/coaching-admin-api/internal/middleware"
	"github.com/edupoint/coaching-admin-api/internal/models"
	"github.com/edupoint/coaching-admin-api/internal/notification"
	"github.com/edupoint/coaching-admin-api/internal/repository"
	"github.com/edupoint/coaching-admin-api/internal/service"
	"github.com/edupoint/coaching-admin-api/pkg/cache"
	"github.com/edupoint/coaching-admin-api/pkg/config"
	"github.com/edupoint/coaching-admin-api/pkg/database"
	"github.com/edupoint/coaching-admin-api/pkg/export"
	"github.com/edupoint/coaching-admin-api/pkg/jobs"
	"github.com/edupoint/coaching-admin-api/pkg/logger"
	corsmiddleware "github.com/edupoint/coaching-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edupoint/coaching-admin-api/pkg/middleware/requestid"
	"github.com/edupoint/coaching-admin-api/pkg/storage"
)

// @title Coaching Admin API
// @version 1.0.0
// @description Administration API for coaching institutes: staff, students, batches, attendance, and fees.
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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The dashboard cache degrades gracefully without Redis.
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	parentRepo := repository.NewParentRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	feeRepo := repository.NewFeeRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Outbound notifications.
	gateway := notification.NewGateway(cfg, logr)

	// Receipt rendering and archive.
	archive, err := storage.NewReceiptArchive(cfg.Receipts.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare receipt archive", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Receipts.SignedURLSecret, cfg.Receipts.SignedURLTTL)

	// Services.
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	teacherSvc := service.NewTeacherService(teacherRepo, userRepo, validate, logr)
	parentSvc := service.NewParentService(parentRepo, userRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, parentRepo, validate, logr)
	batchSvc := service.NewBatchService(batchRepo, teacherRepo, studentRepo, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, batchRepo, studentRepo, gateway, export.NewCSVExporter(), validate, logr)
	feeSvc := service.NewFeeService(feeRepo, batchRepo, studentRepo, gateway, export.NewReceiptPDFExporter(), archive, signer, models.InstituteInfo{
		Name:    cfg.Institute.Name,
		Address: cfg.Institute.Address,
		Phone:   cfg.Institute.Phone,
		Email:   cfg.Institute.Email,
	}, validate, logr)
	dashboardSvc := service.NewDashboardService(cacheRepo, teacherRepo, studentRepo, batchRepo, feeRepo, attendanceRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr)

	// Monthly report email fan-out.
	reportQueue := jobs.NewQueue("monthly-reports", attendanceSvc.HandleMonthlyReportJob, jobs.Config{
		Workers:    cfg.Reports.WorkerConcurrency,
		QueueSize:  cfg.Reports.QueueSize,
		MaxRetries: cfg.Reports.WorkerRetries,
		Logger:     logr,
	})
	reportQueue.Start(context.Background())
	defer reportQueue.Stop()
	attendanceSvc.SetQueue(reportQueue)
	attendanceSvc.SetMetrics(metricsSvc)
	feeSvc.SetMetrics(metricsSvc)

	// Writes that move the dashboard aggregates drop the cached summary.
	attendanceSvc.SetDashboard(dashboardSvc)
	feeSvc.SetDashboard(dashboardSvc)
	batchSvc.SetDashboard(dashboardSvc)
	teacherSvc.SetDashboard(dashboardSvc)
	studentSvc.SetDashboard(dashboardSvc)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	parentHandler := handler.NewParentHandler(parentSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	batchHandler := handler.NewBatchHandler(batchSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	feeHandler := handler.NewFeeHandler(feeSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

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

	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	admin := middleware.RBAC(models.RoleAdmin)
	staff := middleware.RBAC(models.RoleAdmin, models.RoleTeacher)
	anyRole := middleware.RBAC(models.RoleAdmin, models.RoleTeacher, models.RoleParent)

	teachers := authed.Group("/teachers")
	{
		teachers.GET("", staff, teacherHandler.List)
		teachers.GET("/:id", staff, teacherHandler.Get)
		teachers.POST("", admin, teacherHandler.Create)
		teachers.PUT("/:id", admin, teacherHandler.Update)
		teachers.DELETE("/:id", admin, teacherHandler.Delete)
	}

	parents := authed.Group("/parents")
	{
		parents.GET("", staff, parentHandler.List)
		parents.GET("/:id", anyRole, parentHandler.Get)
		parents.GET("/:id/students", anyRole, parentHandler.Students)
		parents.POST("", admin, parentHandler.Create)
		parents.PUT("/:id", admin, parentHandler.Update)
	}

	students := authed.Group("/students")
	{
		students.GET("", staff, studentHandler.List)
		students.GET("/:id", anyRole, studentHandler.Get)
		students.POST("", admin, studentHandler.Create)
		students.PUT("/:id", admin, studentHandler.Update)
		students.DELETE("/:id", admin, studentHandler.Delete)
	}

	batches := authed.Group("/batches")
	{
		batches.GET("", staff, batchHandler.List)
		batches.GET("/:id", staff, batchHandler.Get)
		batches.POST("", admin, batchHandler.Create)
		batches.PUT("/:id", admin, batchHandler.Update)
		batches.DELETE("/:id", admin, batchHandler.Delete)
		batches.GET("/:id/students", staff, batchHandler.Roster)
		batches.POST("/:id/teachers/:teacherId", admin, batchHandler.AssignTeacher)
		batches.DELETE("/:id/teachers/:teacherId", admin, batchHandler.UnassignTeacher)
		batches.POST("/:id/students/:studentId", admin, batchHandler.EnrollStudent)
		batches.DELETE("/:id/students/:studentId", admin, batchHandler.RemoveStudent)
	}

	attendance := authed.Group("/attendance")
	{
		attendance.POST("/mark", staff, attendanceHandler.Mark)
		attendance.GET("/batch", staff, attendanceHandler.BatchDay)
		attendance.GET("/batch/export", staff, attendanceHandler.ExportBatchDay)
		attendance.GET("/student", anyRole, attendanceHandler.StudentHistory)
		attendance.GET("/monthly-report", anyRole, attendanceHandler.MonthlyReport)
		attendance.POST("/monthly-report/email", admin, attendanceHandler.EmailMonthlyReports)
	}

	fees := authed.Group("/fees")
	{
		fees.POST("", admin, feeHandler.Create)
		fees.GET("", staff, feeHandler.List)
		fees.GET("/status/pending", staff, feeHandler.Pending)
		fees.GET("/status/overdue", staff, feeHandler.Overdue)
		fees.POST("/payment", admin, feeHandler.RecordPayment)
		fees.GET("/receipt/download", anyRole, feeHandler.DownloadSigned)
		fees.GET("/receipt/:feeId", anyRole, feeHandler.Receipt)
		fees.GET("/receipt/:feeId/pdf", anyRole, feeHandler.ReceiptPDF)
		fees.POST("/receipt/:feeId/link", staff, feeHandler.ReceiptLink)
		fees.GET("/:id", staff, feeHandler.Get)
	}

	authed.GET("/dashboard/summary", admin, dashboardHandler.Summary)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
