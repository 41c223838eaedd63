package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/student-records-api/api/swagger"
	"github.com/noah-isme/student-records-api/internal/handler"
	"github.com/noah-isme/student-records-api/internal/policy"
	"github.com/noah-isme/student-records-api/internal/repository"
	"github.com/noah-isme/student-records-api/internal/service"
	"github.com/noah-isme/student-records-api/pkg/cache"
	"github.com/noah-isme/student-records-api/pkg/config"
	"github.com/noah-isme/student-records-api/pkg/database"
	"github.com/noah-isme/student-records-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/student-records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/student-records-api/pkg/middleware/requestid"
)

// @title Student Records API
// @version 1.0.0
// @description Role-scoped school record keeping: students, guardians, academics and fees
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The API works without the response cache; directory reads
		// just hit the database every time.
		logr.Sugar().Warnw("redis unavailable, response cache disabled", "error", err)
		redisClient = nil
	}
	if !cfg.Cache.Enabled {
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	parentRepo := repository.NewParentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	performanceRepo := repository.NewPerformanceRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	relationshipRepo := repository.NewRelationshipRepository(db)

	engine := policy.NewEngine(relationshipRepo)
	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		Audience:           []string{cfg.JWT.Audience},
		SingleSession:      cfg.JWT.SingleSession,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, engine, validate, logr)
	parentSvc := service.NewParentService(parentRepo, engine, validate, logr)
	gradeSvc := service.NewGradeService(gradeRepo, engine, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, engine, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, engine, validate, logr)
	performanceSvc := service.NewPerformanceService(performanceRepo, engine, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, engine, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, engine, validate, logr)
	invoiceSvc := service.NewInvoiceService(invoiceRepo, paymentRepo, engine, validate, logr)
	paymentSvc := service.NewPaymentService(paymentRepo, invoiceRepo, engine, validate, logr)
	exportSvc := service.NewExportService(performanceRepo, invoiceRepo, engine, logr, nil, nil)

	handlers := handler.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Users:       handler.NewUserHandler(userSvc),
		Students:    handler.NewStudentHandler(studentSvc),
		Parents:     handler.NewParentHandler(parentSvc),
		Grades:      handler.NewGradeHandler(gradeSvc),
		Teachers:    handler.NewTeacherHandler(teacherSvc),
		Subjects:    handler.NewSubjectHandler(subjectSvc),
		Performance: handler.NewPerformanceHandler(performanceSvc),
		Attendance:  handler.NewAttendanceHandler(attendanceSvc),
		Enrollments: handler.NewEnrollmentHandler(enrollmentSvc),
		Invoices:    handler.NewInvoiceHandler(invoiceSvc),
		Payments:    handler.NewPaymentHandler(paymentSvc),
		Exports:     handler.NewExportHandler(exportSvc),
		Metrics:     handler.NewMetricsHandler(metricsSvc),
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	handler.RegisterRoutes(r, handlers, handler.RouterConfig{
		AuthService:  authSvc,
		MetricsSvc:   metricsSvc,
		UserRepo:     userRepo,
		Redis:        redisClient,
		DirectoryTTL: cfg.Cache.DirectoryTTL,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
