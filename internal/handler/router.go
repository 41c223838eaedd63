package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/student-records-api/internal/middleware"
	"github.com/noah-isme/student-records-api/internal/models"
	"github.com/noah-isme/student-records-api/internal/repository"
	"github.com/noah-isme/student-records-api/internal/service"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth        *AuthHandler
	Users       *UserHandler
	Students    *StudentHandler
	Parents     *ParentHandler
	Grades      *GradeHandler
	Teachers    *TeacherHandler
	Subjects    *SubjectHandler
	Performance *PerformanceHandler
	Attendance  *AttendanceHandler
	Enrollments *EnrollmentHandler
	Invoices    *InvoiceHandler
	Payments    *PaymentHandler
	Exports     *ExportHandler
	Metrics     *MetricsHandler
}

// RouterConfig carries the cross-cutting dependencies routes need.
type RouterConfig struct {
	AuthService  *service.AuthService
	MetricsSvc   *service.MetricsService
	UserRepo     *repository.UserRepository
	Redis        *redis.Client
	DirectoryTTL time.Duration
}

// RegisterRoutes mounts the API under /api/v1. Everything except auth
// and health requires a valid access token; per-record visibility is
// enforced in the services, so routes only carry the coarse role gates.
func RegisterRoutes(r *gin.Engine, h Handlers, cfg RouterConfig) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Health)
	r.GET("/metrics", h.Metrics.Prometheus)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.Metrics(cfg.MetricsSvc))

	auth := v1.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
	}

	protected := v1.Group("")
	protected.Use(middleware.JWT(cfg.AuthService))

	protected.POST("/auth/logout", h.Auth.Logout)
	protected.POST("/auth/change-password", h.Auth.ChangePassword)
	protected.GET("/auth/me", h.Auth.Me)

	users := protected.Group("/users")
	{
		users.GET("", middleware.RequireRoles(models.RoleAdmin), h.Users.List)
		users.GET("/:id", middleware.RequireRolesOrSelf(models.RoleAdmin), h.Users.Get)
		users.PUT("/:id/role",
			middleware.RequireRoles(models.RoleAdmin),
			middleware.Audit(cfg.UserRepo, models.AuditActionRoleAssign, "users"),
			h.Users.AssignRole)
		users.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), h.Users.Deactivate)
	}

	students := protected.Group("/students")
	{
		students.GET("", h.Students.List)
		students.GET("/:id", h.Students.Get)
		students.GET("/:id/parents", h.Parents.StudentLinks)
		students.POST("", middleware.Audit(cfg.UserRepo, models.AuditActionCreate, "students"), h.Students.Create)
		students.PUT("/:id", middleware.Audit(cfg.UserRepo, models.AuditActionUpdate, "students"), h.Students.Update)
		students.DELETE("/:id", middleware.Audit(cfg.UserRepo, models.AuditActionDelete, "students"), h.Students.Delete)
	}

	parents := protected.Group("/parents")
	{
		parents.GET("", h.Parents.List)
		parents.GET("/:id", h.Parents.Get)
		parents.POST("", middleware.Audit(cfg.UserRepo, models.AuditActionCreate, "parents"), h.Parents.Create)
		parents.PUT("/:id", middleware.Audit(cfg.UserRepo, models.AuditActionUpdate, "parents"), h.Parents.Update)
		parents.DELETE("/:id", middleware.Audit(cfg.UserRepo, models.AuditActionDelete, "parents"), h.Parents.Delete)
		parents.POST("/:id/students", middleware.Audit(cfg.UserRepo, models.AuditActionCreate, "student_parents"), h.Parents.LinkStudent)
		parents.DELETE("/:id/students/:studentId", middleware.Audit(cfg.UserRepo, models.AuditActionDelete, "student_parents"), h.Parents.UnlinkStudent)
	}

	grades := protected.Group("/grades")
	{
		grades.GET("", h.Grades.List)
		grades.GET("/:id", h.Grades.Get)
		grades.POST("", middleware.Audit(cfg.UserRepo, models.AuditActionCreate, "grades"), h.Grades.Create)
		grades.PUT("/:id", middleware.Audit(cfg.UserRepo, models.AuditActionUpdate, "grades"), h.Grades.Update)
		grades.DELETE("/:id", middleware.Audit(cfg.UserRepo, models.AuditActionDelete, "grades"), h.Grades.Delete)
	}

	// The teacher and subject directories are identical for every
	// authenticated caller, so their GETs can sit behind the shared
	// response cache.
	directoryTTL := cfg.DirectoryTTL
	if directoryTTL <= 0 {
		directoryTTL = 5 * time.Minute
	}

	teachers := protected.Group("/teachers")
	{
		teachers.GET("", middleware.Cache(cfg.Redis, cfg.MetricsSvc, directoryTTL), h.Teachers.List)
		teachers.GET("/:id", middleware.Cache(cfg.Redis, cfg.MetricsSvc, directoryTTL), h.Teachers.Get)
		teachers.POST("", middleware.InvalidateCache(cfg.Redis, "/api/v1/teachers"), middleware.Audit(cfg.UserRepo, models.AuditActionCreate, "teachers"), h.Teachers.Create)
		teachers.PUT("/:id", middleware.InvalidateCache(cfg.Redis, "/api/v1/teachers"), middleware.Audit(cfg.UserRepo, models.AuditActionUpdate, "teachers"), h.Teachers.Update)
		teachers.DELETE("/:id", middleware.InvalidateCache(cfg.Redis, "/api/v1/teachers"), middleware.Audit(cfg.UserRepo, models.AuditActionDelete, "teachers"), h.Teachers.Delete)
	}

	subjects := protected.Group("/subjects")
	{
		subjects.GET("", middleware.Cache(cfg.Redis, cfg.MetricsSvc, directoryTTL), h.Subjects.List)
		subjects.GET("/:id", middleware.Cache(cfg.Redis, cfg.MetricsSvc, directoryTTL), h.Subjects.Get)
		subjects.POST("", middleware.InvalidateCache(cfg.Redis, "/api/v1/subjects"), middleware.Audit(cfg.UserRepo, models.AuditActionCreate, "subjects"), h.Subjects.Create)
		subjects.PUT("/:id", middleware.InvalidateCache(cfg.Redis, "/api/v1/subjects"), middleware.Audit(cfg.UserRepo, models.AuditActionUpdate, "subjects"), h.Subjects.Update)
		subjects.DELETE("/:id", middleware.InvalidateCache(cfg.Redis, "/api/v1/subjects"), middleware.Audit(cfg.UserRepo, models.AuditActionDelete, "subjects"), h.Subjects.Delete)
	}

	performance := protected.Group("/performance")
	{
		performance.GET("", h.Performance.List)
		performance.GET("/:id", h.Performance.Get)
		performance.POST("", middleware.Audit(cfg.UserRepo, models.AuditActionCreate, "performance_records"), h.Performance.Create)
		performance.PUT("/:id", middleware.Audit(cfg.UserRepo, models.AuditActionUpdate, "performance_records"), h.Performance.Update)
		performance.DELETE("/:id", middleware.Audit(cfg.UserRepo, models.AuditActionDelete, "performance_records"), h.Performance.Delete)
	}

	attendance := protected.Group("/attendance")
	{
		attendance.GET("", h.Attendance.List)
		attendance.GET("/:id", h.Attendance.Get)
		attendance.POST("", middleware.Audit(cfg.UserRepo, models.AuditActionCreate, "attendance_records"), h.Attendance.Create)
		attendance.PUT("/:id", middleware.Audit(cfg.UserRepo, models.AuditActionUpdate, "attendance_records"), h.Attendance.Update)
		attendance.DELETE("/:id", middleware.Audit(cfg.UserRepo, models.AuditActionDelete, "attendance_records"), h.Attendance.Delete)
	}

	enrollments := protected.Group("/enrollments")
	{
		enrollments.GET("", h.Enrollments.List)
		enrollments.GET("/:id", h.Enrollments.Get)
		enrollments.POST("", middleware.Audit(cfg.UserRepo, models.AuditActionCreate, "enrollments"), h.Enrollments.Create)
		enrollments.POST("/:id/close", middleware.Audit(cfg.UserRepo, models.AuditActionUpdate, "enrollments"), h.Enrollments.Close)
		enrollments.DELETE("/:id", middleware.Audit(cfg.UserRepo, models.AuditActionDelete, "enrollments"), h.Enrollments.Delete)
	}

	invoices := protected.Group("/invoices")
	{
		invoices.GET("", h.Invoices.List)
		invoices.GET("/:id", h.Invoices.Get)
		invoices.POST("", middleware.Audit(cfg.UserRepo, models.AuditActionCreate, "invoices"), h.Invoices.Create)
		invoices.PUT("/:id", middleware.Audit(cfg.UserRepo, models.AuditActionUpdate, "invoices"), h.Invoices.Update)
		invoices.DELETE("/:id", middleware.Audit(cfg.UserRepo, models.AuditActionDelete, "invoices"), h.Invoices.Delete)
	}

	payments := protected.Group("/payments")
	{
		payments.GET("", h.Payments.List)
		payments.GET("/:id", h.Payments.Get)
		payments.POST("", middleware.Audit(cfg.UserRepo, models.AuditActionCreate, "payments"), h.Payments.Create)
		payments.DELETE("/:id", middleware.Audit(cfg.UserRepo, models.AuditActionDelete, "payments"), h.Payments.Delete)
	}

	exports := protected.Group("/exports")
	{
		exports.GET("/performance", h.Exports.PerformanceSheet)
		exports.GET("/invoices", h.Exports.InvoiceStatement)
	}
}
