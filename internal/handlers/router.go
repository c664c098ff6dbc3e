package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gaonpathshala/exam-portal/internal/auth"
	"github.com/gaonpathshala/exam-portal/internal/metrics"
	"github.com/gaonpathshala/exam-portal/internal/middleware"
	"github.com/gaonpathshala/exam-portal/internal/services"
	"github.com/gaonpathshala/exam-portal/internal/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions carries the cross-cutting pieces the routes need besides services.
type RouterOptions struct {
	Tokens       *auth.TokenIssuer
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
	LoginLimiter middleware.Limiter
	CORSOrigins  []string
	Production   bool
	// Health reports dependency failures; nil means always healthy.
	Health func(ctx context.Context) error
}

type HandlerManager struct {
	studentHandler *StudentHandler
	examHandler    *ExamHandler
	resultHandler  *ResultHandler
	adminHandler   *AdminHandler
	sessionHandler *SessionHandler

	sessions services.SessionService
	logger   utils.Logger
	opts     RouterOptions
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	opts RouterOptions,
) *HandlerManager {
	return &HandlerManager{
		studentHandler: NewStudentHandler(serviceManager.Student(), serviceManager.Auth(), serviceManager.ImportExport(), logger),
		examHandler:    NewExamHandler(serviceManager.Exam(), serviceManager.ImportExport(), logger),
		resultHandler:  NewResultHandler(serviceManager.Result(), serviceManager.ImportExport(), logger),
		adminHandler:   NewAdminHandler(serviceManager.Auth(), logger),
		sessionHandler: NewSessionHandler(serviceManager.Session(), logger),
		sessions:       serviceManager.Session(),
		logger:         logger,
		opts:           opts,
	}
}

// SetupRoutes installs the middleware chain and all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.Use(
		gin.Recovery(),
		utils.RequestID(),
		utils.ContextLogger(hm.logger),
		utils.LoggerMiddleware(hm.logger, "/health", "/metrics"),
		hm.corsMiddleware(),
		middleware.SecurityHeaders(hm.opts.Production),
	)
	if hm.opts.Metrics != nil {
		router.Use(hm.opts.Metrics.Middleware())
	}
	router.Use(auth.Authenticate(hm.opts.Tokens, hm.sessions))

	router.GET("/health", hm.HealthCheck)
	if hm.opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(hm.opts.Gatherer, promhttp.HandlerOpts{})))
	}

	limit := func(c *gin.Context) { c.Next() }
	if hm.opts.LoginLimiter != nil {
		limit = middleware.RateLimit(hm.opts.LoginLimiter, hm.logger)
	}

	admin := auth.RequireAdmin()
	student := auth.RequireStudent()
	anyone := auth.RequireAuth()
	self := auth.RequireSelfOrAdmin("id")

	api := router.Group("/api")
	{
		students := api.Group("/students")
		{
			students.POST("/register", limit, hm.studentHandler.Register)
			students.POST("/login", limit, hm.studentHandler.Login)
			students.POST("/verify-details", limit, hm.studentHandler.VerifyDetails)
			students.POST("/reset-password", limit, hm.studentHandler.ResetPassword)

			students.GET("", admin, hm.studentHandler.List)
			students.POST("", admin, hm.studentHandler.Create)
			students.POST("/bulk", admin, hm.studentHandler.BulkCreate)
			students.POST("/bulk/upload", admin, hm.studentHandler.BulkUpload)
			students.DELETE("/:id", admin, hm.studentHandler.Delete)

			students.GET("/:id", self, hm.studentHandler.Get)
			students.PUT("/:id", self, hm.studentHandler.Update)
			students.POST("/:id/attendance", self, hm.studentHandler.MarkAttendance)
			students.GET("/:id/stats", self, hm.studentHandler.Stats)
			students.GET("/:id/report-card", self, hm.studentHandler.ReportCard)
		}

		exams := api.Group("/exams")
		{
			exams.GET("", anyone, hm.examHandler.List)
			exams.GET("/:id", anyone, hm.examHandler.Get)
			exams.POST("/:id/verify-key", anyone, hm.examHandler.VerifyKey)

			exams.POST("", admin, hm.examHandler.Create)
			exams.POST("/import", admin, hm.examHandler.Import)
			exams.POST("/:id/copy", admin, hm.examHandler.Copy)
			exams.PUT("/:id", admin, hm.examHandler.Update)
			exams.DELETE("/:id", admin, hm.examHandler.Delete)
			exams.PATCH("/:id/visibility", admin, hm.examHandler.SetVisibility)
		}

		results := api.Group("/results")
		{
			results.POST("/submit", student, hm.resultHandler.Submit)
			results.GET("/leaderboard", anyone, hm.resultHandler.Leaderboard)
			results.GET("/session/:id", self, hm.resultHandler.ListByStudent)
			results.GET("/:id", anyone, hm.resultHandler.Get)
		}

		adminGroup := api.Group("/admin")
		{
			adminGroup.POST("/login", limit, hm.adminHandler.Login)
			adminGroup.POST("/forgot-password", limit, hm.adminHandler.ForgotPassword)
			adminGroup.POST("/reset-password", limit, hm.adminHandler.ResetPassword)

			adminGroup.GET("/results", admin, hm.resultHandler.AdminList)
			adminGroup.GET("/results/export", admin, hm.resultHandler.Export)
			adminGroup.GET("/results/:id", admin, hm.resultHandler.AdminGet)
			adminGroup.DELETE("/results/:id", admin, hm.resultHandler.Delete)
			adminGroup.GET("/exams", admin, hm.examHandler.AdminList)
			adminGroup.GET("/exams/:id", admin, hm.examHandler.AdminGet)
			adminGroup.GET("/report-cards", admin, hm.resultHandler.ReportCards)
			adminGroup.GET("/leaderboard", admin, hm.resultHandler.AdminLeaderboard)
		}

		session := api.Group("/session", admin)
		{
			session.GET("", hm.sessionHandler.List)
			session.DELETE("/:id", hm.sessionHandler.Terminate)
		}
	}
}

func (hm *HandlerManager) corsMiddleware() gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", auth.SessionHeader, ExamKeyHeader, utils.RequestIDHeader},
		ExposeHeaders: []string{utils.RequestIDHeader, "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	origins := hm.opts.CORSOrigins
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// HealthCheck reports liveness and dependency health
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	if hm.opts.Health != nil {
		if err := hm.opts.Health(c.Request.Context()); err != nil {
			hm.logger.Warn("Health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "service": "exam-portal"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "exam-portal"})
}
