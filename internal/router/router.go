package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/config"
	"github.com/stemsi/schoolhub-backend/internal/handler"
	"github.com/stemsi/schoolhub-backend/internal/middleware"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/response"
	"github.com/stemsi/schoolhub-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Schedule   *handler.ScheduleHandler
	User       *handler.UserHandler
	Exam       *handler.ExamHandler
	Attendance *handler.AttendanceHandler
	ShoutOut   *handler.ShoutOutHandler
	Messaging  *handler.FamilyMessagingHandler
	WS         *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
	rdb *redis.Client,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware(log))
	router.Use(requestLogger())

	// Spreadsheet exports are already zip-compressed.
	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Quality:   middleware.DefaultBrotliConfig.Quality,
		MinLength: middleware.DefaultBrotliConfig.MinLength,
		Skipper:   middleware.SkipDownloads,
	}))

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	requireAuth := []gin.HandlerFunc{
		middleware.RequireJWT(authService),
		middleware.RejectRevoked(authService),
	}

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	loginLimiter := middleware.NewRateLimiter(rdb, cfg.LoginRateLimit, time.Minute, log)

	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", loginLimiter.Middleware(), handlers.Auth.Login)
		auth.POST("/logout", append(requireAuth, handlers.Auth.Logout)...)
		auth.GET("/me", append(requireAuth, middleware.NoStore(), handlers.Auth.Me)...)
	}

	// ─── 2. Shared Group (Any Signed-In Role) ──────────────────────────
	shared := router.Group("/api/v1")
	shared.Use(requireAuth...)
	{
		shared.GET("/academic-schedule", handlers.Schedule.ListVisibleEvents)
	}

	// ─── 3. Admin Group (JWT + Admin Role) ─────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(requireAuth...)
	adminAPI.Use(middleware.RequireRole(model.RoleAdmin))
	{
		schedule := adminAPI.Group("/academic-schedule")
		{
			schedule.GET("", handlers.Schedule.ListEvents)
			schedule.POST("", handlers.Schedule.CreateEvent)
			schedule.PUT("/:id", handlers.Schedule.UpdateEvent)
			schedule.DELETE("/:id", handlers.Schedule.DeleteEvent)
		}

		users := adminAPI.Group("/users")
		{
			users.GET("", handlers.User.ListUsers)
			users.GET("/stats", handlers.User.GetStats)
			users.GET("/facets", handlers.User.GetFacets)
			users.GET("/export", middleware.NoStore(), handlers.User.ExportUsers)
			users.POST("/import", handlers.User.ImportUsers)
			users.PATCH("/:id", handlers.User.UpdateUser)
			users.PATCH("/:id/status", handlers.User.ToggleStatus)
			users.DELETE("/:id", handlers.User.DeleteUser)
		}

		adminAPI.GET("/attendance", handlers.Attendance.SchoolOverview)
		adminAPI.GET("/attendance/heatmap", handlers.Attendance.Heatmap)
	}

	// ─── 4. Teacher Group (JWT + Teacher or Admin Role) ────────────────
	teacherAPI := router.Group("/api/v1/teacher")
	teacherAPI.Use(requireAuth...)
	teacherAPI.Use(middleware.RequireRole(model.RoleTeacher, model.RoleAdmin))
	{
		exams := teacherAPI.Group("/examinations")
		{
			exams.GET("", handlers.Exam.ListExams)
			exams.POST("", handlers.Exam.CreateExam)
			exams.GET("/:id", handlers.Exam.GetExam)
			exams.PUT("/:id", handlers.Exam.UpdateExam)
			exams.DELETE("/:id", handlers.Exam.DeleteExam)
			exams.POST("/:id/publish", handlers.Exam.PublishExam)
		}

		attendance := teacherAPI.Group("/attendance")
		{
			attendance.GET("/classes", handlers.Attendance.ListClasses)
			attendance.GET("/classes/:class_id", handlers.Attendance.GetRoster)
			attendance.POST("", handlers.Attendance.SaveRoster)
			attendance.POST("/bulk", handlers.Attendance.BulkMark)
		}

		teacherAPI.GET("/shout-outs", handlers.ShoutOut.ListShoutOuts)
		teacherAPI.POST("/shout-outs", handlers.ShoutOut.SendShoutOut)
		teacherAPI.GET("/shout-out-templates", handlers.ShoutOut.ListTemplates)
		teacherAPI.GET("/students", handlers.ShoutOut.ListStudents)
	}

	// ─── 5. Family Messaging Group (JWT + Parent or Student Role) ──────
	familyAPI := router.Group("/api/v1/family-messaging")
	familyAPI.Use(requireAuth...)
	familyAPI.Use(middleware.RequireRole(model.RoleParent, model.RoleStudent))
	{
		familyAPI.GET("", handlers.Messaging.Overview)
		familyAPI.POST("/conversations", handlers.Messaging.StartConversation)
		familyAPI.GET("/conversations/:id/messages", middleware.PrivateCache(5), handlers.Messaging.ListMessages)
		familyAPI.POST("/messages", handlers.Messaging.SendMessage)
		familyAPI.PATCH("/messages/read", handlers.Messaging.MarkRead)
	}

	// ─── 6. WebSocket Group (Token In Query) ────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(requireAuth...)
	ws.Use(middleware.RequireRole(model.RoleParent, model.RoleStudent))
	{
		ws.GET("/family-messaging/conversations/:id/stream", handlers.WS.ConversationStream)
	}

	return router
}

// requestLogger writes one structured line per request using the
// request-scoped logger set by RequestIDMiddleware.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := zerolog.Ctx(c.Request.Context()).Info()
		if status >= http.StatusInternalServerError {
			event = zerolog.Ctx(c.Request.Context()).Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("Request handled")
	}
}
