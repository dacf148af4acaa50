package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"learnloop/config"
	"learnloop/internal/api/handler"
	"learnloop/internal/api/middleware"
	"learnloop/internal/model"
	"learnloop/internal/service"
	"learnloop/pkg/jwt"
)

// Auth endpoints allow this many attempts per client and route per window.
const (
	authRateLimit  = 10
	authRateWindow = time.Minute
)

// Deps are the collaborators the routes need besides the handlers.
// Blacklist and Limiter may be nil.
type Deps struct {
	Config    *config.Config
	JWT       *jwt.Manager
	Access    service.AccessService
	Blacklist middleware.TokenChecker
	Limiter   middleware.Limiter
	Logger    *zap.Logger
}

// Setup builds the gin engine.
func Setup(h *handler.Handler, d Deps) *gin.Engine {
	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.New(corsConfig(d.Config.Server.CORS.AllowOrigins)))
	r.Use(middleware.BodyLimit(d.Config.Server.MaxUploadMB << 20))

	// ── health ──
	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	}
	r.GET("/health", health)

	api := r.Group("/api")
	api.GET("/health", health)

	// ── auth (public) ──
	limit := middleware.RateLimit(d.Limiter, authRateLimit, authRateWindow, d.Logger)
	api.POST("/auth/register", limit, h.Auth.Register)
	api.POST("/auth/login", limit, h.Auth.Login)

	// ── authenticated ──
	authorized := api.Group("")
	authorized.Use(middleware.JWTAuth(d.JWT, d.Blacklist, d.Config.Auth.AllowLegacyIdentity, d.Logger))
	{
		authorized.POST("/auth/logout", h.Auth.Logout)
		authorized.GET("/auth/me", h.Auth.Me)

		users := authorized.Group("/users")
		{
			users.GET("/:id", h.User.GetUser)
			users.PUT("/:id", h.User.UpdateUser) // self only, checked in the service
			users.PUT("/:id/password", h.User.ChangePassword)
		}

		courses := authorized.Group("/courses")
		{
			courses.POST("/create", middleware.RoleAuth(model.RoleTeacher), h.Course.CreateCourse)
			courses.POST("/enroll", middleware.RoleAuth(model.RoleStudent), h.Enrollment.Enroll)
			courses.GET("/teacher/:teacherId", h.Course.ListTeacherCourses)
			courses.GET("/student/:studentId", h.Enrollment.ListStudentCourses)

			member := courses.Group("/:courseId")
			member.Use(middleware.CourseMember(d.Access))
			{
				member.GET("/materials", h.Material.ListFiles)
			}

			owned := courses.Group("/:courseId")
			owned.Use(middleware.CourseOwner(d.Access))
			{
				owned.GET("", h.Course.GetCourse)
				owned.PUT("", h.Course.UpdateCourse)
				owned.DELETE("", h.Course.DeleteCourse)

				owned.GET("/code", h.Course.GetCode)
				owned.POST("/code/generate", h.Course.GenerateCode)

				owned.GET("/students", h.Course.ListStudents)
				owned.GET("/students/export", h.Export.ExportRoster)
				owned.DELETE("/students/:studentId", h.Course.RemoveStudent)

				owned.POST("/upload", h.Material.Upload)
				owned.GET("/files", h.Material.ListFiles)
				owned.DELETE("/files/*fileKey", h.Material.DeleteFile)
			}
		}
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Requested-With", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
