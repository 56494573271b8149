package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/flowtrack-dev/flowtrack/internal/handlers"
	"github.com/flowtrack-dev/flowtrack/internal/middleware"
	"github.com/flowtrack-dev/flowtrack/internal/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Options struct {
	AllowedOrigins []string
	Logger         *slog.Logger
}

func NewRouter(svc *services.Services, opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(opts.Logger.With("layer", "access")))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     opts.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	h := handlers.New(svc, opts.Logger)
	requireAuth := middleware.AuthMiddleware(svc.Auth)

	r.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, handlers.ErrorBody("Route not found"))
	})

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Register)
			auth.POST("/login", h.Login)
			auth.POST("/logout", h.Logout)
			auth.GET("/me", requireAuth, h.Me)
		}

		users := api.Group("/users", requireAuth)
		{
			users.GET("", h.ListUsers)
			users.GET("/:id", h.GetUser)
		}

		projects := api.Group("/projects", requireAuth)
		{
			projects.GET("", h.ListProjects)
			projects.POST("", h.CreateProject)
			projects.GET("/:id", h.GetProject)
			projects.PUT("/:id", h.UpdateProject)
			projects.DELETE("/:id", h.DeleteProject)

			projects.POST("/:id/members", h.AddMember)
			projects.DELETE("/:id/members/:userId", h.RemoveMember)

			projects.GET("/:id/issues", h.ListIssues)
			projects.POST("/:id/issues", h.CreateIssue)

			projects.GET("/:id/sprints", h.ListSprints)
			projects.POST("/:id/sprints", h.CreateSprint)
		}

		sprints := api.Group("/sprints", requireAuth)
		{
			sprints.GET("/:id", h.GetSprint)
			sprints.PUT("/:id", h.UpdateSprint)
			sprints.DELETE("/:id", h.DeleteSprint)
		}

		issues := api.Group("/issues", requireAuth)
		{
			issues.GET("/:id", h.GetIssue)
			issues.PUT("/:id", h.UpdateIssue)
			issues.DELETE("/:id", h.DeleteIssue)
			issues.PATCH("/:id/status", h.UpdateIssueStatus)

			issues.GET("/:id/comments", h.ListComments)
			issues.POST("/:id/comments", h.CreateComment)
		}

		comments := api.Group("/comments", requireAuth)
		{
			comments.DELETE("/:id", h.DeleteComment)
		}
	}

	return r
}
