package routes

import (
	"context"
	"time"

	"taskboard/backend/internal/config"
	"taskboard/backend/internal/database"
	"taskboard/backend/internal/handlers"
	"taskboard/backend/internal/middleware"
	"taskboard/backend/internal/monitoring"
	"taskboard/backend/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Dependencies are the long-lived components the router is built from.
type Dependencies struct {
	Config   *config.Config
	Pool     *database.DatabasePool
	Notifier services.Notifier
	Metrics  *monitoring.Collector
	Limiter  *middleware.RateLimiter
	// Stats are extra named sections served on /metrics.
	Stats map[string]monitoring.StatsFunc
}

func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	if deps.Metrics == nil {
		deps.Metrics = monitoring.NewCollector()
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(gin.Logger())
	router.Use(middleware.RecoveryWithLog())
	router.Use(deps.Metrics.Middleware())
	router.Use(cors.New(corsConfig(cfg.CORS)))
	if deps.Limiter != nil {
		router.Use(deps.Limiter.Middleware())
	}

	db := deps.Pool.DB
	userService := services.NewUserService()
	authService := services.NewAuthService(services.AuthOptions{
		JWTSecret:      cfg.Auth.JWTSecret,
		Issuer:         cfg.Auth.JWTIssuer,
		AccessTokenTTL: cfg.Auth.AccessTokenTTL,
		BCryptCost:     cfg.Auth.BCryptCost,
	})
	taskService := services.NewTaskService(deps.Notifier)
	notificationService := services.NewNotificationService()

	userHandler := handlers.NewUserHandler(db, userService)
	authHandler := handlers.NewAuthHandler(db, authService, userService)
	taskHandler := handlers.NewTaskHandler(db, taskService)
	notificationHandler := handlers.NewNotificationHandler(db, notificationService)

	liveness := monitoring.LivenessHandler()
	readiness := monitoring.ReadinessHandler(func(ctx context.Context) error {
		return deps.Pool.HealthContext(ctx)
	}, 5*time.Second)

	stats := map[string]monitoring.StatsFunc{"database": deps.Pool.Stats}
	for name, source := range deps.Stats {
		stats[name] = source
	}

	router.GET("/health", liveness)
	router.GET("/ready", readiness)
	router.GET("/metrics", deps.Metrics.Handler(stats))

	api := router.Group(cfg.Server.APIPrefix)
	{
		api.GET("/health", liveness)
		api.GET("/ready", readiness)

		users := api.Group("/users")
		{
			users.GET("", userHandler.GetUsers)
			users.POST("", userHandler.CreateUser)
			users.GET("/members", userHandler.GetMembers)
			users.GET("/:id", userHandler.GetUser)
			users.PUT("/:id", userHandler.UpdateUser)
			users.DELETE("/:id", userHandler.DeleteUser)
		}

		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", middleware.AuthzMiddleware(middleware.AuthzConfig{
				Secret: cfg.Auth.JWTSecret,
				Issuer: cfg.Auth.JWTIssuer,
			}), authHandler.Me)
		}

		tasks := api.Group("/tasks")
		{
			tasks.GET("", taskHandler.GetTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/assigned", taskHandler.GetAssignedTasks)
			tasks.GET("/created", taskHandler.GetCreatedTasks)
			tasks.POST("/assign", taskHandler.AssignTask)
			tasks.GET("/:id", taskHandler.GetTaskByID)
			tasks.PUT("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
			tasks.PUT("/:id/complete", taskHandler.CompleteTask)
			tasks.PUT("/:id/approve", taskHandler.ApproveTask)
		}

		notifications := api.Group("/notifications")
		{
			notifications.GET("/:user_id", notificationHandler.GetNotifications)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
		}
	}

	return router
}

func corsConfig(c config.CORSConfig) cors.Config {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", middleware.HeaderRequestID)
	corsCfg.ExposeHeaders = []string{middleware.HeaderRequestID}

	if len(c.AllowedOrigins) == 0 || (len(c.AllowedOrigins) == 1 && c.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = c.AllowedOrigins
	}
	return corsCfg
}
