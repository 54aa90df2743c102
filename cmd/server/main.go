package main

import (
	"log"

	"github.com/aonuma/task-tracker-api/internal/config"
	"github.com/aonuma/task-tracker-api/internal/constants"
	"github.com/aonuma/task-tracker-api/internal/database"
	"github.com/aonuma/task-tracker-api/internal/federation"
	"github.com/aonuma/task-tracker-api/internal/handlers"
	"github.com/aonuma/task-tracker-api/internal/logging"
	"github.com/aonuma/task-tracker-api/internal/middleware"
	"github.com/aonuma/task-tracker-api/internal/repository"
	"github.com/aonuma/task-tracker-api/internal/services"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger, err := logging.New(cfg.LogFile)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database and run migrations
	if err := database.Connect(cfg); err != nil {
		logger.Fatalw("Failed to connect to database", "error", err)
	}
	if err := database.Migrate(); err != nil {
		logger.Fatalw("Failed to run migrations", "error", err)
	}
	logger.Infow("database ready", "driver", cfg.DBDriver)

	// Initialize Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	// Session store: signed cookies by default, redis when configured
	var store sessions.Store
	if addr := cfg.RedisAddr(); addr != "" {
		store, err = redisStore.NewStore(10, "tcp", addr, "", "", []byte(cfg.SessionSecret))
		if err != nil {
			logger.Fatalw("Failed to create redis session store", "error", err)
		}
	} else {
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	}

	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // SameSite=Lax
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Wire repositories, services and handlers
	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	authService := services.NewAuthService(userRepo)
	taskService := services.NewTaskService(taskRepo)

	google := federation.NewGoogleProvider(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
		logger,
	)

	authHandler := handlers.NewAuthHandler(authService)
	federatedHandler := handlers.NewFederatedAuthHandler(google, authService, logger)
	taskHandler := handlers.NewTaskHandler(taskService, authService)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Task tracker is running",
		})
	})

	// Auth routes (public)
	r.POST("/signup", authHandler.Signup)
	r.POST("/login", authHandler.Login)
	r.GET("/logout", authHandler.Logout)
	r.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)

	// Federated login
	r.GET("/login/google", federatedHandler.Begin)
	r.GET("/login/google/callback", federatedHandler.Callback)
	r.GET("/home", federatedHandler.Home)

	// Task routes (protected)
	authed := r.Group("/")
	authed.Use(middleware.RequireAuth())
	{
		authed.GET("/tasks", taskHandler.ListTasks)
		authed.POST("/add-task", taskHandler.CreateTask)
		authed.GET("/tasks/:id", middleware.RequireTaskVisibility(), taskHandler.GetTask)
		authed.POST("/edit-task/:id", middleware.RequireTaskVisibility(), taskHandler.EditTask)
		authed.GET("/toggle-task/:id", middleware.RequireTaskVisibility(), taskHandler.ToggleTask)
		authed.GET("/delete-task/:id", middleware.RequireTaskVisibility(), taskHandler.DeleteTask)
	}

	// Start server
	logger.Infow("server starting", "port", cfg.ServerPort)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		logger.Fatalw("Failed to start server", "error", err)
	}
}
