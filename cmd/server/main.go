package main

import (
	"log"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/jellyworks/team-tasks-api/internal/config"
	"github.com/jellyworks/team-tasks-api/internal/constants"
	"github.com/jellyworks/team-tasks-api/internal/database"
	"github.com/jellyworks/team-tasks-api/internal/handlers"
	"github.com/jellyworks/team-tasks-api/internal/mailer"
	"github.com/jellyworks/team-tasks-api/internal/middleware"
	"github.com/jellyworks/team-tasks-api/internal/repository"
	"github.com/jellyworks/team-tasks-api/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize Gin router
	r := gin.Default()

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		log.Fatalf("Failed to create Redis store: %v", err)
	}
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // SameSite=Lax (1=Strict, 2=Lax, 3=None)
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Mail transport: config is injected once and never mutated afterwards.
	smtpMailer := mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})

	// Initialize repositories
	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, smtpMailer, cfg.BaseURL)
	teamService := services.NewTeamService(teamRepo, taskRepo, userRepo, smtpMailer, cfg.BaseURL)
	taskService := services.NewTaskService(taskRepo, teamRepo)

	var suggestionService *services.SuggestionService
	if cfg.OpenAIAPIKey != "" {
		suggestionService = services.NewSuggestionService(cfg.OpenAIAPIKey)
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	teamHandler := handlers.NewTeamHandler(teamService)
	taskHandler := handlers.NewTaskHandler(taskService, suggestionService)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Team Tasks API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.POST("/password-reset", authHandler.RequestPasswordReset)
			auth.POST("/password-reset/:token", authHandler.ResetPassword)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
			auth.POST("/password", middleware.RequireAuth(), authHandler.ChangePassword)
		}

		// Current-user routes (protected)
		me := api.Group("/me")
		me.Use(middleware.RequireAuth())
		{
			me.PATCH("", authHandler.UpdateProfile)
			me.GET("/teams", teamHandler.ListMyTeams)
			me.GET("/tasks", taskHandler.MyTasks)
		}

		api.GET("/dashboard", middleware.RequireAuth(), taskHandler.Dashboard)

		// Team routes (protected)
		teams := api.Group("/teams")
		teams.Use(middleware.RequireAuth())
		{
			teams.POST("", teamHandler.CreateTeam)
			teams.POST("/join/:token", teamHandler.JoinTeam)
			teams.GET("/:id", middleware.RequireTeamAccess(), teamHandler.GetTeam)
			teams.PATCH("/:id", middleware.RequireTeamAccess(), middleware.RequireTeamAdmin(), teamHandler.UpdateTeam)
			teams.DELETE("/:id", middleware.RequireTeamAccess(), middleware.RequireTeamAdmin(), teamHandler.DeleteTeam)
			teams.POST("/:id/invites", middleware.RequireTeamAccess(), teamHandler.InviteMember)
			teams.POST("/:id/leave", middleware.RequireTeamAccess(), teamHandler.LeaveTeam)
			teams.DELETE("/:id/members/:user_id", middleware.RequireTeamAccess(), middleware.RequireTeamAdmin(), teamHandler.RemoveMember)
			teams.POST("/:id/tasks", middleware.RequireTeamAccess(), taskHandler.CreateTask)
		}

		// Task routes (protected); tasks are addressed by their unique title
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("/suggest", taskHandler.SuggestTasks)
			tasks.GET("/:title", middleware.RequireTaskAccess(), taskHandler.GetTask)
			tasks.PATCH("/:title", middleware.RequireTaskAccess(), taskHandler.UpdateTask)
			tasks.POST("/:title/complete", middleware.RequireTaskAccess(), taskHandler.CompleteTask)
			tasks.DELETE("/:title", middleware.RequireTaskAccess(), taskHandler.DeleteTask)
		}
	}

	// Start server
	log.Println("Server starting on :8080")
	if err := r.Run(":8080"); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
