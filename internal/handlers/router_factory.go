package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"questengine/internal/config"
	"questengine/internal/middleware"
	"questengine/internal/observability"
	"questengine/internal/services"
	"questengine/internal/version"
)

// NewRouter creates the API router with all middleware and routes wired up
func NewRouter(
	cfg *config.Config,
	catalogService services.QuestCatalogServiceInterface,
	assignmentService services.QuestAssignmentServiceInterface,
	progressService services.QuestProgressServiceInterface,
	streakService services.StreakServiceInterface,
	userService services.UserServiceInterface,
	logger *observability.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(middleware.ErrorRecoveryMiddleware(logger))

	// HTTP request logging middleware using our observability logger
	router.Use(func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		fields := map[string]interface{}{
			"http.method":      c.Request.Method,
			"http.path":        c.Request.URL.Path,
			"http.status_code": statusCode,
			"http.latency_ms":  latency.Milliseconds(),
			"http.client_ip":   c.ClientIP(),
			"http.user_agent":  c.Request.UserAgent(),
		}
		if len(c.Errors) > 0 {
			fields["http.error"] = c.Errors.String()
		}

		switch {
		case statusCode >= 500:
			logger.Error(c.Request.Context(), "HTTP request failed", nil, fields)
		case statusCode >= 400:
			logger.Warn(c.Request.Context(), "HTTP request warning", fields)
		default:
			logger.Info(c.Request.Context(), "HTTP request", fields)
		}
	})

	// Health check endpoint (defined before tracing middleware)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": config.DefaultServiceName})
	})

	// OpenTelemetry middleware for HTTP tracing and context propagation
	router.Use(observability.GinMiddlewareWithErrorHandling(cfg.OpenTelemetry.ServiceName))

	// Disable automatic redirection for trailing slashes, which is better for APIs
	router.RedirectTrailingSlash = false

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	questHandler := NewQuestHandler(catalogService, assignmentService, progressService, cfg, logger)
	streakHandler := NewStreakHandler(streakService, logger)
	userHandler := NewUserHandler(userService, logger)

	v1 := router.Group("/v1")
	{
		v1.GET("/version", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"service": config.DefaultServiceName,
				"build":   version.Get(),
			})
		})

		quests := v1.Group("/quests")
		{
			quests.POST("/catalog", questHandler.EnsureCatalog)
			quests.GET("/catalog", questHandler.GetCatalog)
			quests.GET("/:id", questHandler.GetQuest)
		}

		v1.GET("/languages", userHandler.ListLanguages)
		v1.POST("/users", userHandler.CreateUser)

		users := v1.Group("/users/:userID")
		{
			users.GET("", userHandler.GetUser)
			users.PUT("/language", userHandler.SetLanguage)
			users.GET("/quests", questHandler.GetUserDailyQuests)
			users.POST("/quests", questHandler.AssignQuests)
			users.POST("/events", questHandler.ApplyEvent)
			users.GET("/streak", streakHandler.GetStreakStatus)
			users.POST("/streak", streakHandler.RecordActivity)
		}
	}

	return router
}
