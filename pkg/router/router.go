package router

import (
	"context"
	"strconv"

	"literary-character-ai/backend/internal/api"
	"literary-character-ai/backend/internal/ws"
	"literary-character-ai/backend/pkg/config"
	"literary-character-ai/backend/pkg/di"
	"literary-character-ai/backend/pkg/errors"
	"literary-character-ai/backend/pkg/health"
	"literary-character-ai/backend/pkg/jwt"
	"literary-character-ai/backend/pkg/logger"
	"literary-character-ai/backend/pkg/middleware"
	"literary-character-ai/backend/shared/observability"

	"github.com/gin-gonic/gin"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Hub       *ws.Hub
	Config    *config.Config
	Metrics   *observability.Metrics
}

// New creates a new router with the given container. The WebSocket hub runs
// until ctx is cancelled. metrics may be nil, in which case /metrics is not
// served.
func New(ctx context.Context, container *di.Container, metrics *observability.Metrics) *Router {
	logger.SetGlobal(container.Logger)
	cfg := container.Config

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Logger first so every later middleware sees the request-scoped logger
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())
	engine.Use(middleware.CORS(cfg.Security.AllowedOrigins))
	engine.Use(middleware.MaxBodySize(cfg.Security.MaxBodySize))
	if metrics != nil {
		engine.Use(observability.RequestMetrics(cfg.Observability.ServiceName))
	}

	hub := ws.NewHub(container.ChatService, container.Logger)
	go hub.Run(ctx)

	container.Health.RegisterCheck("websocket", false, func(context.Context) (health.Status, string, error) {
		return health.StatusUp, "active connections: " + strconv.Itoa(hub.ActiveConnections()), nil
	})

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Hub:       hub,
		Config:    cfg,
		Metrics:   metrics,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	jwtAuth := middleware.JWTAuthMiddleware(r.Container.JWTService)

	authHandler := api.NewAuthHandler(r.Container.UserService)
	characterHandler := api.NewCharacterHandler(r.Container.CharacterService)
	conversationHandler := api.NewConversationHandler(r.Container.ConversationService)
	chatHandler := api.NewChatHandler(r.Container.ChatService)

	healthHandler := r.Container.Health.Handler()
	r.Engine.GET("/health", healthHandler)
	r.Engine.GET("/api/health", healthHandler)
	if r.Metrics != nil {
		r.Engine.GET("/metrics", r.Metrics.Handler())
	}

	v1 := r.Engine.Group("/api/v1")
	v1.GET("/health", healthHandler)

	authRoutes := v1.Group("/auth")
	{
		authRoutes.POST("/signup", authHandler.Signup)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.GET("/me", jwtAuth, authHandler.Me)
	}

	protected := v1.Group("")
	protected.Use(jwtAuth)
	{
		characterRoutes := protected.Group("/characters")
		{
			characterRoutes.GET("", characterHandler.ListCharacters)
			characterRoutes.GET("/featured", characterHandler.ListFeatured)
			characterRoutes.GET("/:id", characterHandler.GetCharacter)
			characterRoutes.POST("", middleware.RequireRole(jwt.RoleAdmin), characterHandler.CreateCharacter)
			characterRoutes.PUT("/:id", middleware.RequireRole(jwt.RoleAdmin), characterHandler.UpdateCharacter)
		}

		conversationRoutes := protected.Group("/conversations")
		{
			conversationRoutes.GET("", conversationHandler.ListConversations)
			conversationRoutes.DELETE("/:id", conversationHandler.DeleteConversation)
		}

		protected.POST("/chat", chatHandler.Chat)
	}

	// Legacy routes kept for older clients
	legacy := r.Engine.Group("/api")
	{
		legacy.POST("/auth/signup", authHandler.Signup)
		legacy.POST("/auth/login", authHandler.Login)
		legacy.GET("/auth/me", jwtAuth, authHandler.Me)
		legacy.POST("/chat", jwtAuth, chatHandler.Chat)
	}

	r.Engine.GET("/ws", jwtAuth, ws.Handler(r.Hub, r.Config.Security.AllowedOrigins))
}
