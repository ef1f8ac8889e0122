package di

import (
	"context"
	"fmt"

	"literary-character-ai/backend/ai"
	"literary-character-ai/backend/internal/repository"
	"literary-character-ai/backend/internal/service"
	"literary-character-ai/backend/pkg/config"
	"literary-character-ai/backend/pkg/health"
	"literary-character-ai/backend/pkg/jwt"
	"literary-character-ai/backend/pkg/logger"
	"literary-character-ai/backend/pkg/secrets"

	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	Config  *config.Config
	DB      *gorm.DB
	Logger  *logger.Logger
	Secrets secrets.Manager
	Health  *health.Checker

	JWTService *jwt.Service
	Completer  ai.Completer

	CharacterCache         repository.CharacterCache
	CharacterRepository    *repository.CharacterRepository
	ConversationRepository *repository.ConversationRepository

	UserService         *service.UserService
	CharacterService    *service.CharacterService
	ConversationService *service.ConversationService
	ChatService         *service.ChatService

	closers []func() error
}

// Options override pieces of the container, mainly for tests
type Options struct {
	// Completer replaces the Groq gateway when set
	Completer ai.Completer
	// Secrets replaces the Vault/env manager when set
	Secrets secrets.Manager
}

// New wires every service on top of db
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, log *logger.Logger, opts Options) (*Container, error) {
	c := &Container{
		Config:     cfg,
		DB:         db,
		Logger:     log,
		JWTService: jwt.NewService(cfg.JWT.Secret, cfg.JWT.Expiry),
		Health:     health.NewChecker(log, cfg.Observability.HealthInterval),
	}

	c.Secrets = opts.Secrets
	if c.Secrets == nil {
		manager, err := secrets.NewVaultManager(secrets.VaultConfig{
			Enabled:     cfg.Vault.Enabled,
			Address:     cfg.Vault.Address,
			Token:       cfg.Vault.Token,
			Namespace:   cfg.Vault.Namespace,
			Mount:       cfg.Vault.Mount,
			SecretsPath: cfg.Vault.SecretsPath,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("init secrets manager: %w", err)
		}
		c.Secrets = manager
	}

	c.Completer = opts.Completer
	if c.Completer == nil {
		c.Completer = newGateway(ctx, cfg, c.Secrets, log)
	}

	if err := c.initCache(ctx); err != nil {
		return nil, err
	}

	c.CharacterRepository = repository.NewCharacterRepository(db, c.CharacterCache)
	c.ConversationRepository = repository.NewConversationRepository(db)

	c.UserService = service.NewUserService(db, c.JWTService)
	c.CharacterService = service.NewCharacterService(c.CharacterRepository, c.ConversationRepository)
	c.ConversationService = service.NewConversationService(c.ConversationRepository)
	c.ChatService = service.NewChatService(
		c.CharacterRepository,
		c.ConversationRepository,
		c.Completer,
		service.ChatConfig{
			Model:         cfg.LLM.Model,
			Temperature:   cfg.LLM.Temperature,
			MaxTokens:     cfg.LLM.MaxTokens,
			HistoryWindow: cfg.LLM.HistoryWindow,
		},
		log,
	)

	c.Health.RegisterDatabaseCheck(func(ctx context.Context) error {
		return config.Ping(db.WithContext(ctx))
	})
	c.Health.RegisterLLMCheck(c.ChatService.Available)

	return c, nil
}

// newGateway builds the Groq gateway once. On failure chat is disabled for
// the life of the process and nil is returned.
func newGateway(ctx context.Context, cfg *config.Config, sm secrets.Manager, log *logger.Logger) ai.Completer {
	key, err := sm.GetSecret(ctx, cfg.LLM.APIKeyName)
	if err != nil {
		log.LogError(err, "LLM API key unavailable, chat is disabled", "key", cfg.LLM.APIKeyName)
		return nil
	}

	gw, err := ai.NewGateway(ai.GatewayConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  key,
		Timeout: cfg.LLM.Timeout,
	})
	if err != nil {
		log.LogError(err, "Failed to initialize LLM gateway, chat is disabled")
		return nil
	}

	log.Info("LLM gateway initialized", "base_url", cfg.LLM.BaseURL, "model", cfg.LLM.Model)
	return gw
}

func (c *Container) initCache(ctx context.Context) error {
	cfg := c.Config.Cache
	if !cfg.Enabled {
		return nil
	}

	if cfg.RedisURL == "" {
		c.CharacterCache = repository.NewMemoryCharacterCache(cfg.TTL, cfg.PurgeWindow)
		return nil
	}

	redisCache, err := repository.NewRedisCharacterCache(cfg.RedisURL, cfg.TTL, c.Logger)
	if err != nil {
		return fmt.Errorf("init redis cache: %w", err)
	}
	if err := redisCache.Ping(ctx); err != nil {
		c.Logger.Warn("Redis unreachable at startup, character reads will hit the database until it recovers",
			"error", err.Error())
	}

	c.CharacterCache = redisCache
	c.closers = append(c.closers, redisCache.Close)
	c.Health.RegisterCacheCheck(redisCache.Ping)
	return nil
}

// Close releases resources held by the container
func (c *Container) Close() error {
	var first error
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
