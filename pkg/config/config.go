package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port    string
		Env     string
		Timeout time.Duration
		BaseURL string
	}

	// Database configuration
	Database struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
		MaxConns int
		Retries  int
	}

	// JWT configuration
	JWT struct {
		Secret string
		Expiry time.Duration
	}

	// LLM provider configuration. The API key itself is a secret and is
	// resolved through pkg/secrets.
	LLM struct {
		BaseURL       string
		Model         string
		Temperature   float64
		MaxTokens     int
		HistoryWindow int
		Timeout       time.Duration
		APIKeyName    string
	}

	// Security configuration
	Security struct {
		AllowedOrigins []string
		MaxBodySize    int64
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}

	// Character cache settings
	Cache struct {
		Enabled     bool
		TTL         time.Duration
		PurgeWindow time.Duration
		RedisURL    string
	}

	// Observability settings
	Observability struct {
		ServiceName    string
		TracingEnabled bool
		GRPCHealthPort string
		HealthInterval time.Duration
	}

	// OpenAPI request validation
	OpenAPI struct {
		SchemaPath string
	}

	// Vault secrets backend; disabled means secrets come from the environment
	Vault struct {
		Enabled     bool
		Address     string
		Token       string
		Namespace   string
		Mount       string
		SecretsPath string
	}
}

var (
	instance *Config
	once     sync.Once
)

// New returns the process-wide Config, loading it from the environment on
// first use
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		_ = godotenv.Load()
		instance = Load()
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	return New()
}

// Load builds a fresh Config from environment variables
func Load() *Config {
	cfg := &Config{}

	cfg.Server.Port = getEnvString("PORT", "8081")
	cfg.Server.Env = getEnvString("APP_ENV", "development")
	cfg.Server.Timeout = getEnvDuration("SERVER_TIMEOUT", 90*time.Second)
	cfg.Server.BaseURL = getEnvString("BASE_URL", "http://localhost:"+cfg.Server.Port)

	cfg.Database.Host = getEnvString("DB_HOST", "localhost")
	cfg.Database.Port = getEnvString("DB_PORT", "5432")
	cfg.Database.User = getEnvString("DB_USER", "postgres")
	cfg.Database.Password = getEnvString("DB_PASSWORD", "postgres")
	cfg.Database.Name = getEnvString("DB_NAME", "literary_characters")
	cfg.Database.SSLMode = getEnvString("DB_SSL_MODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 20)
	cfg.Database.Retries = getEnvInt("DB_CONNECT_RETRIES", 5)

	cfg.JWT.Secret = getEnvString("JWT_SECRET", "default-jwt-secret-do-not-use-in-production")
	cfg.JWT.Expiry = getEnvDuration("JWT_EXPIRY", 24*time.Hour)

	cfg.LLM.BaseURL = getEnvString("GROQ_BASE_URL", "https://api.groq.com/openai/v1")
	cfg.LLM.Model = getEnvString("GROQ_MODEL", "llama3-8b-8192")
	cfg.LLM.Temperature = getEnvFloat("LLM_TEMPERATURE", 0.7)
	cfg.LLM.MaxTokens = getEnvInt("LLM_MAX_TOKENS", 200)
	cfg.LLM.HistoryWindow = getEnvInt("LLM_HISTORY_WINDOW", 50)
	cfg.LLM.Timeout = getEnvDuration("LLM_TIMEOUT", 60*time.Second)
	cfg.LLM.APIKeyName = getEnvString("LLM_API_KEY_NAME", "groq_api_key")

	cfg.Security.AllowedOrigins = getEnvStringSlice("ALLOWED_ORIGINS", []string{"*"})
	cfg.Security.MaxBodySize = getEnvInt64("MAX_BODY_SIZE", 1<<20) // 1MB

	cfg.Logging.Level = getEnvString("LOG_LEVEL", "info")
	cfg.Logging.Format = getEnvString("LOG_FORMAT", "json")

	cfg.Cache.Enabled = getEnvBool("CACHE_ENABLED", true)
	cfg.Cache.TTL = getEnvDuration("CACHE_TTL", 5*time.Minute)
	cfg.Cache.PurgeWindow = getEnvDuration("CACHE_PURGE_WINDOW", 10*time.Minute)
	cfg.Cache.RedisURL = getEnvString("REDIS_URL", "")

	cfg.Observability.ServiceName = getEnvString("SERVICE_NAME", "literary-character-chat")
	cfg.Observability.TracingEnabled = getEnvBool("TRACING_ENABLED", false)
	cfg.Observability.GRPCHealthPort = getEnvString("GRPC_HEALTH_PORT", "9094")
	cfg.Observability.HealthInterval = getEnvDuration("HEALTH_CHECK_INTERVAL", 30*time.Second)

	cfg.OpenAPI.SchemaPath = getEnvString("OPENAPI_SCHEMA_PATH", "")

	cfg.Vault.Enabled = getEnvBool("VAULT_ENABLED", false)
	cfg.Vault.Address = getEnvString("VAULT_ADDR", "")
	cfg.Vault.Token = getEnvString("VAULT_TOKEN", "")
	cfg.Vault.Namespace = getEnvString("VAULT_NAMESPACE", "")
	cfg.Vault.Mount = getEnvString("VAULT_MOUNT", "secret")
	cfg.Vault.SecretsPath = getEnvString("VAULT_SECRETS_PATH", "literary-character-ai")

	return cfg
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
