package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GROQ_MODEL", "")
	t.Setenv("LLM_HISTORY_WINDOW", "")

	cfg := Load()

	assert.Equal(t, "llama3-8b-8192", cfg.LLM.Model)
	assert.Equal(t, 0.7, cfg.LLM.Temperature)
	assert.Equal(t, 200, cfg.LLM.MaxTokens)
	assert.Equal(t, 50, cfg.LLM.HistoryWindow)
	assert.Equal(t, "groq_api_key", cfg.LLM.APIKeyName)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GROQ_MODEL", "llama-3.1-8b-instant")
	t.Setenv("LLM_TEMPERATURE", "0.2")
	t.Setenv("LLM_HISTORY_WINDOW", "10")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("APP_ENV", "production")

	cfg := Load()

	assert.Equal(t, "llama-3.1-8b-instant", cfg.LLM.Model)
	assert.Equal(t, 0.2, cfg.LLM.Temperature)
	assert.Equal(t, 10, cfg.LLM.HistoryWindow)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
	assert.True(t, cfg.IsProduction())
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("LLM_MAX_TOKENS", "lots")
	t.Setenv("CACHE_ENABLED", "maybe")

	cfg := Load()

	assert.Equal(t, 200, cfg.LLM.MaxTokens)
	assert.True(t, cfg.Cache.Enabled)
}
