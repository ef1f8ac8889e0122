package di

import (
	"context"
	"testing"

	"literary-character-ai/backend/internal/repository"
	"literary-character-ai/backend/internal/testutil"
	"literary-character-ai/backend/pkg/config"
	"literary-character-ai/backend/pkg/logger"
	"literary-character-ai/backend/pkg/secrets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSecrets map[string]string

func (s staticSecrets) GetSecret(_ context.Context, key string) (string, error) {
	if v, ok := s[key]; ok {
		return v, nil
	}
	return "", secrets.ErrSecretNotFound
}

func (s staticSecrets) GetSecretWithDefault(ctx context.Context, key, def string) string {
	if v, err := s.GetSecret(ctx, key); err == nil {
		return v
	}
	return def
}

func newConfig() *config.Config {
	cfg := config.Load()
	cfg.Cache.Enabled = true
	cfg.Cache.RedisURL = ""
	return cfg
}

func TestNewBuildsGatewayFromSecret(t *testing.T) {
	cfg := newConfig()
	c, err := New(context.Background(), cfg, testutil.NewDB(t), logger.Discard(), Options{
		Secrets: staticSecrets{cfg.LLM.APIKeyName: "gsk-test"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.NotNil(t, c.Completer)
	assert.True(t, c.ChatService.Available())
	assert.IsType(t, &repository.MemoryCharacterCache{}, c.CharacterCache)
}

func TestNewDisablesChatWithoutKey(t *testing.T) {
	c, err := New(context.Background(), newConfig(), testutil.NewDB(t), logger.Discard(), Options{
		Secrets: staticSecrets{},
	})
	require.NoError(t, err)

	assert.Nil(t, c.Completer)
	assert.False(t, c.ChatService.Available())
}

func TestNewWithoutCache(t *testing.T) {
	cfg := newConfig()
	cfg.Cache.Enabled = false

	c, err := New(context.Background(), cfg, testutil.NewDB(t), logger.Discard(), Options{
		Secrets: staticSecrets{},
	})
	require.NoError(t, err)
	assert.Nil(t, c.CharacterCache)
}
