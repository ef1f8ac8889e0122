package secrets

import (
	"context"
	"errors"
	"testing"

	"literary-character-ai/backend/pkg/logger"

	vault "github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKV struct {
	data  map[string]interface{}
	err   error
	calls int
}

func (f *fakeKV) Get(_ context.Context, _ string) (*vault.KVSecret, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &vault.KVSecret{Data: f.data}, nil
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "GROQ_API_KEY", EnvKey("groq_api_key"))
	assert.Equal(t, "GROQ_API_KEY", EnvKey("groq-api.key"))
}

func TestEnvironmentOnlyWhenDisabled(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "from-env")

	m, err := NewVaultManager(VaultConfig{}, logger.Discard())
	require.NoError(t, err)

	v, err := m.GetSecret(context.Background(), "groq_api_key")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)

	_, err = m.GetSecret(context.Background(), "missing_key")
	assert.ErrorIs(t, err, ErrSecretNotFound)
	assert.Equal(t, "fallback", m.GetSecretWithDefault(context.Background(), "missing_key", "fallback"))
}

func TestVaultValueIsCached(t *testing.T) {
	kv := &fakeKV{data: map[string]interface{}{"groq_api_key": "from-vault"}}
	m, err := NewVaultManager(VaultConfig{}, logger.Discard())
	require.NoError(t, err)
	m.kv = kv

	for i := 0; i < 3; i++ {
		v, err := m.GetSecret(context.Background(), "groq_api_key")
		require.NoError(t, err)
		assert.Equal(t, "from-vault", v)
	}
	assert.Equal(t, 1, kv.calls)
}

func TestVaultMissingKeyFallsBackToEnvironment(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "from-env")
	m, err := NewVaultManager(VaultConfig{}, logger.Discard())
	require.NoError(t, err)
	m.kv = &fakeKV{data: map[string]interface{}{}}

	v, err := m.GetSecret(context.Background(), "groq_api_key")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)
}

func TestVaultFailureIsReturned(t *testing.T) {
	m, err := NewVaultManager(VaultConfig{}, logger.Discard())
	require.NoError(t, err)
	m.kv = &fakeKV{err: errors.New("permission denied")}

	_, err = m.GetSecret(context.Background(), "groq_api_key")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSecretNotFound)
}

func TestEnabledRequiresAddressAndToken(t *testing.T) {
	_, err := NewVaultManager(VaultConfig{Enabled: true}, logger.Discard())
	assert.ErrorIs(t, err, ErrNoVaultAddress)

	_, err = NewVaultManager(VaultConfig{Enabled: true, Address: "http://vault:8200"}, logger.Discard())
	assert.ErrorIs(t, err, ErrNoVaultToken)
}
