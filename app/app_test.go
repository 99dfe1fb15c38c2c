package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oar-cd/connectctl/config"
	"github.com/oar-cd/connectctl/domain"
	"github.com/oar-cd/connectctl/encryption"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	vars map[string]string
	home string
}

func (e *testEnv) Getenv(key string) string { return e.vars[key] }
func (e *testEnv) UserHomeDir() (string, error) { return e.home, nil }

func newTestConfig(t *testing.T, vars map[string]string) *config.Config {
	t.Helper()
	dataDir := t.TempDir()
	cfg, err := config.NewConfigWithEnv("", &testEnv{vars: vars, home: t.TempDir()}, config.WithDataDir(dataDir))
	require.NoError(t, err)
	return cfg
}

func TestInitializeWithConfig_GeneratesKey(t *testing.T) {
	cfg := newTestConfig(t, nil)
	require.Empty(t, cfg.EncryptionKey)

	require.NoError(t, InitializeWithConfig(cfg))

	assert.NotEmpty(t, cfg.EncryptionKey)
	content, err := os.ReadFile(filepath.Join(cfg.DataDir, config.EnvFileName))
	require.NoError(t, err)
	assert.Contains(t, string(content), config.EncryptionKeyVar+"="+cfg.EncryptionKey)

	assert.FileExists(t, cfg.DatabasePath)
	assert.NotNil(t, GetExecutor())
	assert.Same(t, cfg, GetConfig())
}

func TestInitializeWithConfig_StoresServers(t *testing.T) {
	key, err := encryption.GenerateKey()
	require.NoError(t, err)
	cfg := newTestConfig(t, map[string]string{config.EncryptionKeyVar: key})

	require.NoError(t, InitializeWithConfig(cfg))
	assert.NoFileExists(t, filepath.Join(cfg.DataDir, config.EnvFileName), "a configured key is not persisted again")

	alias := domain.NewServerAlias("prod", "https://connect.example.com", "secret", false, "")
	require.NoError(t, GetServerStore().Save(alias))

	found, err := GetServerStore().FindByName("prod")
	require.NoError(t, err)
	assert.Equal(t, "secret", found.APIKey)
}

func TestInitializeWithConfig_InvalidKey(t *testing.T) {
	cfg := newTestConfig(t, map[string]string{config.EncryptionKeyVar: "not-a-key"})
	assert.Error(t, InitializeWithConfig(cfg))
}
