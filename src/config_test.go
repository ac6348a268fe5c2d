package src

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"productivity_agent/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Agent.Provider)
	assert.Equal(t, "google/gemini-2.0-flash-001", cfg.Agent.Model)
	assert.Equal(t, 100, cfg.Agent.MaxMemorySize)
	assert.Equal(t, 3, cfg.Agent.ContextWindow)
	assert.Equal(t, 100, cfg.Agent.SnippetLength)
	assert.Equal(t, 30*time.Second, cfg.Agent.Timeout)
	assert.Equal(t, 40*time.Minute, cfg.Storage.ArchiveTTL)
}

func TestLoadConfig_YAMLOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  format: console
agent:
  provider: DeepSeek
  model: deepseek-chat
  max_memory_size: 25
  model_timeout: 5s
server:
  port: 8081
storage:
  archive_dir: /tmp/sessions
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "deepseek", cfg.Agent.Provider)
	assert.Equal(t, "deepseek-chat", cfg.Agent.Model)
	assert.Equal(t, 25, cfg.Agent.MaxMemorySize)
	assert.Equal(t, 5*time.Second, cfg.Agent.Timeout)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "/tmp/sessions", cfg.Storage.ArchiveDir)
	// untouched keys keep defaults
	assert.Equal(t, 3, cfg.Agent.ContextWindow)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoadConfig_EnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, `
agent:
  model: from-file
  context_window: 4
`)
	t.Setenv("AGENT_MODEL", "from-env")
	t.Setenv("AGENT_API_KEY", "secret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORAGE_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Agent.Model)
	assert.Equal(t, "secret", cfg.Agent.APIKey)
	assert.Equal(t, 4, cfg.Agent.ContextWindow)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Storage.RedisURL)
}

func TestLoadConfig_BareFallbackNames(t *testing.T) {
	t.Setenv("API_KEY", "bare-secret")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "bare-secret", cfg.Agent.APIKey)
	assert.Equal(t, "redis://cache:6379/1", cfg.Storage.RedisURL)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown provider", "agent:\n  provider: nowhere\n"},
		{"zero memory", "agent:\n  max_memory_size: 0\n"},
		{"negative window", "agent:\n  context_window: -1\n"},
		{"bad port", "server:\n  port: 70000\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.yaml))
			assert.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "agent: [unclosed"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, config.ErrInvalidConfig)
}

func TestLoadConfig_BadEnvValue(t *testing.T) {
	t.Setenv("AGENT_MAX_MEMORY_SIZE", "lots")

	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfig_OpenRouterKeyFallback(t *testing.T) {
	t.Setenv(OpenRouterKeyEnv, "router-key")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "router-key", cfg.Agent.APIKey)

	t.Setenv("AGENT_API_KEY", "agent-key")
	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "agent-key", cfg.Agent.APIKey)
}
