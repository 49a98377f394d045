package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Chat.RequireConfirm)
	assert.Equal(t, StoreMemory, cfg.Session.Store)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 15*time.Second, cfg.Retry.CallTimeout)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yml := `
workspace:
  root_page_id: root-1
model:
  provider: openai
  timeout: 10s
session:
  store: redis
  ttl: 1h
  redis:
    addr: redis:6379
    db: 2
chat:
  require_confirm: false
  default_target: Inbox
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte(yml), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OPENAI_API_KEY=from-dotenv\n"), 0o644))
	t.Setenv("SCRIBE_DEFAULT_TARGET", "Journal")
	t.Setenv("SCRIBE_REDIS_DB", "5")
	t.Setenv("OPENAI_API_KEY", "")
	os.Unsetenv("OPENAI_API_KEY")

	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "root-1", cfg.Workspace.RootPageID)
	assert.Equal(t, 10*time.Second, cfg.Model.Timeout)
	assert.Equal(t, "from-dotenv", cfg.Model.APIKey)
	assert.Equal(t, StoreRedis, cfg.Session.Store)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.Equal(t, 5, cfg.Session.Redis.DB)
	assert.False(t, cfg.Chat.RequireConfirm)
	assert.Equal(t, "Journal", cfg.Chat.DefaultTarget)
	assert.Equal(t, 0.5, cfg.Chat.MatchThreshold, "unset keys keep defaults")
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load("nope.yaml")
	assert.Error(t, err)
}

func TestApplyEnv_BadValues(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"SCRIBE_REQUIRE_CONFIRM": "maybe",
		"SCRIBE_REDIS_DB":        "two",
		"SCRIBE_CALL_TIMEOUT":    "soon",
		"SCRIBE_OFFLINE":         "true",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SCRIBE_REQUIRE_CONFIRM")
	assert.Contains(t, err.Error(), "SCRIBE_REDIS_DB")
	assert.Contains(t, err.Error(), "SCRIBE_CALL_TIMEOUT")
	assert.True(t, cfg.Chat.Offline, "valid values still apply")
}

func TestApplyEnv_ProviderKeys(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(envMap(map[string]string{
		"SCRIBE_MODEL_PROVIDER": "gemini",
		"GEMINI_API_KEY":        "g-key",
		"OPENAI_API_KEY":        "o-key",
		"NOTION_TOKEN":          "n-token",
	})))
	assert.Equal(t, "g-key", cfg.Model.APIKey)
	assert.Equal(t, "n-token", cfg.Workspace.Token)
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Session.Store = "postgres"
	cfg.Model.Provider = "llama"
	cfg.Chat.MatchThreshold = 1.5
	cfg.Retry.MaxAttempts = 0
	cfg.Log.Level = "loud"
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"session.store", "model.provider", "chat.match_threshold", "retry.max_attempts", "log.level", "log.format"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidate_EncryptionKey(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(envMap(map[string]string{
		"SCRIBE_SESSION_KEY":    "c2hvcnQ=",
		"SCRIBE_SESSION_REDACT": "true",
	})))
	assert.True(t, cfg.Session.Redact)

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.encryption_key")

	cfg.Session.EncryptionKey = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="
	assert.NoError(t, cfg.Validate())
}
