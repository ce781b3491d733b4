package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://project.supabase.test")
	t.Setenv("SUPABASE_ANON_KEY", "anon-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Environment)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "./data", cfg.Store.DataDir)
	assert.Equal(t, "ai-chat", cfg.Supabase.FunctionName)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, "avatars", cfg.Storage.AvatarContainer)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://project.supabase.test")
	t.Setenv("SUPABASE_ANON_KEY", "anon-key")
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DATA_DIR", "/var/lib/medicai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("DATABASE_URL", "postgres://localhost/medicai")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "production", cfg.Server.Environment)
	assert.Equal(t, "/var/lib/medicai", cfg.Store.DataDir)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.True(t, cfg.DirectLLMEnabled())
	assert.True(t, cfg.AuditEnabled())
}

func TestLoad_MissingBackendCredentialsIsFatal(t *testing.T) {
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_ANON_KEY", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Supabase: SupabaseConfig{URL: "https://project.supabase.test", AnonKey: "anon-key"},
			Store:    StoreConfig{DataDir: "./data"},
		}
	}

	t.Run("valid minimal config", func(t *testing.T) {
		cfg := base()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("missing anon key", func(t *testing.T) {
		cfg := base()
		cfg.Supabase.AnonKey = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("storage account without key", func(t *testing.T) {
		cfg := base()
		cfg.Storage.AccountName = "medicai"
		assert.Error(t, cfg.Validate())
	})

	t.Run("optional tiers stay disabled", func(t *testing.T) {
		cfg := base()
		assert.False(t, cfg.DirectLLMEnabled())
		assert.False(t, cfg.AuditEnabled())
		assert.False(t, cfg.AvatarStorageEnabled())
	})
}
