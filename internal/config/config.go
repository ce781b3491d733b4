package config

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Supabase SupabaseConfig
	OpenAI   OpenAIConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Logging  LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string
	Environment     string
	ShutdownTimeout time.Duration
}

// StoreConfig holds local document store configuration.
// EncryptionKey is optional; when set, documents are sealed with
// AES-256-GCM before they reach disk.
type StoreConfig struct {
	DataDir       string
	EncryptionKey string
}

// SupabaseConfig holds hosted-backend configuration.
// URL and AnonKey are required; without them the app cannot start.
type SupabaseConfig struct {
	URL          string
	AnonKey      string
	FunctionName string
}

// OpenAIConfig holds direct LLM fallback configuration.
// An empty APIKey disables the direct tier, nothing else.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// DatabaseConfig holds the optional audit database configuration
type DatabaseConfig struct {
	URL string
}

// StorageConfig holds optional Azure Blob Storage configuration for avatars
type StorageConfig struct {
	AccountName     string
	AccountKey      string
	AvatarContainer string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or console
}

// Load reads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Read from environment variables
	v.AutomaticEnv()

	// Bind specific environment variables
	bindEnvVars(v)

	// Unmarshal into config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.shutdowntimeout", 30*time.Second)

	// Store defaults
	v.SetDefault("store.datadir", "./data")

	// Supabase defaults
	v.SetDefault("supabase.functionname", "ai-chat")

	// OpenAI defaults
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.timeout", 30*time.Second)

	// Storage defaults
	v.SetDefault("storage.avatarcontainer", "avatars")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.environment", "ENV", "ENVIRONMENT")

	// Store
	v.BindEnv("store.datadir", "DATA_DIR")
	v.BindEnv("store.encryptionkey", "STORE_ENCRYPTION_KEY")

	// Supabase
	v.BindEnv("supabase.url", "SUPABASE_URL")
	v.BindEnv("supabase.anonkey", "SUPABASE_ANON_KEY")
	v.BindEnv("supabase.functionname", "SUPABASE_CHAT_FUNCTION")

	// OpenAI
	v.BindEnv("openai.apikey", "OPENAI_API_KEY")
	v.BindEnv("openai.model", "OPENAI_MODEL")

	// Audit database
	v.BindEnv("database.url", "DATABASE_URL")

	// Azure Storage (avatars)
	v.BindEnv("storage.accountname", "AZURE_STORAGE_ACCOUNT_NAME")
	v.BindEnv("storage.accountkey", "AZURE_STORAGE_ACCOUNT_KEY")
	v.BindEnv("storage.avatarcontainer", "AZURE_STORAGE_AVATAR_CONTAINER")

	// Logging
	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("logging.format", "LOG_FORMAT")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Missing backend credentials are fatal; a missing LLM key only
	// disables the direct fallback tier.
	if c.Supabase.URL == "" {
		return fmt.Errorf("supabase.url is required")
	}

	if c.Supabase.AnonKey == "" {
		return fmt.Errorf("supabase.anonkey is required")
	}

	if c.Store.DataDir == "" {
		return fmt.Errorf("store.datadir is required")
	}

	if c.Storage.AccountName != "" && c.Storage.AccountKey == "" {
		return fmt.Errorf("storage.accountkey is required when storage.accountname is set")
	}

	if c.Store.EncryptionKey != "" {
		if _, err := c.StoreKey(); err != nil {
			return err
		}
	}

	return nil
}

// StoreKey decodes the at-rest encryption key. It returns nil when no
// key is configured.
func (c *Config) StoreKey() ([]byte, error) {
	if c.Store.EncryptionKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(c.Store.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("store.encryptionkey must be base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("store.encryptionkey must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

// DirectLLMEnabled reports whether the direct OpenAI fallback tier is configured
func (c *Config) DirectLLMEnabled() bool {
	return c.OpenAI.APIKey != ""
}

// AuditEnabled reports whether the chat usage audit trail is configured
func (c *Config) AuditEnabled() bool {
	return c.Database.URL != ""
}

// AvatarStorageEnabled reports whether avatar blob storage is configured
func (c *Config) AvatarStorageEnabled() bool {
	return c.Storage.AccountName != "" && c.Storage.AccountKey != ""
}
