// Package config provides configuration management for Ashley.
// It loads settings from environment variables with the ASHLEY_ prefix
// and provides sensible defaults for all configuration options.
//
// User settings (e.g., user_name) are persisted to the settings table in
// the database. LoadConfigFromDB reads from the database first and falls back
// to environment variables. SaveConfig writes user settings to the database.
package config

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration settings for the Ashley assistant.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	NLP      NLPConfig
	Fallback FallbackConfig
	Collab   CollabConfig
	Security SecurityConfig
	User     UserConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    // Server port (default: 8363)
	Host string // Server host (default: 127.0.0.1)
}

// StorageConfig contains database and storage configuration.
type StorageConfig struct {
	StorageEngine string // Storage engine type: sqlite, postgres (default: sqlite)
	DataPath      string // Path to data directory (default: ./data)
	PostgresDSN   string // Postgres connection string when StorageEngine=postgres
	RetentionDays int    // Conversation retention horizon in days (default: 30)
	MaxHistory    int    // Bounded conversation window per session (default: 10)
}

// NLPConfig contains classifier configuration.
type NLPConfig struct {
	IntentsPath    string // Optional YAML override for the intent catalog
	AppsPath       string // Optional YAML override for the app catalog
	KnowledgePath  string // Path to the knowledge base file (default: ./assistant_knowledge_base.md)
	ZeroShotURL    string // Zero-shot classifier endpoint; empty disables the secondary strategy
	ZeroShotAPIKey string // Bearer token for the zero-shot endpoint
}

// FallbackConfig contains generative fallback configuration.
type FallbackConfig struct {
	BaseURL string // Chat completions base URL (default: https://openrouter.ai/api)
	APIKey  string // API key; empty disables the generative fallback
	Model   string // Model name (default: openai/gpt-4o-mini)
}

// CollabConfig contains external collaborator configuration.
type CollabConfig struct {
	WeatherAPIKey string // OpenWeather API key
	DefaultCity   string // Fallback city when location lookup fails (default: Kolkata)
	TTSEndpoint   string // HTTP TTS endpoint; empty selects the no-op speaker
}

// SecurityConfig contains security and authentication settings.
type SecurityConfig struct {
	SecurityMode string // Security mode: development, production (default: development)
	APIToken     string // API authentication token
}

// UserConfig contains user-specific settings that persist across restarts.
// These settings are stored in the settings table in the database.
type UserConfig struct {
	// UserName is the display name for the user.
	// Env var: ASHLEY_USER_NAME; database key: user_name.
	UserName string

	// AssistantName is the name the assistant introduces itself with.
	// Env var: ASHLEY_ASSISTANT_NAME; database key: assistant_name.
	AssistantName string
}

// LoadConfig loads configuration from environment variables with sensible
// defaults. All environment variables use the ASHLEY_ prefix. Use
// LoadConfigFromDB to also read persisted user settings from the database.
func LoadConfig() (*Config, error) {
	cfg := buildBaseConfig()
	return cfg, nil
}

// LoadConfigFromDB loads configuration from both environment variables and
// the database. The database value takes precedence over the environment
// variable for user settings.
//
// Returns an error if db is nil.
func LoadConfigFromDB(db *sql.DB) (*Config, error) {
	if db == nil {
		return nil, errors.New("config: database connection is required")
	}

	cfg := buildBaseConfig()

	for key, dst := range map[string]*string{
		"user_name":      &cfg.User.UserName,
		"assistant_name": &cfg.User.AssistantName,
	} {
		value, err := getSetting(db, key)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("config: failed to load %s from database: %w", key, err)
		}
		if value != "" {
			*dst = value
		}
	}

	return cfg, nil
}

// SaveConfig persists user configuration settings to the settings table in
// the database using upsert semantics.
//
// Returns an error if db is nil.
func (c *Config) SaveConfig(db *sql.DB) error {
	if db == nil {
		return errors.New("config: database connection is required")
	}

	if err := setSetting(db, "user_name", c.User.UserName); err != nil {
		return fmt.Errorf("config: failed to save user_name: %w", err)
	}
	if err := setSetting(db, "assistant_name", c.User.AssistantName); err != nil {
		return fmt.Errorf("config: failed to save assistant_name: %w", err)
	}

	return nil
}

// getSetting retrieves a single setting value by key from the settings table.
// Returns an empty string and sql.ErrNoRows if the key does not exist.
func getSetting(db *sql.DB, key string) (string, error) {
	var value string
	err := db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

// setSetting writes a key-value pair to the settings table using upsert semantics.
func setSetting(db *sql.DB, key, value string) error {
	_, err := db.Exec(`
		INSERT INTO settings (key, value)
		VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, key, value)
	return err
}

// buildBaseConfig constructs a Config with values from environment variables
// and defaults. This is the shared base for both LoadConfig and LoadConfigFromDB.
func buildBaseConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("ASHLEY_PORT", 8363),
			Host: getEnv("ASHLEY_HOST", "127.0.0.1"),
		},
		Storage: StorageConfig{
			StorageEngine: getEnv("ASHLEY_STORAGE_ENGINE", "sqlite"),
			DataPath:      getEnv("ASHLEY_DATA_PATH", "./data"),
			PostgresDSN:   getEnv("ASHLEY_POSTGRES_DSN", ""),
			RetentionDays: getEnvInt("ASHLEY_RETENTION_DAYS", 30),
			MaxHistory:    getEnvInt("ASHLEY_MAX_HISTORY", 10),
		},
		NLP: NLPConfig{
			IntentsPath:    getEnv("ASHLEY_INTENTS_PATH", ""),
			AppsPath:       getEnv("ASHLEY_APPS_PATH", ""),
			KnowledgePath:  getEnv("ASHLEY_KNOWLEDGE_PATH", "./assistant_knowledge_base.md"),
			ZeroShotURL:    getEnv("ASHLEY_ZEROSHOT_URL", ""),
			ZeroShotAPIKey: getEnv("ASHLEY_ZEROSHOT_API_KEY", ""),
		},
		Fallback: FallbackConfig{
			BaseURL: getEnv("ASHLEY_FALLBACK_URL", "https://openrouter.ai/api"),
			APIKey:  getEnv("ASHLEY_FALLBACK_API_KEY", ""),
			Model:   getEnv("ASHLEY_FALLBACK_MODEL", "openai/gpt-4o-mini"),
		},
		Collab: CollabConfig{
			WeatherAPIKey: getEnv("ASHLEY_WEATHER_API_KEY", ""),
			DefaultCity:   getEnv("ASHLEY_DEFAULT_CITY", "Kolkata"),
			TTSEndpoint:   getEnv("ASHLEY_TTS_ENDPOINT", ""),
		},
		Security: SecurityConfig{
			SecurityMode: getEnv("ASHLEY_SECURITY_MODE", "development"),
			APIToken:     getEnv("ASHLEY_API_TOKEN", ""),
		},
		User: UserConfig{
			UserName:      getEnv("ASHLEY_USER_NAME", ""),
			AssistantName: getEnv("ASHLEY_ASSISTANT_NAME", "Ashley"),
		},
	}
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value. If the environment variable exists but cannot be parsed as an
// integer, it returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
