// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Database    DatabaseConfig    `mapstructure:"database"`
	CMS         CMSConfig         `mapstructure:"cms"`
	SearchIndex SearchIndexConfig `mapstructure:"search_index"`
	Sync        SyncConfig        `mapstructure:"sync"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CMSConfig holds the content-publishing system credentials. Injected into
// the client constructor so tests can point it at a local server.
type CMSConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	Username    string `mapstructure:"username"`
	AppPassword string `mapstructure:"app_password"`
	Timeout     int    `mapstructure:"timeout"` // milliseconds
}

// SearchIndexConfig holds the hosted search index credentials.
type SearchIndexConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	ApplicationID string `mapstructure:"application_id"`
	AdminAPIKey   string `mapstructure:"admin_api_key"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds
}

// SyncConfig holds orchestrator settings.
type SyncConfig struct {
	LockTTL             int  `mapstructure:"lock_ttl"` // milliseconds
	VerifyPropagation   bool `mapstructure:"verify_propagation"`
	PropagationAttempts int  `mapstructure:"propagation_attempts"`
	PropagationDelay    int  `mapstructure:"propagation_delay"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
