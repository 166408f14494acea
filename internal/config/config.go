// Package config provides application configuration with multi-source
// priority:
//
//  1. Environment variables (runtime override)
//  2. Config file (~/.sqlmint/config.yaml)
//  3. Default values
//
// Configuration and validation errors are loud and immediate: Load fails
// fast rather than running against silently-defaulted storage or model
// settings. Errors are sentinels, checked with errors.Is().
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrMissingConnection indicates no usable PostgreSQL connection
	// configuration could be resolved.
	ErrMissingConnection = errors.New("missing PostgreSQL connection configuration")

	// ErrDeprecatedParam indicates a configuration key that is no longer
	// accepted was set.
	ErrDeprecatedParam = errors.New("deprecated configuration parameter")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidNResults indicates the similarity-search result count is
	// out of range.
	ErrInvalidNResults = errors.New("invalid n_results")

	// ErrInvalidTableSchema indicates the table schema is not a plain SQL
	// identifier.
	ErrInvalidTableSchema = errors.New("invalid table schema")

	// ErrInvalidModelName indicates the model name is empty.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")
)

// deprecatedParams are keys from older clients that must fail fast when
// set, naming the offending key, instead of being silently ignored.
var deprecatedParams = []string{"api_type", "api_base", "api_version"}

// Defaults for the AI surface.
const (
	DefaultModelName     = "gemini-2.5-flash"
	DefaultEmbedderModel = "gemini-embedding-001"
	DefaultTemperature   = 0.7
	DefaultNResults      = 10
	DefaultTableSchema   = "public"
)

// Config stores application configuration.
type Config struct {
	// AI provider and model configuration
	Provider      string  `mapstructure:"provider"`
	ModelName     string  `mapstructure:"model_name"`
	EmbedderModel string  `mapstructure:"embedder_model"`
	Temperature   float32 `mapstructure:"temperature"`

	// Retrieval configuration
	NResults    int    `mapstructure:"n_results"`
	TableSchema string `mapstructure:"table_schema"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"`
	PostgresDBName   string `mapstructure:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > defaults.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".sqlmint")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	// Reject deprecated keys before unmarshaling so the failure names the
	// key rather than surfacing as an unknown-field oddity later.
	for _, key := range deprecatedParams {
		if v.IsSet(key) {
			return nil, fmt.Errorf("%w: %q is no longer supported", ErrDeprecatedParam, key)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL takes priority over individual postgres_* settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// FullModelName returns the provider-qualified model name for Genkit,
// e.g. "googleai/gemini-2.5-flash". A ModelName that already contains a
// "/" is returned as-is.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	return "googleai/" + c.ModelName
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", "gemini")
	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("temperature", DefaultTemperature)

	v.SetDefault("n_results", DefaultNResults)
	v.SetDefault("table_schema", DefaultTableSchema)

	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "sqlmint")
	v.SetDefault("postgres_password", "")
	v.SetDefault("postgres_db_name", "sqlmint")
	v.SetDefault("postgres_ssl_mode", "disable")
}

// bindEnvVariables binds environment overrides explicitly.
// GEMINI_API_KEY is read directly by the Genkit plugin, not via viper.
func bindEnvVariables(v *viper.Viper) {
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("provider", "SQLMINT_PROVIDER")
	mustBind("model_name", "SQLMINT_MODEL_NAME")
	mustBind("embedder_model", "SQLMINT_EMBEDDER_MODEL")
	mustBind("temperature", "SQLMINT_TEMPERATURE")
	mustBind("n_results", "SQLMINT_N_RESULTS")
	mustBind("table_schema", "SQLMINT_TABLE_SCHEMA")
	mustBind("postgres_host", "SQLMINT_POSTGRES_HOST")
	mustBind("postgres_port", "SQLMINT_POSTGRES_PORT")
	mustBind("postgres_user", "SQLMINT_POSTGRES_USER")
	mustBind("postgres_password", "SQLMINT_POSTGRES_PASSWORD")
	mustBind("postgres_db_name", "SQLMINT_POSTGRES_DB_NAME")
	mustBind("postgres_ssl_mode", "SQLMINT_POSTGRES_SSL_MODE")
}
