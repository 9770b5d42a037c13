// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.ragchat/config.yaml or ./config.yaml)
//  3. Default values (sensible defaults for quick start)
//
// Main configuration categories:
//   - HTTP: listen address and server timeouts
//   - Storage: PostgreSQL connection (see storage.go)
//   - Ingest: upload directory, chunk size/overlap
//   - Retrieval: embedder model, top-k
//   - Providers: default model, free-model set, provider credentials
//
// Security: Sensitive fields (password, API keys) are masked in MarshalJSON.
// Validation: fail-fast range checks with sentinel errors for errors.Is().
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrInvalidChunking indicates chunk size/overlap values are inconsistent.
	ErrInvalidChunking = errors.New("invalid chunking configuration")

	// ErrInvalidTopK indicates the retrieval top-k value is out of range.
	ErrInvalidTopK = errors.New("invalid top_k")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrMissingGoogleAPIKey indicates the Google API key needed for embeddings is not set.
	ErrMissingGoogleAPIKey = errors.New("missing GOOGLE_API_KEY")
)

const (
	// DefaultEmbedderModel is the default Gemini embedding model.
	// gemini-embedding-001 outputs 3072 dimensions by default, but supports
	// truncation to 768 via OutputDimensionality. The pgvector schema uses
	// 768 dimensions; see knowledge.VectorDimension.
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultModel is the chat model used when a request does not name one.
	DefaultModel = "gemini-2.0-flash"

	// DefaultChunkSize is the maximum chunk length in characters.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the number of characters shared between
	// consecutive chunks.
	DefaultChunkOverlap = 200

	// DefaultTopK is the number of chunks retrieved per chat message.
	DefaultTopK = 2

	// DefaultProviderTimeout caps each outbound embedding/LLM call.
	DefaultProviderTimeout = 2 * time.Minute
)

// Config stores application configuration.
// SECURITY: Sensitive fields are explicitly masked in MarshalJSON().
type Config struct {
	// HTTP server
	HTTPAddr string `mapstructure:"http_addr" json:"http_addr"`

	// Storage configuration (see storage.go for documentation)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Ingest pipeline
	UploadDir    string `mapstructure:"upload_dir" json:"upload_dir"`
	ChunkSize    int    `mapstructure:"chunk_size" json:"chunk_size"`
	ChunkOverlap int    `mapstructure:"chunk_overlap" json:"chunk_overlap"`

	// Retrieval
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`
	TopK          int    `mapstructure:"top_k" json:"top_k"`

	// Model dispatch
	DefaultModel string   `mapstructure:"default_model" json:"default_model"`
	FreeModels   []string `mapstructure:"free_models" json:"free_models"`

	// Provider credentials (server-held defaults).
	// GoogleAPIKey is required: it backs the embedder. The others are
	// optional fallbacks for requests that do not supply their own key.
	GoogleAPIKey     string `mapstructure:"google_api_key" json:"google_api_key"`         // SENSITIVE: masked in MarshalJSON
	OpenRouterAPIKey string `mapstructure:"openrouter_api_key" json:"openrouter_api_key"` // SENSITIVE: masked in MarshalJSON
	OpenAIAPIKey     string `mapstructure:"openai_api_key" json:"openai_api_key"`         // SENSITIVE: masked in MarshalJSON

	// ProviderTimeout caps each outbound provider call.
	ProviderTimeout time.Duration `mapstructure:"provider_timeout" json:"provider_timeout"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".ragchat")

	// Configure Viper
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".") // Also support current directory

	setDefaults()
	bindEnvVariables()

	// Read configuration file (if exists)
	if err := viper.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// Parse DATABASE_URL if set (highest priority for PostgreSQL config)
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	viper.SetDefault("http_addr", "127.0.0.1:8000")

	// PostgreSQL defaults (matching docker-compose.yml)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "ragchat")
	viper.SetDefault("postgres_password", "ragchat_dev_password")
	viper.SetDefault("postgres_db_name", "ragchat")
	viper.SetDefault("postgres_ssl_mode", "disable")

	// Ingest defaults
	viper.SetDefault("upload_dir", "./uploaded_docs")
	viper.SetDefault("chunk_size", DefaultChunkSize)
	viper.SetDefault("chunk_overlap", DefaultChunkOverlap)

	// Retrieval defaults
	viper.SetDefault("embedder_model", DefaultEmbedderModel)
	viper.SetDefault("top_k", DefaultTopK)

	// Dispatch defaults. The free set mirrors the OpenRouter free tier;
	// models with a ":free" suffix route there regardless of this list.
	viper.SetDefault("default_model", DefaultModel)
	viper.SetDefault("free_models", []string{"openrouter/auto"})

	viper.SetDefault("provider_timeout", DefaultProviderTimeout)
}

// bindEnvVariables binds environment variables explicitly.
// Secrets are only ever read from the environment, never from the config file
// search path committed alongside deployments.
func bindEnvVariables() {
	// Helper to panic on unexpected bind errors (hardcoded strings can't fail).
	// If this panics, it's a BUG in our code, not a runtime error.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("google_api_key", "GOOGLE_API_KEY")
	mustBind("openrouter_api_key", "OPENROUTER_API_KEY")
	mustBind("openai_api_key", "OPENAI_API_KEY")

	mustBind("http_addr", "RAGCHAT_HTTP_ADDR")
	mustBind("upload_dir", "RAGCHAT_UPLOAD_DIR")
	mustBind("default_model", "RAGCHAT_DEFAULT_MODEL")
}

// Validate performs fail-fast validation of the loaded configuration.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("configuration is nil")
	}
	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host is empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidPostgresDBName)
	}
	switch c.PostgresSSLMode {
	case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPostgresSSLMode, c.PostgresSSLMode)
	}
	if c.ChunkSize <= 0 || c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: size=%d overlap=%d", ErrInvalidChunking, c.ChunkSize, c.ChunkOverlap)
	}
	if c.TopK < 1 || c.TopK > 100 {
		return fmt.Errorf("%w: %d", ErrInvalidTopK, c.TopK)
	}
	return nil
}

// ValidateServe checks requirements specific to the serve command.
// The embedder cannot run without a Google API key, so serving is refused
// without one even though Load() succeeds (the migrate command needs no key).
func (c *Config) ValidateServe() error {
	if c.GoogleAPIKey == "" {
		return fmt.Errorf("%w: required for the embedding service", ErrMissingGoogleAPIKey)
	}
	return nil
}

// FreeModelSet returns the configured free models as a lookup set.
func (c *Config) FreeModelSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.FreeModels))
	for _, m := range c.FreeModels {
		set[m] = struct{}{}
	}
	return set
}

// maskedValue is the placeholder for masked sensitive data.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging.
// Secrets of 8 characters or fewer are fully masked; longer secrets keep the
// first and last 2 characters for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config // avoid recursing into MarshalJSON
	masked := alias(c)
	masked.PostgresPassword = maskSecret(c.PostgresPassword)
	masked.GoogleAPIKey = maskSecret(c.GoogleAPIKey)
	masked.OpenRouterAPIKey = maskSecret(c.OpenRouterAPIKey)
	masked.OpenAIAPIKey = maskSecret(c.OpenAIAPIKey)
	return json.Marshal(masked)
}
