package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the capture and search services.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	Capture   CaptureConfig   `mapstructure:"capture"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Search    SearchConfig    `mapstructure:"search"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// CaptureConfig controls session clustering and the privacy blacklist.
type CaptureConfig struct {
	// IdleGapMillis is the maximum gap between consecutive visits that still
	// belong to the same session. Inclusive: a gap equal to the threshold
	// keeps the session open.
	IdleGapMillis int64 `mapstructure:"idle_gap_millis"`
	// SnippetMaxChars bounds the stored per-page snippet.
	SnippetMaxChars int `mapstructure:"snippet_max_chars"`
	// Blacklist is a newline- or comma-separated list of host rules
	// ("gmail.com", "*.bank.com", "bank").
	Blacklist string `mapstructure:"blacklist"`
	// Store selects where the live session list is kept: "memory" or "redis".
	Store string `mapstructure:"store"`
}

// EmbeddingConfig describes the external embedding provider.
type EmbeddingConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Model      string        `mapstructure:"model"`
	Dimensions int           `mapstructure:"dimensions"`
	MaxChars   int           `mapstructure:"max_chars"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// PipelineConfig controls the ingestion worker pool.
type PipelineConfig struct {
	// Workers caps concurrent in-flight embedding calls across sessions.
	Workers int `mapstructure:"workers"`
}

// StorageConfig selects and configures the vector store backend.
type StorageConfig struct {
	// VectorBackend is "postgres" or "flat".
	VectorBackend string         `mapstructure:"vector_backend"`
	FlatIndexPath string         `mapstructure:"flat_index_path"`
	Postgres      PostgresConfig `mapstructure:"postgres"`
	Redis         RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig describes the pgvector-enabled database.
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN builds a postgres connection string, preferring an explicit URL.
func (p PostgresConfig) DSN() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	if p.Host == "" || p.DBName == "" {
		return "", fmt.Errorf("postgres not configured (storage.postgres.host/dbname or url)")
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl), nil
}

// RedisConfig describes the optional redis capture store.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns host:port for the redis client.
func (r RedisConfig) Addr() string {
	host := r.Host
	if host == "" {
		host = "localhost"
	}
	port := r.Port
	if port == "" {
		port = "6379"
	}
	return host + ":" + port
}

// SearchConfig holds query-time defaults.
type SearchConfig struct {
	TopK          int     `mapstructure:"top_k"`
	MinSimilarity float64 `mapstructure:"min_similarity"`
}

// LoadConfig reads configuration from the given file, falling back to a
// config.json in the usual places plus PAGETRAIL_* environment overrides.
// A missing config file is fine; defaults cover every key.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")

	v.SetDefault("general.debug", false)
	v.SetDefault("general.log_level", "info")
	v.SetDefault("server.address", ":8089")
	v.SetDefault("capture.idle_gap_millis", 15*60*1000)
	v.SetDefault("capture.snippet_max_chars", 300)
	v.SetDefault("capture.blacklist", "")
	v.SetDefault("capture.store", "memory")
	v.SetDefault("embedding.base_url", "http://localhost:11434")
	v.SetDefault("embedding.model", "nomic-embed-text")
	v.SetDefault("embedding.dimensions", 768)
	v.SetDefault("embedding.max_chars", 4000)
	v.SetDefault("embedding.timeout", 30*time.Second)
	v.SetDefault("pipeline.workers", 3)
	v.SetDefault("storage.vector_backend", "postgres")
	v.SetDefault("storage.flat_index_path", "pagetrail-index.json")
	v.SetDefault("storage.postgres.sslmode", "disable")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("search.top_k", 10)
	v.SetDefault("search.min_similarity", 0.2)

	if path == "" {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("PAGETRAIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the services cannot run with.
func (c *Config) Validate() error {
	if c.Capture.IdleGapMillis <= 0 {
		return fmt.Errorf("capture.idle_gap_millis must be > 0")
	}
	switch c.Capture.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("capture.store must be memory or redis, got %q", c.Capture.Store)
	}
	switch c.Storage.VectorBackend {
	case "postgres", "flat":
	default:
		return fmt.Errorf("storage.vector_backend must be postgres or flat, got %q", c.Storage.VectorBackend)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be > 0")
	}
	if c.Pipeline.Workers <= 0 {
		return fmt.Errorf("pipeline.workers must be > 0")
	}
	return nil
}
