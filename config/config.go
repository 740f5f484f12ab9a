package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the ingestion pipeline and its collaborators
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Vector    VectorConfig    `mapstructure:"vector"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	LogLevel     string `mapstructure:"log_level"`
	DataDir      string `mapstructure:"data_dir"`
	DocumentPath string `mapstructure:"document_path"` // serialized batch written by collect, read by prepare
}

// ServerConfig contains HTTP read API settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// SourcesConfig contains news source configurations
type SourcesConfig struct {
	NewsAPI NewsAPIConfig `mapstructure:"newsapi"`
}

// NewsAPIConfig contains NewsAPI settings and the default /v2/everything query
type NewsAPIConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Query    string        `mapstructure:"query"`
	Sources  string        `mapstructure:"sources"`
	Domains  string        `mapstructure:"domains"`
	Language string        `mapstructure:"language"`
	SortBy   string        `mapstructure:"sort_by"`
	PageSize int           `mapstructure:"page_size"`
}

func (n NewsAPIConfig) Validate() error {
	if strings.TrimSpace(n.Endpoint) == "" {
		return fmt.Errorf("sources.newsapi.endpoint required")
	}
	if n.PageSize < 0 || n.PageSize > 100 {
		return fmt.Errorf("sources.newsapi.page_size must be between 0 and 100")
	}
	return nil
}

// FetchConfig configures the article body fetcher
type FetchConfig struct {
	Type        string            `mapstructure:"type"` // http or chromedp
	Timeout     time.Duration     `mapstructure:"timeout"`
	MaxChars    int               `mapstructure:"max_chars"`
	UserAgent   string            `mapstructure:"user_agent"`
	RatePerSec  float64           `mapstructure:"rate_per_second"` // 0 disables throttling
	Burst       int               `mapstructure:"burst"`
	CrawlPolicy CrawlPolicyConfig `mapstructure:"crawl_policy"`
}

func (f FetchConfig) Validate() error {
	switch f.Type {
	case "http", "chromedp":
	default:
		return fmt.Errorf("fetch.type must be http or chromedp, got %q", f.Type)
	}
	if f.MaxChars < 0 {
		return fmt.Errorf("fetch.max_chars cannot be negative")
	}
	if f.RatePerSec < 0 || f.Burst < 0 {
		return fmt.Errorf("fetch.rate_per_second and fetch.burst cannot be negative")
	}
	return f.CrawlPolicy.Validate()
}

// StorageConfig contains storage and persistence settings
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.Port) == "" {
		return fmt.Errorf("storage.postgres.port required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN builds the connection string, preferring an explicit URL.
func (p PostgresConfig) DSN() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	if p.Host == "" || p.DBName == "" {
		return "", fmt.Errorf("postgres configuration incomplete: host/dbname required")
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

// RedisConfig contains Redis connection settings. Redis is optional and only
// backs the embedding cache.
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	Timeout      time.Duration `mapstructure:"timeout"`
	EmbeddingTTL time.Duration `mapstructure:"embedding_ttl"`
}

// Enabled reports whether a redis host was configured.
func (r RedisConfig) Enabled() bool { return strings.TrimSpace(r.Host) != "" }

func (r RedisConfig) Validate() error {
	if !r.Enabled() {
		return nil
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// VectorConfig selects and configures the vector index
type VectorConfig struct {
	Backend    string `mapstructure:"backend"` // bleve, qdrant or hybrid
	BlevePath  string `mapstructure:"bleve_path"`
	QdrantAddr string `mapstructure:"qdrant_addr"`
	Collection string `mapstructure:"collection"`
	Dimensions int    `mapstructure:"dimensions"`
	TopK       int    `mapstructure:"top_k"`
}

// Normalize applies defaults for unset vector values.
func (v VectorConfig) Normalize() VectorConfig {
	v.Backend = strings.ToLower(strings.TrimSpace(v.Backend))
	if v.Backend == "" {
		v.Backend = "bleve"
	}
	if v.TopK <= 0 {
		v.TopK = 4
	}
	if v.Collection == "" {
		v.Collection = "articles"
	}
	return v
}

func (v VectorConfig) Validate() error {
	switch v.Backend {
	case "bleve":
		return nil
	case "qdrant", "hybrid":
		if strings.TrimSpace(v.QdrantAddr) == "" {
			return fmt.Errorf("vector.qdrant_addr required for backend %s", v.Backend)
		}
		if v.Dimensions <= 0 {
			return fmt.Errorf("vector.dimensions must be > 0 for backend %s", v.Backend)
		}
		return nil
	default:
		return fmt.Errorf("vector.backend must be bleve, qdrant or hybrid, got %q", v.Backend)
	}
}

// LLMConfig configures the OpenAI-compatible endpoint used for answers and embeddings
type LLMConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	ChatModel      string        `mapstructure:"chat_model"`
	EmbeddingModel string        `mapstructure:"embedding_model"`
	Temperature    float64       `mapstructure:"temperature"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// TelemetryConfig contains metrics settings
type TelemetryConfig struct {
	MetricsPort int `mapstructure:"metrics_port"`
}

func (t TelemetryConfig) Validate() error {
	if t.MetricsPort < 0 {
		return fmt.Errorf("telemetry.metrics_port cannot be negative")
	}
	return nil
}

// ScheduleConfig drives `newsrag run`
type ScheduleConfig struct {
	Cron string `mapstructure:"cron"`
}

// LoadConfig loads config from file
func LoadConfig(path string) *Config {
	v := viper.New()
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("json")   // REQUIRED if the config file does not have the extension in the name
	setDefaults(v)

	if path == "" {
		v.AddConfigPath("./config") // path to look for the config file in
		v.AddConfigPath(".")        // optionally look for config in the working directory
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		v.AddConfigPath(exeDir)                                // bin/
		v.AddConfigPath(filepath.Join(exeDir, "..", "config")) // repo root/config
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("NEWSRAG")
	replacer := strings.NewReplacer(".", "_")
	v.SetEnvKeyReplacer(replacer)

	v.AutomaticEnv() // read in environment variables that match (NEWSRAG_*)

	if err := v.ReadInConfig(); err != nil {
		// a missing file is fine when everything comes from env + defaults
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	if err := config.Normalize().Validate(); err != nil {
		panic(err)
	}
	normalized := config.Normalize()
	return &normalized
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.data_dir", "data")
	v.SetDefault("general.document_path", "data/articles.xml")
	v.SetDefault("server.address", ":10001")
	v.SetDefault("sources.newsapi.endpoint", "https://newsapi.org/v2/everything")
	v.SetDefault("sources.newsapi.timeout", 30*time.Second)
	v.SetDefault("sources.newsapi.language", "en")
	v.SetDefault("sources.newsapi.sort_by", "relevancy")
	v.SetDefault("fetch.type", "http")
	v.SetDefault("fetch.timeout", 15*time.Second)
	v.SetDefault("fetch.max_chars", 20000)
	v.SetDefault("fetch.rate_per_second", 2.0)
	v.SetDefault("fetch.burst", 1)
	// keys without a meaningful default are still registered so env overrides reach Unmarshal
	for _, key := range []string{
		"sources.newsapi.api_key", "sources.newsapi.query", "sources.newsapi.sources", "sources.newsapi.domains",
		"storage.postgres.url", "storage.postgres.host", "storage.postgres.user", "storage.postgres.password", "storage.postgres.dbname",
		"storage.redis.host", "storage.redis.password", "vector.qdrant_addr", "llm.api_key", "schedule.cron",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("vector.dimensions", 0)
	v.SetDefault("telemetry.metrics_port", 0)
	v.SetDefault("storage.postgres.port", "5432")
	v.SetDefault("storage.postgres.sslmode", "disable")
	v.SetDefault("storage.redis.port", "6379")
	v.SetDefault("storage.redis.timeout", 5*time.Second)
	v.SetDefault("storage.redis.embedding_ttl", 7*24*time.Hour)
	v.SetDefault("vector.backend", "bleve")
	v.SetDefault("vector.bleve_path", "data/articles.bleve")
	v.SetDefault("vector.collection", "articles")
	v.SetDefault("vector.top_k", 4)
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.chat_model", "gpt-4o-mini")
	v.SetDefault("llm.embedding_model", "text-embedding-3-small")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.timeout", 60*time.Second)
}

// Normalize applies defaults that depend on other values.
func (c Config) Normalize() Config {
	c.Vector = c.Vector.Normalize()
	c.Fetch.CrawlPolicy = c.Fetch.CrawlPolicy.Normalize()
	if c.Fetch.Type == "" {
		c.Fetch.Type = "http"
	}
	if c.General.DocumentPath == "" {
		c.General.DocumentPath = filepath.Join(c.General.DataDir, "articles.xml")
	}
	return c
}

// Validate checks every section. Postgres is validated lazily by the commands
// that need it so that offline commands (ask against bleve) still start.
func (c Config) Validate() error {
	if err := c.Sources.NewsAPI.Validate(); err != nil {
		return err
	}
	if err := c.Fetch.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Redis.Validate(); err != nil {
		return err
	}
	if err := c.Vector.Validate(); err != nil {
		return err
	}
	return c.Telemetry.Validate()
}
