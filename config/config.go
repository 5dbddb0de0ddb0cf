package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Storage    StorageConfig    `mapstructure:"storage"`
	VectorDB   VectorDBConfig   `mapstructure:"vectordb"`
	Embed      EmbedConfig      `mapstructure:"embed"`
	Evaluator  ModelConfig      `mapstructure:"evaluator"`
	Grader     ModelConfig      `mapstructure:"grader"`
	OCR        OCRConfig        `mapstructure:"ocr"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Queue      QueueConfig      `mapstructure:"queue"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Document   DocumentConfig   `mapstructure:"document"`
	Retrieval  RetrievalConfig  `mapstructure:"retrieval"`
	Categories CategoriesConfig `mapstructure:"categories"`
	Rules      RulesConfig      `mapstructure:"rules"`
	Reports    ReportsConfig    `mapstructure:"reports"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig HTTP server settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// StorageConfig document and report storage settings.
type StorageConfig struct {
	Type      string `mapstructure:"type"` // local or minio
	Path      string `mapstructure:"path"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// VectorDBConfig vector index settings.
type VectorDBConfig struct {
	Type     string `mapstructure:"type"` // faiss or memory
	Path     string `mapstructure:"path"`
	Dim      int    `mapstructure:"dim"`
	Distance string `mapstructure:"distance"` // cosine, l2, dot
}

// EmbedConfig embedding provider settings.
type EmbedConfig struct {
	Provider   string `mapstructure:"provider"`
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api_key"`
	Endpoint   string `mapstructure:"endpoint"`
	BatchSize  int    `mapstructure:"batch_size"`
	Dimensions int    `mapstructure:"dimensions"`
}

// ModelConfig language model settings for one pipeline role.
type ModelConfig struct {
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	Endpoint    string  `mapstructure:"endpoint"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float32 `mapstructure:"temperature"`
}

// OCRConfig remote OCR backend settings.
type OCRConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
	Timeout  int    `mapstructure:"timeout"` // seconds
}

// CacheConfig query-embedding cache settings.
type CacheConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Type     string `mapstructure:"type"` // memory or redis
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTL      int    `mapstructure:"ttl"` // seconds
}

// QueueConfig background task queue settings.
type QueueConfig struct {
	Enable        bool   `mapstructure:"enable"`
	Type          string `mapstructure:"type"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	Concurrency   int    `mapstructure:"concurrency"`
	RetryLimit    int    `mapstructure:"retry_limit"`
	RetryDelay    int    `mapstructure:"retry_delay"` // seconds
}

// DatabaseConfig metadata database settings.
type DatabaseConfig struct {
	Type string `mapstructure:"type"` // sqlite
	DSN  string `mapstructure:"dsn"`
}

// DocumentConfig text chunking settings.
type DocumentConfig struct {
	ChunkSize    int `mapstructure:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`
}

// RetrievalConfig per-rule retrieval settings.
type RetrievalConfig struct {
	TopK        int `mapstructure:"top_k"`
	Concurrency int `mapstructure:"concurrency"` // rules evaluated at once
}

// CategoriesConfig known compliance meta categories.
type CategoriesConfig struct {
	Known []string `mapstructure:"known"`
}

// RulesConfig rule definitions location.
type RulesConfig struct {
	Dir string `mapstructure:"dir"`
}

// ReportsConfig report sink location.
type ReportsConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig log output settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Load reads configuration from a file and the environment.
func Load(configPath string) (*Config, error) {
	var config Config

	if configPath == "" {
		configPath = "config.yaml"
	}

	v := viper.New()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Warning: Config file not found at %s, using defaults", configPath)
			setDefaults(v)
			dir := filepath.Dir(configPath)
			if err := os.MkdirAll(dir, 0755); err == nil {
				if err := v.WriteConfigAs(configPath); err != nil {
					log.Printf("Warning: Could not write default config to %s: %v", configPath, err)
				}
			}
		} else {
			return nil, fmt.Errorf("failed to read config file: %v", err)
		}
	} else {
		log.Printf("Using config file: %s", v.ConfigFileUsed())
	}

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %v", err)
	}

	expandSecrets(&config)

	return &config, nil
}

// expandSecrets resolves ${VAR} references in credential fields.
func expandSecrets(cfg *Config) {
	cfg.Embed.APIKey = expandEnv(cfg.Embed.APIKey)
	cfg.Evaluator.APIKey = expandEnv(cfg.Evaluator.APIKey)
	cfg.Grader.APIKey = expandEnv(cfg.Grader.APIKey)
	cfg.OCR.APIKey = expandEnv(cfg.OCR.APIKey)
	cfg.Storage.AccessKey = expandEnv(cfg.Storage.AccessKey)
	cfg.Storage.SecretKey = expandEnv(cfg.Storage.SecretKey)
	cfg.Cache.Password = expandEnv(cfg.Cache.Password)
	cfg.Queue.RedisPassword = expandEnv(cfg.Queue.RedisPassword)
}

func expandEnv(value string) string {
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		envVar := value[2 : len(value)-1]
		if envVal := os.Getenv(envVar); envVal != "" {
			return envVal
		}
	}
	return value
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.path", "./data/files")
	v.SetDefault("storage.bucket", "control-automation")
	v.SetDefault("storage.use_ssl", false)

	v.SetDefault("vectordb.type", "faiss")
	v.SetDefault("vectordb.path", "./data/vectordb")
	v.SetDefault("vectordb.dim", 1536)
	v.SetDefault("vectordb.distance", "cosine")

	v.SetDefault("embed.provider", "openai")
	v.SetDefault("embed.model", "text-embedding-3-small")
	v.SetDefault("embed.endpoint", "https://api.openai.com/v1")
	v.SetDefault("embed.api_key", "${OPENAI_API_KEY}")
	v.SetDefault("embed.batch_size", 16)
	v.SetDefault("embed.dimensions", 1536)

	v.SetDefault("evaluator.provider", "openai")
	v.SetDefault("evaluator.model", "gpt-4o-mini")
	v.SetDefault("evaluator.endpoint", "https://api.openai.com/v1")
	v.SetDefault("evaluator.api_key", "${OPENAI_API_KEY}")
	v.SetDefault("evaluator.max_tokens", 1024)
	v.SetDefault("evaluator.temperature", 0.0)

	v.SetDefault("grader.provider", "openai")
	v.SetDefault("grader.model", "gpt-4o-mini")
	v.SetDefault("grader.endpoint", "https://api.openai.com/v1")
	v.SetDefault("grader.api_key", "${OPENAI_API_KEY}")
	v.SetDefault("grader.max_tokens", 16)
	v.SetDefault("grader.temperature", 0.0)

	v.SetDefault("ocr.enable", false)
	v.SetDefault("ocr.model", "mistral-ocr-latest")
	v.SetDefault("ocr.api_key", "${MISTRAL_API_KEY}")
	v.SetDefault("ocr.timeout", 120)

	v.SetDefault("cache.enable", true)
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", 86400)

	v.SetDefault("queue.enable", false)
	v.SetDefault("queue.type", "redis")
	v.SetDefault("queue.redis_addr", "localhost:6379")
	v.SetDefault("queue.redis_db", 0)
	v.SetDefault("queue.concurrency", 4)
	v.SetDefault("queue.retry_limit", 3)
	v.SetDefault("queue.retry_delay", 60)

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "data/control.db")

	v.SetDefault("document.chunk_size", 2000)
	v.SetDefault("document.chunk_overlap", 200)

	v.SetDefault("retrieval.top_k", 3)
	v.SetDefault("retrieval.concurrency", 4)

	v.SetDefault("categories.known", []string{"KYC", "RGPD", "LCBFT", "MIFID", "RSE", "INTERNAL_REPORTING"})

	v.SetDefault("rules.dir", "./prompts")
	v.SetDefault("reports.dir", "reports")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
}
