package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Storage    StorageConfig
	Whisper    WhisperConfig
	Assembly   AssemblyConfig
	Chat       ChatConfig
	Embeddings EmbeddingsConfig
	Pipeline   PipelineConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	AllowedOrigins  []string
	ShutdownTimeout int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
	MinConns int

	// AutoMigrate applies SQL migrations at startup; meant for
	// development, production schema goes through sql-migrate in CI/CD.
	AutoMigrate bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	AccessSecret string
	AccessExpiry time.Duration
}

// StorageConfig holds recording storage configuration
type StorageConfig struct {
	Type            string // "minio" or "s3"
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
	PublicURL       string // optional external endpoint used in presigned URLs
}

// WhisperConfig holds the primary transcription provider configuration
type WhisperConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// AssemblyConfig holds the fallback transcription provider configuration
type AssemblyConfig struct {
	APIKey string
}

// ChatConfig holds the chat-completion provider used for translation
type ChatConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// EmbeddingsConfig holds the embedding provider configuration
type EmbeddingsConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// PipelineConfig tunes the transcription worker pool and pipeline
// behavior. Loaded via envconfig so deployment manifests can set the
// whole block with a PIPELINE_ prefix.
type PipelineConfig struct {
	Workers           int           `envconfig:"WORKERS" default:"4"`
	MaxConcurrent     int           `envconfig:"MAX_CONCURRENT" default:"2"`
	JobTimeout        time.Duration `envconfig:"JOB_TIMEOUT" default:"5m"`
	PollInterval      time.Duration `envconfig:"POLL_INTERVAL" default:"10s"`
	ZombieAfter       time.Duration `envconfig:"ZOMBIE_AFTER" default:"15m"`
	FallbackEnabled   bool          `envconfig:"FALLBACK_ENABLED" default:"true"`
	DefaultLanguage   string        `envconfig:"DEFAULT_LANGUAGE" default:"en"`
	SignedURLTTL      time.Duration `envconfig:"SIGNED_URL_TTL" default:"1h"`
	MinCallSeconds    int           `envconfig:"MIN_CALL_SECONDS" default:"6"`
	EmbeddingCacheCap int           `envconfig:"EMBEDDING_CACHE_SIZE" default:"1000"`
	EmbeddingCacheTTL time.Duration `envconfig:"EMBEDDING_CACHE_TTL" default:"720h"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			AllowedOrigins:  []string{getEnv("ALLOWED_ORIGINS", "http://localhost:3000")},
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 10),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "callscope"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns: getEnvAsInt("DB_MIN_CONNS", 5),

			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			AccessSecret: getEnv("JWT_ACCESS_SECRET", "your-access-secret-change-in-production"),
			AccessExpiry: getEnvAsDuration("JWT_ACCESS_EXPIRY", "15m"),
		},
		Storage: StorageConfig{
			Type:            getEnv("STORAGE_TYPE", "minio"),
			Endpoint:        getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
			SecretAccessKey: getEnv("STORAGE_SECRET_KEY", "minioadmin"),
			BucketName:      getEnv("STORAGE_BUCKET", "callscope-recordings"),
			UseSSL:          getEnvAsBool("STORAGE_USE_SSL", false),
			PublicURL:       getEnv("STORAGE_PUBLIC_URL", ""),
		},
		Whisper: WhisperConfig{
			BaseURL: getEnv("WHISPER_BASE_URL", "https://api.groq.com"),
			APIKey:  getEnv("WHISPER_API_KEY", ""),
			Model:   getEnv("WHISPER_MODEL", "whisper-large-v3"),
			Timeout: getEnvAsDuration("WHISPER_TIMEOUT", "2m"),
		},
		Assembly: AssemblyConfig{
			APIKey: getEnv("ASSEMBLYAI_API_KEY", ""),
		},
		Chat: ChatConfig{
			BaseURL: getEnv("CHAT_BASE_URL", "https://api.groq.com"),
			APIKey:  getEnv("CHAT_API_KEY", ""),
			Model:   getEnv("CHAT_MODEL", "llama-3.3-70b-versatile"),
		},
		Embeddings: EmbeddingsConfig{
			BaseURL: getEnv("EMBEDDINGS_BASE_URL", "https://api.openai.com"),
			APIKey:  getEnv("EMBEDDINGS_API_KEY", ""),
			Model:   getEnv("EMBEDDINGS_MODEL", "text-embedding-3-small"),
		},
	}

	if err := envconfig.Process("PIPELINE", &config.Pipeline); err != nil {
		return nil, fmt.Errorf("failed to load pipeline config: %w", err)
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Whisper.APIKey == "" {
		return fmt.Errorf("WHISPER_API_KEY is required")
	}
	if c.Pipeline.FallbackEnabled && c.Assembly.APIKey == "" {
		return fmt.Errorf("ASSEMBLYAI_API_KEY is required when PIPELINE_FALLBACK_ENABLED is true")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}
