package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// Preview policy: realized preview = clamp(percent * duration, min, max).
	PreviewPercent    float64 `env:"PREVIEW_PERCENT" envDefault:"0.30"`
	PreviewMinSeconds float64 `env:"PREVIEW_MIN_SECONDS" envDefault:"15"`
	PreviewMaxSeconds float64 `env:"PREVIEW_MAX_SECONDS" envDefault:"60"`

	// Object cache for remote-backed assets.
	CacheDirectory string `env:"CACHE_DIRECTORY" envDefault:"cache/objects"`
	CacheMaxBytes  int64  `env:"CACHE_MAX_BYTES" envDefault:"2147483648"`

	FetchMaxAttempts    uint          `env:"FETCH_MAX_ATTEMPTS" envDefault:"4"`
	FetchInitialBackoff time.Duration `env:"FETCH_INITIAL_BACKOFF" envDefault:"200ms"`
	FetchMaxBackoff     time.Duration `env:"FETCH_MAX_BACKOFF" envDefault:"5s"`
	FetchTimeout        time.Duration `env:"FETCH_TIMEOUT" envDefault:"2m"`

	PlayDedupWindowSeconds int `env:"PLAY_DEDUP_WINDOW_SECONDS" envDefault:"1800"`

	EntitlementTimeout time.Duration `env:"ENTITLEMENT_TIMEOUT" envDefault:"2s"`
	StreamChunkBytes   int           `env:"STREAM_CHUNK_BYTES" envDefault:"32768"`

	DBHost     string `env:"DB_HOST" envDefault:"127.0.0.1"`
	DBPort     string `env:"DB_PORT" envDefault:"3306"`
	DBUser     string `env:"DB_USER" envDefault:"root"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"gatedfm"`

	// Redis is optional; an empty host keeps play counters in memory.
	RedisHost     string `env:"REDIS_HOST"`
	RedisPort     string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// StorageProvider selects the object storage backend: minio, s3, local or none.
	StorageProvider  string `env:"STORAGE_PROVIDER" envDefault:"none"`
	StorageBucket    string `env:"STORAGE_BUCKET" envDefault:"gatedfm"`
	MinioEndpoint    string `env:"MINIO_ENDPOINT"`
	MinioAccessKey   string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey   string `env:"MINIO_SECRET_KEY"`
	MinioRegion      string `env:"MINIO_REGION"`
	MinioUseSSL      bool   `env:"MINIO_USE_SSL" envDefault:"true"`
	S3Endpoint       string `env:"S3_ENDPOINT"`
	S3Region         string `env:"S3_REGION" envDefault:"us-east-1"`
	S3KeyID          string `env:"S3_KEY_ID"`
	S3AppKey         string `env:"S3_APP_KEY"`
	LocalStorageRoot string `env:"LOCAL_STORAGE_ROOT" envDefault:"data"`

	JWTSecret string `env:"JWT_SECRET"`

	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile       string `env:"LOG_FILE"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"100"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	LogMaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"30"`
	LogCompress   bool   `env:"LOG_COMPRESS" envDefault:"true"`
}

// PlayDedupWindow returns the dedup window as a duration.
func (c *Config) PlayDedupWindow() time.Duration {
	return time.Duration(c.PlayDedupWindowSeconds) * time.Second
}

// Validate checks option ranges that would otherwise produce nonsense windows.
func (c *Config) Validate() error {
	if c.PreviewPercent <= 0 || c.PreviewPercent > 1 {
		return fmt.Errorf("PREVIEW_PERCENT must be in (0, 1], got %v", c.PreviewPercent)
	}
	if c.PreviewMinSeconds < 0 || c.PreviewMaxSeconds < 0 {
		return fmt.Errorf("preview seconds must not be negative")
	}
	if c.PreviewMinSeconds > c.PreviewMaxSeconds {
		return fmt.Errorf("PREVIEW_MIN_SECONDS (%v) exceeds PREVIEW_MAX_SECONDS (%v)", c.PreviewMinSeconds, c.PreviewMaxSeconds)
	}
	if c.CacheMaxBytes <= 0 {
		return fmt.Errorf("CACHE_MAX_BYTES must be positive, got %d", c.CacheMaxBytes)
	}
	if c.PlayDedupWindowSeconds <= 0 {
		return fmt.Errorf("PLAY_DEDUP_WINDOW_SECONDS must be positive, got %d", c.PlayDedupWindowSeconds)
	}
	if c.FetchMaxAttempts == 0 {
		return fmt.Errorf("FETCH_MAX_ATTEMPTS must be at least 1")
	}
	if c.StreamChunkBytes <= 0 {
		return fmt.Errorf("STREAM_CHUNK_BYTES must be positive, got %d", c.StreamChunkBytes)
	}
	switch c.StorageProvider {
	case "minio", "s3", "local", "none", "":
	default:
		return fmt.Errorf("unknown STORAGE_PROVIDER %q", c.StorageProvider)
	}
	return nil
}

// Parse builds a Config from the current environment without touching .env files.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() (*Config, error) {
	// godotenv.Load() does not override variables that are already set.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}
	return Parse()
}
