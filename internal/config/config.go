package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	NodeEnv   string
	Port      string
	BaseURL   string
	JWTSecret string
	LogLevel  string
	Database  DatabaseConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Documents DocumentsConfig
	Verify    VerifyConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Alter    bool
}

// Embedded reports whether the local embedded postgres should be started.
func (c DatabaseConfig) Embedded() bool {
	return c.Host == "localhost" && c.Password == ""
}

// StorageConfig selects where rendered PDFs are kept.
type StorageConfig struct {
	Driver   string // file, s3, gcs
	Dir      string
	S3Bucket string
	S3Region string
	// S3Endpoint points the client at an S3-compatible service (MinIO).
	S3Endpoint string
	S3Prefix   string
	GCSBucket  string
	GCSPrefix  string
}

// RedisConfig configures the rendered PDF cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// DocumentsConfig holds certificate numbering and branding.
type DocumentsConfig struct {
	Code              string
	NumberPrefix      string
	CompanyLogoURL    string
	ImageFetchTimeout time.Duration
	// ImageHosts lists the hosts certificate images may be downloaded from.
	ImageHosts []string
}

// AllowedImageHosts returns ImageHosts plus the host of the company logo.
func (c DocumentsConfig) AllowedImageHosts() []string {
	hosts := append([]string(nil), c.ImageHosts...)
	if u, err := url.Parse(c.CompanyLogoURL); err == nil && u.Hostname() != "" {
		hosts = append(hosts, u.Hostname())
	}
	return hosts
}

// VerifyConfig rate limits the public verification page per client IP.
type VerifyConfig struct {
	RPS   float64
	Burst int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	port := getEnv("PORT", "3210")
	cfg := &Config{
		NodeEnv:   getEnv("NODE_ENV", "development"),
		Port:      port,
		BaseURL:   strings.TrimSuffix(getEnv("BASE_URL", "http://localhost:"+port), "/"),
		JWTSecret: jwtSecret,
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "inspecciones"),
			Alter:    getBoolEnv("DB_ALTER", false),
		},
		Storage: StorageConfig{
			Driver:     getEnv("STORAGE_DRIVER", "file"),
			Dir:        getEnv("STORAGE_DIR", "./data/documentos"),
			S3Bucket:   os.Getenv("S3_BUCKET"),
			S3Region:   getEnv("S3_REGION", "us-east-1"),
			S3Endpoint: os.Getenv("S3_ENDPOINT"),
			S3Prefix:   getEnv("S3_PREFIX", "documentos/"),
			GCSBucket:  os.Getenv("GCS_BUCKET"),
			GCSPrefix:  getEnv("GCS_PREFIX", "documentos/"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getIntEnv("REDIS_DB", 0),
			TTL:      getDurationEnv("PDF_CACHE_TTL", 24*time.Hour),
		},
		Documents: DocumentsConfig{
			Code:              getEnv("DOCUMENT_CODE", "TE-REG-017"),
			NumberPrefix:      getEnv("DOCUMENT_NUMBER_PREFIX", "INF"),
			CompanyLogoURL:    os.Getenv("COMPANY_LOGO_URL"),
			ImageFetchTimeout: getDurationEnv("IMAGE_FETCH_TIMEOUT", 5*time.Second),
			ImageHosts:        getListEnv("IMAGE_ALLOWED_HOSTS"),
		},
		Verify: VerifyConfig{
			RPS:   getFloatEnv("VERIFY_RATE_RPS", 2),
			Burst: getIntEnv("VERIFY_RATE_BURST", 10),
		},
	}

	switch cfg.Storage.Driver {
	case "file":
	case "s3":
		if cfg.Storage.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required when STORAGE_DRIVER=s3")
		}
	case "gcs":
		if cfg.Storage.GCSBucket == "" {
			return nil, fmt.Errorf("GCS_BUCKET is required when STORAGE_DRIVER=gcs")
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.Storage.Driver)
	}

	return cfg, nil
}

// IsProduction reports whether NODE_ENV is production.
func (c *Config) IsProduction() bool {
	return c.NodeEnv == "production"
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.ParseFloat(value, 64); err == nil {
			return result
		}
	}
	return defaultValue
}

// getDurationEnv accepts Go durations ("90s") or plain seconds ("90").
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getListEnv(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
