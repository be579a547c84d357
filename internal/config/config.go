package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	StorageBackendS3    = "s3"
	StorageBackendLocal = "local"
)

type Config struct {
	// Database
	DatabaseURL string

	// Auth
	JWTSecret string

	// Object storage
	StorageBackend   string
	LocalStoragePath string
	S3Endpoint       string
	S3Region         string
	S3Bucket         string
	S3AccessKey      string
	S3SecretKey      string

	// Uploads
	MaxUploadSizeBytes  int64
	DefaultStorageQuota int64

	// Background conversion
	WorkerCount int

	// Server
	Port        string
	Environment string
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),

		StorageBackend:   getEnv("STORAGE_BACKEND", StorageBackendS3),
		LocalStoragePath: getEnv("LOCAL_STORAGE_PATH", "./storage"),
		S3Endpoint:       getEnv("S3_ENDPOINT", ""),
		S3Region:         getEnv("S3_REGION", "us-east-1"),
		S3Bucket:         getEnv("S3_BUCKET", "molvis-entries"),
		S3AccessKey:      getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:      getEnv("S3_SECRET_KEY", ""),

		MaxUploadSizeBytes:  getEnvInt64("MAX_UPLOAD_SIZE_BYTES", 1<<30),       // 1GB
		DefaultStorageQuota: getEnvInt64("DEFAULT_STORAGE_QUOTA_BYTES", 5<<30), // 5GB

		WorkerCount: getEnvInt("CONVERSION_WORKERS", 4),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.StorageBackend {
	case StorageBackendS3:
		if c.S3AccessKey == "" || c.S3SecretKey == "" {
			return fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY are required for the s3 storage backend")
		}
	case StorageBackendLocal:
		if c.LocalStoragePath == "" {
			return fmt.Errorf("LOCAL_STORAGE_PATH is required for the local storage backend")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", StorageBackendS3, StorageBackendLocal, c.StorageBackend)
	}
	if c.MaxUploadSizeBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE_BYTES must be positive")
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("CONVERSION_WORKERS must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}
