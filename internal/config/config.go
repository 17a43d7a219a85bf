package config

import (
	"errors"
	"os"
	"strconv"
)

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	Port     string
	Env      string
	Password string
	// PublicDir is the directory served as the static single-page frontend.
	PublicDir string
	MinIO     MinIOConfig
}

// Production reports whether the app runs with production hardening
// (secure session cookie).
func (c *AppConfig) Production() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		Port:      getEnv("PORT", "3000"),
		Env:       getEnv("APP_ENV", "development"),
		Password:  getEnv("APP_PASSWORD", ""),
		PublicDir: getEnv("PUBLIC_DIR", "./public"),
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "e_bandeja_docs"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
	}
}

// Validate rejects a configuration that cannot serve requests: the shared
// password and storage credentials must be present before startup.
func (c *AppConfig) Validate() error {
	if c.Password == "" {
		return errors.New("APP_PASSWORD is required")
	}
	if c.MinIO.Endpoint == "" {
		return errors.New("MINIO_ENDPOINT is required")
	}
	if c.MinIO.AccessKey == "" || c.MinIO.SecretKey == "" {
		return errors.New("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
