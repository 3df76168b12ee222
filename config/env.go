package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds every configuration value the service reads at startup.
type AppConfig struct {
	Port     string
	Env      string
	LogLevel string

	MongoMode   string
	MongoURI    string
	MongoDB     string
	StoreDriver string

	PasetoSecretKey []byte
	TokenTTL        time.Duration

	CloudinaryURL       string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	UploadFolder        string
	MaxUploadBytes      int64

	PaginationLimit int
	TopRatedLimit   int
	DefaultImage    string

	CORSOrigins []string

	AdminName     string
	AdminEmail    string
	AdminPassword string
}

// Load reads configuration from a .env file, when present, and the process environment.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &AppConfig{
		Port:                getEnv("PORT", "5000"),
		Env:                 getEnv("ENVIRONMENT", "development"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		MongoMode:           getEnv("MONGO_MODE", "local"),
		MongoDB:             getEnv("MONGO_DB", "catalog"),
		StoreDriver:         getEnv("STORE_DRIVER", "mongo"),
		CloudinaryURL:       getEnv("CLOUDINARY_URL", ""),
		CloudinaryCloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		UploadFolder:        getEnv("UPLOAD_FOLDER", "products"),
		DefaultImage:        getEnv("DEFAULT_IMAGE", "/images/sample.jpg"),
		CORSOrigins:         splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")),
		AdminName:           getEnv("ADMIN_NAME", "Admin"),
		AdminEmail:          getEnv("ADMIN_EMAIL", ""),
		AdminPassword:       getEnv("ADMIN_PASSWORD", ""),
	}

	if cfg.MongoMode == "atlas" {
		cfg.MongoURI = getEnv("MONGO_URI_ATLAS", "")
		if cfg.MongoURI == "" && cfg.StoreDriver == "mongo" {
			return nil, fmt.Errorf("MONGO_MODE 'atlas' but MONGO_URI_ATLAS is not set")
		}
	} else {
		cfg.MongoURI = getEnv("MONGO_URI_LOCAL", "mongodb://localhost:27017")
	}

	if cfg.StoreDriver != "mongo" && cfg.StoreDriver != "memory" {
		return nil, fmt.Errorf("STORE_DRIVER must be 'mongo' or 'memory', got %q", cfg.StoreDriver)
	}

	key := getEnv("PASETO_SECRET_KEY", "")
	if len(key) != 32 {
		return nil, fmt.Errorf("PASETO_SECRET_KEY must be 32 characters long")
	}
	cfg.PasetoSecretKey = []byte(key)

	var err error
	if cfg.TokenTTL, err = time.ParseDuration(getEnv("TOKEN_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("parse TOKEN_TTL: %w", err)
	}
	if cfg.PaginationLimit, err = getPositiveInt("PAGINATION_LIMIT", 8); err != nil {
		return nil, err
	}
	if cfg.TopRatedLimit, err = getPositiveInt("TOP_RATED_LIMIT", 3); err != nil {
		return nil, err
	}
	maxUpload, err := getPositiveInt("MAX_UPLOAD_BYTES", 5<<20)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(maxUpload)

	return cfg, nil
}

// IsProduction reports whether the service runs in production mode.
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getPositiveInt(key string, defaultValue int) (int, error) {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
