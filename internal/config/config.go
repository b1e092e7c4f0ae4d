package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Типы хранилищ.
const (
	StorageFile     = "file"
	StorageInMemory = "in-memory"
	StoragePostgres = "postgres"
)

// Config содержит параметры запуска сервиса.
type Config struct {
	Port         string
	Storage      string
	DataFile     string
	DatabaseURL  string
	MaxBodyBytes int64
}

// Load читает .env (если он есть) и переменные окружения,
// подставляя значения по умолчанию.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Port:        getEnv("PORT", "3000"),
		Storage:     getEnv("HEATERS_STORAGE", StorageFile),
		DataFile:    getEnv("HEATERS_DATA_FILE", "data/posts.json"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
	}

	maxBody, err := strconv.ParseInt(getEnv("HEATERS_MAX_BODY_BYTES", "1000000"), 10, 64)
	if err != nil || maxBody <= 0 {
		log.Printf("WARNING: invalid HEATERS_MAX_BODY_BYTES, using default 1000000")
		maxBody = 1_000_000
	}
	cfg.MaxBodyBytes = maxBody
	return cfg, nil
}

// Validate проверяет согласованность параметров.
func (c *Config) Validate() error {
	switch c.Storage {
	case StorageFile:
		if c.DataFile == "" {
			return errors.New("data file path must be set for file storage")
		}
	case StorageInMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL must be set for postgres storage")
		}
	default:
		return fmt.Errorf("unknown storage type %q (file, in-memory or postgres)", c.Storage)
	}
	return nil
}

// getEnv возвращает значение переменной окружения или fallback.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
