package application

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	ingestion "energy-process/internal/ingestion/domain"
)

// Config defines the ingestion service configuration. Environment variables
// provide the defaults; an optional YAML file named by ENERGY_CONFIG
// overrides them.
type Config struct {
	DatabaseURL   string `yaml:"database_url"`
	HTTPAddr      string `yaml:"http_addr"`
	UploadDir     string `yaml:"upload_dir"`
	RedisAddr     string `yaml:"redis_addr"`
	QueueKey      string `yaml:"queue_key"`
	JWTSecret     string `yaml:"jwt_secret"`
	Workers       int    `yaml:"workers"`
	AcceptedTypes []int  `yaml:"accepted_types"`
}

// LoadConfig loads config from env and the optional YAML override.
func LoadConfig() (Config, error) {
	cfg := Config{
		DatabaseURL: getenvDefault("DATABASE_URL", os.Getenv("PG_DSN")),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		UploadDir:   getenvDefault("UPLOAD_DIR", filepath.FromSlash("var/uploads")),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		QueueKey:    os.Getenv("INGEST_QUEUE_KEY"),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", os.Getenv("JWT_SECRET")),
		Workers:     getenvIntDefault("INGEST_WORKERS", 1),
	}

	if path := os.Getenv("ENERGY_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if len(cfg.AcceptedTypes) == 0 {
		cfg.AcceptedTypes = ingestion.AcceptedTypes
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.DatabaseURL == "" {
		return cfg, errors.New("config: DATABASE_URL or PG_DSN is required")
	}
	if cfg.UploadDir == "" {
		return cfg, errors.New("config: upload dir required")
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
