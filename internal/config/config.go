package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type StoreBackend string

const (
	BackendMemory   StoreBackend = "memory"
	BackendFile     StoreBackend = "file"
	BackendSQLite   StoreBackend = "sqlite"
	BackendPostgres StoreBackend = "postgres"
	BackendS3       StoreBackend = "s3"
)

type S3 struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

type Config struct {
	ServerPort    int
	LogLevel      slog.Level
	StoreBackend  StoreBackend
	DataDir       string
	SQLitePath    string
	DatabaseURL   string
	S3            S3
	FlushInterval time.Duration
	CORSOrigins   []string
}

// Load reads the configuration from the environment, a .env file is picked up
// when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	port, err := strconv.Atoi(getenv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(getenv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL environment variable: %w", err)
	}

	flushInterval, err := time.ParseDuration(getenv("FLUSH_INTERVAL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid FLUSH_INTERVAL environment variable: %w", err)
	}
	if flushInterval <= 0 {
		return nil, fmt.Errorf("FLUSH_INTERVAL must be positive, got %s", flushInterval)
	}

	cfg := &Config{
		ServerPort:    port,
		LogLevel:      level,
		StoreBackend:  StoreBackend(strings.ToLower(getenv("STORE_BACKEND", string(BackendMemory)))),
		DataDir:       getenv("DATA_DIR", "./data"),
		SQLitePath:    getenv("SQLITE_PATH", "bracket_keeper.db"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		FlushInterval: flushInterval,
		CORSOrigins:   splitList(getenv("CORS_ORIGINS", "http://localhost:5173")),
		S3: S3{
			Bucket:          os.Getenv("S3_BUCKET"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			Region:          os.Getenv("S3_REGION"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			Prefix:          os.Getenv("S3_PREFIX"),
		},
	}

	switch cfg.StoreBackend {
	case BackendMemory, BackendFile, BackendSQLite:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
		}
	case BackendS3:
		if cfg.S3.Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET environment variable is not set")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
