package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string
	Env  string

	// GeminiAPIKey is the only provider credential. Its absence is a
	// configuration error surfaced before any call, never a crash.
	GeminiAPIKey string

	// AdminSecret gates the dashboard endpoints. A static shared secret,
	// not a security boundary.
	AdminSecret string

	// RequestTimeout bounds one generation or chat call.
	RequestTimeout time.Duration

	// SessionTTL expires idle app sessions from the registry.
	SessionTTL time.Duration

	Store   StoreConfig
	Archive ArchiveConfig
}

type StoreConfig struct {
	// Backend is one of memory, postgres, redis.
	Backend     string
	PostgresDSN string
	RedisAddr   string
	RedisPass   string
	RedisDB     int
}

type ArchiveConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8080", "server port")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port:           *port,
		Env:            env,
		GeminiAPIKey:   strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		AdminSecret:    strings.TrimSpace(os.Getenv("ADMIN_SECRET")),
		RequestTimeout: durationEnv("REQUEST_TIMEOUT", 2*time.Minute),
		SessionTTL:     durationEnv("SESSION_TTL", 30*time.Minute),
		Store:          loadStoreConfig(),
		Archive:        loadArchiveConfig(),
	}, nil
}

func loadStoreConfig() StoreConfig {
	backend := strings.ToLower(strings.TrimSpace(os.Getenv("RECORD_STORE_BACKEND")))
	cfg := StoreConfig{
		Backend:     backend,
		PostgresDSN: strings.TrimSpace(os.Getenv("RECORD_STORE_PG_DSN")),
		RedisAddr:   firstNonEmpty(strings.TrimSpace(os.Getenv("REDIS_ADDR")), "redis:6379"),
		RedisPass:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:     intEnv("REDIS_DB", 0),
	}
	if cfg.Backend == "" {
		// Infer from what is configured; memory is the fallback.
		switch {
		case cfg.PostgresDSN != "":
			cfg.Backend = "postgres"
		case strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "":
			cfg.Backend = "redis"
		default:
			cfg.Backend = "memory"
		}
	}
	return cfg
}

func loadArchiveConfig() ArchiveConfig {
	endpoint := strings.TrimSpace(os.Getenv("ARCHIVE_S3_ENDPOINT"))
	return ArchiveConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_BUCKET")), "ucraft-previews"),
		UseSSL:    boolEnv("ARCHIVE_S3_USE_SSL", false),
	}
}

func durationEnv(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func intEnv(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func boolEnv(name string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
