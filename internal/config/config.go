package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds application configuration from environment.
type Config struct {
	HTTPPort string
	GinMode  string

	StoreDriver  string
	DatabaseURL  string
	DBPoolSize   int
	StoreTimeout time.Duration

	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration // zero disables the exp claim

	HashScryptN     int
	HashConcurrency int

	RedisURL      string
	RedisPoolSize int
	CacheTTL      int // seconds

	KafkaBrokers    []string
	KafkaTopic      string
	KafkaPartitions int
	KafkaGroupID    string

	CORSAllowedOrigins []string

	LogLevel  string
	LogFormat string
}

// Load reads .env (when present) and the environment, then validates the result.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		GinMode:            getEnv("GIN_MODE", "release"),
		StoreDriver:        strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DBPoolSize:         getIntEnv("DB_POOL_SIZE", 20),
		StoreTimeout:       getDurationEnv("STORE_TIMEOUT", 5*time.Second),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		JWTIssuer:          os.Getenv("JWT_ISSUER"),
		TokenTTL:           getDurationEnv("TOKEN_TTL", 24*time.Hour),
		HashScryptN:        getIntEnv("HASH_SCRYPT_N", 1<<15),
		HashConcurrency:    getIntEnv("HASH_CONCURRENCY", runtime.GOMAXPROCS(0)),
		RedisURL:           os.Getenv("REDIS_URL"),
		RedisPoolSize:      getIntEnv("REDIS_POOL_SIZE", 50),
		CacheTTL:           getIntEnv("CACHE_TTL_SEC", 300),
		KafkaBrokers:       getSliceEnv("KAFKA_BROKERS"),
		KafkaTopic:         getEnv("KAFKA_TOPIC", "tasklist-events"),
		KafkaPartitions:    getIntEnv("KAFKA_PARTITIONS", 8),
		KafkaGroupID:       getEnv("KAFKA_GROUP_ID", "tasklist-workers"),
		CORSAllowedOrigins: getSliceEnv("CORS_ALLOWED_ORIGINS"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service must not start with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	case StoreDriverMemory:
	default:
		return errors.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.TokenTTL < 0 {
		return errors.New("TOKEN_TTL must not be negative")
	}
	if c.HashScryptN < 2 || c.HashScryptN&(c.HashScryptN-1) != 0 {
		return errors.Errorf("HASH_SCRYPT_N must be a power of two greater than 1, got %d", c.HashScryptN)
	}
	if c.HashConcurrency < 1 {
		return errors.New("HASH_CONCURRENCY must be at least 1")
	}
	return nil
}

// CacheEnabled reports whether a Redis URL was configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisURL != ""
}

// EventsEnabled reports whether Kafka brokers were configured.
func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// loadEnvFile loads .env from the working directory or its parent; existing variables win.
func loadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}
	cwd, err := os.Getwd()
	if err != nil {
		return
	}
	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}
	_ = godotenv.Load(filepath.Join(parent, ".env"))
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getSliceEnv(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
