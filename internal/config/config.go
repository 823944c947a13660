package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// StoreDriver is "postgres" or "memory".
	StoreDriver    string
	MigrateOnStart bool

	ServerPort string
	JWTSecret  string
	JWTExpiry  time.Duration

	LogLevel  string
	LogFormat string

	RedisURL     string
	KafkaBrokers []string
	KafkaTopic   string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	FanoutQueueSize       int
	FanoutDeliveryTimeout time.Duration
	ShutdownTimeout       time.Duration
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          getEnv("DB_USER", "taskboard_user"),
		DBPassword:      getEnv("DB_PASSWORD", "taskboard_pass"),
		DBName:          getEnv("DB_NAME", "taskboard_db"),
		DBSSLMode:       getEnv("DB_SSLMODE", "disable"),
		StoreDriver:     strings.ToLower(getEnv("STORE_DRIVER", "postgres")),
		MigrateOnStart:  getEnvBool("MIGRATE_ON_START", true),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		JWTSecret:       getEnv("JWT_SECRET", "supersecretkey"),
		JWTExpiry:       time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		RedisURL:        getEnv("REDIS_URL", ""),
		KafkaBrokers:    getEnvList("KAFKA_BROKERS"),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "taskboard.changes"),
		MinioEndpoint:   getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey:  getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:  getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:     getEnv("MINIO_BUCKET", "taskboard"),
		MinioUseSSL:     getEnvBool("MINIO_USE_SSL", false),
		FanoutQueueSize: getEnvInt("FANOUT_QUEUE_SIZE", 256),

		FanoutDeliveryTimeout: getEnvDuration("FANOUT_DELIVERY_TIMEOUT", 5*time.Second),
		ShutdownTimeout:       getEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
	}

	switch cfg.StoreDriver {
	case "postgres", "memory":
	default:
		return nil, fmt.Errorf("STORE_DRIVER must be postgres or memory, got %q", cfg.StoreDriver)
	}
	if cfg.FanoutQueueSize <= 0 {
		return nil, fmt.Errorf("FANOUT_QUEUE_SIZE must be positive")
	}
	return cfg, nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return defaultVal
	}
	return n
}

// getEnvDuration accepts Go duration strings such as "750ms" or "5s".
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func getEnvBool(key string, defaultVal bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
