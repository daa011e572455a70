package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env        string
	ServerPort int
	Log        LogConfig
	Store      string
	Database   DatabaseConfig
	Auth       AuthConfig
	Redis      RedisConfig
	Storage    StorageConfig
	Events     EventsConfig
	RateLimit  RateLimitConfig
	CORS       CORSConfig
	// TrustProxyHeaders takes the client IP from X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that sets them.
	TrustProxyHeaders bool
}

type LogConfig struct {
	Level  string
	Format string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

// AuthConfig selects how bearer tokens are issued and verified.
// Backend is "database" (opaque keys, one per user) or "jwt".
type AuthConfig struct {
	Backend   string
	JWTSecret string
	TokenTTL  time.Duration
}

// RedisConfig is optional; an empty Addr disables the token cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TokenTTL time.Duration
}

type StorageConfig struct {
	Backend   string
	PublicURL string
	Minio     MinioConfig
	GCS       GCSConfig
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

type EventsConfig struct {
	Backend  string
	Channel  string
	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
}

type RabbitMQConfig struct {
	URL             string
	PrefetchCount   int
	QueueDurable    bool
	QueueAutoDelete bool
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

// RateLimitConfig applies to the unauthenticated user endpoints.
type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

type CORSConfig struct {
	AllowedOrigins []string
}

const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"

	AuthBackendDatabase = "database"
	AuthBackendJWT      = "jwt"

	StorageBackendNone   = "none"
	StorageBackendMemory = "memory"
	StorageBackendMinio  = "minio"
	StorageBackendGCS    = "gcs"

	EventsBackendNone     = "none"
	EventsBackendMemory   = "memory"
	EventsBackendRabbitMQ = "rabbitmq"
	EventsBackendPubSub   = "pubsub"
)

func LoadConfig() Config {
	env := getEnv("ENV", "prod")
	if env == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "recipebox"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "recipebox_db"),
		UseSSL:   getEnvBool("DB_USE_SSL", false),
	}

	return Config{
		Env:        env,
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Store:    strings.ToLower(getEnv("STORE_BACKEND", StoreBackendPostgres)),
		Database: dbConfig,
		Auth: AuthConfig{
			Backend:   strings.ToLower(getEnv("AUTH_TOKEN_BACKEND", AuthBackendDatabase)),
			JWTSecret: strings.TrimSpace(getEnv("JWT_SECRET", "")),
			TokenTTL:  getEnvDuration("AUTH_TOKEN_TTL", 24*time.Hour),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TokenTTL: getEnvDuration("TOKEN_CACHE_TTL", 5*time.Minute),
		},
		Storage: StorageConfig{
			Backend:   strings.ToLower(getEnv("STORAGE_BACKEND", StorageBackendNone)),
			PublicURL: strings.TrimRight(getEnv("STORAGE_PUBLIC_URL", ""), "/"),
			Minio: MinioConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", "recipe-images"),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
			GCS: GCSConfig{
				Bucket:          getEnv("GCS_BUCKET", ""),
				ProjectID:       getEnv("GCS_PROJECT_ID", ""),
				CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
			},
		},
		Events: EventsConfig{
			Backend: strings.ToLower(getEnv("EVENTS_BACKEND", EventsBackendNone)),
			Channel: getEnv("EVENTS_CHANNEL", "recipes"),
			RabbitMQ: RabbitMQConfig{
				URL:             getEnv("RABBITMQ_URL", ""),
				PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH", 10),
				QueueDurable:    getEnvBool("RABBITMQ_DURABLE", true),
				QueueAutoDelete: getEnvBool("RABBITMQ_AUTO_DELETE", false),
			},
			PubSub: PubSubConfig{
				ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
				CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
				SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
			},
		},
		RateLimit: RateLimitConfig{
			PerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 20),
			Burst:     getEnvInt("RATE_LIMIT_BURST", 10),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		TrustProxyHeaders: getEnvBool("TRUST_PROXY_HEADERS", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		if _, err := fmt.Sscanf(valueStr, "%d", &value); err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		switch strings.ToLower(strings.TrimSpace(valueStr)) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := time.ParseDuration(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var values []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
