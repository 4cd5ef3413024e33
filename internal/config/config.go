package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Client   ClientConfig
	Sync     SyncConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Environment  string
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// ClientConfig configures the dashboard agents.
type ClientConfig struct {
	BackendURL string
}

// SyncConfig carries the sync-loop timings. Defaults mirror the dashboard
// behavior: a fast elder status tick, a slower family one, short SOS polls,
// and an 8 second acknowledgment grace period.
type SyncConfig struct {
	ElderStatusTick  time.Duration
	FamilyStatusTick time.Duration
	ElderSOSPoll     time.Duration
	FamilySOSPoll    time.Duration
	DateTick         time.Duration
	AckGrace         time.Duration
}

func NewConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "localhost"),
			Port:         getEnv("SERVER_PORT", "5000"),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			Environment:  getEnv("SERVER_ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Name:         getEnv("DB_NAME", "carenest"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 10),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Channel:  getEnv("REDIS_EVENT_CHANNEL", "careNest:events"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "carenest-dev-secret"),
			TokenTTL:  getEnvDuration("JWT_TOKEN_TTL", 24*time.Hour),
		},
		Client: ClientConfig{
			BackendURL: getEnv("BACKEND_URL", "http://localhost:5000"),
		},
		Sync: SyncConfig{
			ElderStatusTick:  getEnvDuration("SYNC_ELDER_STATUS_TICK", 5*time.Second),
			FamilyStatusTick: getEnvDuration("SYNC_FAMILY_STATUS_TICK", 30*time.Second),
			ElderSOSPoll:     getEnvDuration("SYNC_ELDER_SOS_POLL", time.Second),
			FamilySOSPoll:    getEnvDuration("SYNC_FAMILY_SOS_POLL", 2*time.Second),
			DateTick:         getEnvDuration("SYNC_DATE_TICK", time.Second),
			AckGrace:         getEnvDuration("SYNC_SOS_ACK_GRACE", 8*time.Second),
		},
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}
