package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	HTTPPort string
	GinMode  string

	DBDriver     string
	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string
	DBSQLitePath string
	DBLogLevel   string

	RedisHost     string
	RedisPort     string
	SessionSecret string

	JWTSecret      string
	JWTExpireHours int

	CORSAllowedOrigins string
	RateLimitRPM       int

	ServiceName       string
	TelemetryEndpoint string
	TelemetryInsecure bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppEnv:   getEnv("APP_ENV", "production"),
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		GinMode:  getEnv("GIN_MODE", "debug"),

		DBDriver:     strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		DBHost:       getEnv("DB_HOST", "localhost"),
		DBPort:       getEnv("DB_PORT", "3306"),
		DBUser:       getEnv("DB_USER", "eventhub"),
		DBPassword:   getEnv("DB_PASSWORD", "eventhub"),
		DBName:       getEnv("DB_NAME", "eventhub"),
		DBSQLitePath: getEnv("DB_SQLITE_PATH", "eventhub.db"),
		DBLogLevel:   strings.ToLower(getEnv("DB_LOG_LEVEL", "warn")),

		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		SessionSecret: getEnv("SESSION_SECRET", "default-secret-key-change-me"),

		JWTSecret:      getEnv("JWT_SECRET", "default-jwt-secret-change-me"),
		JWTExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		RateLimitRPM:       getEnvInt("RATE_LIMIT_RPM", 600),

		ServiceName:       getEnv("SERVICE_NAME", "eventhub-api"),
		TelemetryEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		TelemetryInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
	}
}

// IsDevelopment reports whether the app runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
