package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Stripe    StripeConfig
	Paddle    PaddleConfig
	Analytics AnalyticsConfig
	SMTP      SMTPConfig
	Admin     AdminConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type StripeConfig struct {
	APIKey string
	// WebhookSecrets maps a Stripe event type to its endpoint signing secret.
	// Loaded from STRIPE_WEBHOOK_SECRETS as a JSON object.
	WebhookSecrets map[string]string
	TestSecret     string
}

type PaddleConfig struct {
	APIKey        string
	BaseURL       string
	WebhookSecret string
	TestSecret    string
}

type AnalyticsConfig struct {
	Host   string
	Secret string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
	AlertEmail string
}

type AdminConfig struct {
	JWTSecret string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Stripe: StripeConfig{
			APIKey:         getEnv("STRIPE_API_KEY", ""),
			WebhookSecrets: getEnvAsJSONMap("STRIPE_WEBHOOK_SECRETS"),
			TestSecret:     getEnv("STRIPE_TEST_WEBHOOK_SECRET", ""),
		},
		Paddle: PaddleConfig{
			APIKey:        getEnv("PADDLE_API_KEY", ""),
			BaseURL:       getEnv("PADDLE_BASE_URL", "https://api.paddle.com"),
			WebhookSecret: getEnv("PADDLE_WEBHOOK_SECRET", ""),
			TestSecret:    getEnv("PADDLE_TEST_WEBHOOK_SECRET", ""),
		},
		Analytics: AnalyticsConfig{
			Host:   getEnv("ANALYTICS_HOST", ""),
			Secret: getEnv("ANALYTICS_SECRET", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Billing Service"),
			AlertEmail: getEnv("OPS_ALERT_EMAIL", ""),
		},
		Admin: AdminConfig{
			JWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
		},
	}
}

// IsProduction reports whether the service runs with production semantics
// (test webhook secrets disabled).
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsJSONMap(key string) map[string]string {
	raw := getEnv(key, "")
	if raw == "" {
		return map[string]string{}
	}
	out := map[string]string{}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		log.Printf("Warn: %s is not valid JSON, ignoring", key)
		return map[string]string{}
	}
	return out
}
