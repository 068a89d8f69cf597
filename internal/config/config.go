package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken string

	SupabaseURL string
	SupabaseKey string

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	BillsDir   string
	ExportsDir string

	AppHost string
	AppPort string

	// RequestTimeout bounds every outbound call (extraction, rendering,
	// delivery, persistence).
	RequestTimeout time.Duration

	// SessionTTL is how long an unfinished conversation flow survives.
	// Zero disables expiry.
	SessionTTL time.Duration

	LogLevel string
}

func LoadConfig() (*Config, error) {
	// .env is optional; real deployments set variables in the environment
	_ = godotenv.Load()

	return &Config{
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),

		SupabaseURL: os.Getenv("SUPABASE_URL"),
		SupabaseKey: os.Getenv("SUPABASE_KEY"),

		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     os.Getenv("SMTP_FROM_EMAIL"),

		BillsDir:   getEnv("BILLS_DIR", "./data/bills"),
		ExportsDir: getEnv("EXPORTS_DIR", "./data/exports"),

		AppHost: getEnv("APP_HOST", "0.0.0.0"),
		AppPort: getEnv("APP_PORT", "8000"),

		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		SessionTTL:     getEnvDuration("SESSION_TTL", 30*time.Minute),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
