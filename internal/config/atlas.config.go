package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisAddr     string
	RedisPassword string

	JWTSecret string

	SMSLogin    string
	SMSPassword string
	SMSSender   string
	SMSBaseURL  string

	GmailCredentialsPath string
	GmailTokenPath       string

	// Reconciliation
	MonitorSenders     []string
	MonitorMaxMessages int64
	MonitorIntervalSec int
	FirstDepositBonus  float64
}

func Load() *Config {
	return &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "atlas"),
		DBPassword: getEnv("DB_PASSWORD", "atlas"),
		DBName:     getEnv("DB_NAME", "atlas_save"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),

		SMSLogin:    getEnv("SMSC_LOGIN", ""),
		SMSPassword: getEnv("SMSC_PASSWORD", ""),
		SMSSender:   getEnv("SMSC_SENDER", "Atlas Save"),
		SMSBaseURL:  getEnv("SMSC_BASE_URL", "https://smsc.kz/sys/send.php"),

		GmailCredentialsPath: getEnv("GMAIL_CREDENTIALS_PATH", "credentials.json"),
		GmailTokenPath:       getEnv("GMAIL_TOKEN_PATH", "token.json"),

		MonitorSenders: splitEnv("MONITOR_SENDERS",
			"kaspi.payments@kaspibank.kz,zorden2020@gmail.com"),
		MonitorMaxMessages: int64(getEnvInt("MONITOR_MAX_MESSAGES", 10)),
		MonitorIntervalSec: getEnvInt("MONITOR_INTERVAL_SECONDS", 300),
		FirstDepositBonus:  getEnvFloat("FIRST_DEPOSIT_BONUS", 10000),
	}
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

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func splitEnv(key, fallback string) []string {
	raw := getEnv(key, fallback)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
