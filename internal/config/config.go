package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server       ServerConfig
	DB           DatabaseConfig
	Feed         FeedConfig
	SMS          SMSConfig
	Email        EmailConfig
	Alerting     AlertingConfig
	Verification VerificationConfig
	Monitor      MonitorConfig
	Logging      LoggingConfig
}

type ServerConfig struct {
	Host          string
	Port          int
	WebhookSecret string
	RateLimitRPS  int
}

type DatabaseConfig struct {
	Path string
}

type FeedConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

type SMSConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	Timeout    time.Duration
}

type EmailConfig struct {
	APIKey      string
	FromAddress string
}

type AlertingConfig struct {
	WorkerCount int
}

type VerificationConfig struct {
	CodeTTL time.Duration
}

type MonitorConfig struct {
	Enabled  bool
	Interval time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:          getEnv("SERVER_HOST", "localhost"),
			Port:          getEnvInt("SERVER_PORT", 8080),
			WebhookSecret: getEnv("WEBHOOK_SECRET", ""),
			RateLimitRPS:  getEnvInt("RATE_LIMIT_RPS", 5),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/shelterwatch.db"),
		},
		Feed: FeedConfig{
			URL:     getEnv("HAZARD_FEED_URL", "https://api.ambeedata.com/disasters/latest/by-lat-lng"),
			APIKey:  getEnv("HAZARD_FEED_API_KEY", ""),
			Timeout: getEnvDuration("HAZARD_FEED_TIMEOUT", 15*time.Second),
		},
		SMS: SMSConfig{
			AccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
			FromNumber: getEnv("TWILIO_PHONE_NUMBER", ""),
			Timeout:    getEnvDuration("SMS_TIMEOUT", 15*time.Second),
		},
		Email: EmailConfig{
			APIKey:      getEnv("RESEND_API_KEY", ""),
			FromAddress: getEnv("EMAIL_FROM", "alerts@shelterwatch.dev"),
		},
		Alerting: AlertingConfig{
			WorkerCount: getEnvInt("ALERT_WORKER_COUNT", 8),
		},
		Verification: VerificationConfig{
			CodeTTL: getEnvDuration("VERIFICATION_CODE_TTL", 10*time.Minute),
		},
		Monitor: MonitorConfig{
			Enabled:  getEnvBool("MONITOR_ENABLED", false),
			Interval: getEnvDuration("MONITOR_INTERVAL", 30*time.Minute),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Alerting.WorkerCount < 1 {
		return fmt.Errorf("alert worker count must be at least 1")
	}

	if c.Verification.CodeTTL < time.Minute {
		return fmt.Errorf("verification code TTL must be at least 1 minute")
	}

	if c.Monitor.Enabled && c.Monitor.Interval < time.Minute {
		return fmt.Errorf("monitor interval must be at least 1 minute")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
