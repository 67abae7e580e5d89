package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all startup parameters for the uploader. There is no runtime
// reconfiguration; the process must be restarted to pick up changes.
type Config struct {
	DatabaseURL string

	PollInterval      time.Duration
	BatchSize         int
	MaxRetries        int
	MeltdownThreshold int

	S3Endpoint           string
	S3Region             string
	S3Bucket             string
	S3AccessKeyID        string
	S3SecretAccessKey    string
	S3CredentialsSource  string // "static" or "shared"
	S3CredentialsProfile string

	SlackWebhookURL string
	MetricsAddr     string
}

func Load() *Config {
	// Optional .env for local development; in production everything comes
	// from the environment.
	godotenv.Load(".env")

	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),

		PollInterval:      time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 30)) * time.Second,
		BatchSize:         getEnvInt("BATCH_SIZE", 50),
		MaxRetries:        getEnvInt("MAX_RETRIES", 5),
		MeltdownThreshold: getEnvInt("MELTDOWN_THRESHOLD", 5),

		S3Endpoint:           getEnv("S3_ENDPOINT", ""),
		S3Region:             getEnv("S3_REGION", "auto"),
		S3Bucket:             getEnv("S3_BUCKET", "mikro"),
		S3AccessKeyID:        getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey:    getEnv("S3_SECRET_ACCESS_KEY", ""),
		S3CredentialsSource:  getEnv("S3_CREDENTIALS_SOURCE", "static"),
		S3CredentialsProfile: getEnv("S3_CREDENTIALS_PROFILE", "default"),

		SlackWebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),
		MetricsAddr:     getEnv("METRICS_ADDR", ""),
	}
}

// Validate checks the parameters the process cannot run without. A non-nil
// error here is fatal at startup.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.S3Endpoint == "" {
		return errors.New("S3_ENDPOINT is required")
	}
	if c.S3Bucket == "" {
		return errors.New("S3_BUCKET is required")
	}
	switch c.S3CredentialsSource {
	case "static":
		if c.S3AccessKeyID == "" || c.S3SecretAccessKey == "" {
			return errors.New("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY are required with static credentials")
		}
	case "shared":
		// Keys come from the shared credentials file, re-read on every
		// client construction.
	default:
		return errors.New("S3_CREDENTIALS_SOURCE must be \"static\" or \"shared\"")
	}
	if c.PollInterval <= 0 {
		return errors.New("POLL_INTERVAL_SECONDS must be positive")
	}
	if c.BatchSize <= 0 {
		return errors.New("BATCH_SIZE must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
