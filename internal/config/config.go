package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENV" default:"development"`
	Port        string `envconfig:"PORT" default:"8080"`

	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// JWTSecret is used directly in development; in production the key is
	// loaded from Secret Manager via JWTSecretName.
	JWTSecret     string `envconfig:"JWT_SECRET" default:""`
	JWTSecretName string `envconfig:"JWT_SECRET_NAME" default:""`
	GCPProjectID  string `envconfig:"GCP_PROJECT_ID" default:""`

	S3URL       string `envconfig:"S3_URL" required:"true"`
	S3Bucket    string `envconfig:"S3_BUCKET" required:"true"`
	S3Region    string `envconfig:"S3_REGION" required:"true"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY" required:"true"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY" required:"true"`

	// AdminUserIDs is the override set: these users bypass access and quota
	// checks entirely.
	AdminUserIDs []string `envconfig:"ADMIN_USER_IDS" default:""`

	// QuotaPolicies is a JSON array of per-feature policies; an empty value
	// leaves every feature unlimited.
	QuotaPolicies string `envconfig:"QUOTA_POLICIES" default:""`

	// GraceHours is the temp-access window granted when a paid subscription
	// lapses on a payment failure. Zero disables the grace period.
	GraceHours int `envconfig:"GRACE_HOURS" default:"48"`

	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"30"`

	NotificationTopic string `envconfig:"NOTIFICATION_TOPIC" default:"user_notifications"`

	// Converter service settings
	ConverterBaseURL string `envconfig:"CONVERTER_BASE_URL" required:"true"`

	// Processing worker settings
	ProcessingQueueName           string `envconfig:"PROCESSING_QUEUE_NAME" default:"document_processing_queue"`
	ProcessingPollTimeoutSec      int    `envconfig:"PROCESSING_POLL_TIMEOUT_SEC" default:"30"`
	ProcessingPollMaxMsg          int    `envconfig:"PROCESSING_POLL_MAX_MSG" default:"1"`
	ProcessingMaxRetries          int    `envconfig:"PROCESSING_MAX_RETRIES" default:"5"`
	ProcessingBackoffInitialSec   int    `envconfig:"PROCESSING_BACKOFF_INITIAL_SEC" default:"1"`
	ProcessingBackoffMaxSec       int    `envconfig:"PROCESSING_BACKOFF_MAX_SEC" default:"60"`
	ProcessingRequestTimeoutSec   int    `envconfig:"PROCESSING_REQUEST_TIMEOUT_SEC" default:"300"`
	ProcessingDeadLetterQueueName string `envconfig:"PROCESSING_DEAD_LETTER_QUEUE_NAME" default:"document_processing_queue_dlq"`

	// Cleanup sweeper settings
	CleanupIntervalMin   int `envconfig:"CLEANUP_INTERVAL_MIN" default:"60"`
	HistoryRetentionDays int `envconfig:"HISTORY_RETENTION_DAYS" default:"90"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
