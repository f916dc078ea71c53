package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application.
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Log     LogConfig
	Auth    AuthConfig
	Payment PaymentConfig
	Kafka   KafkaConfig
	SMS     SMSConfig
	SMTP    SMTPConfig
	Redis   RedisConfig
	Jobs    JobsConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port            string `envconfig:"SERVER_PORT" default:"3000"`
	ShutdownTimeout int    `envconfig:"SHUTDOWN_TIMEOUT" default:"30"` // seconds
	BodyLimit       int    `envconfig:"SERVER_BODY_LIMIT" default:"1048576"`
}

// DBConfig holds database-related configuration.
// WARNING: Default password is for local development only.
// In production, set DB_SSLMODE to "require" or "verify-full".
type DBConfig struct {
	Host       string `envconfig:"DB_HOST" default:"localhost"`
	Port       int    `envconfig:"DB_PORT" default:"5432"`
	User       string `envconfig:"DB_USER" default:"postgres"`
	Password   string `envconfig:"DB_PASSWORD" default:"postgres"` // CHANGE IN PRODUCTION
	Name       string `envconfig:"DB_NAME" default:"booking_db"`
	SSLMode    string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns   int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns   int    `envconfig:"DB_MIN_CONNS" default:"5"`
	MaxRetries int    `envconfig:"DB_CONNECT_RETRIES" default:"5"`
	Migrate    bool   `envconfig:"DB_AUTO_MIGRATE" default:"true"`
}

// DSN returns the PostgreSQL connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d&pool_min_conns=%d",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode, c.MaxConns, c.MinConns)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

// AuthConfig holds bearer token verification settings.
type AuthConfig struct {
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
	Issuer    string `envconfig:"JWT_ISSUER" default:""`
}

// PaymentConfig holds payment gateway settings.
type PaymentConfig struct {
	Currency      string        `envconfig:"PAYMENT_CURRENCY" default:"SAR"`
	ChargeTimeout time.Duration `envconfig:"PAYMENT_CHARGE_TIMEOUT" default:"15s"`
	// A charged booking is confirmed up to ConfirmAttempts times, doubling
	// ConfirmBackoff between tries.
	ConfirmAttempts int           `envconfig:"PAYMENT_CONFIRM_ATTEMPTS" default:"3"`
	ConfirmBackoff  time.Duration `envconfig:"PAYMENT_CONFIRM_BACKOFF" default:"200ms"`
	// DeclineMethods lists payment method refs the simulated gateway rejects.
	DeclineMethods []string `envconfig:"PAYMENT_DECLINE_METHODS" default:""`
}

// KafkaConfig holds the push notification and booking event producer settings.
type KafkaConfig struct {
	Enabled           bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	Brokers           []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	NotificationTopic string   `envconfig:"KAFKA_NOTIFICATION_TOPIC" default:"push-notifications"`
	BookingTopic      string   `envconfig:"KAFKA_BOOKING_TOPIC" default:"booking-events"`
}

// SMSConfig holds the SMS gateway settings. An empty APIURL disables SMS.
type SMSConfig struct {
	APIURL        string        `envconfig:"SMS_API_URL" default:""`
	APIToken      string        `envconfig:"SMS_API_TOKEN" default:""`
	Sender        string        `envconfig:"SMS_SENDER" default:"Booking"`
	CountryPrefix string        `envconfig:"SMS_COUNTRY_PREFIX" default:"966"`
	Timeout       time.Duration `envconfig:"SMS_TIMEOUT" default:"10s"`
}

// SMTPConfig holds the mail relay settings. An empty Host disables email.
type SMTPConfig struct {
	Host     string `envconfig:"SMTP_HOST" default:""`
	Port     int    `envconfig:"SMTP_PORT" default:"587"`
	Username string `envconfig:"SMTP_USERNAME" default:""`
	Password string `envconfig:"SMTP_PASSWORD" default:""`
	From     string `envconfig:"SMTP_FROM" default:"no-reply@booking.local"`
}

// RedisConfig holds the rate limiter backend settings.
type RedisConfig struct {
	Enabled           bool          `envconfig:"REDIS_ENABLED" default:"false"`
	Addr              string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password          string        `envconfig:"REDIS_PASSWORD" default:""`
	DB                int           `envconfig:"REDIS_DB" default:"0"`
	BookingRateLimit  int           `envconfig:"BOOKING_RATE_LIMIT" default:"10"`
	BookingRateWindow time.Duration `envconfig:"BOOKING_RATE_WINDOW" default:"1m"`
}

// JobsConfig holds background job settings.
type JobsConfig struct {
	Enabled            bool          `envconfig:"JOBS_ENABLED" default:"true"`
	CompletionInterval time.Duration `envconfig:"JOBS_COMPLETION_INTERVAL" default:"1h"`
	ReminderInterval   time.Duration `envconfig:"JOBS_REMINDER_INTERVAL" default:"24h"`
	// ReminderDelay is how long after check-out an unreviewed guest is reminded.
	ReminderDelay time.Duration `envconfig:"JOBS_REMINDER_DELAY" default:"72h"`
	// Bookings still pending PaymentConfig.ChargeTimeout + PendingGrace after
	// creation are reconciled against the gateway.
	ReconcileInterval time.Duration `envconfig:"JOBS_RECONCILE_INTERVAL" default:"5m"`
	PendingGrace      time.Duration `envconfig:"JOBS_PENDING_GRACE" default:"2m"`
}

// Load parses environment variables into the Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, errors.New("JWT_SECRET must not be blank")
	}
	return &cfg, nil
}
