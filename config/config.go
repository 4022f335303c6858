package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	DBDriver string
	DSN      string

	LogLevel  string
	LogFormat string

	// Admin API credentials. Either Basic auth or a JWT bearer is accepted.
	AuthUser  string
	AuthPass  string
	JWTSecret string

	FrontendURL     string
	Currency        string
	LinkTTL         time.Duration
	ProviderTimeout time.Duration

	PaymentProvider     string
	StripeSecretKey     string
	StripeWebhookSecret string
	RazorpayKeyID       string
	RazorpayKeySecret   string
	PayPalClientID      string
	PayPalClientSecret  string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	SweepSchedule     string
	RecurringSchedule string
	JobTimeout        time.Duration
}

// Load reads .env (if present) and the environment. Explicit environment
// variables win over .env entries.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	c := &Config{
		Port:                getEnv("PORT", "8080"),
		DBDriver:            getEnv("DB_DRIVER", "sqlite"),
		DSN:                 getEnv("DATABASE_DSN", "invoicing.db"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "text"),
		AuthUser:            getEnv("AUTH_USER", ""),
		AuthPass:            getEnv("AUTH_PASS", ""),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		FrontendURL:         getEnv("FRONTEND_URL", "http://localhost:3000"),
		Currency:            getEnv("CURRENCY", "usd"),
		PaymentProvider:     getEnv("PAYMENT_PROVIDER", "stripe"),
		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		RazorpayKeyID:       getEnv("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret:   getEnv("RAZORPAY_KEY_SECRET", ""),
		PayPalClientID:      getEnv("PAYPAL_CLIENT_ID", ""),
		PayPalClientSecret:  getEnv("PAYPAL_CLIENT_SECRET", ""),
		SMTPHost:            getEnv("SMTP_HOST", ""),
		SMTPUser:            getEnv("SMTP_USER", ""),
		SMTPPass:            getEnv("SMTP_PASS", ""),
		MailFrom:            getEnv("MAIL_FROM", "invoices@localhost"),
		S3Bucket:            getEnv("S3_BUCKET", ""),
		S3Region:            getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:          getEnv("S3_ENDPOINT", ""),
		S3AccessKey:         getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:         getEnv("S3_SECRET_KEY", ""),
		SweepSchedule:       getEnv("SWEEP_SCHEDULE", "*/30 * * * *"),
		RecurringSchedule:   getEnv("RECURRING_SCHEDULE", "0 0 * * *"),
	}

	var err error
	if c.SMTPPort, err = getInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	if c.LinkTTL, err = getDuration("LINK_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if c.ProviderTimeout, err = getDuration("PROVIDER_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if c.JobTimeout, err = getDuration("JOB_TIMEOUT", 5*time.Minute); err != nil {
		return nil, err
	}

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return c, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "sqlite", "pgx":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or pgx, got %q", c.DBDriver)
	}
	switch c.PaymentProvider {
	case "stripe", "razorpay", "paypal":
	default:
		return fmt.Errorf("PAYMENT_PROVIDER must be stripe, razorpay or paypal, got %q", c.PaymentProvider)
	}
	if c.LinkTTL <= 0 {
		return fmt.Errorf("LINK_TTL must be positive")
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive")
	}
	return nil
}

// MailEnabled reports whether outgoing mail goes to a real SMTP relay.
func (c *Config) MailEnabled() bool { return c.SMTPHost != "" }

// ArchiveEnabled reports whether rendered PDFs are stored in a bucket.
func (c *Config) ArchiveEnabled() bool { return c.S3Bucket != "" }

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %q", key, v)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q", key, v)
	}
	return d, nil
}
