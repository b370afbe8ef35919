package utils

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Session     SessionConfig
	OTP         OTPConfig
	Stripe      StripeConfig
	Storage     StorageConfig
	Reservation ReservationConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
	// BaseURL is the public origin used to build redirect and callback URLs.
	BaseURL string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	MaxConns int32
}

// DSN renders a postgres:// URL with user and password escaped.
func (c DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, c.Port),
		Path:   "/" + c.Name,
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String()
}

type SessionConfig struct {
	ExpiryHours int
}

type OTPConfig struct {
	ExpiryMinutes int
	Length        int
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	Timeout       time.Duration
}

type StorageConfig struct {
	Bucket    string
	Region    string
	PublicURL string
	Timeout   time.Duration
}

type ReservationConfig struct {
	TTL           time.Duration
	SweepSchedule string
}

// BillingURL is used for both the refresh and return URL of onboarding links.
func (c AppConfig) BillingURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/billing"
}

func (c AppConfig) PaymentSuccessURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/payment/success"
}

func (c AppConfig) PaymentCancelURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/payment/cancel"
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	viper.SetDefault("APP_NAME", "car-share")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("SESSION_EXPIRY_HOURS", 24)
	viper.SetDefault("OTP_EXPIRY_MINUTES", 10)
	viper.SetDefault("OTP_LENGTH", 6)
	viper.SetDefault("STRIPE_CURRENCY", "eur")
	viper.SetDefault("STRIPE_TIMEOUT_SECONDS", 15)
	viper.SetDefault("S3_REGION", "eu-central-1")
	viper.SetDefault("S3_TIMEOUT_SECONDS", 10)
	viper.SetDefault("RESERVATION_TTL_MINUTES", 30)
	viper.SetDefault("RESERVATION_SWEEP_SCHEDULE", "@every 1m")

	// .env is optional in containers, the environment wins anyway
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !strings.Contains(err.Error(), "no such file") {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
			BaseURL: viper.GetString("APP_BASE_URL"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			SSLMode:  viper.GetString("DB_SSL_MODE"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Session: SessionConfig{
			ExpiryHours: viper.GetInt("SESSION_EXPIRY_HOURS"),
		},
		OTP: OTPConfig{
			ExpiryMinutes: viper.GetInt("OTP_EXPIRY_MINUTES"),
			Length:        viper.GetInt("OTP_LENGTH"),
		},
		Stripe: StripeConfig{
			SecretKey:     viper.GetString("STRIPE_SECRET_KEY"),
			WebhookSecret: viper.GetString("STRIPE_WEBHOOK_SECRET"),
			Currency:      strings.ToLower(viper.GetString("STRIPE_CURRENCY")),
			Timeout:       time.Duration(viper.GetInt("STRIPE_TIMEOUT_SECONDS")) * time.Second,
		},
		Storage: StorageConfig{
			Bucket:    viper.GetString("S3_BUCKET"),
			Region:    viper.GetString("S3_REGION"),
			PublicURL: viper.GetString("S3_PUBLIC_URL"),
			Timeout:   time.Duration(viper.GetInt("S3_TIMEOUT_SECONDS")) * time.Second,
		},
		Reservation: ReservationConfig{
			TTL:           time.Duration(viper.GetInt("RESERVATION_TTL_MINUTES")) * time.Minute,
			SweepSchedule: viper.GetString("RESERVATION_SWEEP_SCHEDULE"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.App.BaseURL == "" {
		missing = append(missing, "APP_BASE_URL")
	}
	if c.Stripe.SecretKey == "" {
		missing = append(missing, "STRIPE_SECRET_KEY")
	}
	if c.Stripe.WebhookSecret == "" {
		missing = append(missing, "STRIPE_WEBHOOK_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	return nil
}
