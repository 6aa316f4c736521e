package config

import (
	"fmt"

	"github.com/driveease/service-rental/internal/common/config"
)

// StorageConfig selects where car images are written.
type StorageConfig struct {
	Provider  string // "local" or "s3"
	LocalDir  string
	PublicURL string
	S3Bucket  string
	S3Region  string
}

// MailConfig holds SendGrid settings. An empty APIKey disables e-mail.
type MailConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
	AppBaseURL     string
}

// SMSConfig holds Twilio settings. An empty AccountSID disables SMS.
type SMSConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// AdminBootstrap is the administrator account seeded when none exists.
type AdminBootstrap struct {
	Username string
	Password string
}

// RentalPolicy holds the business knobs of the rental desk.
type RentalPolicy struct {
	Currency           string
	CancellationPolicy string // "admin_approval" or "direct"
	CardDeclineSuffix  string
	PaymentTxnPrefix   string
	RefundTxnPrefix    string
	Timezone           string
}

// ServiceConfig holds all configuration for the rental service.
type ServiceConfig struct {
	Port         string
	AppEnv       string
	DBConfig     config.DatabaseConfig
	JWTConfig    config.JWTConfig
	KafkaConfig  config.KafkaConfig
	RedisConfig  config.RedisConfig
	Storage      StorageConfig
	Mail         MailConfig
	SMS          SMSConfig
	Admin        AdminBootstrap
	Policy       RentalPolicy
	ReminderCron string
}

// Load reads configuration from RENTAL_* environment variables.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("RENTAL")
	if err != nil {
		return nil, err
	}

	v.SetDefault("DB_NAME", "rental")
	v.SetDefault("STORAGE_PROVIDER", "local")
	v.SetDefault("STORAGE_LOCAL_DIR", "uploads")
	v.SetDefault("MAIL_FROM_NAME", "DriveEase Rentals")
	v.SetDefault("APP_BASE_URL", "http://localhost:8080")
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("CURRENCY", "LKR")
	v.SetDefault("CANCELLATION_POLICY", "admin_approval")
	v.SetDefault("CARD_DECLINE_SUFFIX", "0000")
	v.SetDefault("PAYMENT_TXN_PREFIX", "TXN")
	v.SetDefault("REFUND_TXN_PREFIX", "RFD")
	v.SetDefault("TIMEZONE", "Asia/Colombo")
	v.SetDefault("REMINDER_CRON", "0 7 * * *")

	cfg := &ServiceConfig{
		Port:        config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:      config.GetAppEnv(v),
		DBConfig:    config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:   config.LoadJWTConfig(v),
		KafkaConfig: config.LoadKafkaConfig(v),
		RedisConfig: config.LoadRedisConfig(v),
		Storage: StorageConfig{
			Provider:  v.GetString("STORAGE_PROVIDER"),
			LocalDir:  v.GetString("STORAGE_LOCAL_DIR"),
			PublicURL: v.GetString("STORAGE_PUBLIC_URL"),
			S3Bucket:  v.GetString("S3_BUCKET"),
			S3Region:  v.GetString("S3_REGION"),
		},
		Mail: MailConfig{
			SendGridAPIKey: v.GetString("SENDGRID_API_KEY"),
			FromEmail:      v.GetString("MAIL_FROM_EMAIL"),
			FromName:       v.GetString("MAIL_FROM_NAME"),
			AppBaseURL:     v.GetString("APP_BASE_URL"),
		},
		SMS: SMSConfig{
			AccountSID: v.GetString("TWILIO_ACCOUNT_SID"),
			AuthToken:  v.GetString("TWILIO_AUTH_TOKEN"),
			FromNumber: v.GetString("TWILIO_FROM_NUMBER"),
		},
		Admin: AdminBootstrap{
			Username: v.GetString("ADMIN_USERNAME"),
			Password: v.GetString("ADMIN_PASSWORD"),
		},
		Policy: RentalPolicy{
			Currency:           v.GetString("CURRENCY"),
			CancellationPolicy: v.GetString("CANCELLATION_POLICY"),
			CardDeclineSuffix:  v.GetString("CARD_DECLINE_SUFFIX"),
			PaymentTxnPrefix:   v.GetString("PAYMENT_TXN_PREFIX"),
			RefundTxnPrefix:    v.GetString("REFUND_TXN_PREFIX"),
			Timezone:           v.GetString("TIMEZONE"),
		},
		ReminderCron: v.GetString("REMINDER_CRON"),
	}

	if cfg.Storage.Provider == "local" && cfg.Storage.PublicURL == "" {
		cfg.Storage.PublicURL = "/uploads"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ServiceConfig) validate() error {
	if c.JWTConfig.Secret == "" {
		return fmt.Errorf("RENTAL_JWT_SECRET is required")
	}
	if c.Admin.Password == "" && c.AppEnv != "development" {
		return fmt.Errorf("RENTAL_ADMIN_PASSWORD is required outside development")
	}
	switch c.Policy.CancellationPolicy {
	case "admin_approval", "direct":
	default:
		return fmt.Errorf("unknown cancellation policy %q", c.Policy.CancellationPolicy)
	}
	switch c.Storage.Provider {
	case "local":
	case "s3":
		if c.Storage.S3Bucket == "" || c.Storage.S3Region == "" {
			return fmt.Errorf("s3 storage needs RENTAL_S3_BUCKET and RENTAL_S3_REGION")
		}
	default:
		return fmt.Errorf("unknown storage provider %q", c.Storage.Provider)
	}
	return nil
}
