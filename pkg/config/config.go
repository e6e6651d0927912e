package config

import (
	"fmt"

	"github.com/taxicoop/coopadmin/pkg/notification"
)

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host     string `env:"COOP_PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"COOP_PG_PORT" env-default:"5432"`
	Database string `env:"COOP_PG_DATABASE" env-default:"coopadmin_db"`
	User     string `env:"COOP_PG_USER" env-default:"coopadmin"`
	Password string `env:"COOP_PG_PASSWORD" env-default:"pwd"`
	Schema   string `env:"COOP_PG_SCHEMA" env-default:"public"`
}

// ToDatabaseURL converts the config to a PostgreSQL connection URL.
func (d DatabaseConfig) ToDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable&search_path=%s,public",
		d.User, d.Password, d.Host, d.Port, d.Database, d.Schema)
}

// EmailConfig holds SMTP email configuration.
type EmailConfig struct {
	Host     string `env:"EMAIL_HOST" env-default:"localhost"`
	Port     uint16 `env:"EMAIL_PORT" env-default:"1025"`
	Username string `env:"EMAIL_USERNAME" env-default:"noreply@example.com"`
	Password string `env:"EMAIL_PASSWORD" env-default:"pwd"`
	From     string `env:"EMAIL_FROM" env-default:"noreply@example.com"`
	TLS      bool   `env:"EMAIL_TLS" env-default:"false"`
}

// ToSMTPConfig converts the config to a notification.SMTPConfig.
func (e EmailConfig) ToSMTPConfig() notification.SMTPConfig {
	return notification.SMTPConfig{
		Host:     e.Host,
		Port:     int(e.Port),
		Username: e.Username,
		Password: e.Password,
		From:     e.From,
		TLS:      e.TLS,
	}
}

// SMSConfig holds SMS gateway credentials. SMS delivery is not wired yet;
// the config is read so deployments can set it ahead of time.
type SMSConfig struct {
	AccountSid string `env:"SMS_ACCOUNT_SID"`
	AuthToken  string `env:"SMS_AUTH_TOKEN"`
	From       string `env:"SMS_FROM"`
}

// IsConfigured returns true when all gateway credentials are present.
func (s SMSConfig) IsConfigured() bool {
	return s.AccountSid != "" && s.AuthToken != "" && s.From != ""
}

// ServerConfig holds the HTTP listener configuration.
type ServerConfig struct {
	Host string `env:"COOP_HTTP_HOST" env-default:"localhost"`
	Port uint16 `env:"COOP_HTTP_PORT" env-default:"4000"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// AuthConfig holds secrets for the password recovery session tokens.
type AuthConfig struct {
	ResetSessionSecret string `env:"RESET_SESSION_SECRET" env-default:"very-secure-reset-secret"`
}

// RateLimitConfig throttles the code send and verify endpoints per client
// IP, on top of the per-address daily quota the verification engine keeps.
type RateLimitConfig struct {
	Enabled       bool `env:"RATELIMIT_ENABLED" env-default:"true"`
	RequestLimit  int  `env:"RATELIMIT_REQUESTS" env-default:"10"`
	WindowSeconds int  `env:"RATELIMIT_WINDOW_SECONDS" env-default:"60"`
}

// Config aggregates the application configuration, filled from the
// environment by cleanenv.
type Config struct {
	DatabaseConfig  DatabaseConfig
	EmailConfig     EmailConfig
	SMSConfig       SMSConfig
	ServerConfig    ServerConfig
	AuthConfig      AuthConfig
	RateLimitConfig RateLimitConfig
}
