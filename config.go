package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Mail drivers accepted in MAIL_DRIVER.
const (
	mailDriverSMTP = "smtp"
	mailDriverLog  = "log"
)

// Config holds everything the server reads from the environment. It is built
// once at startup and passed down; handlers never call os.Getenv.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	// Operator mailbox. Used both to authenticate to the SMTP server and as
	// the from/to address of every relayed message.
	MailUser     string        `env:"GMAIL_USER"`
	MailPassword string        `env:"GMAIL_PASS"`
	SMTPHost     string        `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort     string        `env:"SMTP_PORT" envDefault:"587"`
	MailDriver   string        `env:"MAIL_DRIVER" envDefault:"smtp"`
	MailTimeout  time.Duration `env:"MAIL_TIMEOUT" envDefault:"15s"`

	RelayPath      string  `env:"RELAY_PATH" envDefault:"/functions/v1/send-email"`
	RelayAPIKey    string  `env:"RELAY_API_KEY"`
	RelayRateLimit float64 `env:"RELAY_RATE_LIMIT" envDefault:"0"` // requests per minute, 0 disables
	RelayRateBurst int     `env:"RELAY_RATE_BURST" envDefault:"5"`

	DatabasePath  string `env:"DATABASE_PATH" envDefault:"portfolio.db"`
	AdminUsername string `env:"ADMIN_USERNAME"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	LogFile       string `env:"LOG_FILE"`
	LogMaxSize    int    `env:"LOG_MAX_SIZE" envDefault:"10"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"3"`
	LogMaxAge     int    `env:"LOG_MAX_AGE" envDefault:"28"`
}

// loadConfig parses the process environment. Missing mail credentials are not
// an error here; they surface as a failed dispatch when a message is relayed.
func loadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.MailDriver {
	case mailDriverSMTP, mailDriverLog:
	default:
		return fmt.Errorf("invalid MAIL_DRIVER %q (want %q or %q)", c.MailDriver, mailDriverSMTP, mailDriverLog)
	}
	if c.MailTimeout <= 0 {
		return fmt.Errorf("MAIL_TIMEOUT must be positive, got %s", c.MailTimeout)
	}
	if c.RelayRateLimit < 0 {
		return fmt.Errorf("RELAY_RATE_LIMIT must be non-negative")
	}
	if c.RelayRateLimit > 0 && c.RelayRateBurst <= 0 {
		return fmt.Errorf("RELAY_RATE_BURST must be positive when rate limiting is enabled")
	}
	if c.RelayPath == "" || c.RelayPath[0] != '/' {
		return fmt.Errorf("RELAY_PATH must start with '/', got %q", c.RelayPath)
	}
	return nil
}

// adminEnabled reports whether admin login is possible at all.
func (c *Config) adminEnabled() bool {
	return c.AdminUsername != "" && c.AdminPassword != ""
}
