package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration, populated from the environment.
// Variables use the SAHAKUM_ prefix, e.g. SAHAKUM_DB_PATH.
type Config struct {
	Port    string `envconfig:"PORT" default:"8080"`
	DBPath  string `envconfig:"DB_PATH" default:"sahakum.db"`
	BaseURL string `envconfig:"BASE_URL" default:"http://localhost:8080"`

	JWTSecret string `envconfig:"JWT_SECRET"`

	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom     string `envconfig:"SMTP_FROM" default:"no-reply@sahakumkhmer.se"`

	AdminEmail    string `envconfig:"ADMIN_EMAIL" default:"admin@sahakumkhmer.se"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD" default:"changeme"`
}

// Load reads .env (if present) and parses the environment.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("sahakum", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SMTPConfigured reports whether outbound email can be sent.
func (c *Config) SMTPConfigured() bool {
	return c.SMTPHost != ""
}
