package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const insecureDefaultSecret = "supersecretkey"

type Config struct {
	Addr          string        `env:"JOBTRAIL_ADDR" envDefault:":5000" yaml:"addr"`
	Env           string        `env:"JOBTRAIL_ENV" envDefault:"development" yaml:"env"`
	JWTSecret     string        `env:"JOBTRAIL_JWT_SECRET" envDefault:"supersecretkey" yaml:"jwt_secret"`
	APITimeout    time.Duration `env:"JOBTRAIL_API_TIMEOUT" envDefault:"15s" yaml:"timeout"`
	TokenDuration time.Duration `env:"JOBTRAIL_TOKEN_DURATION" envDefault:"1h" yaml:"token_duration"`
	DatabasePath  string        `env:"JOBTRAIL_DATABASE_PATH" envDefault:"jobtrail.db" yaml:"database_path"`
	UploadDir     string        `env:"JOBTRAIL_UPLOAD_DIR" envDefault:"uploads" yaml:"upload_dir"`
	SMTP          SMTPConfig    `yaml:"smtp"`
}

type SMTPConfig struct {
	Host     string `env:"JOBTRAIL_SMTP_HOST" yaml:"host"`
	Port     int    `env:"JOBTRAIL_SMTP_PORT" envDefault:"587" yaml:"port"`
	Username string `env:"JOBTRAIL_SMTP_USER" yaml:"username"`
	Password string `env:"JOBTRAIL_SMTP_PASS" yaml:"password"`
	From     string `env:"JOBTRAIL_SMTP_FROM" yaml:"from"`
}

// LoadConfig builds the configuration from the environment (a .env file is
// loaded first when present) and optionally overlays a YAML file on top.
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(".env"); !os.IsNotExist(err) {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load .env file: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks the configuration for values that must not reach a
// non-development deployment.
func (c *Config) Validate() error {
	if c.JWTSecret == insecureDefaultSecret && c.Env != "development" {
		return fmt.Errorf("refusing to run with the default JWT secret outside development")
	}
	if c.TokenDuration <= 0 {
		return fmt.Errorf("token_duration must be positive")
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UploadDir == "" {
		return fmt.Errorf("upload_dir must not be empty")
	}
	return nil
}
