// Copyright (c) 2026 Bloomify. All rights reserved.

/*
Package config maps the process environment into a typed [Config].

A local .env file is loaded first when present, then 'caarlos0/env' parses the
environment. Every secret (OTP HMAC key, AES key, flow-token key, JWT key
pair) reaches its component through a constructor parameter; nothing reads the
environment after startup.

Optional integrations (SMTP, Google OAuth, feedback spreadsheet, export
archive) are switched off when their settings are empty.
*/
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// # Configuration Schema

// Config holds all runtime configuration for the Bloomify API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Public base URL of the front-end, used for OAuth and flow redirects.
	AppBaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:3000"`

	// Relational Database (PostgreSQL)
	DatabaseURL   string `env:"DATABASE_URL,required"`
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Volatile state (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Chat documents (MongoDB)
	MongoURI      string `env:"MONGO_URI,required"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"bloomify"`

	// Signing and encryption keys
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH,required"`
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH,required"`
	FlowSecret     string `env:"FLOW_SECRET,required"`
	OTPSecret      string `env:"OTP_SECRET,required"`
	AESSecretKey   string `env:"AES_SECRET_KEY,required"`

	// Mail relay. Empty host falls back to logging in development.
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     string `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASS"`
	SMTPFrom     string `env:"SMTP_FROM"`

	// Google OAuth
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL"`

	// Inference service
	InferenceBaseURL string        `env:"INFERENCE_BASE_URL" envDefault:"http://localhost:8000"`
	InferenceTimeout time.Duration `env:"INFERENCE_TIMEOUT"  envDefault:"60s"`

	// Feedback spreadsheet (Google Sheets, service account)
	FeedbackSheetID       string `env:"FEEDBACK_SHEET_ID"`
	SheetsClientEmail     string `env:"GOOGLE_SERVICE_ACCOUNT_EMAIL"`
	SheetsPrivateKey      string `env:"GOOGLE_PRIVATE_KEY"`
	FeedbackFeaturesSheet string `env:"FEEDBACK_FEATURES_SHEET" envDefault:"Sheet1"`
	FeedbackGeneralSheet  string `env:"FEEDBACK_GENERAL_SHEET"  envDefault:"Sheet2"`

	// Export archive (S3-compatible)
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3Bucket    string `env:"S3_BUCKET" envDefault:"bloomify-exports"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`
	S3UseSSL    bool   `env:"S3_USE_SSL" envDefault:"true"`

	// Cross-Origin Resource Sharing
	AllowedOrigin string `env:"ALLOWED_ORIGIN"`
}

// # Configuration Loading

// Load reads an optional .env file, parses the environment and validates the result.
func Load() (*Config, error) {

	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that struct tags cannot express.
func (c *Config) Validate() error {
	key, err := hex.DecodeString(c.AESSecretKey)
	if err != nil || len(key) != 32 {
		return errors.New("config: AES_SECRET_KEY must be 64 hex characters (32 bytes)")
	}
	if len(c.FlowSecret) < 32 {
		return errors.New("config: FLOW_SECRET must be at least 32 characters")
	}
	if len(c.OTPSecret) < 16 {
		return errors.New("config: OTP_SECRET must be at least 16 characters")
	}
	// Codes are only logged instead of mailed in development.
	if !c.SMTPEnabled() && !c.IsDevelopment() {
		return errors.New("config: SMTP_HOST is required outside development")
	}
	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// CORSOrigin returns the single browser origin allowed to call the API with credentials.
func (c *Config) CORSOrigin() string {
	if c.AllowedOrigin != "" {
		return c.AllowedOrigin
	}
	return c.AppBaseURL
}

// SMTPEnabled reports whether a mail relay is configured.
func (c *Config) SMTPEnabled() bool { return c.SMTPHost != "" }

// OAuthEnabled reports whether Google sign-in is configured.
func (c *Config) OAuthEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}

// FeedbackEnabled reports whether the feedback spreadsheet is configured.
func (c *Config) FeedbackEnabled() bool {
	return c.FeedbackSheetID != "" && c.SheetsClientEmail != "" && c.SheetsPrivateKey != ""
}

// ArchiveEnabled reports whether the export archive is configured.
func (c *Config) ArchiveEnabled() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}
