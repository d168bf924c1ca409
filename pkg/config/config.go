// Package config loads runtime settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Auth modes.
const (
	AuthModeJWT      = "jwt"
	AuthModeFirebase = "firebase"
)

type Config struct {
	Port                    string `mapstructure:"PORT"`
	Env                     string `mapstructure:"ENV"`
	MongoURI                string `mapstructure:"MONGO_URI"`
	MongoDatabase           string `mapstructure:"MONGO_DATABASE"`
	PostgresURL             string `mapstructure:"POSTGRES_URL"`
	RedisURL                string `mapstructure:"REDIS_URL"`
	AuthMode                string `mapstructure:"AUTH_MODE"`
	JWTSecret               string `mapstructure:"JWT_SECRET"`
	FirebaseCredentialsPath string `mapstructure:"FIREBASE_CREDENTIALS_PATH"`
	FirebaseProjectID       string `mapstructure:"FIREBASE_PROJECT_ID"`
	FirebaseCheckRevoked    bool   `mapstructure:"FIREBASE_CHECK_REVOKED"`
	AllowedOrigins          string `mapstructure:"ALLOWED_ORIGINS"`
	MetricsPort             string `mapstructure:"METRICS_PORT"`
	OTLPEndpoint            string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	RealtimePath            string `mapstructure:"REALTIME_PATH"`
	BanThreshold            int    `mapstructure:"BAN_THRESHOLD"`
	LogLevel                string `mapstructure:"LOG_LEVEL"`
	VisionCredentialsPath   string `mapstructure:"VISION_CREDENTIALS_PATH"`
}

var defaults = map[string]interface{}{
	"PORT":                        "8080",
	"ENV":                         "development",
	"MONGO_URI":                   "",
	"MONGO_DATABASE":              "socialmedia",
	"POSTGRES_URL":                "",
	"REDIS_URL":                   "",
	"AUTH_MODE":                   AuthModeJWT,
	"JWT_SECRET":                  "",
	"FIREBASE_CREDENTIALS_PATH":   "",
	"FIREBASE_PROJECT_ID":         "",
	"FIREBASE_CHECK_REVOKED":      false,
	"ALLOWED_ORIGINS":             "http://localhost:5173",
	"METRICS_PORT":                "9090",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "",
	"REALTIME_PATH":               "/socket",
	"BAN_THRESHOLD":               3,
	"LOG_LEVEL":                   "info",
	"VISION_CREDENTIALS_PATH":     "",
}

// Load reads .env when present, then the process environment, applies
// defaults and validates the result.
func Load() (*Config, error) {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks required values for the selected auth mode.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.MongoURI == "" {
		return errors.New("MONGO_URI is required")
	}
	if c.BanThreshold < 1 {
		return errors.New("BAN_THRESHOLD must be at least 1")
	}
	switch c.AuthMode {
	case AuthModeJWT:
		if c.JWTSecret == "" {
			return errors.New("JWT_SECRET is required when AUTH_MODE is jwt")
		}
		if c.IsProduction() && len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
	case AuthModeFirebase:
		if c.FirebaseCredentialsPath == "" {
			return errors.New("FIREBASE_CREDENTIALS_PATH is required when AUTH_MODE is firebase")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be %q or %q, got %q", AuthModeJWT, AuthModeFirebase, c.AuthMode)
	}
	if c.RealtimePath != "" && !strings.HasPrefix(c.RealtimePath, "/") {
		return errors.New("REALTIME_PATH must start with /")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Origins splits ALLOWED_ORIGINS on commas.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
