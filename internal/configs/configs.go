/*
Package configs is responsible for loading and parsing the application's configuration settings.

It configures server parameters by reading operating system environment variables
(optionally preloaded from a .env file), including the running environment, port,
data directory for the JSON stores, CORS allowed origins, new-visitor defaults,
and the payment provider connection settings.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig contains all configuration parameters required for the application to run.
// All configuration values are loaded from environment variables.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int

	// DataDir is the directory holding the persisted users.json and rooms.json resources.
	DataDir string

	// Security Settings
	AllowedOrigins []string

	// New Visitor Defaults
	DefaultNickname string
	DefaultCoupons  int

	// Payment Provider Settings
	PaymentAPIBaseURL string
	PaymentSecretKey  string
}

// LoadConfig reads and parses the application configuration from environment variables.
// A .env file in the working directory is loaded first when present. Each configuration
// item has a development default; production requires the payment secret explicitly.
// It returns a pointer to the AppConfig struct and any error encountered.
func LoadConfig() (*AppConfig, error) {
	// Missing .env is fine; the environment may be configured externally.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	// --- General Server Settings ---
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT environment variable: %w", err)
	}
	cfg.Port = port

	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	// --- Storage Settings ---
	cfg.DataDir = os.Getenv("DATA_DIR")
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}

	// --- Security Settings ---
	originsStr := os.Getenv("ALLOWED_ORIGINS")
	if originsStr != "" {
		origins := strings.Split(originsStr, ",")
		for _, origin := range origins {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{}
	}

	// --- New Visitor Defaults ---
	cfg.DefaultNickname = os.Getenv("DEFAULT_NICKNAME")
	if cfg.DefaultNickname == "" {
		cfg.DefaultNickname = "Guest_Mars"
	}

	couponsStr := os.Getenv("DEFAULT_COUPONS")
	if couponsStr == "" {
		couponsStr = "10"
	}
	coupons, err := strconv.Atoi(couponsStr)
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_COUPONS environment variable: %w", err)
	}
	if coupons < 0 {
		return nil, fmt.Errorf("DEFAULT_COUPONS must not be negative, got %d", coupons)
	}
	cfg.DefaultCoupons = coupons

	// --- Payment Provider Settings ---
	cfg.PaymentAPIBaseURL = os.Getenv("PAYMENT_API_BASE_URL")
	if cfg.PaymentAPIBaseURL == "" {
		cfg.PaymentAPIBaseURL = "https://api.tosspayments.com"
	}

	cfg.PaymentSecretKey = os.Getenv("PAYMENT_SECRET_KEY")
	if cfg.PaymentSecretKey == "" {
		if cfg.Environment == "development" {
			cfg.PaymentSecretKey = "test_gsk_docs_OaPz8L5KdmQXkzRz3y47BMw6"
		} else {
			return nil, fmt.Errorf("PAYMENT_SECRET_KEY environment variable is required in %s environment", cfg.Environment)
		}
	}

	return cfg, nil
}
