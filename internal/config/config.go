// Package config loads the process configuration from environment
// variables, validates it, and materialises the database TLS root
// certificate.
//
// Configuration is read ONCE at startup into an immutable struct that gets
// passed to the components that need it, nothing reads ambient env vars
// after Load returns.
package config

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port        int
	FrontendURL string // allowed CORS origin
	LogLevel    slog.Level

	// Database. DatabaseURL is the final DSN, if a root certificate was
	// provided, the sslrootcert parameter has already been appended.
	DatabaseURL string

	// Auth
	JWTSecret string
	TokenTTL  time.Duration

	// External services
	WikiAPIURL   string // empty selects the default endpoint
	GeminiAPIKey string // empty disables tag generation
	GeminiModel  string // empty selects the default model
}

// Load reads configuration from environment variables.
//
// Required: DATABASE_URL, JWT_SECRET. Everything else has a default or is
// optional. DB_ROOT_CERT, when present, is base64-encoded PEM, managed
// postgres providers hand certificates around this way because env vars
// can't hold newlines comfortably. It is decoded and written to a file in
// the temp directory, and the DSN gets an sslrootcert pointing at it.
func Load() (*Config, error) {
	cfg := &Config{
		Port:         8080,
		FrontendURL:  getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		TokenTTL:     30 * time.Minute,
		WikiAPIURL:   os.Getenv("WIKI_API_URL"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  os.Getenv("GEMINI_MODEL"),
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("config: invalid PORT %q: %w", portStr, err)
		}
		cfg.Port = port
	}

	if ttlStr := os.Getenv("TOKEN_TTL_MINUTES"); ttlStr != "" {
		minutes, err := strconv.Atoi(ttlStr)
		if err != nil {
			return nil, fmt.Errorf("config: invalid TOKEN_TTL_MINUTES %q: %w", ttlStr, err)
		}
		cfg.TokenTTL = time.Duration(minutes) * time.Minute
	}

	switch strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")) {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "info":
		cfg.LogLevel = slog.LevelInfo
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		return nil, fmt.Errorf("config: unknown LOG_LEVEL %q", os.Getenv("LOG_LEVEL"))
	}

	if cert := os.Getenv("DB_ROOT_CERT"); cert != "" {
		certPath, err := writeRootCert(cert)
		if err != nil {
			return nil, err
		}
		cfg.DatabaseURL = appendDSNParam(cfg.DatabaseURL, "sslrootcert", certPath)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the required fields.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config: DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: port out of range: %d", c.Port)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("config: token TTL must be positive")
	}
	return nil
}

// writeRootCert decodes the base64 PEM and writes it where the postgres
// driver can read it. 0600: the cert is public material, but there's no
// reason for other users to read our temp files.
func writeRootCert(encoded string) (string, error) {
	pem, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("config: decoding DB_ROOT_CERT: %w", err)
	}

	certPath := filepath.Join(os.TempDir(), "root.crt")
	if err := os.WriteFile(certPath, pem, 0o600); err != nil {
		return "", fmt.Errorf("config: writing root certificate: %w", err)
	}

	return certPath, nil
}

// appendDSNParam appends a query parameter to a URL-style DSN, using ? or
// & depending on whether the DSN already has a query string.
func appendDSNParam(dsn, key, value string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + key + "=" + value
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
