package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates runtime configuration for the visitlog services.
type Config struct {
	Environment    string
	HTTPPort       int
	LogLevel       string
	LogFormat      string
	AllowedOrigins []string

	// GoogleServiceAccountJSON is the raw service-account key file. It is
	// parsed per request by ParseServiceAccount, not at startup.
	GoogleServiceAccountJSON string
	GoogleSheetID            string
	GoogleTokenURL           string
	GoogleSheetsEndpoint     string

	// OutboundTimeout bounds calls to Google. Zero means no client timeout;
	// requests still end with the inbound request context.
	OutboundTimeout time.Duration
	DebugEndpoints  bool
}

// Load reads configuration from environment variables with sensible defaults
// for local development and validates it for serving HTTP traffic.
func Load() (Config, error) {
	cfg, err := Read()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Read parses the environment without the server checks applied by Validate.
// Tools that override values after loading validate what they need themselves.
func Read() (Config, error) {
	serviceAccount, err := getEnvOrFile("GOOGLE_SERVICE_ACCOUNT_JSON", "/run/secrets/visitlog_google_service_account")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Environment:              strings.ToLower(getEnv("APP_ENV", "development")),
		LogLevel:                 strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:                strings.ToLower(getEnv("LOG_FORMAT", "text")),
		AllowedOrigins:           parseCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080")),
		GoogleServiceAccountJSON: serviceAccount,
		GoogleSheetID:            strings.TrimSpace(os.Getenv("GOOGLE_SHEET_ID")),
		GoogleTokenURL:           strings.TrimSpace(os.Getenv("GOOGLE_TOKEN_URL")),
		GoogleSheetsEndpoint:     strings.TrimSpace(os.Getenv("GOOGLE_SHEETS_ENDPOINT")),
	}

	portValue := getEnv("PORT", getEnv("HTTP_PORT", "8080"))
	port, err := strconv.Atoi(portValue)
	if err != nil {
		return Config{}, fmt.Errorf("invalid port %q: %w", portValue, err)
	}
	cfg.HTTPPort = port

	if raw := strings.TrimSpace(os.Getenv("OUTBOUND_TIMEOUT")); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil || timeout < 0 {
			return Config{}, fmt.Errorf("invalid OUTBOUND_TIMEOUT %q", raw)
		}
		cfg.OutboundTimeout = timeout
	}

	debugDefault := strconv.FormatBool(cfg.IsDevelopment())
	debug, err := strconv.ParseBool(getEnv("DEBUG_ENDPOINTS", debugDefault))
	if err != nil {
		return Config{}, fmt.Errorf("invalid DEBUG_ENDPOINTS: %w", err)
	}
	cfg.DebugEndpoints = debug

	return cfg, nil
}

// Validate applies the checks the HTTP server needs outside development.
func (c Config) Validate() error {
	if c.IsDevelopment() {
		return nil
	}
	if len(c.AllowedOrigins) == 0 {
		return errors.New("ALLOWED_ORIGINS must define at least one origin outside development")
	}
	for _, origin := range c.AllowedOrigins {
		if origin == "*" {
			return errors.New("ALLOWED_ORIGINS cannot contain wildcard outside development")
		}
	}
	if c.GoogleSheetID == "" {
		return errors.New("GOOGLE_SHEET_ID is required outside development")
	}
	return nil
}

// HTTPAddress returns the address the HTTP server should bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// IsDevelopment reports whether the service runs in the development environment.
func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// SheetsConfigured reports whether both the credential and the target sheet are present.
func (c Config) SheetsConfigured() bool {
	return strings.TrimSpace(c.GoogleServiceAccountJSON) != "" && c.GoogleSheetID != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvOrFile(key, defaultPath string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}

	fileKey := key + "_FILE"
	if path := os.Getenv(fileKey); path != "" {
		return readSecret(path, fileKey)
	}

	if defaultPath != "" {
		return readSecret(defaultPath, key)
	}

	return "", nil
}

func readSecret(path, name string) (string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("config: reading %s (%s): %w", name, path, err)
	}

	value := strings.TrimSpace(string(contents))
	if value == "" {
		return "", fmt.Errorf("config: %s (%s) is empty", name, path)
	}
	return value, nil
}
