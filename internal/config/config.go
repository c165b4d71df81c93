package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultSourceName    = "sensor"
	defaultKismetURL     = "http://localhost:2501"
	defaultHTTPAddr      = ":8099"
	defaultPollInterval  = 30 * time.Second
	defaultQueryTimeout  = 5 * time.Second
	defaultUploadTimeout = 10 * time.Second
	defaultUploadRetries = 3
	defaultUploadBackoff = 2 * time.Second
)

// Config stores runtime settings loaded once at startup. It is treated as
// immutable for the lifetime of the process.
type Config struct {
	SourceName string

	CollectorURL   string
	CollectorToken string

	KismetURL      string
	KismetUsername string
	KismetPassword string
	KismetAPIKey   string
	KismetDBPath   string

	PollInterval  time.Duration
	QueryTimeout  time.Duration
	UploadTimeout time.Duration
	UploadRetries int
	UploadBackoff time.Duration

	MaxAccessPoints int

	HTTPAddr  string
	OUIDBPath string
	LogLevel  slog.Level
	LogFormat string
}

// Load builds Config from environment variables using stable defaults.
func Load() Config {
	return Config{
		SourceName:      getenv("SOURCE_NAME", hostname()),
		CollectorURL:    getenv("COLLECTOR_URL", ""),
		CollectorToken:  getenv("COLLECTOR_TOKEN", ""),
		KismetURL:       getenv("KISMET_URL", defaultKismetURL),
		KismetUsername:  getenv("KISMET_USERNAME", ""),
		KismetPassword:  getenv("KISMET_PASSWORD", ""),
		KismetAPIKey:    getenv("KISMET_API_KEY", ""),
		KismetDBPath:    getenv("KISMET_DB_PATH", ""),
		PollInterval:    parseDuration("POLL_INTERVAL", defaultPollInterval),
		QueryTimeout:    parseDuration("QUERY_TIMEOUT", defaultQueryTimeout),
		UploadTimeout:   parseDuration("UPLOAD_TIMEOUT", defaultUploadTimeout),
		UploadRetries:   parseInt("UPLOAD_RETRIES", defaultUploadRetries),
		UploadBackoff:   parseDuration("UPLOAD_BACKOFF", defaultUploadBackoff),
		MaxAccessPoints: parseInt("AP_LIMIT", 0),
		HTTPAddr:        lookup("HTTP_ADDR", defaultHTTPAddr),
		OUIDBPath:       getenv("OUI_DB_PATH", ""),
		LogLevel:        parseLogLevel(getenv("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getenv("LOG_FORMAT", "json")),
	}
}

// Validate reports every setting that would keep the pipeline from running.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.SourceName) == "" {
		errs = append(errs, errors.New("SOURCE_NAME must not be empty"))
	}
	if err := validateHTTPURL("COLLECTOR_URL", c.CollectorURL); err != nil {
		errs = append(errs, err)
	}
	if c.KismetDBPath == "" {
		if err := validateHTTPURL("KISMET_URL", c.KismetURL); err != nil {
			errs = append(errs, err)
		}
	}
	if c.PollInterval <= 0 {
		errs = append(errs, errors.New("POLL_INTERVAL must be positive"))
	}
	if c.UploadRetries < 0 {
		errs = append(errs, errors.New("UPLOAD_RETRIES must not be negative"))
	}
	if c.MaxAccessPoints < 0 {
		errs = append(errs, errors.New("AP_LIMIT must not be negative"))
	}
	return errors.Join(errs...)
}

func validateHTTPURL(key, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", key)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", key, raw)
	}
	return nil
}

func getenv(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

// lookup is getenv that keeps an explicitly empty value.
func lookup(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func parseInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil || strings.TrimSpace(name) == "" {
		return defaultSourceName
	}
	return name
}
