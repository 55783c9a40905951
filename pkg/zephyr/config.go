package zephyr

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"
)

const (
	// DefaultTimeout bounds every HTTP call against the Zephyr API.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRetries is the retry budget for transient failures.
	DefaultMaxRetries = 3
	// DefaultRetryDelay is the initial wait between retries.
	DefaultRetryDelay = time.Second
)

// Config holds the Zephyr connection settings. It is constructed once and
// never mutated afterwards; the client reads it at construction time only.
type Config struct {
	// Required.
	BaseURL  string
	APIToken string

	// Optional.
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	// Proxy settings. One proxy is used per client, preferring
	// HTTPSProxy, then SocksProxy, then HTTPProxy.
	HTTPProxy  string
	HTTPSProxy string
	SocksProxy string
	NoProxy    string

	// SSLVerify disables TLS certificate verification when false.
	SSLVerify bool

	// CustomHeaders are attached to every request.
	CustomHeaders map[string]string
}

// NewConfig returns a Config with defaults applied for the given endpoint
// and credential.
func NewConfig(baseURL, apiToken string) *Config {
	return &Config{
		BaseURL:    baseURL,
		APIToken:   apiToken,
		Timeout:    DefaultTimeout,
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
		SSLVerify:  true,
	}
}

// ConfigFromEnv builds a Config from ZEPHYR_* environment variables. The
// result is not validated here; NewClient rejects incomplete settings.
func ConfigFromEnv() *Config {
	cfg := NewConfig(os.Getenv("ZEPHYR_BASE_URL"), os.Getenv("ZEPHYR_API_TOKEN"))

	if v := os.Getenv("ZEPHYR_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.Timeout = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("ZEPHYR_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxRetries = n
		}
	}
	if v := os.Getenv("ZEPHYR_RETRY_DELAY"); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
			cfg.RetryDelay = time.Duration(secs * float64(time.Second))
		}
	}

	cfg.HTTPProxy = os.Getenv("ZEPHYR_HTTP_PROXY")
	cfg.HTTPSProxy = os.Getenv("ZEPHYR_HTTPS_PROXY")
	cfg.SocksProxy = os.Getenv("ZEPHYR_SOCKS_PROXY")
	cfg.NoProxy = os.Getenv("ZEPHYR_NO_PROXY")
	cfg.SSLVerify = parseBoolSetting(os.Getenv("ZEPHYR_SSL_VERIFY"), true)
	cfg.CustomHeaders = ParseCustomHeaders(os.Getenv("ZEPHYR_CUSTOM_HEADERS"))

	return cfg
}

// Validate checks that the required connection settings are present.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("zephyr configuration requires a base URL (ZEPHYR_BASE_URL)")
	}
	if c.APIToken == "" {
		return errors.New("zephyr configuration requires an API token (ZEPHYR_API_TOKEN)")
	}
	return nil
}

// ParseCustomHeaders decodes a JSON object of header name/value pairs.
// An invalid value is logged and ignored rather than failing startup.
func ParseCustomHeaders(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	headers := map[string]string{}
	if err := json.Unmarshal([]byte(raw), &headers); err != nil {
		slog.Warn("invalid ZEPHYR_CUSTOM_HEADERS format, ignoring", "error", err)
		return nil
	}
	return headers
}

func parseBoolSetting(raw string, fallback bool) bool {
	switch raw {
	case "":
		return fallback
	case "false", "0", "no", "off", "False", "FALSE":
		return false
	default:
		return true
	}
}
