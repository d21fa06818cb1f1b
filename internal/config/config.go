package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHost               = "0.0.0.0"
	defaultPort               = 2222
	defaultHostKeyPath        = ".data/host_ed25519"
	defaultIdleTimeout        = 120 * time.Second
	defaultMaxSessions        = 32
	defaultRateLimitPerMinute = 30
	defaultRateLimitBurst     = 10
	defaultCatalogPath        = "catalog.yaml"
	defaultCatalogDebounce    = 250 * time.Millisecond
	defaultDevicePixelRatio   = 2
	defaultColorScheme        = ColorSchemeAuto
	defaultLogLevel           = "info"
	maximumConfiguredSessions = 1024
)

// Color scheme settings. Auto asks the client terminal for its background.
const (
	ColorSchemeAuto  = "auto"
	ColorSchemeLight = "light"
	ColorSchemeDark  = "dark"
)

// Config captures startup settings for the picture server.
type Config struct {
	Host               string
	Port               int
	HostKeyPath        string
	IdleTimeout        time.Duration
	MaxSessions        int
	RateLimitPerMinute int
	RateLimitBurst     int
	HTTPAddr           string
	CatalogPath        string
	CatalogDebounce    time.Duration
	DevicePixelRatio   float64
	ColorScheme        string
	LogLevel           string
}

// Address returns the SSH listen address.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadFromEnv loads runtime configuration from environment variables.
func LoadFromEnv() (Config, error) {
	host, err := readRequiredOrDefault("PICTURE_SSH_HOST", defaultHost)
	if err != nil {
		return Config{}, err
	}

	port, err := readInt("PICTURE_SSH_PORT", defaultPort, 1, 65535)
	if err != nil {
		return Config{}, err
	}

	hostKeyPath, err := readRequiredOrDefault("PICTURE_SSH_HOST_KEY_PATH", defaultHostKeyPath)
	if err != nil {
		return Config{}, err
	}
	cleanHostKeyPath := filepath.Clean(hostKeyPath)
	if cleanHostKeyPath == "." {
		return Config{}, fmt.Errorf("PICTURE_SSH_HOST_KEY_PATH must not resolve to current directory")
	}

	idleTimeout, err := readDuration("PICTURE_SSH_IDLE_TIMEOUT", defaultIdleTimeout)
	if err != nil {
		return Config{}, err
	}

	maxSessions, err := readInt("PICTURE_SSH_MAX_SESSIONS", defaultMaxSessions, 1, maximumConfiguredSessions)
	if err != nil {
		return Config{}, err
	}

	rateLimitPerMinute, err := readInt("PICTURE_SSH_RATE_LIMIT_PER_MINUTE", defaultRateLimitPerMinute, 1, 10000)
	if err != nil {
		return Config{}, err
	}

	rateLimitBurst, err := readInt("PICTURE_SSH_RATE_LIMIT_BURST", defaultRateLimitBurst, 1, 1000)
	if err != nil {
		return Config{}, err
	}

	httpAddr := strings.TrimSpace(os.Getenv("PICTURE_HTTP_ADDR"))

	catalogPath, err := readRequiredOrDefault("PICTURE_CATALOG_PATH", defaultCatalogPath)
	if err != nil {
		return Config{}, err
	}

	catalogDebounce, err := readDuration("PICTURE_CATALOG_DEBOUNCE", defaultCatalogDebounce)
	if err != nil {
		return Config{}, err
	}

	devicePixelRatio, err := readFloat("PICTURE_DEVICE_PIXEL_RATIO", defaultDevicePixelRatio, 0.5, 8)
	if err != nil {
		return Config{}, err
	}

	colorScheme, err := readEnum("PICTURE_COLOR_SCHEME", defaultColorScheme, ColorSchemeAuto, ColorSchemeLight, ColorSchemeDark)
	if err != nil {
		return Config{}, err
	}

	logLevel, err := readEnum("PICTURE_LOG_LEVEL", defaultLogLevel, "debug", "info", "warn", "error")
	if err != nil {
		return Config{}, err
	}

	return Config{
		Host:               host,
		Port:               port,
		HostKeyPath:        cleanHostKeyPath,
		IdleTimeout:        idleTimeout,
		MaxSessions:        maxSessions,
		RateLimitPerMinute: rateLimitPerMinute,
		RateLimitBurst:     rateLimitBurst,
		HTTPAddr:           httpAddr,
		CatalogPath:        filepath.Clean(catalogPath),
		CatalogDebounce:    catalogDebounce,
		DevicePixelRatio:   devicePixelRatio,
		ColorScheme:        colorScheme,
		LogLevel:           logLevel,
	}, nil
}

func readRequiredOrDefault(key, fallback string) (string, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%s must not be empty", key)
	}

	return raw, nil
}

func readInt(key string, fallback, min, max int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	if parsed < min || parsed > max {
		return 0, fmt.Errorf("%s must be between %d and %d", key, min, max)
	}

	return parsed, nil
}

func readFloat(key string, fallback, min, max float64) (float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	if parsed < min || parsed > max {
		return 0, fmt.Errorf("%s must be between %g and %g", key, min, max)
	}

	return parsed, nil
}

func readDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return parsed, nil
}

func readEnum(key, fallback string, allowed ...string) (string, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	v := strings.ToLower(strings.TrimSpace(raw))
	for _, a := range allowed {
		if v == a {
			return v, nil
		}
	}
	return "", fmt.Errorf("%s must be one of %s", key, strings.Join(allowed, ", "))
}
