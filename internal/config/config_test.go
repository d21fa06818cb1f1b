package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() unexpected error: %v", err)
	}

	want := Config{
		Host:               defaultHost,
		Port:               defaultPort,
		HostKeyPath:        defaultHostKeyPath,
		IdleTimeout:        defaultIdleTimeout,
		MaxSessions:        defaultMaxSessions,
		RateLimitPerMinute: defaultRateLimitPerMinute,
		RateLimitBurst:     defaultRateLimitBurst,
		CatalogPath:        defaultCatalogPath,
		CatalogDebounce:    defaultCatalogDebounce,
		DevicePixelRatio:   defaultDevicePixelRatio,
		ColorScheme:        ColorSchemeAuto,
		LogLevel:           defaultLogLevel,
	}
	if cfg != want {
		t.Fatalf("LoadFromEnv() = %+v, want %+v", cfg, want)
	}
	if cfg.Address() != "0.0.0.0:2222" {
		t.Fatalf("Address() = %q", cfg.Address())
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("PICTURE_SSH_HOST", "127.0.0.1")
	t.Setenv("PICTURE_SSH_PORT", "2022")
	t.Setenv("PICTURE_SSH_IDLE_TIMEOUT", "30s")
	t.Setenv("PICTURE_HTTP_ADDR", " :8080 ")
	t.Setenv("PICTURE_CATALOG_PATH", "./pictures/catalog.yaml")
	t.Setenv("PICTURE_DEVICE_PIXEL_RATIO", "1.5")
	t.Setenv("PICTURE_COLOR_SCHEME", "DARK")
	t.Setenv("PICTURE_LOG_LEVEL", "debug")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() unexpected error: %v", err)
	}
	if cfg.Address() != "127.0.0.1:2022" {
		t.Fatalf("Address() = %q", cfg.Address())
	}
	if cfg.IdleTimeout != 30*time.Second {
		t.Fatalf("IdleTimeout = %s", cfg.IdleTimeout)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.CatalogPath != "pictures/catalog.yaml" {
		t.Fatalf("CatalogPath = %q", cfg.CatalogPath)
	}
	if cfg.DevicePixelRatio != 1.5 {
		t.Fatalf("DevicePixelRatio = %v", cfg.DevicePixelRatio)
	}
	if cfg.ColorScheme != ColorSchemeDark || cfg.LogLevel != "debug" {
		t.Fatalf("ColorScheme = %q LogLevel = %q", cfg.ColorScheme, cfg.LogLevel)
	}
}

func TestLoadFromEnvRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "port not a number", key: "PICTURE_SSH_PORT", value: "not-a-number"},
		{name: "port out of range", key: "PICTURE_SSH_PORT", value: "70000"},
		{name: "whitespace host", key: "PICTURE_SSH_HOST", value: "   "},
		{name: "host key is cwd", key: "PICTURE_SSH_HOST_KEY_PATH", value: "."},
		{name: "idle timeout", key: "PICTURE_SSH_IDLE_TIMEOUT", value: "not-duration"},
		{name: "negative idle timeout", key: "PICTURE_SSH_IDLE_TIMEOUT", value: "-1s"},
		{name: "zero sessions", key: "PICTURE_SSH_MAX_SESSIONS", value: "0"},
		{name: "zero rate limit", key: "PICTURE_SSH_RATE_LIMIT_PER_MINUTE", value: "0"},
		{name: "zero burst", key: "PICTURE_SSH_RATE_LIMIT_BURST", value: "0"},
		{name: "empty catalog", key: "PICTURE_CATALOG_PATH", value: ""},
		{name: "debounce", key: "PICTURE_CATALOG_DEBOUNCE", value: "soon"},
		{name: "pixel ratio text", key: "PICTURE_DEVICE_PIXEL_RATIO", value: "retina"},
		{name: "pixel ratio range", key: "PICTURE_DEVICE_PIXEL_RATIO", value: "0"},
		{name: "color scheme", key: "PICTURE_COLOR_SCHEME", value: "sepia"},
		{name: "log level", key: "PICTURE_LOG_LEVEL", value: "loud"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := LoadFromEnv()
			if err == nil {
				t.Fatalf("LoadFromEnv() expected error for %s=%q", tc.key, tc.value)
			}
			if !strings.Contains(err.Error(), tc.key) {
				t.Fatalf("error %q does not name %s", err, tc.key)
			}
		})
	}
}
