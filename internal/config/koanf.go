// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/marquee/internal/badge"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/marquee/config.yaml",
	"/etc/marquee/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       2 * time.Minute,
			ShutdownTimeout:   15 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 120,
			RateLimitWindow:   time.Minute,
		},
		Plex: PlexConfig{
			URL:      "http://localhost:32400",
			Timeout:  30 * time.Second,
			PageSize: 200,
		},
		Providers: ProvidersConfig{
			TMDB:          ProviderConfig{Interval: 250 * time.Millisecond},
			OMDb:          ProviderConfig{Interval: 250 * time.Millisecond},
			MDBList:       ProviderConfig{Interval: time.Second},
			Timeout:       15 * time.Second,
			CacheTTL:      6 * time.Hour,
			SweepInterval: 10 * time.Minute,
		},
		Processing: ProcessingConfig{
			ItemDelay:    300 * time.Millisecond, // Plex and the providers both throttle bursts
			RestoreDelay: 100 * time.Millisecond,
			BackupDir:    "data/backups",
			LogoDir:      "assets/logos",
			FontDir:      "assets/fonts",
			JPEGQuality:  badge.DefaultJPEGQuality,
		},
		Style: badge.DefaultSpec(),
		Schedule: ScheduleConfig{
			Enabled: false,
			Cron:    "0 3 * * *",
		},
		Webhook: WebhookConfig{
			Enabled:    false,
			Window:     30 * time.Second,
			RetryDelay: time.Minute,
		},
		Settings: SettingsConfig{
			Path: "data/settings",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// LoadWithKoanf loads configuration in layers:
//
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func LoadWithKoanf() (*Config, error) {
	return load(findConfigFile())
}

// LoadFile is LoadWithKoanf with an explicit config file. An empty path
// skips the file layer.
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// PLEX_URL -> plex.url, TMDB_API_KEY -> providers.tmdb.api_key
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// ConfigFile returns the file LoadWithKoanf reads, or "" when none exists.
func ConfigFile() string {
	return findConfigFile()
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"server.cors_origins",
	"style.sources",
	"schedule.libraries",
	"webhook.libraries",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		// An explicitly empty variable clears the list.
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"cors_origins":          "server.cors_origins",
	"rate_limit_requests":   "server.rate_limit_requests",
	"rate_limit_window":     "server.rate_limit_window",
	"disable_rate_limit":    "server.rate_limit_disabled",

	// Plex
	"plex_url":            "plex.url",
	"plex_token":          "plex.token",
	"plex_timeout":        "plex.timeout",
	"plex_page_size":      "plex.page_size",
	"plex_webhook_secret": "plex.webhook_secret",

	// Rating providers
	"tmdb_api_key":            "providers.tmdb.api_key",
	"tmdb_base_url":           "providers.tmdb.base_url",
	"tmdb_interval":           "providers.tmdb.interval",
	"omdb_api_key":            "providers.omdb.api_key",
	"omdb_base_url":           "providers.omdb.base_url",
	"omdb_interval":           "providers.omdb.interval",
	"mdblist_api_key":         "providers.mdblist.api_key",
	"mdblist_base_url":        "providers.mdblist.base_url",
	"mdblist_interval":        "providers.mdblist.interval",
	"provider_timeout":        "providers.timeout",
	"provider_cache_ttl":      "providers.cache_ttl",
	"provider_sweep_interval": "providers.sweep_interval",

	// Processing
	"rate_limit_delay": "processing.item_delay",
	"restore_delay":    "processing.restore_delay",
	"backup_dir":       "processing.backup_dir",
	"logo_dir":         "processing.logo_dir",
	"font_dir":         "processing.font_dir",
	"output_format":    "processing.output_format",
	"jpeg_quality":     "processing.jpeg_quality",

	// Default badge style
	"badge_sources":    "style.sources",
	"badge_font":       "style.font",
	"badge_color":      "style.color",
	"badge_opacity":    "style.opacity",
	"badge_font_scale": "style.font_scale",
	"badge_logo_scale": "style.logo_scale",

	// Schedule
	"schedule_enabled":   "schedule.enabled",
	"schedule_cron":      "schedule.cron",
	"schedule_libraries": "schedule.libraries",
	"schedule_force":     "schedule.force",
	"schedule_timezone":  "schedule.timezone",

	// Webhook
	"webhook_enabled":     "webhook.enabled",
	"webhook_window":      "webhook.window",
	"webhook_retry_delay": "webhook.retry_delay",
	"webhook_libraries":   "webhook.libraries",

	// Settings store
	"settings_path": "settings.path",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Supervisor
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - PLEX_URL -> plex.url
//   - TMDB_API_KEY -> providers.tmdb.api_key
//   - RATE_LIMIT_DELAY -> processing.item_delay
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}

	// Unmapped keys are skipped so unrelated environment variables never
	// reach the config.
	return ""
}

// WatchConfigFile calls callback whenever the file at path changes. The
// caller is responsible for reloading and swapping the configuration.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)

	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
