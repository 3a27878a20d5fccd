// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package config

import (
	"net"
	"strconv"
	"time"

	"github.com/tomtom215/marquee/internal/badge"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Plex       PlexConfig       `koanf:"plex"`
	Providers  ProvidersConfig  `koanf:"providers"`
	Processing ProcessingConfig `koanf:"processing"`
	Style      badge.Spec       `koanf:"style"`
	Schedule   ScheduleConfig   `koanf:"schedule"`
	Webhook    WebhookConfig    `koanf:"webhook"`
	Settings   SettingsConfig   `koanf:"settings"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CORSOrigins also gates WebSocket upgrades. "*" allows any origin.
	CORSOrigins []string `koanf:"cors_origins"`

	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// PlexConfig holds Plex Media Server connection settings
type PlexConfig struct {
	URL      string        `koanf:"url"`
	Token    string        `koanf:"token"`
	Timeout  time.Duration `koanf:"timeout"`
	PageSize int           `koanf:"page_size"`

	// WebhookSecret enables X-Plex-Signature checks when set.
	WebhookSecret string `koanf:"webhook_secret"`
}

// ProviderConfig is one external rating provider.
type ProviderConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`

	// Interval is the minimum spacing between requests to this provider.
	Interval time.Duration `koanf:"interval"`
}

// Enabled reports whether an API key is configured.
func (p ProviderConfig) Enabled() bool {
	return p.APIKey != ""
}

// ProvidersConfig holds the external rating providers
type ProvidersConfig struct {
	TMDB    ProviderConfig `koanf:"tmdb"`
	OMDb    ProviderConfig `koanf:"omdb"`
	MDBList ProviderConfig `koanf:"mdblist"`

	Timeout       time.Duration `koanf:"timeout"`
	CacheTTL      time.Duration `koanf:"cache_ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// ProcessingConfig tunes library runs and where files live
type ProcessingConfig struct {
	ItemDelay    time.Duration `koanf:"item_delay"`
	RestoreDelay time.Duration `koanf:"restore_delay"`
	BackupDir    string        `koanf:"backup_dir"`
	LogoDir      string        `koanf:"logo_dir"`
	FontDir      string        `koanf:"font_dir"`

	// OutputFormat is jpeg, png or webp. Empty keeps the source format.
	OutputFormat string `koanf:"output_format"`
	JPEGQuality  int    `koanf:"jpeg_quality"`
}

// ScheduleConfig holds the cron trigger
type ScheduleConfig struct {
	Enabled   bool     `koanf:"enabled"`
	Cron      string   `koanf:"cron"`
	Libraries []string `koanf:"libraries"`
	Force     bool     `koanf:"force"`
	Timezone  string   `koanf:"timezone"`
}

// WebhookConfig holds the Plex webhook batching settings
type WebhookConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Window     time.Duration `koanf:"window"`
	RetryDelay time.Duration `koanf:"retry_delay"`
	Libraries  []string      `koanf:"libraries"`
}

// SettingsConfig locates the BadgerDB settings store
type SettingsConfig struct {
	// Path is the BadgerDB directory. Empty keeps settings in memory.
	Path string `koanf:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `koanf:"level"`  // trace, debug, info, warn, error
	Format string `koanf:"format"` // json, console
	Caller bool   `koanf:"caller"`
}

// SupervisorConfig tunes the suture service tree
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}
