// Marquee - Rating Badge Overlays for Plex Posters
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/marquee/internal/badge"
	"github.com/tomtom215/marquee/internal/scheduler"
	"github.com/tomtom215/marquee/internal/validation"
)

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validatePlex(); err != nil {
		return err
	}

	if err := c.validateProviders(); err != nil {
		return err
	}

	if err := c.validateProcessing(); err != nil {
		return err
	}

	if err := c.validateStyle(); err != nil {
		return err
	}

	if err := c.validateSchedule(); err != nil {
		return err
	}

	if err := c.validateWebhook(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateSupervisor(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validatePlex requires a reachable-looking server URL. The token may be
// empty for servers that allow local network access without one.
func (c *Config) validatePlex() error {
	if c.Plex.URL == "" {
		return fmt.Errorf("PLEX_URL is required")
	}
	if err := validateHTTPURL(c.Plex.URL, "PLEX_URL"); err != nil {
		return err
	}
	if c.Plex.Timeout <= 0 {
		return fmt.Errorf("PLEX_TIMEOUT must be positive")
	}
	if c.Plex.PageSize < 1 || c.Plex.PageSize > 1000 {
		return fmt.Errorf("PLEX_PAGE_SIZE must be between 1 and 1000")
	}
	return nil
}

func (c *Config) validateProviders() error {
	for _, p := range []struct {
		name string
		cfg  ProviderConfig
	}{
		{"TMDB", c.Providers.TMDB},
		{"OMDB", c.Providers.OMDb},
		{"MDBLIST", c.Providers.MDBList},
	} {
		if p.cfg.BaseURL != "" {
			if err := validateAPIURL(p.cfg.BaseURL, p.name+"_BASE_URL"); err != nil {
				return err
			}
		}
		if p.cfg.Interval < 0 {
			return fmt.Errorf("%s_INTERVAL must not be negative", p.name)
		}
	}
	if c.Providers.Timeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive")
	}
	if c.Providers.CacheTTL < 0 {
		return fmt.Errorf("PROVIDER_CACHE_TTL must not be negative")
	}
	return nil
}

func (c *Config) validateProcessing() error {
	if c.Processing.ItemDelay < 0 {
		return fmt.Errorf("RATE_LIMIT_DELAY must not be negative")
	}
	if c.Processing.RestoreDelay < 0 {
		return fmt.Errorf("RESTORE_DELAY must not be negative")
	}
	if c.Processing.BackupDir == "" {
		return fmt.Errorf("BACKUP_DIR is required")
	}
	if c.Processing.OutputFormat != "" {
		if _, err := badge.ParseFormat(c.Processing.OutputFormat); err != nil {
			return fmt.Errorf("OUTPUT_FORMAT must be one of: jpeg, png, webp")
		}
	}
	if c.Processing.JPEGQuality < 1 || c.Processing.JPEGQuality > 100 {
		return fmt.Errorf("JPEG_QUALITY must be between 1 and 100")
	}
	return nil
}

// validateStyle checks the default badge style with the same rules the
// settings API applies, then converts it to catch unknown sources.
func (c *Config) validateStyle() error {
	if verr := validation.ValidateStruct(c.Style); verr != nil {
		return fmt.Errorf("style: %w", verr)
	}
	if _, err := c.Style.Style(); err != nil {
		return fmt.Errorf("style: %w", err)
	}
	return nil
}

func (c *Config) validateSchedule() error {
	if !c.Schedule.Enabled {
		return nil
	}
	if err := scheduler.Validate(c.Schedule.Cron); err != nil {
		return fmt.Errorf("SCHEDULE_CRON: %w", err)
	}
	if c.Schedule.Timezone != "" {
		if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
			return fmt.Errorf("SCHEDULE_TIMEZONE: %w", err)
		}
	}
	return nil
}

func (c *Config) validateWebhook() error {
	if !c.Webhook.Enabled {
		return nil
	}
	if c.Webhook.Window <= 0 {
		return fmt.Errorf("WEBHOOK_WINDOW must be positive")
	}
	if c.Webhook.RetryDelay <= 0 {
		return fmt.Errorf("WEBHOOK_RETRY_DELAY must be positive")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if !c.Server.RateLimitDisabled {
		if c.Server.RateLimitRequests < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
		}
		if c.Server.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
		}
	}
	return nil
}

func (c *Config) validateSupervisor() error {
	if c.Supervisor.FailureThreshold <= 0 {
		return fmt.Errorf("SUPERVISOR_FAILURE_THRESHOLD must be positive")
	}
	if c.Supervisor.ShutdownTimeout <= 0 {
		return fmt.Errorf("SUPERVISOR_SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if err := c.validateLogLevel(); err != nil {
		return err
	}
	return c.validateLogFormat()
}

// validateLogLevel validates the log level configuration
func (c *Config) validateLogLevel() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	return nil
}

// validateLogFormat validates the log format configuration
func (c *Config) validateLogFormat() error {
	if c.Logging.Format == "" {
		return nil
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
