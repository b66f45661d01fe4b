package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the relay.
// Values are loaded from environment variables; see printUsage() in the
// main command for the full list. The struct is built once at startup and
// never mutated afterwards.
type Config struct {
	// WebhookURL is the incoming-webhook endpoint. Required.
	WebhookURL string `json:"webhook_url"`

	// Message overrides; empty means "use the webhook's defaults".
	Channel         string `json:"channel,omitempty"`
	Username        string `json:"username,omitempty"`
	IconEmoji       string `json:"icon_emoji,omitempty"`
	EnvironmentName string `json:"environment_name,omitempty"`

	// TimeLocation is the IANA zone used for message timestamps.
	// "Local" (the default) uses the host zone.
	TimeLocation string `json:"time_location"`

	DeliveryTimeout    time.Duration `json:"-"`
	DeliveryTimeoutStr string        `json:"delivery_timeout"`

	HTTPAddr string `json:"http_addr"`

	HTTPShutdownTimeout    time.Duration `json:"-"`
	HTTPShutdownTimeoutStr string        `json:"http_shutdown_timeout"`

	MetricsEnabled bool   `json:"metrics_enabled"`
	MetricsPath    string `json:"metrics_path"`

	RedisAddr string `json:"redis_addr,omitempty"`

	AnalyticsWindow       time.Duration `json:"-"`
	AnalyticsWindowStr    string        `json:"analytics_window"`
	AnalyticsRetention    time.Duration `json:"-"`
	AnalyticsRetentionStr string        `json:"analytics_retention"`

	// BreakerThreshold: 0 disables the circuit breaker.
	BreakerThreshold   int           `json:"breaker_threshold"`
	BreakerCooldown    time.Duration `json:"-"`
	BreakerCooldownStr string        `json:"breaker_cooldown"`

	// HeartbeatCron: empty disables the heartbeat.
	HeartbeatCron     string `json:"heartbeat_cron,omitempty"`
	HeartbeatTimezone string `json:"heartbeat_timezone"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	cfg := Config{
		WebhookURL:             os.Getenv("WEBHOOK_URL"),
		Channel:                os.Getenv("WEBHOOK_CHANNEL"),
		Username:               os.Getenv("WEBHOOK_USERNAME"),
		IconEmoji:              os.Getenv("WEBHOOK_ICON_EMOJI"),
		EnvironmentName:        os.Getenv("ENVIRONMENT_NAME"),
		TimeLocation:           os.Getenv("TIME_LOCATION"),
		DeliveryTimeoutStr:     os.Getenv("DELIVERY_TIMEOUT"),
		HTTPAddr:               os.Getenv("HTTP_ADDR"),
		HTTPShutdownTimeoutStr: os.Getenv("HTTP_SHUTDOWN_TIMEOUT"),
		MetricsEnabled:         os.Getenv("METRICS_ENABLED") == "true",
		MetricsPath:            os.Getenv("METRICS_PATH"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		AnalyticsWindowStr:     os.Getenv("ANALYTICS_WINDOW"),
		AnalyticsRetentionStr:  os.Getenv("ANALYTICS_RETENTION"),
		BreakerCooldownStr:     os.Getenv("BREAKER_COOLDOWN"),
		HeartbeatCron:          os.Getenv("HEARTBEAT_CRON"),
		HeartbeatTimezone:      os.Getenv("HEARTBEAT_TZ"),
	}

	if thresholdStr := os.Getenv("BREAKER_THRESHOLD"); thresholdStr != "" {
		if n, err := strconv.Atoi(thresholdStr); err == nil && n >= 0 {
			cfg.BreakerThreshold = n
		} else {
			log.Printf("config: invalid BREAKER_THRESHOLD %q (must be a non-negative integer), breaker disabled", thresholdStr)
		}
	}

	// Support the PORT variable as fallback for HTTP_ADDR.
	if cfg.HTTPAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			cfg.HTTPAddr = ":" + port
		} else {
			cfg.HTTPAddr = ":8080"
		}
	}
	if cfg.TimeLocation == "" {
		cfg.TimeLocation = "Local"
	}
	if cfg.DeliveryTimeoutStr == "" {
		cfg.DeliveryTimeoutStr = "30s"
	}
	if cfg.HTTPShutdownTimeoutStr == "" {
		cfg.HTTPShutdownTimeoutStr = "10s"
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	if cfg.AnalyticsWindowStr == "" {
		cfg.AnalyticsWindowStr = "1m"
	}
	if cfg.AnalyticsRetentionStr == "" {
		cfg.AnalyticsRetentionStr = "24h"
	}
	if cfg.BreakerCooldownStr == "" {
		cfg.BreakerCooldownStr = "2m"
	}
	if cfg.HeartbeatTimezone == "" {
		cfg.HeartbeatTimezone = "UTC"
	}

	// Parse durations; validation is handled separately by Validate().
	if d, err := time.ParseDuration(cfg.DeliveryTimeoutStr); err == nil {
		cfg.DeliveryTimeout = d
	}
	if d, err := time.ParseDuration(cfg.HTTPShutdownTimeoutStr); err == nil {
		cfg.HTTPShutdownTimeout = d
	}
	if d, err := time.ParseDuration(cfg.AnalyticsWindowStr); err == nil {
		cfg.AnalyticsWindow = d
	}
	if d, err := time.ParseDuration(cfg.AnalyticsRetentionStr); err == nil {
		cfg.AnalyticsRetention = d
	}
	if d, err := time.ParseDuration(cfg.BreakerCooldownStr); err == nil {
		cfg.BreakerCooldown = d
	}

	return cfg
}

// Location resolves TimeLocation. Falls back to host-local time on error;
// Validate reports the error separately.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeLocation)
	if err != nil {
		return time.Local
	}
	return loc
}

// MaskedJSON returns the configuration as JSON with the webhook URL masked.
// Incoming-webhook URLs embed a credential, so they never go to logs whole.
func (c Config) MaskedJSON() ([]byte, error) {
	masked := c
	masked.WebhookURL = maskSecret(c.WebhookURL)
	return json.MarshalIndent(masked, "", "  ")
}

// maskSecret masks a secret value, preserving only the URI scheme if present.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	for _, scheme := range []string{"https://", "http://"} {
		if len(s) >= len(scheme) && s[:len(scheme)] == scheme {
			return scheme + "***"
		}
	}
	return "***"
}
