package config

import (
	"fmt"
	"net/url"
	"time"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:", len(e))
	for _, err := range e {
		msg += "\n  - " + err.Error()
	}
	return msg
}

// Validate checks the configuration for errors.
// Returns nil if valid, or ValidationErrors if invalid.
func Validate(cfg Config) error {
	var errs ValidationErrors

	// WEBHOOK_URL is required and must be an absolute http(s) URL.
	if cfg.WebhookURL == "" {
		errs = append(errs, ValidationError{
			Field:   "WEBHOOK_URL",
			Message: "required",
		})
	} else if u, err := url.Parse(cfg.WebhookURL); err != nil {
		errs = append(errs, ValidationError{
			Field:   "WEBHOOK_URL",
			Message: fmt.Sprintf("invalid URL: %v", err),
		})
	} else if !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, ValidationError{
			Field:   "WEBHOOK_URL",
			Message: "must be an absolute http(s) URL",
		})
	}

	errs = append(errs, validateDuration("DELIVERY_TIMEOUT", cfg.DeliveryTimeoutStr)...)
	errs = append(errs, validateDuration("HTTP_SHUTDOWN_TIMEOUT", cfg.HTTPShutdownTimeoutStr)...)
	errs = append(errs, validateDuration("ANALYTICS_WINDOW", cfg.AnalyticsWindowStr)...)
	errs = append(errs, validateDuration("ANALYTICS_RETENTION", cfg.AnalyticsRetentionStr)...)
	errs = append(errs, validateDuration("BREAKER_COOLDOWN", cfg.BreakerCooldownStr)...)

	if cfg.AnalyticsWindow > 0 && cfg.AnalyticsRetention > 0 && cfg.AnalyticsRetention < cfg.AnalyticsWindow {
		errs = append(errs, ValidationError{
			Field:   "ANALYTICS_RETENTION",
			Message: "must be >= ANALYTICS_WINDOW",
		})
	}

	if _, err := time.LoadLocation(cfg.TimeLocation); err != nil {
		errs = append(errs, ValidationError{
			Field:   "TIME_LOCATION",
			Message: fmt.Sprintf("unknown location: %v", err),
		})
	}
	if cfg.HeartbeatCron != "" {
		if _, err := time.LoadLocation(cfg.HeartbeatTimezone); err != nil {
			errs = append(errs, ValidationError{
				Field:   "HEARTBEAT_TZ",
				Message: fmt.Sprintf("unknown location: %v", err),
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateDuration(field, value string) ValidationErrors {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return ValidationErrors{{Field: field, Message: fmt.Sprintf("invalid duration: %v", err)}}
	}
	if d <= 0 {
		return ValidationErrors{{Field: field, Message: "must be positive"}}
	}
	return nil
}
