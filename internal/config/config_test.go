package config

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every variable Load reads so ambient environment never
// leaks into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"WEBHOOK_URL", "WEBHOOK_CHANNEL", "WEBHOOK_USERNAME", "WEBHOOK_ICON_EMOJI",
		"ENVIRONMENT_NAME", "TIME_LOCATION", "DELIVERY_TIMEOUT",
		"HTTP_ADDR", "PORT", "HTTP_SHUTDOWN_TIMEOUT",
		"METRICS_ENABLED", "METRICS_PATH", "REDIS_ADDR",
		"ANALYTICS_WINDOW", "ANALYTICS_RETENTION",
		"BREAKER_THRESHOLD", "BREAKER_COOLDOWN",
		"HEARTBEAT_CRON", "HEARTBEAT_TZ",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.TimeLocation != "Local" {
		t.Errorf("TimeLocation = %q, want Local", cfg.TimeLocation)
	}
	if cfg.DeliveryTimeout != 30*time.Second {
		t.Errorf("DeliveryTimeout = %v, want 30s", cfg.DeliveryTimeout)
	}
	if cfg.HTTPShutdownTimeout != 10*time.Second {
		t.Errorf("HTTPShutdownTimeout = %v, want 10s", cfg.HTTPShutdownTimeout)
	}
	if cfg.MetricsEnabled {
		t.Error("metrics should default to disabled")
	}
	if cfg.MetricsPath != "/metrics" {
		t.Errorf("MetricsPath = %q", cfg.MetricsPath)
	}
	if cfg.AnalyticsWindow != time.Minute || cfg.AnalyticsRetention != 24*time.Hour {
		t.Errorf("analytics window/retention = %v/%v", cfg.AnalyticsWindow, cfg.AnalyticsRetention)
	}
	if cfg.BreakerThreshold != 0 {
		t.Errorf("BreakerThreshold = %d, want 0 (disabled)", cfg.BreakerThreshold)
	}
	if cfg.BreakerCooldown != 2*time.Minute {
		t.Errorf("BreakerCooldown = %v, want 2m", cfg.BreakerCooldown)
	}
	if cfg.HeartbeatCron != "" {
		t.Errorf("HeartbeatCron = %q, want empty (disabled)", cfg.HeartbeatCron)
	}
	if cfg.HeartbeatTimezone != "UTC" {
		t.Errorf("HeartbeatTimezone = %q, want UTC", cfg.HeartbeatTimezone)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEBHOOK_URL", "https://hooks.example.com/T000/B000/secret")
	t.Setenv("WEBHOOK_CHANNEL", "#ops")
	t.Setenv("WEBHOOK_USERNAME", "relay")
	t.Setenv("WEBHOOK_ICON_EMOJI", ":bell:")
	t.Setenv("ENVIRONMENT_NAME", "prod")
	t.Setenv("TIME_LOCATION", "Europe/Paris")
	t.Setenv("DELIVERY_TIMEOUT", "5s")
	t.Setenv("METRICS_ENABLED", "true")
	t.Setenv("BREAKER_THRESHOLD", "3")
	t.Setenv("HEARTBEAT_CRON", "*/5 * * * *")

	cfg := Load()

	if cfg.WebhookURL != "https://hooks.example.com/T000/B000/secret" {
		t.Errorf("WebhookURL = %q", cfg.WebhookURL)
	}
	if cfg.Channel != "#ops" || cfg.Username != "relay" || cfg.IconEmoji != ":bell:" {
		t.Errorf("overrides = %q/%q/%q", cfg.Channel, cfg.Username, cfg.IconEmoji)
	}
	if cfg.EnvironmentName != "prod" {
		t.Errorf("EnvironmentName = %q", cfg.EnvironmentName)
	}
	if cfg.DeliveryTimeout != 5*time.Second {
		t.Errorf("DeliveryTimeout = %v, want 5s", cfg.DeliveryTimeout)
	}
	if !cfg.MetricsEnabled {
		t.Error("METRICS_ENABLED=true should enable metrics")
	}
	if cfg.BreakerThreshold != 3 {
		t.Errorf("BreakerThreshold = %d, want 3", cfg.BreakerThreshold)
	}
	if cfg.Location().String() != "Europe/Paris" {
		t.Errorf("Location = %v", cfg.Location())
	}
}

func TestLoad_PortFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")

	if cfg := Load(); cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want :9090", cfg.HTTPAddr)
	}

	// HTTP_ADDR wins over PORT.
	t.Setenv("HTTP_ADDR", "127.0.0.1:8088")
	if cfg := Load(); cfg.HTTPAddr != "127.0.0.1:8088" {
		t.Errorf("HTTPAddr = %q, want 127.0.0.1:8088", cfg.HTTPAddr)
	}
}

func TestLoad_InvalidBreakerThresholdDisables(t *testing.T) {
	clearEnv(t)
	t.Setenv("BREAKER_THRESHOLD", "lots")

	if cfg := Load(); cfg.BreakerThreshold != 0 {
		t.Errorf("BreakerThreshold = %d, want 0", cfg.BreakerThreshold)
	}

	t.Setenv("BREAKER_THRESHOLD", "-2")
	if cfg := Load(); cfg.BreakerThreshold != 0 {
		t.Errorf("negative threshold should disable, got %d", cfg.BreakerThreshold)
	}
}

func TestMaskedJSON(t *testing.T) {
	cfg := Config{
		WebhookURL:   "https://hooks.example.com/T000/B000/secret-token",
		TimeLocation: "UTC",
	}

	data, err := cfg.MaskedJSON()
	if err != nil {
		t.Fatalf("MaskedJSON: %v", err)
	}
	if strings.Contains(string(data), "secret-token") {
		t.Error("webhook URL leaked into masked output")
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("masked output is not JSON: %v", err)
	}
	if decoded["webhook_url"] != "https://***" {
		t.Errorf("webhook_url = %v, want https://***", decoded["webhook_url"])
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"https://hooks.example.com/x", "https://***"},
		{"http://hooks.example.com/x", "http://***"},
		{"not-a-url-secret", "***"},
	}
	for _, tt := range tests {
		if got := maskSecret(tt.in); got != tt.want {
			t.Errorf("maskSecret(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
